package session

import (
	"context"
	"sync/atomic"
	"time"

	"parkeasy/internal/domain"
	"parkeasy/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStore serves session reads and writes from a durable primary and
// falls back to an in-memory store when the primary errors, so the current
// run keeps its login even with a broken disk. The broadcast subscription
// goroutine clears sessions through here, so the down-state is atomic.
type FailoverStore struct {
	primary   domain.SessionStore
	fallback  domain.SessionStore
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64 // unix nanos of the last failed primary attempt
}

func NewFailoverStore(primary, fallback domain.SessionStore, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *FailoverStore) markDown() {
	s.isDown.Store(true)
	s.lastCheck.Store(time.Now().UnixNano())
}

func (s *FailoverStore) recoveryDue() bool {
	return time.Since(time.Unix(0, s.lastCheck.Load())) > time.Minute
}

func (s *FailoverStore) Load(ctx context.Context) (*models.Session, error) {
	if !s.isDown.Load() {
		session, err := s.primary.Load(ctx)
		if err == nil {
			return session, nil
		}
		s.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
		s.markDown()
	}

	// Try to recover after 1 minute
	if s.isDown.Load() && s.recoveryDue() {
		session, err := s.primary.Load(ctx)
		if err == nil {
			s.isDown.Store(false)
			return session, nil
		}
		s.lastCheck.Store(time.Now().UnixNano())
	}

	return s.fallback.Load(ctx)
}

func (s *FailoverStore) Save(ctx context.Context, session models.Session) error {
	if !s.isDown.Load() {
		err := s.primary.Save(ctx, session)
		if err == nil {
			// Keep the fallback warm so a later primary failure still reads
			// the current session.
			_ = s.fallback.Save(ctx, session)
			return nil
		}
		s.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
		s.markDown()
	}

	return s.fallback.Save(ctx, session)
}

func (s *FailoverStore) Clear(ctx context.Context) error {
	if !s.isDown.Load() {
		err := s.primary.Clear(ctx)
		if err == nil {
			_ = s.fallback.Clear(ctx)
			return nil
		}
		s.logger.Error().Err(err).Msg("Primary session store failed, falling back to memory")
		s.markDown()
	}

	return s.fallback.Clear(ctx)
}
