// Package notify carries the best-effort "slots changed" broadcast between
// customer and admin views. Delivery is an enhancement: when the broadcast
// backend is unavailable the feature silently disables itself and
// reconciliation falls back to the next manual refresh.
package notify

import (
	"context"
	"time"

	"parkeasy/internal/config"
	"parkeasy/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

// New builds the notifier for a view. Redis is used when configured and
// reachable; otherwise the returned notifier is a silent no-op.
func New(cfg config.RedisConfig, view config.ViewConfig, logger *zerolog.Logger) domain.Notifier {
	if cfg.Address == "" {
		return Noop{}
	}

	client := NewRedisClient(cfg)

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		if logger != nil {
			logger.Debug().Err(err).Msg("broadcast backend unreachable, cross-view updates disabled")
		}
		_ = client.Close()
		return Noop{}
	}

	limiter := rate.NewLimiter(rate.Limit(view.RefreshRPS), view.RefreshBurst)
	return NewRedisNotifier(client, limiter, logger)
}

// Noop disables cross-view updates.
type Noop struct{}

func (Noop) Broadcast(ctx context.Context)                 {}
func (Noop) Subscribe(ctx context.Context, handler func()) {}
func (Noop) Close() error                                  { return nil }
