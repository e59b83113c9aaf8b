package notify

import (
	"context"
	"encoding/json"
	"sync"

	"parkeasy/internal/metrics"
	"parkeasy/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const messageSlotsChanged = "slots-changed"

// message is the wire payload. Redis pub/sub echoes messages back to the
// publisher, so each notifier tags its origin and receivers drop their own.
type message struct {
	Type   string `json:"type"`
	Origin string `json:"origin"`
}

// RedisNotifier broadcasts over a shared pub/sub channel.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	origin  string
	limiter *rate.Limiter
	logger  *zerolog.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
}

func NewRedisNotifier(client *redis.Client, limiter *rate.Limiter, logger *zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: models.UpdatesChannel,
		origin:  uuid.NewString(),
		limiter: limiter,
		logger:  logger,
	}
}

// Broadcast publishes one slots-changed message. Failures are logged and
// swallowed; the triggering mutation already succeeded.
func (n *RedisNotifier) Broadcast(ctx context.Context) {
	payload, err := json.Marshal(message{Type: messageSlotsChanged, Origin: n.origin})
	if err != nil {
		return
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		if n.logger != nil {
			n.logger.Warn().Err(err).Msg("broadcast failed")
		}
		return
	}
	metrics.IncBroadcast("sent")
}

// Subscribe starts a goroutine that refreshes through handler whenever
// another view broadcasts. Bursts are coalesced by the rate limiter.
func (n *RedisNotifier) Subscribe(ctx context.Context, handler func()) {
	n.mu.Lock()
	n.pubsub = n.client.Subscribe(ctx, n.channel)
	ch := n.pubsub.Channel()
	n.mu.Unlock()

	go func() {
		for msg := range ch {
			var m message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				continue
			}
			if m.Origin == n.origin {
				continue
			}
			if n.limiter != nil && !n.limiter.Allow() {
				continue
			}
			metrics.IncBroadcast("received")
			handler()
		}
	}()
}

func (n *RedisNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pubsub != nil {
		if err := n.pubsub.Close(); err != nil {
			return err
		}
		n.pubsub = nil
	}
	return n.client.Close()
}
