package broker

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// EventBus is the publish/subscribe half of the broker: a shared
// append/broadcast channel reachable by every server instance. Delivery is
// at-least-once with per-publisher ordering only; no global order.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error
}

// RedisEventBus implements EventBus on top of Redis pub/sub.
type RedisEventBus struct {
	rdb *redis.Client
}

func NewRedisEventBus(rdb *redis.Client) *RedisEventBus {
	return &RedisEventBus{rdb: rdb}
}

func (b *RedisEventBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.rdb.Publish(ctx, channel, payload).Err()
}

// Subscribe starts a background goroutine feeding every message on the
// channel to handler. It returns once the subscription is established; the
// loop exits when ctx is cancelled.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string, handler func(payload []byte)) error {
	pubsub := b.rdb.Subscribe(ctx, channel)
	// Force the SUBSCRIBE round-trip so a dead Redis surfaces here, not
	// silently inside the goroutine.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}

	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}
