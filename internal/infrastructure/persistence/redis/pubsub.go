package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/horses-for-courses/planner/internal/infrastructure/messaging"
)

// PubSub adapts a go-redis client to the transport used by messaging.RedisEventBus.
type PubSub struct {
	client *redis.Client
}

// NewPubSub creates a PubSub on top of a connected client.
func NewPubSub(client *Client) *PubSub {
	return &PubSub{client: client.Redis()}
}

var _ messaging.RedisClient = (*PubSub)(nil)

// Publish sends a message to channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message interface{}) error {
	if channel == "" {
		return ErrKeyEmpty
	}
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and forwards messages until ctx is done.
// The returned channel is closed when the subscription ends.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	if len(channels) == 0 {
		return nil, ErrKeyEmpty
	}

	sub := p.client.Subscribe(ctx, channels...)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	out := make(chan messaging.RedisMessage)
	go forward(ctx, sub, out)
	return out, nil
}

func forward(ctx context.Context, sub *redis.PubSub, out chan<- messaging.RedisMessage) {
	defer close(out)
	defer sub.Close()

	in := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
			case <-ctx.Done():
				return
			}
		}
	}
}
