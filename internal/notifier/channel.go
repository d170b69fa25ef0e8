package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"folder-explorer/internal/model"
)

// ChannelName is the pub/sub channel every status transition is published on.
const ChannelName = "events:status"

// RedisStatusChannel carries EventStatusUpdate messages between the worker
// (publisher) and the API servers (subscribers), independent of the broker
// queues.
type RedisStatusChannel struct {
	client *redis.Client
}

func NewRedisStatusChannel(client *redis.Client) *RedisStatusChannel {
	return &RedisStatusChannel{client: client}
}

func (c *RedisStatusChannel) PublishStatus(ctx context.Context, update model.EventStatusUpdate) error {
	raw, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("marshal status update: %w", err)
	}
	if err := c.client.Publish(ctx, ChannelName, raw).Err(); err != nil {
		return fmt.Errorf("publish status update: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded status updates. The channel closes
// when the context is canceled. Undecodable messages are logged and skipped.
func (c *RedisStatusChannel) Subscribe(ctx context.Context) <-chan model.EventStatusUpdate {
	pubsub := c.client.Subscribe(ctx, ChannelName)
	updates := make(chan model.EventStatusUpdate, 64)

	go func() {
		defer close(updates)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var update model.EventStatusUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					slog.Warn("dropping malformed status update", "error", err)
					continue
				}
				select {
				case updates <- update:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return updates
}
