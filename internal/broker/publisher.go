package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"folder-explorer/internal/event"
)

// Channel is the slice of amqp.Channel the publisher needs. Tests swap in a
// recording fake.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange string, key string, mandatory bool, immediate bool, msg amqp.Publishing) error
}

// Publisher resolves each envelope's route and writes it to the broker as a
// persistent JSON message. A publish failure surfaces to the caller; command
// handlers decide whether to proceed degraded.
type Publisher struct {
	ch          Channel
	publishedBy string
}

func NewPublisher(ch Channel, publishedBy string) *Publisher {
	return &Publisher{ch: ch, publishedBy: publishedBy}
}

func (p *Publisher) Publish(ctx context.Context, env event.Envelope) error {
	route, known := event.RouteFor(env.Type)
	if !known {
		slog.Warn("unknown event type, using default route",
			"type", env.Type, "exchange", route.Exchange, "routing_key", route.RoutingKey)
	}

	env = p.stamp(env)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", env.Type, err)
	}

	err = p.ch.PublishWithContext(ctx, route.Exchange, route.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s/%s: %w", env.Type, route.Exchange, route.RoutingKey, err)
	}

	slog.Debug("event published", "type", env.Type, "exchange", route.Exchange, "routing_key", route.RoutingKey)
	return nil
}

// PublishBatch publishes every envelope in order, stopping at the first
// failure. An empty batch is a no-op.
func (p *Publisher) PublishBatch(ctx context.Context, envs []event.Envelope) error {
	for _, env := range envs {
		if err := p.Publish(ctx, env); err != nil {
			return err
		}
	}
	return nil
}

// stamp merges publisher metadata over the caller's: caller keys win except
// timestamp and publishedBy, which are always overwritten.
func (p *Publisher) stamp(env event.Envelope) event.Envelope {
	meta := make(map[string]string, len(env.Metadata)+2)
	for k, v := range env.Metadata {
		meta[k] = v
	}
	meta[event.MetaTimestamp] = time.Now().UTC().Format(time.RFC3339Nano)
	meta[event.MetaPublishedBy] = p.publishedBy
	env.Metadata = meta

	if env.Timestamp.IsZero() {
		env.Timestamp = time.Now().UTC()
	}
	return env
}
