package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"folder-explorer/internal/broker"
	"folder-explorer/internal/event"
	"folder-explorer/internal/metrics"
)

// retryCountHeader carries the in-band retry counter across republishes.
const retryCountHeader = "x-retry-count"

// Handler processes one delivered envelope. Returning an error drives the
// bounded retry-then-discard policy; handlers must be idempotent because
// delivery is at-least-once.
type Handler func(ctx context.Context, env event.Envelope) error

type Config struct {
	Queue      string
	Handler    Handler
	Prefetch   int
	MaxRetries int
	RetryDelay time.Duration
}

// Dispatcher is the per-queue message pump: manual acknowledgment, bounded
// concurrency via prefetch, retry-by-republish, reconnect on channel loss.
type Dispatcher struct {
	broker  *broker.Broker
	cfg     Config
	metrics *metrics.Metrics

	inflight sync.WaitGroup
}

func NewDispatcher(b *broker.Broker, cfg Config, m *metrics.Metrics) *Dispatcher {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	return &Dispatcher{broker: b, cfg: cfg, metrics: m}
}

// Run consumes the queue until the context is canceled. When the broker
// closes the delivery channel it reconnects and resumes; unacknowledged
// messages are redelivered by the broker to the new consumer.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if err := d.consumeOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			slog.Warn("consumer loop interrupted, reconnecting", "queue", d.cfg.Queue, "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func (d *Dispatcher) consumeOnce(ctx context.Context) error {
	ch, err := d.broker.Channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.Qos(d.cfg.Prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(d.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	slog.Info("consumer started", "queue", d.cfg.Queue, "prefetch", d.cfg.Prefetch)

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			d.inflight.Add(1)
			go func() {
				defer d.inflight.Done()
				d.handle(ctx, ch, delivery)
			}()
		}
	}
}

// Wait blocks until every in-flight handler has finished. The worker bounds
// it with the shutdown timeout; handlers still running at that point are
// abandoned and their messages redelivered after reconnect.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, pub broker.Channel, delivery amqp.Delivery) {
	var env event.Envelope
	if err := json.Unmarshal(delivery.Body, &env); err != nil {
		// Poison message: requeueing an unparsable payload would loop forever.
		slog.Error("dropping unparsable message", "queue", d.cfg.Queue, "error", err)
		d.metrics.MessagesConsumed.WithLabelValues(d.cfg.Queue, metrics.OutcomePoison).Inc()
		_ = delivery.Ack(false)
		return
	}

	// Shutdown does not cancel handlers mid-flight: they run to completion
	// within the drain window or are abandoned with the process.
	started := time.Now()
	err := d.cfg.Handler(context.WithoutCancel(ctx), env)
	d.metrics.ProcessingDuration.WithLabelValues(d.cfg.Queue).Observe(time.Since(started).Seconds())

	if err == nil {
		d.metrics.MessagesConsumed.WithLabelValues(d.cfg.Queue, metrics.OutcomeOK).Inc()
		_ = delivery.Ack(false)
		return
	}

	retryCount := headerInt(delivery.Headers, retryCountHeader)
	if retryCount >= d.cfg.MaxRetries {
		// Retries exhausted: ack and log. No dead-letter queue is wired up,
		// so the message is lost past this point.
		slog.Error("message discarded after max retries",
			"queue", d.cfg.Queue, "type", env.Type, "retries", retryCount, "error", err)
		d.metrics.MessagesConsumed.WithLabelValues(d.cfg.Queue, metrics.OutcomeDeadLetter).Inc()
		_ = delivery.Ack(false)
		return
	}

	slog.Warn("handler failed, scheduling retry",
		"queue", d.cfg.Queue, "type", env.Type, "retry", retryCount+1, "error", err)
	d.metrics.MessagesConsumed.WithLabelValues(d.cfg.Queue, metrics.OutcomeRetried).Inc()
	d.republish(ctx, pub, delivery, retryCount+1)
}

// republish sends the same message body back to its original exchange and
// routing key with the incremented retry counter, after the retry delay.
// This appends the retry behind newer messages instead of blocking the queue
// head, trading per-queue FIFO for liveness. The original stays unacked
// (holding a prefetch slot) until the republish lands; if the republish
// cannot happen the original is requeued so the message is never lost short
// of max retries.
func (d *Dispatcher) republish(ctx context.Context, pub broker.Channel, delivery amqp.Delivery, retryCount int) {
	select {
	case <-ctx.Done():
		slog.Warn("shutdown during retry delay, requeueing message",
			"queue", d.cfg.Queue, "routing_key", delivery.RoutingKey, "retry", retryCount)
		_ = delivery.Nack(false, true)
		return
	case <-time.After(d.cfg.RetryDelay):
	}

	headers := amqp.Table{}
	for k, v := range delivery.Headers {
		headers[k] = v
	}
	headers[retryCountHeader] = int32(retryCount)

	err := pub.PublishWithContext(ctx, delivery.Exchange, delivery.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Headers:      headers,
		Body:         delivery.Body,
	})
	if err != nil {
		slog.Error("failed to republish for retry, requeueing original",
			"queue", d.cfg.Queue, "routing_key", delivery.RoutingKey, "retry", retryCount, "error", err)
		_ = delivery.Nack(false, true)
		return
	}
	_ = delivery.Ack(false)
}

func headerInt(headers amqp.Table, key string) int {
	switch v := headers[key].(type) {
	case int:
		return v
	case int8:
		return int(v)
	case int16:
		return int(v)
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
