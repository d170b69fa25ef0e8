package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	reconnectBaseDelay = 100 * time.Millisecond
	reconnectMaxDelay  = 2 * time.Second
)

// Broker owns the single AMQP connection for a process. It is constructed
// once at startup, shared by reference, and closed once at shutdown.
type Broker struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
}

func Connect(ctx context.Context, url string) (*Broker, error) {
	b := &Broker{url: url}
	if err := b.reconnect(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Channel returns a fresh channel, redialing the connection if it has been
// closed. Callers own the returned channel and must close it.
func (b *Broker) Channel(ctx context.Context) (*amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil || b.conn.IsClosed() {
		if err := b.reconnectLocked(ctx); err != nil {
			return nil, err
		}
	}

	ch, err := b.conn.Channel()
	if err != nil {
		// The connection may have died between the check and the open.
		if err := b.reconnectLocked(ctx); err != nil {
			return nil, err
		}
		ch, err = b.conn.Channel()
		if err != nil {
			return nil, fmt.Errorf("open channel: %w", err)
		}
	}
	return ch, nil
}

func (b *Broker) reconnect(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reconnectLocked(ctx)
}

// reconnectLocked dials until it succeeds or the context is canceled, backing
// off exponentially up to reconnectMaxDelay per attempt.
func (b *Broker) reconnectLocked(ctx context.Context) error {
	delay := reconnectBaseDelay
	for attempt := 1; ; attempt++ {
		conn, err := amqp.Dial(b.url)
		if err == nil {
			b.conn = conn
			if attempt > 1 {
				slog.Info("broker reconnected", "attempts", attempt)
			}
			return nil
		}

		slog.Warn("broker dial failed", "attempt", attempt, "retry_in", delay, "error", err)
		select {
		case <-ctx.Done():
			return fmt.Errorf("dial broker: %w", ctx.Err())
		case <-time.After(delay):
		}

		delay *= 2
		if delay > reconnectMaxDelay {
			delay = reconnectMaxDelay
		}
	}
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil || b.conn.IsClosed() {
		return nil
	}
	return b.conn.Close()
}
