package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"folder-explorer/internal/metrics"
	"folder-explorer/internal/model"
)

// StatusStore is the persistence port for event status records.
type StatusStore interface {
	Create(ctx context.Context, record model.EventStatusRecord) error
	UpdateStatus(ctx context.Context, eventID string, status model.EventStatus, entityID string, errMsg string) error
	FindByEventID(ctx context.Context, eventID string) (model.EventStatusRecord, error)
	FindByEntityID(ctx context.Context, entityID string) ([]model.EventStatusRecord, error)
	FindPending(ctx context.Context) ([]model.EventStatusRecord, error)
	Stats(ctx context.Context) (model.EventStats, error)
	DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error)
}

// StatusChannel carries status transitions to connected clients. The Redis
// implementation lives in internal/notifier.
type StatusChannel interface {
	PublishStatus(ctx context.Context, update model.EventStatusUpdate) error
}

// StatusTracker is the persisted state machine for tracked events:
// pending -> processing -> completed | failed. Every transition written to
// storage is also published on the status channel. One shortcut is allowed:
// when the command side cannot publish the event at all, the record goes
// straight from pending to failed, since no worker will ever move it to
// processing.
type StatusTracker struct {
	store   StatusStore
	channel StatusChannel
	metrics *metrics.Metrics
}

func NewStatusTracker(store StatusStore, channel StatusChannel, m *metrics.Metrics) *StatusTracker {
	return &StatusTracker{store: store, channel: channel, metrics: m}
}

// Create records a new tracked event as PENDING and announces it.
func (t *StatusTracker) Create(ctx context.Context, eventID string, eventType string, metadata map[string]string) error {
	now := time.Now().UTC()
	record := model.EventStatusRecord{
		EventID:   eventID,
		EventType: eventType,
		Status:    model.EventStatusPending,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.store.Create(ctx, record); err != nil {
		return fmt.Errorf("track event %s: %w", eventID, err)
	}

	t.announce(ctx, model.EventStatusUpdate{
		EventID:   eventID,
		Status:    model.EventStatusPending,
		Timestamp: now,
	})
	return nil
}

// UpdateStatus transitions a tracked event and announces the transition.
func (t *StatusTracker) UpdateStatus(ctx context.Context, eventID string, status model.EventStatus, entityID string, errMsg string) error {
	if err := t.store.UpdateStatus(ctx, eventID, status, entityID, errMsg); err != nil {
		return fmt.Errorf("transition event %s to %s: %w", eventID, status, err)
	}

	t.announce(ctx, model.EventStatusUpdate{
		EventID:   eventID,
		Status:    status,
		EntityID:  entityID,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (t *StatusTracker) GetStatus(ctx context.Context, eventID string) (model.EventStatusRecord, error) {
	return t.store.FindByEventID(ctx, eventID)
}

func (t *StatusTracker) GetByEntityID(ctx context.Context, entityID string) ([]model.EventStatusRecord, error) {
	return t.store.FindByEntityID(ctx, entityID)
}

func (t *StatusTracker) GetPendingEvents(ctx context.Context) ([]model.EventStatusRecord, error) {
	return t.store.FindPending(ctx)
}

func (t *StatusTracker) GetStats(ctx context.Context) (model.EventStats, error) {
	return t.store.Stats(ctx)
}

// DeleteOldEvents prunes terminal records older than daysOld days.
func (t *StatusTracker) DeleteOldEvents(ctx context.Context, daysOld int) (int64, error) {
	if daysOld <= 0 {
		daysOld = 7
	}
	deleted, err := t.store.DeleteOld(ctx, time.Duration(daysOld)*24*time.Hour)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		slog.Info("pruned old event statuses", "deleted", deleted, "days_old", daysOld)
	}
	return deleted, nil
}

// announce publishes a transition on the status channel. The channel is a
// derived notification path: failures are logged, never escalated, since a
// disconnected client re-fetches status through the query API.
func (t *StatusTracker) announce(ctx context.Context, update model.EventStatusUpdate) {
	t.metrics.StatusTransitions.WithLabelValues(string(update.Status)).Inc()
	if err := t.channel.PublishStatus(ctx, update); err != nil {
		slog.Warn("failed to publish status update", "event_id", update.EventID, "status", update.Status, "error", err)
	}
}
