package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folder-explorer/internal/model"
)

type EventStatusRepository struct {
	pool *pgxpool.Pool
}

func NewEventStatusRepository(pool *pgxpool.Pool) *EventStatusRepository {
	return &EventStatusRepository{pool: pool}
}

func (r *EventStatusRepository) Create(ctx context.Context, record model.EventStatusRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO event_statuses (event_id, event_type, status, metadata, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.EventID, record.EventType, record.Status, record.Metadata,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEventAlreadyExists
		}
		return fmt.Errorf("create event status: %w", err)
	}
	return nil
}

// UpdateStatus transitions a record. completedAt is set exactly when the new
// status is terminal.
func (r *EventStatusRepository) UpdateStatus(ctx context.Context, eventID string, status model.EventStatus, entityID string, errMsg string) error {
	now := time.Now().UTC()
	var completedAt *time.Time
	if status.Terminal() {
		completedAt = &now
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE event_statuses
		 SET status = $2,
		     entity_id = NULLIF($3, ''),
		     error = NULLIF($4, ''),
		     updated_at = $5,
		     completed_at = $6
		 WHERE event_id = $1`,
		eventID, status, entityID, errMsg, now, completedAt)
	if err != nil {
		return fmt.Errorf("update event status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrEventNotFound
	}
	return nil
}

func (r *EventStatusRepository) FindByEventID(ctx context.Context, eventID string) (model.EventStatusRecord, error) {
	record, err := r.scanOne(r.pool.QueryRow(ctx, selectColumns+` WHERE event_id = $1`, eventID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.EventStatusRecord{}, model.ErrEventNotFound
	}
	if err != nil {
		return model.EventStatusRecord{}, fmt.Errorf("find event status: %w", err)
	}
	return record, nil
}

func (r *EventStatusRepository) FindByEntityID(ctx context.Context, entityID string) ([]model.EventStatusRecord, error) {
	rows, err := r.pool.Query(ctx,
		selectColumns+` WHERE entity_id = $1 ORDER BY created_at DESC`, entityID)
	if err != nil {
		return nil, fmt.Errorf("query event statuses by entity: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

// FindPending returns records still in flight, oldest first.
func (r *EventStatusRepository) FindPending(ctx context.Context) ([]model.EventStatusRecord, error) {
	rows, err := r.pool.Query(ctx,
		selectColumns+` WHERE status IN ('pending', 'processing') ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query pending event statuses: %w", err)
	}
	defer rows.Close()

	return r.scanAll(rows)
}

func (r *EventStatusRepository) Stats(ctx context.Context) (model.EventStats, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM event_statuses GROUP BY status`)
	if err != nil {
		return model.EventStats{}, fmt.Errorf("query event stats: %w", err)
	}
	defer rows.Close()

	var stats model.EventStats
	for rows.Next() {
		var status model.EventStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return model.EventStats{}, fmt.Errorf("scan event stats: %w", err)
		}
		switch status {
		case model.EventStatusPending:
			stats.Pending = count
		case model.EventStatusProcessing:
			stats.Processing = count
		case model.EventStatusCompleted:
			stats.Completed = count
		case model.EventStatusFailed:
			stats.Failed = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

// DeleteOld bulk-deletes terminal records older than the cutoff and reports
// how many were removed.
func (r *EventStatusRepository) DeleteOld(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM event_statuses
		 WHERE status IN ('completed', 'failed') AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old event statuses: %w", err)
	}
	return tag.RowsAffected(), nil
}

const selectColumns = `SELECT id, event_id, event_type, status,
	COALESCE(entity_id, ''), COALESCE(error, ''), COALESCE(metadata, '{}'::jsonb),
	created_at, updated_at, completed_at
	FROM event_statuses`

func (r *EventStatusRepository) scanOne(row pgx.Row) (model.EventStatusRecord, error) {
	var record model.EventStatusRecord
	err := row.Scan(&record.ID, &record.EventID, &record.EventType, &record.Status,
		&record.EntityID, &record.Error, &record.Metadata,
		&record.CreatedAt, &record.UpdatedAt, &record.CompletedAt)
	return record, err
}

func (r *EventStatusRepository) scanAll(rows pgx.Rows) ([]model.EventStatusRecord, error) {
	records := make([]model.EventStatusRecord, 0)
	for rows.Next() {
		record, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event status: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func isUniqueViolation(err error) bool {
	// 23505 is the Postgres unique_violation code.
	var pgErr interface{ SQLState() string }
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
