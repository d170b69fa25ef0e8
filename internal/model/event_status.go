package model

import "time"

type EventStatus string

const (
	EventStatusPending    EventStatus = "pending"
	EventStatusProcessing EventStatus = "processing"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusFailed     EventStatus = "failed"
)

// Terminal reports whether the status is a final state. CompletedAt is set
// on a record if and only if its status is terminal.
func (s EventStatus) Terminal() bool {
	return s == EventStatusCompleted || s == EventStatusFailed
}

type EventStatusRecord struct {
	ID          int64             `json:"id"`
	EventID     string            `json:"eventId"`
	EventType   string            `json:"eventType"`
	Status      EventStatus       `json:"status"`
	EntityID    string            `json:"entityId,omitempty"`
	Error       string            `json:"error,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	CompletedAt *time.Time        `json:"completedAt,omitempty"`
}

// EventStatusUpdate is the message published on the status channel for every
// status transition and rebroadcast to websocket clients.
type EventStatusUpdate struct {
	EventID   string      `json:"eventId"`
	Status    EventStatus `json:"status"`
	EntityID  string      `json:"entityId,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventStats is the per-status record count returned by the tracker.
type EventStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}
