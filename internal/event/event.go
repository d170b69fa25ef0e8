package event

import (
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	TypeFolderCreated Type = "folder.created"
	TypeFolderUpdated Type = "folder.updated"
	TypeFolderDeleted Type = "folder.deleted"
	TypeFolderMoved   Type = "folder.moved"

	TypeFileCreated Type = "file.created"
	TypeFileUpdated Type = "file.updated"
	TypeFileDeleted Type = "file.deleted"

	TypeCacheInvalidate Type = "cache.invalidate"
	TypeCacheWarm       Type = "cache.warm"
	TypeCacheClearAll   Type = "cache.clear.all"

	TypeSearchIndexFolder  Type = "search.index.folder"
	TypeSearchIndexFile    Type = "search.index.file"
	TypeSearchRemoveFolder Type = "search.remove.folder"
	TypeSearchRemoveFile   Type = "search.remove.file"
	TypeSearchRebuildIndex Type = "search.rebuild.index"
)

// Metadata keys carried in the envelope. Timestamp and publishedBy are
// stamped by the publisher and always overwrite caller-supplied values.
const (
	MetaEventID       = "eventId"
	MetaCorrelationID = "correlationId"
	MetaUserID        = "userId"
	MetaSource        = "source"
	MetaTimestamp     = "timestamp"
	MetaPublishedBy   = "publishedBy"
)

const Version = "1.0"

// Envelope is the wire format for every message on the broker. Envelopes are
// immutable once published.
type Envelope struct {
	Type      Type              `json:"type"`
	Version   string            `json:"version"`
	Payload   json.RawMessage   `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// New builds an envelope for the given type, marshaling the payload. The
// payload must satisfy its schema; callers validate before publishing.
func New(eventType Type, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return Envelope{
		Type:      eventType,
		Version:   Version,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]string{},
	}, nil
}

// WithMetadata returns a copy of the envelope with the given metadata key set.
func (e Envelope) WithMetadata(key string, value string) Envelope {
	meta := make(map[string]string, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// EventID returns the tracked event id stamped into metadata, if any.
func (e Envelope) EventID() string {
	return e.Metadata[MetaEventID]
}
