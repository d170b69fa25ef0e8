package processor

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"folder-explorer/internal/event"
	"folder-explorer/internal/metrics"
	"folder-explorer/internal/model"
	"folder-explorer/internal/search"
	"folder-explorer/internal/service"
)

type memCache struct {
	entries map[string]string
	delErr  error
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.entries[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	if c.delErr != nil {
		return c.delErr
	}
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *memCache) ClearPattern(_ context.Context, pattern string) (int, error) {
	deleted := 0
	for key := range c.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(c.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func (c *memCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

// memIndex keys id sets by "type:normalizedName", mirroring the Redis layout.
type memIndex struct {
	sets map[string]map[string]bool
}

func newMemIndex() *memIndex {
	return &memIndex{sets: map[string]map[string]bool{}}
}

func (i *memIndex) key(entityType string, name string) string {
	return entityType + ":" + search.NormalizeName(name)
}

func (i *memIndex) Add(_ context.Context, entityType string, id string, name string) error {
	key := i.key(entityType, name)
	if i.sets[key] == nil {
		i.sets[key] = map[string]bool{}
	}
	i.sets[key][id] = true
	return nil
}

func (i *memIndex) Remove(_ context.Context, entityType string, id string, name string) error {
	key := i.key(entityType, name)
	delete(i.sets[key], id)
	if len(i.sets[key]) == 0 {
		delete(i.sets, key)
	}
	return nil
}

func (i *memIndex) Lookup(_ context.Context, entityType string, name string) ([]string, error) {
	ids := []string{}
	for id := range i.sets[i.key(entityType, name)] {
		ids = append(ids, id)
	}
	return ids, nil
}

func (i *memIndex) Search(_ context.Context, query string) ([]search.Hit, error) {
	query = search.NormalizeName(query)
	hits := []search.Hit{}
	for key, ids := range i.sets {
		entityType, name, _ := strings.Cut(key, ":")
		if !strings.Contains(name, query) {
			continue
		}
		for id := range ids {
			hits = append(hits, search.Hit{ID: id, Name: name, Type: entityType})
		}
	}
	return hits, nil
}

func (i *memIndex) Clear(_ context.Context) error {
	i.sets = map[string]map[string]bool{}
	return nil
}

type memFolderStore struct {
	folders []model.Folder
	findErr error
}

func (s *memFolderStore) Create(_ context.Context, folder model.Folder) error {
	s.folders = append(s.folders, folder)
	return nil
}

func (s *memFolderStore) Update(_ context.Context, folder model.Folder) error {
	for idx := range s.folders {
		if s.folders[idx].ID == folder.ID {
			s.folders[idx] = folder
			return nil
		}
	}
	return model.ErrFolderNotFound
}

func (s *memFolderStore) Delete(_ context.Context, folderID string) error {
	for idx := range s.folders {
		if s.folders[idx].ID == folderID {
			s.folders = append(s.folders[:idx], s.folders[idx+1:]...)
			return nil
		}
	}
	return model.ErrFolderNotFound
}

func (s *memFolderStore) FindByID(_ context.Context, folderID string) (model.Folder, error) {
	for _, folder := range s.folders {
		if folder.ID == folderID {
			return folder, nil
		}
	}
	return model.Folder{}, model.ErrFolderNotFound
}

func (s *memFolderStore) FindAll(_ context.Context) ([]model.Folder, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.folders, nil
}

func (s *memFolderStore) FindChildren(_ context.Context, parentID string) ([]model.Folder, error) {
	children := []model.Folder{}
	for _, folder := range s.folders {
		if folder.ParentID != nil && *folder.ParentID == parentID {
			children = append(children, folder)
		}
	}
	return children, nil
}

func (s *memFolderStore) FindRoots(_ context.Context) ([]model.Folder, error) {
	roots := []model.Folder{}
	for _, folder := range s.folders {
		if folder.ParentID == nil {
			roots = append(roots, folder)
		}
	}
	return roots, nil
}

type memFileStore struct {
	files []model.File
}

func (s *memFileStore) FindByID(_ context.Context, fileID string) (model.File, error) {
	for _, file := range s.files {
		if file.ID == fileID {
			return file, nil
		}
	}
	return model.File{}, model.ErrFileNotFound
}

func (s *memFileStore) FindAll(_ context.Context) ([]model.File, error) {
	return s.files, nil
}

type memStatusStore struct {
	records map[string]*model.EventStatusRecord
}

func newMemStatusStore() *memStatusStore {
	return &memStatusStore{records: map[string]*model.EventStatusRecord{}}
}

func (s *memStatusStore) Create(_ context.Context, record model.EventStatusRecord) error {
	if _, ok := s.records[record.EventID]; ok {
		return model.ErrEventAlreadyExists
	}
	s.records[record.EventID] = &record
	return nil
}

func (s *memStatusStore) UpdateStatus(_ context.Context, eventID string, status model.EventStatus, entityID string, errMsg string) error {
	record, ok := s.records[eventID]
	if !ok {
		return model.ErrEventNotFound
	}
	record.Status = status
	record.EntityID = entityID
	record.Error = errMsg
	if status.Terminal() {
		now := time.Now().UTC()
		record.CompletedAt = &now
	}
	return nil
}

func (s *memStatusStore) FindByEventID(_ context.Context, eventID string) (model.EventStatusRecord, error) {
	record, ok := s.records[eventID]
	if !ok {
		return model.EventStatusRecord{}, model.ErrEventNotFound
	}
	return *record, nil
}

func (s *memStatusStore) FindByEntityID(_ context.Context, _ string) ([]model.EventStatusRecord, error) {
	return nil, nil
}

func (s *memStatusStore) FindPending(_ context.Context) ([]model.EventStatusRecord, error) {
	return nil, nil
}

func (s *memStatusStore) Stats(_ context.Context) (model.EventStats, error) {
	return model.EventStats{}, nil
}

func (s *memStatusStore) DeleteOld(_ context.Context, _ time.Duration) (int64, error) {
	return 0, nil
}

type nopChannel struct{}

func (nopChannel) PublishStatus(_ context.Context, _ model.EventStatusUpdate) error { return nil }

func newTestTracker(store service.StatusStore) *service.StatusTracker {
	return service.NewStatusTracker(store, nopChannel{}, metrics.New(prometheus.NewRegistry()))
}

func mustEnvelope(t *testing.T, eventType event.Type, payload any) event.Envelope {
	t.Helper()
	env, err := event.New(eventType, payload)
	require.NoError(t, err)
	return env
}

func rawEnvelope(eventType event.Type, raw string) event.Envelope {
	return event.Envelope{Type: eventType, Version: event.Version, Payload: json.RawMessage(raw)}
}

func strPtr(s string) *string { return &s }
