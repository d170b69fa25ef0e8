package service

import (
	"context"
	"path"
	"sync"
	"time"

	"folder-explorer/internal/model"
)

// memCache is an in-memory Cache used across the service tests. TTLs are
// recorded but never enforced; expiry behavior belongs to the Redis layer.
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
	sets    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	c.ttls[key] = ttl
	c.sets++
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *memCache) ClearPattern(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
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
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

// memFolderStore backs TreeService tests with a flat folder list.
type memFolderStore struct {
	folders  []model.Folder
	findErr  error
	findAlls int
}

func (s *memFolderStore) Create(_ context.Context, folder model.Folder) error {
	s.folders = append(s.folders, folder)
	return nil
}

func (s *memFolderStore) Update(_ context.Context, folder model.Folder) error {
	for i := range s.folders {
		if s.folders[i].ID == folder.ID {
			s.folders[i] = folder
			return nil
		}
	}
	return model.ErrFolderNotFound
}

func (s *memFolderStore) Delete(_ context.Context, folderID string) error {
	for i := range s.folders {
		if s.folders[i].ID == folderID {
			s.folders = append(s.folders[:i], s.folders[i+1:]...)
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
	s.findAlls++
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

func strPtr(s string) *string { return &s }
