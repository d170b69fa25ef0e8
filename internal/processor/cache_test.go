package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/event"
	"folder-explorer/internal/model"
	"folder-explorer/internal/service"
)

func newCacheFixture(store *memFolderStore) (*CacheProcessor, *memCache) {
	c := newMemCache()
	tree := service.NewTreeService(store, c, time.Minute, time.Minute)
	return NewCacheProcessor(c, tree), c
}

func TestCacheProcessorInvalidate(t *testing.T) {
	t.Parallel()

	t.Run("single key", func(t *testing.T) {
		p, c := newCacheFixture(&memFolderStore{})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, cache.KeyFolderTree, "stale", time.Minute))
		require.NoError(t, c.Set(ctx, cache.KeyFolder("f1"), "keep", time.Minute))

		env := mustEnvelope(t, event.TypeCacheInvalidate, event.CacheInvalidatePayload{Key: cache.KeyFolderTree})
		require.NoError(t, p.Handle(ctx, env))

		_, ok, err := c.Get(ctx, cache.KeyFolderTree)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = c.Get(ctx, cache.KeyFolder("f1"))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("pattern sweeps matching keys only", func(t *testing.T) {
		p, c := newCacheFixture(&memFolderStore{})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, "folder:f1:children", "stale", time.Minute))
		require.NoError(t, c.Set(ctx, "folder:f2:children", "stale", time.Minute))
		require.NoError(t, c.Set(ctx, "search:report", "keep", time.Minute))

		env := mustEnvelope(t, event.TypeCacheInvalidate, event.CacheInvalidatePayload{Pattern: "folder:*"})
		require.NoError(t, p.Handle(ctx, env))

		require.Len(t, c.entries, 1)
		_, ok, err := c.Get(ctx, "search:report")
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("reapplying a redelivered invalidation is harmless", func(t *testing.T) {
		p, c := newCacheFixture(&memFolderStore{})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, cache.KeyFolderTree, "stale", time.Minute))
		require.NoError(t, c.Set(ctx, cache.KeyFolder("f1"), "keep", time.Minute))

		env := mustEnvelope(t, event.TypeCacheInvalidate, event.CacheInvalidatePayload{Key: cache.KeyFolderTree})
		require.NoError(t, p.Handle(ctx, env))
		require.NoError(t, p.Handle(ctx, env))

		_, ok, err := c.Get(ctx, cache.KeyFolderTree)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = c.Get(ctx, cache.KeyFolder("f1"))
		require.NoError(t, err)
		require.True(t, ok, "a second delivery must not touch unrelated keys")
	})

	t.Run("cache failure escalates into the retry policy", func(t *testing.T) {
		p, c := newCacheFixture(&memFolderStore{})
		c.delErr = errors.New("redis down")

		env := mustEnvelope(t, event.TypeCacheInvalidate, event.CacheInvalidatePayload{Key: cache.KeyFolderTree})
		require.Error(t, p.Handle(context.Background(), env))
	})

	t.Run("key and pattern together is invalid", func(t *testing.T) {
		p, _ := newCacheFixture(&memFolderStore{})

		env := mustEnvelope(t, event.TypeCacheInvalidate, event.CacheInvalidatePayload{Key: "a", Pattern: "b*"})
		require.Error(t, p.Handle(context.Background(), env))
	})
}

func TestCacheProcessorWarm(t *testing.T) {
	t.Parallel()

	t.Run("folder tree", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{{ID: "f1", Name: "docs"}}}
		p, c := newCacheFixture(store)
		ctx := context.Background()

		env := mustEnvelope(t, event.TypeCacheWarm, event.CacheWarmPayload{Type: event.WarmFolderTree})
		require.NoError(t, p.Handle(ctx, env))

		ok, err := c.Exists(ctx, cache.KeyFolderTree)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("folder children", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{
			{ID: "p1", Name: "parent"},
			{ID: "c1", Name: "child", ParentID: strPtr("p1")},
		}}
		p, c := newCacheFixture(store)
		ctx := context.Background()

		env := mustEnvelope(t, event.TypeCacheWarm, event.CacheWarmPayload{Type: event.WarmFolderChildren, FolderID: "p1"})
		require.NoError(t, p.Handle(ctx, env))

		ok, err := c.Exists(ctx, cache.KeyFolderChildren("p1"))
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("warm failure escalates", func(t *testing.T) {
		store := &memFolderStore{findErr: errors.New("connection refused")}
		p, _ := newCacheFixture(store)

		env := mustEnvelope(t, event.TypeCacheWarm, event.CacheWarmPayload{Type: event.WarmFolderTree})
		require.Error(t, p.Handle(context.Background(), env))
	})
}

func TestCacheProcessorClearAll(t *testing.T) {
	t.Parallel()

	t.Run("flushes everything", func(t *testing.T) {
		p, c := newCacheFixture(&memFolderStore{})
		ctx := context.Background()

		require.NoError(t, c.Set(ctx, cache.KeyFolderTree, "x", time.Minute))
		require.NoError(t, c.Set(ctx, "search:report", "y", time.Minute))

		env := mustEnvelope(t, event.TypeCacheClearAll, event.CacheClearAllPayload{Reason: "schema migration"})
		require.NoError(t, p.Handle(ctx, env))
		require.Empty(t, c.entries)
	})

	t.Run("rejects a missing reason", func(t *testing.T) {
		p, _ := newCacheFixture(&memFolderStore{})

		env := mustEnvelope(t, event.TypeCacheClearAll, event.CacheClearAllPayload{})
		require.Error(t, p.Handle(context.Background(), env))
	})
}
