package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/model"
)

func TestBuildTree(t *testing.T) {
	t.Parallel()

	t.Run("assigns levels from roots down", func(t *testing.T) {
		folders := []model.Folder{
			{ID: "root", Name: "root"},
			{ID: "docs", Name: "docs", ParentID: strPtr("root")},
			{ID: "reports", Name: "reports", ParentID: strPtr("docs")},
			{ID: "pics", Name: "pics", ParentID: strPtr("root")},
		}

		tree := BuildTree(folders)

		require.Len(t, tree, 1)
		require.Equal(t, "root", tree[0].ID)
		require.Equal(t, 0, tree[0].Level)
		require.Len(t, tree[0].Children, 2)

		for _, child := range tree[0].Children {
			require.Equal(t, 1, child.Level)
		}
		docs := tree[0].Children[0]
		require.Equal(t, "docs", docs.ID)
		require.Len(t, docs.Children, 1)
		require.Equal(t, 2, docs.Children[0].Level)
	})

	t.Run("treats folders with missing parents as roots", func(t *testing.T) {
		folders := []model.Folder{
			{ID: "orphan", Name: "orphan", ParentID: strPtr("gone")},
			{ID: "top", Name: "top"},
		}

		tree := BuildTree(folders)

		require.Len(t, tree, 2)
		for _, root := range tree {
			require.Equal(t, 0, root.Level)
		}
	})

	t.Run("empty input yields an empty tree", func(t *testing.T) {
		require.Empty(t, BuildTree(nil))
	})
}

func TestTreeServiceGetTree(t *testing.T) {
	t.Parallel()

	t.Run("cache miss loads from the store and populates the cache", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{{ID: "f1", Name: "docs"}}}
		c := newMemCache()
		svc := NewTreeService(store, c, time.Minute, time.Minute)

		tree, err := svc.GetTree(context.Background())
		require.NoError(t, err)
		require.Len(t, tree, 1)
		require.Equal(t, 1, store.findAlls)

		cached, ok, err := c.Get(context.Background(), cache.KeyFolderTree)
		require.NoError(t, err)
		require.True(t, ok)

		var fromCache []*model.TreeNode
		require.NoError(t, json.Unmarshal([]byte(cached), &fromCache))
		require.Equal(t, tree, fromCache)
	})

	t.Run("cache hit never touches the store", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{{ID: "f1", Name: "docs"}}}
		c := newMemCache()
		svc := NewTreeService(store, c, time.Minute, time.Minute)

		_, err := svc.GetTree(context.Background())
		require.NoError(t, err)

		_, err = svc.GetTree(context.Background())
		require.NoError(t, err)
		require.Equal(t, 1, store.findAlls)
	})

	t.Run("store failure surfaces on a cold cache", func(t *testing.T) {
		store := &memFolderStore{findErr: errors.New("connection refused")}
		svc := NewTreeService(store, newMemCache(), time.Minute, time.Minute)

		_, err := svc.GetTree(context.Background())
		require.Error(t, err)
	})
}

func TestTreeServiceWarm(t *testing.T) {
	t.Parallel()

	t.Run("rewarm overwrites a stale cached tree", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{{ID: "f1", Name: "docs"}}}
		c := newMemCache()
		svc := NewTreeService(store, c, time.Minute, time.Minute)

		_, err := svc.WarmTree(context.Background())
		require.NoError(t, err)

		require.NoError(t, store.Create(context.Background(), model.Folder{ID: "f2", Name: "pics"}))
		tree, err := svc.WarmTree(context.Background())
		require.NoError(t, err)
		require.Len(t, tree, 2)

		fresh, err := svc.GetTree(context.Background())
		require.NoError(t, err)
		require.Len(t, fresh, 2)
	})

	t.Run("popular folders warms every root's children", func(t *testing.T) {
		store := &memFolderStore{folders: []model.Folder{
			{ID: "r1", Name: "r1"},
			{ID: "r2", Name: "r2"},
			{ID: "c1", Name: "c1", ParentID: strPtr("r1")},
		}}
		c := newMemCache()
		svc := NewTreeService(store, c, time.Minute, time.Minute)

		require.NoError(t, svc.WarmPopularFolders(context.Background()))

		for _, root := range []string{"r1", "r2"} {
			ok, err := c.Exists(context.Background(), cache.KeyFolderChildren(root))
			require.NoError(t, err)
			require.True(t, ok, "children of %s should be cached", root)
		}
	})
}
