package event

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFolderPayloadValidation(t *testing.T) {
	t.Parallel()

	t.Run("created requires folder id and name", func(t *testing.T) {
		require.Error(t, FolderCreatedPayload{Name: "docs"}.Validate())
		require.Error(t, FolderCreatedPayload{FolderID: "f1"}.Validate())
		require.NoError(t, FolderCreatedPayload{FolderID: "f1", Name: "docs"}.Validate())
	})

	t.Run("name at the length limit passes, one over fails", func(t *testing.T) {
		atLimit := strings.Repeat("a", 255)
		require.NoError(t, FolderCreatedPayload{FolderID: "f1", Name: atLimit}.Validate())
		require.Error(t, FolderCreatedPayload{FolderID: "f1", Name: atLimit + "a"}.Validate())
	})

	t.Run("updated allows empty name for pure moves", func(t *testing.T) {
		parent := "p1"
		require.NoError(t, FolderUpdatedPayload{FolderID: "f1", ParentID: &parent}.Validate())
		require.Error(t, FolderUpdatedPayload{Name: "renamed"}.Validate())
	})

	t.Run("moved requires only the folder id", func(t *testing.T) {
		require.NoError(t, FolderMovedPayload{FolderID: "f1"}.Validate())
		require.Error(t, FolderMovedPayload{}.Validate())
	})
}

func TestFilePayloadValidation(t *testing.T) {
	t.Parallel()

	t.Run("created rejects negative size", func(t *testing.T) {
		payload := FileCreatedPayload{FileID: "a", Name: "a.txt", FolderID: "f1", Size: -1}
		require.Error(t, payload.Validate())

		payload.Size = 0
		require.NoError(t, payload.Validate())
	})

	t.Run("deleted requires id, name and folder", func(t *testing.T) {
		require.NoError(t, FileDeletedPayload{FileID: "a", Name: "a.txt", FolderID: "f1"}.Validate())
		require.Error(t, FileDeletedPayload{FileID: "a", Name: "a.txt"}.Validate())
	})
}

func TestCachePayloadValidation(t *testing.T) {
	t.Parallel()

	t.Run("invalidate requires exactly one of key or pattern", func(t *testing.T) {
		require.Error(t, CacheInvalidatePayload{}.Validate())
		require.Error(t, CacheInvalidatePayload{Key: "folder:tree", Pattern: "folder:*"}.Validate())
		require.NoError(t, CacheInvalidatePayload{Key: "folder:tree"}.Validate())
		require.NoError(t, CacheInvalidatePayload{Pattern: "folder:*"}.Validate())
	})

	t.Run("warm children requires a folder id", func(t *testing.T) {
		require.NoError(t, CacheWarmPayload{Type: WarmFolderTree}.Validate())
		require.NoError(t, CacheWarmPayload{Type: WarmPopularFolders}.Validate())
		require.Error(t, CacheWarmPayload{Type: WarmFolderChildren}.Validate())
		require.NoError(t, CacheWarmPayload{Type: WarmFolderChildren, FolderID: "f1"}.Validate())
		require.Error(t, CacheWarmPayload{Type: "everything"}.Validate())
	})

	t.Run("clear all requires a reason", func(t *testing.T) {
		require.Error(t, CacheClearAllPayload{Reason: "  "}.Validate())
		require.NoError(t, CacheClearAllPayload{Reason: "schema migration"}.Validate())
	})
}

func TestSearchPayloadValidation(t *testing.T) {
	t.Parallel()

	t.Run("remove accepts only folder or file types", func(t *testing.T) {
		require.NoError(t, SearchRemovePayload{ID: "x", Name: "docs", Type: "folder"}.Validate())
		require.NoError(t, SearchRemovePayload{ID: "x", Name: "a.txt", Type: "file"}.Validate())
		require.Error(t, SearchRemovePayload{ID: "x", Name: "docs", Type: "directory"}.Validate())
	})

	t.Run("index file requires all three ids", func(t *testing.T) {
		require.NoError(t, SearchIndexFilePayload{FileID: "a", Name: "a.txt", FolderID: "f1"}.Validate())
		require.Error(t, SearchIndexFilePayload{FileID: "a", Name: "a.txt"}.Validate())
	})
}
