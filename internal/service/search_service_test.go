package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/search"
	"folder-explorer/pkg/apierror"
)

type stubIndex struct {
	hits     []search.Hit
	err      error
	searches int
}

func (i *stubIndex) Add(_ context.Context, _ string, _ string, _ string) error    { return nil }
func (i *stubIndex) Remove(_ context.Context, _ string, _ string, _ string) error { return nil }
func (i *stubIndex) Lookup(_ context.Context, _ string, _ string) ([]string, error) {
	return nil, nil
}
func (i *stubIndex) Clear(_ context.Context) error { return nil }

func (i *stubIndex) Search(_ context.Context, _ string) ([]search.Hit, error) {
	i.searches++
	return i.hits, i.err
}

func TestSearchService(t *testing.T) {
	t.Parallel()

	t.Run("rejects a blank query", func(t *testing.T) {
		svc := NewSearchService(&stubIndex{}, newMemCache(), time.Minute)

		_, err := svc.Search(context.Background(), "   ")
		var apiErr *apierror.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, "BAD_REQUEST", apiErr.Code)
	})

	t.Run("caches results under the normalized query", func(t *testing.T) {
		idx := &stubIndex{hits: []search.Hit{{ID: "f1", Name: "report", Type: "folder"}}}
		c := newMemCache()
		svc := NewSearchService(idx, c, time.Minute)
		ctx := context.Background()

		hits, err := svc.Search(ctx, "  Report ")
		require.NoError(t, err)
		require.Len(t, hits, 1)
		require.Equal(t, 1, idx.searches)

		ok, err := c.Exists(ctx, cache.KeySearch("report"))
		require.NoError(t, err)
		require.True(t, ok)

		again, err := svc.Search(ctx, "REPORT")
		require.NoError(t, err)
		require.Equal(t, hits, again)
		require.Equal(t, 1, idx.searches, "second query must be served from cache")
	})

	t.Run("index failure surfaces on a cold cache", func(t *testing.T) {
		idx := &stubIndex{err: errors.New("redis down")}
		svc := NewSearchService(idx, newMemCache(), time.Minute)

		_, err := svc.Search(context.Background(), "report")
		require.Error(t, err)
	})
}
