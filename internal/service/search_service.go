package service

import (
	"context"
	"encoding/json"
	"time"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/search"
	"folder-explorer/pkg/apierror"
)

// SearchService answers name queries from the search index, with a
// read-through cache over normalized queries.
type SearchService struct {
	index    search.Index
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewSearchService(index search.Index, c cache.Cache, cacheTTL time.Duration) *SearchService {
	if cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}
	return &SearchService{index: index, cache: c, cacheTTL: cacheTTL}
}

func (s *SearchService) Search(ctx context.Context, query string) ([]search.Hit, error) {
	normalized := cache.NormalizeQuery(query)
	if normalized == "" {
		return nil, apierror.BadRequest("query is required", "q")
	}

	key := cache.KeySearch(normalized)
	cached, ok, err := s.cache.Get(ctx, key)
	if err == nil && ok {
		var hits []search.Hit
		if err := json.Unmarshal([]byte(cached), &hits); err == nil {
			return hits, nil
		}
	}

	hits, err := s.index.Search(ctx, normalized)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(hits); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.cacheTTL)
	}
	return hits, nil
}
