package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/event"
	"folder-explorer/internal/service"
)

// CacheProcessor handles cache.* events. Unlike the other processors, cache
// operations are its primary purpose, so their failures escalate into the
// retry policy instead of being logged away.
type CacheProcessor struct {
	cache cache.Cache
	tree  *service.TreeService
}

func NewCacheProcessor(c cache.Cache, tree *service.TreeService) *CacheProcessor {
	return &CacheProcessor{cache: c, tree: tree}
}

func (p *CacheProcessor) Handle(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeCacheInvalidate:
		return p.handleInvalidate(ctx, env)
	case event.TypeCacheWarm:
		return p.handleWarm(ctx, env)
	case event.TypeCacheClearAll:
		return p.handleClearAll(ctx, env)
	default:
		slog.Warn("cache processor ignoring unknown event type", "type", env.Type)
		return nil
	}
}

func (p *CacheProcessor) handleInvalidate(ctx context.Context, env event.Envelope) error {
	var payload event.CacheInvalidatePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode cache.invalidate payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if payload.Key != "" {
		if err := p.cache.Del(ctx, payload.Key); err != nil {
			return err
		}
		slog.Debug("cache key invalidated", "key", payload.Key, "reason", payload.Reason)
		return nil
	}

	deleted, err := p.cache.ClearPattern(ctx, payload.Pattern)
	if err != nil {
		return err
	}
	slog.Debug("cache pattern invalidated", "pattern", payload.Pattern, "deleted", deleted, "reason", payload.Reason)
	return nil
}

func (p *CacheProcessor) handleWarm(ctx context.Context, env event.Envelope) error {
	var payload event.CacheWarmPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode cache.warm payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	switch payload.Type {
	case event.WarmFolderTree:
		_, err := p.tree.WarmTree(ctx)
		return err
	case event.WarmFolderChildren:
		_, err := p.tree.WarmChildren(ctx, payload.FolderID)
		return err
	case event.WarmPopularFolders:
		return p.tree.WarmPopularFolders(ctx)
	default:
		return fmt.Errorf("unknown warm type %q", payload.Type)
	}
}

func (p *CacheProcessor) handleClearAll(ctx context.Context, env event.Envelope) error {
	var payload event.CacheClearAllPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode cache.clear.all payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	deleted, err := p.cache.ClearPattern(ctx, "*")
	if err != nil {
		return err
	}
	slog.Info("cache flushed", "deleted", deleted, "reason", payload.Reason)
	return nil
}
