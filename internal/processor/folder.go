package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/event"
	"folder-explorer/internal/model"
	"folder-explorer/internal/service"
)

// FolderProcessor handles folder.* events: cache invalidation, full tree
// rewarm, and status transitions for tracked events. All handlers are
// idempotent; the rewarm recomputes from the store so reapplying it is
// harmless.
type FolderProcessor struct {
	cache   cache.Cache
	tree    *service.TreeService
	tracker *service.StatusTracker
}

func NewFolderProcessor(c cache.Cache, tree *service.TreeService, tracker *service.StatusTracker) *FolderProcessor {
	return &FolderProcessor{cache: c, tree: tree, tracker: tracker}
}

func (p *FolderProcessor) Handle(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeFolderCreated:
		return p.handleCreated(ctx, env)
	case event.TypeFolderUpdated:
		return p.handleUpdated(ctx, env)
	case event.TypeFolderDeleted:
		return p.handleDeleted(ctx, env)
	case event.TypeFolderMoved:
		return p.handleMoved(ctx, env)
	default:
		slog.Warn("folder processor ignoring unknown event type", "type", env.Type)
		return nil
	}
}

func (p *FolderProcessor) handleCreated(ctx context.Context, env event.Envelope) error {
	var payload event.FolderCreatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode folder.created payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	eventID := env.EventID()
	if eventID != "" {
		if err := p.tracker.UpdateStatus(ctx, eventID, model.EventStatusProcessing, "", ""); err != nil {
			slog.Warn("failed to mark event processing", "event_id", eventID, "error", err)
		}
	}

	p.invalidate(ctx, cache.KeyFolderTree)
	if payload.ParentID != nil {
		p.invalidate(ctx, cache.KeyFolderChildren(*payload.ParentID))
	}

	// The rewarm is the primary purpose of this handler: its failure drives
	// the retry policy and the FAILED transition.
	if _, err := p.tree.WarmTree(ctx); err != nil {
		if eventID != "" {
			if terr := p.tracker.UpdateStatus(ctx, eventID, model.EventStatusFailed, "", err.Error()); terr != nil {
				slog.Error("failed to fail tracked event", "event_id", eventID, "error", terr)
			}
		}
		return fmt.Errorf("rewarm folder tree: %w", err)
	}

	if eventID != "" {
		if err := p.tracker.UpdateStatus(ctx, eventID, model.EventStatusCompleted, payload.FolderID, ""); err != nil {
			slog.Error("failed to complete tracked event", "event_id", eventID, "error", err)
		}
	}
	return nil
}

func (p *FolderProcessor) handleUpdated(ctx context.Context, env event.Envelope) error {
	var payload event.FolderUpdatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode folder.updated payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	p.invalidate(ctx, cache.KeyFolderTree, cache.KeyFolder(payload.FolderID))
	if payload.PreviousParentID != nil {
		p.invalidate(ctx, cache.KeyFolderChildren(*payload.PreviousParentID))
	}
	if payload.ParentID != nil && !sameParent(payload.ParentID, payload.PreviousParentID) {
		p.invalidate(ctx, cache.KeyFolderChildren(*payload.ParentID))
	}
	return nil
}

func (p *FolderProcessor) handleDeleted(ctx context.Context, env event.Envelope) error {
	var payload event.FolderDeletedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode folder.deleted payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	keys := []string{
		cache.KeyFolderTree,
		cache.KeyFolder(payload.FolderID),
		cache.KeyFolderChildren(payload.FolderID),
	}
	if payload.ParentID != nil {
		keys = append(keys, cache.KeyFolderChildren(*payload.ParentID))
	}
	p.invalidate(ctx, keys...)
	return nil
}

func (p *FolderProcessor) handleMoved(ctx context.Context, env event.Envelope) error {
	var payload event.FolderMovedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode folder.moved payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	p.invalidate(ctx, cache.KeyFolderTree, cache.KeyFolder(payload.FolderID))
	if payload.PreviousParentID != nil {
		p.invalidate(ctx, cache.KeyFolderChildren(*payload.PreviousParentID))
	}
	if payload.NewParentID != nil {
		p.invalidate(ctx, cache.KeyFolderChildren(*payload.NewParentID))
	}
	return nil
}

// invalidate deletes keys best-effort: the cache is reconstructable, so a
// failed invalidation is logged, not escalated, and TTL bounds the staleness.
func (p *FolderProcessor) invalidate(ctx context.Context, keys ...string) {
	if err := p.cache.Del(ctx, keys...); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}

func sameParent(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
