package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/event"
	"folder-explorer/internal/search"
)

// FileProcessor handles file.* events: it invalidates the owning folder's
// list caches and keeps the name index in step with file mutations.
type FileProcessor struct {
	cache cache.Cache
	index search.Index
}

func NewFileProcessor(c cache.Cache, index search.Index) *FileProcessor {
	return &FileProcessor{cache: c, index: index}
}

func (p *FileProcessor) Handle(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeFileCreated:
		return p.handleCreated(ctx, env)
	case event.TypeFileUpdated:
		return p.handleUpdated(ctx, env)
	case event.TypeFileDeleted:
		return p.handleDeleted(ctx, env)
	default:
		slog.Warn("file processor ignoring unknown event type", "type", env.Type)
		return nil
	}
}

func (p *FileProcessor) handleCreated(ctx context.Context, env event.Envelope) error {
	var payload event.FileCreatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode file.created payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	p.invalidateFolder(ctx, payload.FolderID)

	if err := p.index.Add(ctx, search.EntityFile, payload.FileID, payload.Name); err != nil {
		return fmt.Errorf("index file %s: %w", payload.FileID, err)
	}
	return nil
}

func (p *FileProcessor) handleUpdated(ctx context.Context, env event.Envelope) error {
	var payload event.FileUpdatedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode file.updated payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if payload.FolderID != "" {
		p.invalidateFolder(ctx, payload.FolderID)
	}
	if payload.PreviousFolderID != "" && payload.PreviousFolderID != payload.FolderID {
		p.invalidateFolder(ctx, payload.PreviousFolderID)
	}

	if payload.Name != "" {
		if err := p.index.Add(ctx, search.EntityFile, payload.FileID, payload.Name); err != nil {
			return fmt.Errorf("reindex file %s: %w", payload.FileID, err)
		}
	}
	return nil
}

func (p *FileProcessor) handleDeleted(ctx context.Context, env event.Envelope) error {
	var payload event.FileDeletedPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode file.deleted payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	p.invalidateFolder(ctx, payload.FolderID)

	if err := p.index.Remove(ctx, search.EntityFile, payload.FileID, payload.Name); err != nil {
		return fmt.Errorf("remove file %s from index: %w", payload.FileID, err)
	}
	return nil
}

func (p *FileProcessor) invalidateFolder(ctx context.Context, folderID string) {
	keys := []string{cache.KeyFolderFiles(folderID), cache.KeyFolderChildren(folderID)}
	if err := p.cache.Del(ctx, keys...); err != nil {
		slog.Warn("cache invalidation failed", "keys", keys, "error", err)
	}
}
