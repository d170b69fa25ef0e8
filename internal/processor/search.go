package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"folder-explorer/internal/event"
	"folder-explorer/internal/model"
	"folder-explorer/internal/search"
)

// The indexer looks entities up in the store before indexing so the index
// always reflects the authoritative name, not whatever the event carried.
type folderLookup interface {
	FindByID(ctx context.Context, folderID string) (model.Folder, error)
	FindAll(ctx context.Context) ([]model.Folder, error)
}

type fileLookup interface {
	FindByID(ctx context.Context, fileID string) (model.File, error)
	FindAll(ctx context.Context) ([]model.File, error)
}

// SearchProcessor handles search.* events against the name index.
type SearchProcessor struct {
	index   search.Index
	folders folderLookup
	files   fileLookup
}

func NewSearchProcessor(index search.Index, folders folderLookup, files fileLookup) *SearchProcessor {
	return &SearchProcessor{index: index, folders: folders, files: files}
}

func (p *SearchProcessor) Handle(ctx context.Context, env event.Envelope) error {
	switch env.Type {
	case event.TypeSearchIndexFolder:
		return p.handleIndexFolder(ctx, env)
	case event.TypeSearchIndexFile:
		return p.handleIndexFile(ctx, env)
	case event.TypeSearchRemoveFolder, event.TypeSearchRemoveFile:
		return p.handleRemove(ctx, env)
	case event.TypeSearchRebuildIndex:
		return p.handleRebuild(ctx, env)
	default:
		slog.Warn("search processor ignoring unknown event type", "type", env.Type)
		return nil
	}
}

func (p *SearchProcessor) handleIndexFolder(ctx context.Context, env event.Envelope) error {
	var payload event.SearchIndexFolderPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode search.index.folder payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	folder, err := p.folders.FindByID(ctx, payload.FolderID)
	if errors.Is(err, model.ErrFolderNotFound) {
		// Deleted before the event was processed; indexing it would resurrect
		// a ghost entry.
		slog.Info("folder gone before indexing, skipping", "folder_id", payload.FolderID)
		return nil
	}
	if err != nil {
		return err
	}

	return p.index.Add(ctx, search.EntityFolder, folder.ID, folder.Name)
}

func (p *SearchProcessor) handleIndexFile(ctx context.Context, env event.Envelope) error {
	var payload event.SearchIndexFilePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode search.index.file payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	file, err := p.files.FindByID(ctx, payload.FileID)
	if errors.Is(err, model.ErrFileNotFound) {
		slog.Info("file gone before indexing, skipping", "file_id", payload.FileID)
		return nil
	}
	if err != nil {
		return err
	}

	return p.index.Add(ctx, search.EntityFile, file.ID, file.Name)
}

func (p *SearchProcessor) handleRemove(ctx context.Context, env event.Envelope) error {
	var payload event.SearchRemovePayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode search.remove payload: %w", err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	return p.index.Remove(ctx, payload.Type, payload.ID, payload.Name)
}

// handleRebuild drops the index and reindexes every folder and file from the
// source of truth.
func (p *SearchProcessor) handleRebuild(ctx context.Context, env event.Envelope) error {
	var payload event.SearchRebuildIndexPayload
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return fmt.Errorf("decode search.rebuild.index payload: %w", err)
	}

	slog.Info("rebuilding search index", "reason", payload.Reason)

	if err := p.index.Clear(ctx); err != nil {
		return fmt.Errorf("clear index: %w", err)
	}

	folders, err := p.folders.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load folders for rebuild: %w", err)
	}
	for _, folder := range folders {
		if err := p.index.Add(ctx, search.EntityFolder, folder.ID, folder.Name); err != nil {
			return err
		}
	}

	files, err := p.files.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load files for rebuild: %w", err)
	}
	for _, file := range files {
		if err := p.index.Add(ctx, search.EntityFile, file.ID, file.Name); err != nil {
			return err
		}
	}

	slog.Info("search index rebuilt", "folders", len(folders), "files", len(files))
	return nil
}
