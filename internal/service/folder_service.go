package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"folder-explorer/internal/event"
	"folder-explorer/internal/model"
	"folder-explorer/pkg/apierror"
)

// EventPublisher is the broker port used by command handlers.
type EventPublisher interface {
	Publish(ctx context.Context, env event.Envelope) error
	PublishBatch(ctx context.Context, envs []event.Envelope) error
}

// FolderService implements the folder write path: commit to the store, then
// publish events. The two steps are not atomic; a publish failure after a
// committed write leaves derived caches stale until their TTL (accepted).
type FolderService struct {
	folders   FolderStore
	publisher EventPublisher
	tracker   *StatusTracker
}

func NewFolderService(folders FolderStore, publisher EventPublisher, tracker *StatusTracker) *FolderService {
	return &FolderService{folders: folders, publisher: publisher, tracker: tracker}
}

type CreateFolderRequest struct {
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	CreatedBy string  `json:"createdBy,omitempty"`
}

// CreateFolder is the only tracked command: it records a PENDING status under
// a fresh event id and returns that id so the caller can observe completion.
func (s *FolderService) CreateFolder(ctx context.Context, req CreateFolderRequest) (model.Folder, string, error) {
	name, err := normalizeFolderName(req.Name)
	if err != nil {
		return model.Folder{}, "", err
	}

	if req.ParentID != nil {
		if _, err := s.folders.FindByID(ctx, *req.ParentID); err != nil {
			return model.Folder{}, "", err
		}
	}

	now := time.Now().UTC()
	folder := model.Folder{
		ID:        uuid.NewString(),
		Name:      name,
		ParentID:  req.ParentID,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.folders.Create(ctx, folder); err != nil {
		return model.Folder{}, "", err
	}

	eventID := uuid.NewString()
	if err := s.tracker.Create(ctx, eventID, string(event.TypeFolderCreated), map[string]string{
		"folderId": folder.ID,
	}); err != nil {
		// The folder exists; tracking is secondary. The client still gets
		// the entity, just without an observable event id.
		slog.Error("failed to create event status record", "event_id", eventID, "error", err)
		eventID = ""
	}

	created, err := event.New(event.TypeFolderCreated, event.FolderCreatedPayload{
		FolderID:  folder.ID,
		Name:      folder.Name,
		ParentID:  folder.ParentID,
		CreatedBy: folder.CreatedBy,
	})
	if err != nil {
		return folder, eventID, nil
	}
	if eventID != "" {
		created = created.WithMetadata(event.MetaEventID, eventID)
	}
	if folder.CreatedBy != "" {
		created = created.WithMetadata(event.MetaUserID, folder.CreatedBy)
	}

	index, _ := event.New(event.TypeSearchIndexFolder, event.SearchIndexFolderPayload{
		FolderID: folder.ID,
		Name:     folder.Name,
	})

	s.publishDegraded(ctx, eventID, created, index)
	return folder, eventID, nil
}

type UpdateFolderRequest struct {
	Name      string  `json:"name,omitempty"`
	ParentID  *string `json:"parentId,omitempty"`
	UpdatedBy string  `json:"updatedBy,omitempty"`
}

func (s *FolderService) UpdateFolder(ctx context.Context, folderID string, req UpdateFolderRequest) (model.Folder, error) {
	folder, err := s.folders.FindByID(ctx, folderID)
	if err != nil {
		return model.Folder{}, err
	}

	previousParentID := folder.ParentID
	previousName := folder.Name

	if req.Name != "" {
		name, err := normalizeFolderName(req.Name)
		if err != nil {
			return model.Folder{}, err
		}
		folder.Name = name
	}
	if req.ParentID != nil {
		if _, err := s.folders.FindByID(ctx, *req.ParentID); err != nil {
			return model.Folder{}, err
		}
		folder.ParentID = req.ParentID
	}
	folder.UpdatedAt = time.Now().UTC()

	if err := s.folders.Update(ctx, folder); err != nil {
		return model.Folder{}, err
	}

	updated, err := event.New(event.TypeFolderUpdated, event.FolderUpdatedPayload{
		FolderID:         folder.ID,
		Name:             folder.Name,
		ParentID:         folder.ParentID,
		PreviousParentID: previousParentID,
		UpdatedBy:        req.UpdatedBy,
	})
	if err != nil {
		return folder, nil
	}

	envelopes := []event.Envelope{updated}
	if folder.Name != previousName {
		remove, _ := event.New(event.TypeSearchRemoveFolder, event.SearchRemovePayload{
			ID:   folder.ID,
			Name: previousName,
			Type: "folder",
		})
		index, _ := event.New(event.TypeSearchIndexFolder, event.SearchIndexFolderPayload{
			FolderID: folder.ID,
			Name:     folder.Name,
		})
		envelopes = append(envelopes, remove, index)
	}

	s.publishDegraded(ctx, "", envelopes...)
	return folder, nil
}

func (s *FolderService) MoveFolder(ctx context.Context, folderID string, newParentID *string, movedBy string) (model.Folder, error) {
	folder, err := s.folders.FindByID(ctx, folderID)
	if err != nil {
		return model.Folder{}, err
	}

	if newParentID != nil {
		if *newParentID == folderID {
			return model.Folder{}, apierror.BadRequest("folder cannot be its own parent", "parentId")
		}
		if _, err := s.folders.FindByID(ctx, *newParentID); err != nil {
			return model.Folder{}, err
		}
	}

	previousParentID := folder.ParentID
	folder.ParentID = newParentID
	folder.UpdatedAt = time.Now().UTC()

	if err := s.folders.Update(ctx, folder); err != nil {
		return model.Folder{}, err
	}

	moved, err := event.New(event.TypeFolderMoved, event.FolderMovedPayload{
		FolderID:         folder.ID,
		PreviousParentID: previousParentID,
		NewParentID:      newParentID,
		MovedBy:          movedBy,
	})
	if err != nil {
		return folder, nil
	}

	s.publishDegraded(ctx, "", moved)
	return folder, nil
}

func (s *FolderService) DeleteFolder(ctx context.Context, folderID string, deletedBy string) error {
	folder, err := s.folders.FindByID(ctx, folderID)
	if err != nil {
		return err
	}

	if err := s.folders.Delete(ctx, folderID); err != nil {
		return err
	}

	deleted, err := event.New(event.TypeFolderDeleted, event.FolderDeletedPayload{
		FolderID:  folder.ID,
		Name:      folder.Name,
		ParentID:  folder.ParentID,
		DeletedBy: deletedBy,
	})
	if err != nil {
		return nil
	}
	remove, _ := event.New(event.TypeSearchRemoveFolder, event.SearchRemovePayload{
		ID:   folder.ID,
		Name: folder.Name,
		Type: "folder",
	})

	s.publishDegraded(ctx, "", deleted, remove)
	return nil
}

func (s *FolderService) GetFolder(ctx context.Context, folderID string) (model.Folder, error) {
	return s.folders.FindByID(ctx, folderID)
}

// publishDegraded publishes the batch and, on failure, proceeds degraded:
// the store write already committed, so the mutation stands and derived
// caches stay stale until TTL. A tracked event is failed so clients are not
// left waiting for a completion that cannot arrive.
func (s *FolderService) publishDegraded(ctx context.Context, eventID string, envelopes ...event.Envelope) {
	if err := s.publisher.PublishBatch(ctx, envelopes); err != nil {
		slog.Error("event publish failed after commit; caches will be stale until TTL", "error", err)
		if eventID != "" {
			if err := s.tracker.UpdateStatus(ctx, eventID, model.EventStatusFailed, "", "event publish failed"); err != nil {
				slog.Error("failed to fail tracked event", "event_id", eventID, "error", err)
			}
		}
	}
}

func normalizeFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apierror.BadRequest("name is required", "name")
	}
	if len(name) > 255 {
		return "", apierror.BadRequest("name exceeds 255 characters", "name")
	}
	return name, nil
}
