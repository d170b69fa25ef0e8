package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/event"
	"folder-explorer/internal/model"
	"folder-explorer/pkg/apierror"
)

// FileStore is the relational port for file metadata. The blob bytes live in
// object storage outside this system.
type FileStore interface {
	Create(ctx context.Context, file model.File) error
	Update(ctx context.Context, file model.File) error
	Delete(ctx context.Context, fileID string) error
	FindByID(ctx context.Context, fileID string) (model.File, error)
	FindByFolder(ctx context.Context, folderID string) ([]model.File, error)
}

type FileService struct {
	files     FileStore
	folders   FolderStore
	cache     cache.Cache
	publisher EventPublisher
	listTTL   time.Duration
}

func NewFileService(files FileStore, folders FolderStore, c cache.Cache, publisher EventPublisher, listTTL time.Duration) *FileService {
	if listTTL <= 0 {
		listTTL = 300 * time.Second
	}
	return &FileService{files: files, folders: folders, cache: c, publisher: publisher, listTTL: listTTL}
}

type CreateFileRequest struct {
	Name      string `json:"name"`
	FolderID  string `json:"folderId"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

func (s *FileService) CreateFile(ctx context.Context, req CreateFileRequest) (model.File, error) {
	name, err := normalizeFileName(req.Name)
	if err != nil {
		return model.File{}, err
	}
	if req.FolderID == "" {
		return model.File{}, apierror.BadRequest("folderId is required", "folderId")
	}
	if req.Size < 0 {
		return model.File{}, apierror.BadRequest("size must be non-negative", "size")
	}
	if _, err := s.folders.FindByID(ctx, req.FolderID); err != nil {
		return model.File{}, err
	}

	now := time.Now().UTC()
	file := model.File{
		ID:        uuid.NewString(),
		Name:      name,
		FolderID:  req.FolderID,
		Size:      req.Size,
		MimeType:  req.MimeType,
		CreatedBy: req.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.files.Create(ctx, file); err != nil {
		return model.File{}, err
	}

	created, err := event.New(event.TypeFileCreated, event.FileCreatedPayload{
		FileID:    file.ID,
		Name:      file.Name,
		FolderID:  file.FolderID,
		Size:      file.Size,
		MimeType:  file.MimeType,
		CreatedBy: file.CreatedBy,
	})
	if err == nil {
		s.publishBestEffort(ctx, created)
	}

	return file, nil
}

type UpdateFileRequest struct {
	Name      string `json:"name,omitempty"`
	FolderID  string `json:"folderId,omitempty"`
	Size      *int64 `json:"size,omitempty"`
	UpdatedBy string `json:"updatedBy,omitempty"`
}

func (s *FileService) UpdateFile(ctx context.Context, fileID string, req UpdateFileRequest) (model.File, error) {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return model.File{}, err
	}

	previousFolderID := file.FolderID

	if req.Name != "" {
		name, err := normalizeFileName(req.Name)
		if err != nil {
			return model.File{}, err
		}
		file.Name = name
	}
	if req.FolderID != "" {
		if _, err := s.folders.FindByID(ctx, req.FolderID); err != nil {
			return model.File{}, err
		}
		file.FolderID = req.FolderID
	}
	if req.Size != nil {
		if *req.Size < 0 {
			return model.File{}, apierror.BadRequest("size must be non-negative", "size")
		}
		file.Size = *req.Size
	}
	file.UpdatedAt = time.Now().UTC()

	if err := s.files.Update(ctx, file); err != nil {
		return model.File{}, err
	}

	updated, err := event.New(event.TypeFileUpdated, event.FileUpdatedPayload{
		FileID:           file.ID,
		Name:             file.Name,
		FolderID:         file.FolderID,
		PreviousFolderID: previousFolderID,
		Size:             req.Size,
		UpdatedBy:        req.UpdatedBy,
	})
	if err == nil {
		s.publishBestEffort(ctx, updated)
	}

	return file, nil
}

func (s *FileService) DeleteFile(ctx context.Context, fileID string, deletedBy string) error {
	file, err := s.files.FindByID(ctx, fileID)
	if err != nil {
		return err
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		return err
	}

	deleted, err := event.New(event.TypeFileDeleted, event.FileDeletedPayload{
		FileID:    file.ID,
		Name:      file.Name,
		FolderID:  file.FolderID,
		DeletedBy: deletedBy,
	})
	if err == nil {
		s.publishBestEffort(ctx, deleted)
	}

	return nil
}

func (s *FileService) GetFile(ctx context.Context, fileID string) (model.File, error) {
	return s.files.FindByID(ctx, fileID)
}

// ListFiles serves a folder's file list through the read-through cache.
func (s *FileService) ListFiles(ctx context.Context, folderID string) ([]model.File, error) {
	key := cache.KeyFolderFiles(folderID)
	cached, ok, err := s.cache.Get(ctx, key)
	if err == nil && ok {
		var files []model.File
		if err := json.Unmarshal([]byte(cached), &files); err == nil {
			return files, nil
		}
	}

	files, err := s.files.FindByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(files); err == nil {
		_ = s.cache.Set(ctx, key, string(raw), s.listTTL)
	}
	return files, nil
}

func (s *FileService) publishBestEffort(ctx context.Context, env event.Envelope) {
	if err := s.publisher.Publish(ctx, env); err != nil {
		slog.Error("event publish failed after commit; caches will be stale until TTL",
			"type", env.Type, "error", err)
	}
}

func normalizeFileName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apierror.BadRequest("name is required", "name")
	}
	if len(name) > 255 {
		return "", apierror.BadRequest("name exceeds 255 characters", "name")
	}
	return name, nil
}
