package event

import (
	"fmt"
	"strings"
)

const maxNameLength = 255

// Warm routine names accepted by cache.warm events.
const (
	WarmFolderTree     = "folder.tree"
	WarmFolderChildren = "folder.children"
	WarmPopularFolders = "popular.folders"
)

type FolderCreatedPayload struct {
	FolderID  string  `json:"folderId"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	CreatedBy string  `json:"createdBy,omitempty"`
}

func (p FolderCreatedPayload) Validate() error {
	if p.FolderID == "" {
		return fmt.Errorf("folder.created: folderId is required")
	}
	return validateName(p.Name, "folder.created")
}

type FolderUpdatedPayload struct {
	FolderID         string  `json:"folderId"`
	Name             string  `json:"name,omitempty"`
	ParentID         *string `json:"parentId,omitempty"`
	PreviousParentID *string `json:"previousParentId,omitempty"`
	UpdatedBy        string  `json:"updatedBy,omitempty"`
}

func (p FolderUpdatedPayload) Validate() error {
	if p.FolderID == "" {
		return fmt.Errorf("folder.updated: folderId is required")
	}
	if p.Name != "" {
		return validateName(p.Name, "folder.updated")
	}
	return nil
}

type FolderDeletedPayload struct {
	FolderID  string  `json:"folderId"`
	Name      string  `json:"name"`
	ParentID  *string `json:"parentId"`
	DeletedBy string  `json:"deletedBy,omitempty"`
}

func (p FolderDeletedPayload) Validate() error {
	if p.FolderID == "" {
		return fmt.Errorf("folder.deleted: folderId is required")
	}
	if p.Name == "" {
		return fmt.Errorf("folder.deleted: name is required")
	}
	return nil
}

type FolderMovedPayload struct {
	FolderID         string  `json:"folderId"`
	PreviousParentID *string `json:"previousParentId"`
	NewParentID      *string `json:"newParentId"`
	MovedBy          string  `json:"movedBy,omitempty"`
}

func (p FolderMovedPayload) Validate() error {
	if p.FolderID == "" {
		return fmt.Errorf("folder.moved: folderId is required")
	}
	return nil
}

type FileCreatedPayload struct {
	FileID    string `json:"fileId"`
	Name      string `json:"name"`
	FolderID  string `json:"folderId"`
	Size      int64  `json:"size"`
	MimeType  string `json:"mimeType,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

func (p FileCreatedPayload) Validate() error {
	if p.FileID == "" {
		return fmt.Errorf("file.created: fileId is required")
	}
	if p.FolderID == "" {
		return fmt.Errorf("file.created: folderId is required")
	}
	if p.Size < 0 {
		return fmt.Errorf("file.created: size must be non-negative")
	}
	return validateName(p.Name, "file.created")
}

type FileUpdatedPayload struct {
	FileID           string `json:"fileId"`
	Name             string `json:"name,omitempty"`
	FolderID         string `json:"folderId,omitempty"`
	PreviousFolderID string `json:"previousFolderId,omitempty"`
	Size             *int64 `json:"size,omitempty"`
	UpdatedBy        string `json:"updatedBy,omitempty"`
}

func (p FileUpdatedPayload) Validate() error {
	if p.FileID == "" {
		return fmt.Errorf("file.updated: fileId is required")
	}
	if p.Size != nil && *p.Size < 0 {
		return fmt.Errorf("file.updated: size must be non-negative")
	}
	if p.Name != "" {
		return validateName(p.Name, "file.updated")
	}
	return nil
}

type FileDeletedPayload struct {
	FileID    string `json:"fileId"`
	Name      string `json:"name"`
	FolderID  string `json:"folderId"`
	DeletedBy string `json:"deletedBy,omitempty"`
}

func (p FileDeletedPayload) Validate() error {
	if p.FileID == "" {
		return fmt.Errorf("file.deleted: fileId is required")
	}
	if p.Name == "" {
		return fmt.Errorf("file.deleted: name is required")
	}
	if p.FolderID == "" {
		return fmt.Errorf("file.deleted: folderId is required")
	}
	return nil
}

// CacheInvalidatePayload targets either one exact key or a glob pattern,
// never both.
type CacheInvalidatePayload struct {
	Key     string `json:"key,omitempty"`
	Pattern string `json:"pattern,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

func (p CacheInvalidatePayload) Validate() error {
	if p.Key == "" && p.Pattern == "" {
		return fmt.Errorf("cache.invalidate: key or pattern is required")
	}
	if p.Key != "" && p.Pattern != "" {
		return fmt.Errorf("cache.invalidate: key and pattern are mutually exclusive")
	}
	return nil
}

type CacheWarmPayload struct {
	Type     string `json:"type"`
	FolderID string `json:"folderId,omitempty"`
}

func (p CacheWarmPayload) Validate() error {
	switch p.Type {
	case WarmFolderTree, WarmPopularFolders:
		return nil
	case WarmFolderChildren:
		if p.FolderID == "" {
			return fmt.Errorf("cache.warm: folderId is required for %s", WarmFolderChildren)
		}
		return nil
	default:
		return fmt.Errorf("cache.warm: unknown warm type %q", p.Type)
	}
}

type CacheClearAllPayload struct {
	Reason string `json:"reason"`
}

func (p CacheClearAllPayload) Validate() error {
	if strings.TrimSpace(p.Reason) == "" {
		return fmt.Errorf("cache.clear.all: reason is required")
	}
	return nil
}

type SearchIndexFolderPayload struct {
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
}

func (p SearchIndexFolderPayload) Validate() error {
	if p.FolderID == "" {
		return fmt.Errorf("search.index.folder: folderId is required")
	}
	if p.Name == "" {
		return fmt.Errorf("search.index.folder: name is required")
	}
	return nil
}

type SearchIndexFilePayload struct {
	FileID   string `json:"fileId"`
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
}

func (p SearchIndexFilePayload) Validate() error {
	if p.FileID == "" {
		return fmt.Errorf("search.index.file: fileId is required")
	}
	if p.Name == "" {
		return fmt.Errorf("search.index.file: name is required")
	}
	if p.FolderID == "" {
		return fmt.Errorf("search.index.file: folderId is required")
	}
	return nil
}

type SearchRemovePayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

func (p SearchRemovePayload) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("search.remove: id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("search.remove: name is required")
	}
	if p.Type != "folder" && p.Type != "file" {
		return fmt.Errorf("search.remove: type must be folder or file, got %q", p.Type)
	}
	return nil
}

type SearchRebuildIndexPayload struct {
	Reason string `json:"reason,omitempty"`
}

func (p SearchRebuildIndexPayload) Validate() error { return nil }

func validateName(name string, eventType string) error {
	if name == "" {
		return fmt.Errorf("%s: name is required", eventType)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%s: name exceeds %d characters", eventType, maxNameLength)
	}
	return nil
}
