package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"folder-explorer/internal/cache"
	"folder-explorer/internal/model"
)

// FolderStore is the relational port for folders: always the source of
// truth. Cache entries are projections of what it returns.
type FolderStore interface {
	Create(ctx context.Context, folder model.Folder) error
	Update(ctx context.Context, folder model.Folder) error
	Delete(ctx context.Context, folderID string) error
	FindByID(ctx context.Context, folderID string) (model.Folder, error)
	FindAll(ctx context.Context) ([]model.Folder, error)
	FindChildren(ctx context.Context, parentID string) ([]model.Folder, error)
	FindRoots(ctx context.Context) ([]model.Folder, error)
}

// BuildTree materializes the full hierarchy from a flat folder set. Roots
// get level 0, every direct child level = parent level + 1. Folders whose
// parent is missing from the set are treated as roots so a partial set never
// loses nodes.
func BuildTree(folders []model.Folder) []*model.TreeNode {
	nodes := make(map[string]*model.TreeNode, len(folders))
	for _, folder := range folders {
		nodes[folder.ID] = &model.TreeNode{
			ID:       folder.ID,
			Name:     folder.Name,
			ParentID: folder.ParentID,
			Children: []*model.TreeNode{},
		}
	}

	roots := make([]*model.TreeNode, 0)
	for _, folder := range folders {
		node := nodes[folder.ID]
		if folder.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*folder.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	var setLevels func(node *model.TreeNode, level int)
	setLevels = func(node *model.TreeNode, level int) {
		node.Level = level
		for _, child := range node.Children {
			setLevels(child, level+1)
		}
	}
	for _, root := range roots {
		setLevels(root, 0)
	}

	return roots
}

// TreeService serves the folder hierarchy through the read-through cache and
// owns the warming routines the worker dispatches to.
type TreeService struct {
	folders  FolderStore
	cache    cache.Cache
	treeTTL  time.Duration
	childTTL time.Duration
}

func NewTreeService(folders FolderStore, c cache.Cache, treeTTL time.Duration, childTTL time.Duration) *TreeService {
	if treeTTL <= 0 {
		treeTTL = 300 * time.Second
	}
	if childTTL <= 0 {
		childTTL = treeTTL
	}
	return &TreeService{folders: folders, cache: c, treeTTL: treeTTL, childTTL: childTTL}
}

func (s *TreeService) GetTree(ctx context.Context) ([]*model.TreeNode, error) {
	cached, ok, err := s.cache.Get(ctx, cache.KeyFolderTree)
	if err == nil && ok {
		var tree []*model.TreeNode
		if err := json.Unmarshal([]byte(cached), &tree); err == nil {
			return tree, nil
		}
	}

	return s.WarmTree(ctx)
}

// WarmTree rebuilds the full tree from the folder set and repopulates the
// cache. Reapplying it is harmless: the result is recomputed from the store.
func (s *TreeService) WarmTree(ctx context.Context) ([]*model.TreeNode, error) {
	folders, err := s.folders.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load folders for tree: %w", err)
	}

	tree := BuildTree(folders)
	s.cacheJSON(ctx, cache.KeyFolderTree, tree, s.treeTTL)
	return tree, nil
}

func (s *TreeService) GetChildren(ctx context.Context, folderID string) ([]model.Folder, error) {
	key := cache.KeyFolderChildren(folderID)
	cached, ok, err := s.cache.Get(ctx, key)
	if err == nil && ok {
		var children []model.Folder
		if err := json.Unmarshal([]byte(cached), &children); err == nil {
			return children, nil
		}
	}

	return s.WarmChildren(ctx, folderID)
}

func (s *TreeService) WarmChildren(ctx context.Context, folderID string) ([]model.Folder, error) {
	children, err := s.folders.FindChildren(ctx, folderID)
	if err != nil {
		return nil, err
	}
	s.cacheJSON(ctx, cache.KeyFolderChildren(folderID), children, s.childTTL)
	return children, nil
}

// WarmPopularFolders warms the children cache for every root folder.
func (s *TreeService) WarmPopularFolders(ctx context.Context) error {
	roots, err := s.folders.FindRoots(ctx)
	if err != nil {
		return err
	}
	for _, root := range roots {
		if _, err := s.WarmChildren(ctx, root.ID); err != nil {
			return err
		}
	}
	return nil
}

// cacheJSON stores a value best-effort: the cache is a derived projection,
// so a write failure is logged upstream by the cache and never fails a read.
func (s *TreeService) cacheJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, string(raw), ttl)
}
