package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folder-explorer/internal/model"
)

type FolderRepository struct {
	pool *pgxpool.Pool
}

func NewFolderRepository(pool *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

func (r *FolderRepository) Create(ctx context.Context, folder model.Folder) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO folders (id, name, parent_id, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		folder.ID, folder.Name, folder.ParentID, folder.CreatedBy, folder.CreatedAt, folder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

func (r *FolderRepository) Update(ctx context.Context, folder model.Folder) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE folders SET name = $2, parent_id = $3, updated_at = $4 WHERE id = $1`,
		folder.ID, folder.Name, folder.ParentID, folder.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFolderNotFound
	}
	return nil
}

func (r *FolderRepository) Delete(ctx context.Context, folderID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM folders WHERE id = $1`, folderID)
	if err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFolderNotFound
	}
	return nil
}

func (r *FolderRepository) FindByID(ctx context.Context, folderID string) (model.Folder, error) {
	var folder model.Folder
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, parent_id, COALESCE(created_by, ''), created_at, updated_at
		 FROM folders WHERE id = $1`, folderID).
		Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.CreatedBy, &folder.CreatedAt, &folder.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Folder{}, model.ErrFolderNotFound
	}
	if err != nil {
		return model.Folder{}, fmt.Errorf("find folder: %w", err)
	}
	return folder, nil
}

// FindAll returns the complete folder set, the input for a full tree rebuild.
func (r *FolderRepository) FindAll(ctx context.Context) ([]model.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, parent_id, COALESCE(created_by, ''), created_at, updated_at
		 FROM folders ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func (r *FolderRepository) FindChildren(ctx context.Context, parentID string) ([]model.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, parent_id, COALESCE(created_by, ''), created_at, updated_at
		 FROM folders WHERE parent_id = $1 ORDER BY name`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func (r *FolderRepository) FindRoots(ctx context.Context) ([]model.Folder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, parent_id, COALESCE(created_by, ''), created_at, updated_at
		 FROM folders WHERE parent_id IS NULL ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query root folders: %w", err)
	}
	defer rows.Close()

	return scanFolders(rows)
}

func scanFolders(rows pgx.Rows) ([]model.Folder, error) {
	folders := make([]model.Folder, 0)
	for rows.Next() {
		var folder model.Folder
		if err := rows.Scan(&folder.ID, &folder.Name, &folder.ParentID, &folder.CreatedBy,
			&folder.CreatedAt, &folder.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}
