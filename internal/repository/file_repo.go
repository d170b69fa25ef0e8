package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"folder-explorer/internal/model"
)

type FileRepository struct {
	pool *pgxpool.Pool
}

func NewFileRepository(pool *pgxpool.Pool) *FileRepository {
	return &FileRepository{pool: pool}
}

func (r *FileRepository) Create(ctx context.Context, file model.File) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO files (id, name, folder_id, size, mime_type, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		file.ID, file.Name, file.FolderID, file.Size, file.MimeType, file.CreatedBy,
		file.CreatedAt, file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	return nil
}

func (r *FileRepository) Update(ctx context.Context, file model.File) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE files SET name = $2, folder_id = $3, size = $4, mime_type = $5, updated_at = $6
		 WHERE id = $1`,
		file.ID, file.Name, file.FolderID, file.Size, file.MimeType, file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) Delete(ctx context.Context, fileID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM files WHERE id = $1`, fileID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFileNotFound
	}
	return nil
}

func (r *FileRepository) FindByID(ctx context.Context, fileID string) (model.File, error) {
	var file model.File
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, folder_id, size, COALESCE(mime_type, ''), COALESCE(created_by, ''),
		        created_at, updated_at
		 FROM files WHERE id = $1`, fileID).
		Scan(&file.ID, &file.Name, &file.FolderID, &file.Size, &file.MimeType, &file.CreatedBy,
			&file.CreatedAt, &file.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.File{}, model.ErrFileNotFound
	}
	if err != nil {
		return model.File{}, fmt.Errorf("find file: %w", err)
	}
	return file, nil
}

func (r *FileRepository) FindByFolder(ctx context.Context, folderID string) ([]model.File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, folder_id, size, COALESCE(mime_type, ''), COALESCE(created_by, ''),
		        created_at, updated_at
		 FROM files WHERE folder_id = $1 ORDER BY name`, folderID)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

// FindAll returns every file; the search rebuild uses it to reindex from
// scratch.
func (r *FileRepository) FindAll(ctx context.Context) ([]model.File, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, folder_id, size, COALESCE(mime_type, ''), COALESCE(created_by, ''),
		        created_at, updated_at
		 FROM files ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query all files: %w", err)
	}
	defer rows.Close()

	return scanFiles(rows)
}

func scanFiles(rows pgx.Rows) ([]model.File, error) {
	files := make([]model.File, 0)
	for rows.Next() {
		var file model.File
		if err := rows.Scan(&file.ID, &file.Name, &file.FolderID, &file.Size, &file.MimeType,
			&file.CreatedBy, &file.CreatedAt, &file.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}
	return files, rows.Err()
}
