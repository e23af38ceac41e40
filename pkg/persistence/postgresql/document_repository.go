package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

// DocumentRepository handles documents and their tag assignments.
type DocumentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *DocumentRepository) Save(ctx context.Context, doc *models.Document) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO documents (id, name, creator_id, tag_ids, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			tag_ids = EXCLUDED.tag_ids,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
	`, doc.ID, doc.Name, doc.CreatorID, pq.Array(doc.TagIDs), doc.CreatedAt, doc.UpdatedAt, doc.DeletedAt)
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, creator_id, tag_ids, created_at, updated_at, deleted_at
		FROM documents
		WHERE id = $1
	`, id).Scan(&doc.ID, &doc.Name, &doc.CreatorID, pq.Array(&doc.TagIDs),
		&doc.CreatedAt, &doc.UpdatedAt, &doc.DeletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrDocumentNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return &doc, nil
}

func (r *DocumentRepository) ReplaceTags(ctx context.Context, documentID string, tagIDs []string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE documents SET tag_ids = $2, updated_at = now() WHERE id = $1
	`, documentID, pq.Array(tagIDs))
	if err != nil {
		return fmt.Errorf("failed to replace document tags: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("ReplaceTags", documentID, persistence.ErrDocumentNotFound)
	}

	return nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrDocumentNotFound)
	}

	return nil
}

// FileRepository handles document attachments.
type FileRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *FileRepository) Save(ctx context.Context, file *models.File) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO files (id, document_id, name, content_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			content_type = EXCLUDED.content_type
	`, file.ID, file.DocumentID, file.Name, file.ContentType, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	return nil
}

func (r *FileRepository) ByDocument(ctx context.Context, documentID string) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, document_id, name, content_type, created_at
		FROM files
		WHERE document_id = $1
		ORDER BY created_at
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var out []*models.File

	for rows.Next() {
		var file models.File

		if err := rows.Scan(&file.ID, &file.DocumentID, &file.Name, &file.ContentType, &file.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}

		out = append(out, &file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating files: %w", err)
	}

	return out, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrFileNotFound)
	}

	return nil
}

// TagRepository handles tags.
type TagRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *TagRepository) Save(ctx context.Context, tag *models.Tag) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, tag.ID, tag.Name, tag.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}

	return nil
}

func (r *TagRepository) GetByID(ctx context.Context, id string) (*models.Tag, error) {
	var tag models.Tag

	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM tags WHERE id = $1`, id).
		Scan(&tag.ID, &tag.Name, &tag.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrTagNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}

	return &tag, nil
}

func (r *TagRepository) List(ctx context.Context) ([]*models.Tag, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var out []*models.Tag

	for rows.Next() {
		var tag models.Tag

		if err := rows.Scan(&tag.ID, &tag.Name, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}

		out = append(out, &tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tags: %w", err)
	}

	return out, nil
}
