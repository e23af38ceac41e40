package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

// RouteModelRepository handles route model database operations. Step
// templates are stored as one JSONB document per model.
type RouteModelRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *RouteModelRepository) Save(ctx context.Context, model *models.RouteModel) error {
	steps, err := json.Marshal(model.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal step templates: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO route_models (id, name, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			steps = EXCLUDED.steps,
			updated_at = EXCLUDED.updated_at
	`, model.ID, model.Name, steps, model.CreatedAt, model.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save route model: %w", err)
	}

	return nil
}

func (r *RouteModelRepository) GetByID(ctx context.Context, id string) (*models.RouteModel, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, steps, created_at, updated_at
		FROM route_models
		WHERE id = $1
	`, id)

	model, err := scanRouteModel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRouteModelNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query route model: %w", err)
	}

	return model, nil
}

func (r *RouteModelRepository) List(ctx context.Context) ([]*models.RouteModel, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, steps, created_at, updated_at
		FROM route_models
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query route models: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var out []*models.RouteModel

	for rows.Next() {
		model, err := scanRouteModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route model: %w", err)
		}

		out = append(out, model)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route models: %w", err)
	}

	return out, nil
}

func (r *RouteModelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM route_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route model: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrRouteModelNotFound)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRouteModel(row rowScanner) (*models.RouteModel, error) {
	var (
		model models.RouteModel
		steps []byte
	)

	if err := row.Scan(&model.ID, &model.Name, &steps, &model.CreatedAt, &model.UpdatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(steps, &model.Steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal step templates: %w", err)
	}

	return &model, nil
}

func closeRows(ctx context.Context, logger *slog.Logger, rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
