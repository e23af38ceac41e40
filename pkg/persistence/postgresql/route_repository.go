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

// RouteRepository handles running route instances. A route and its steps
// are written together in one transaction so readers never observe a
// route with a partial step list.
type RouteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *RouteRepository) Save(ctx context.Context, route *models.Route) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO routes (id, document_id, route_model_id, creator_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			route_model_id = EXCLUDED.route_model_id,
			creator_id = EXCLUDED.creator_id
	`, route.ID, route.DocumentID, route.RouteModelID, route.CreatorID, route.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save route: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM route_steps WHERE route_id = $1`, route.ID); err != nil {
		return fmt.Errorf("failed to clear route steps: %w", err)
	}

	for i := range route.Steps {
		step := &route.Steps[i]

		actions, err := json.Marshal(step.Actions)
		if err != nil {
			return fmt.Errorf("failed to marshal step actions: %w", err)
		}

		var outcome sql.NullString
		if step.Outcome != nil {
			outcome = sql.NullString{String: string(*step.Outcome), Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO route_steps (id, route_id, step_index, name, step_type, target_type,
				target_id, actions, end_date, outcome, comment, actor_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`, step.ID, route.ID, step.Index, step.Name, step.Type, step.TargetType,
			step.TargetID, actions, step.EndDate, outcome, step.Comment, step.ActorID)
		if err != nil {
			return fmt.Errorf("failed to save route step: %w", err)
		}
	}

	return tx.Commit()
}

func (r *RouteRepository) GetByID(ctx context.Context, id string) (*models.Route, error) {
	route, err := r.queryRoute(ctx, `
		SELECT id, document_id, route_model_id, creator_id, created_at
		FROM routes
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRouteNotFound)
	}

	return route, err
}

func (r *RouteRepository) GetByStepID(ctx context.Context, stepID string) (*models.Route, error) {
	route, err := r.queryRoute(ctx, `
		SELECT r.id, r.document_id, r.route_model_id, r.creator_id, r.created_at
		FROM routes r
		JOIN route_steps s ON s.route_id = r.id
		WHERE s.id = $1
	`, stepID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByStepID", stepID, persistence.ErrRouteStepNotFound)
	}

	return route, err
}

func (r *RouteRepository) ActiveByDocument(ctx context.Context, documentID string) (*models.Route, error) {
	route, err := r.queryRoute(ctx, `
		SELECT DISTINCT r.id, r.document_id, r.route_model_id, r.creator_id, r.created_at
		FROM routes r
		JOIN route_steps s ON s.route_id = r.id
		WHERE r.document_id = $1 AND s.end_date IS NULL
	`, documentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return route, err
}

func (r *RouteRepository) CountByModel(ctx context.Context, routeModelID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM routes WHERE route_model_id = $1`, routeModelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}

	return count, nil
}

func (r *RouteRepository) CountActiveByModel(ctx context.Context, routeModelID string) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT r.id)
		FROM routes r
		JOIN route_steps s ON s.route_id = r.id
		WHERE r.route_model_id = $1 AND s.end_date IS NULL
	`, routeModelID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active routes: %w", err)
	}

	return count, nil
}

func (r *RouteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrRouteNotFound)
	}

	return nil
}

func (r *RouteRepository) queryRoute(ctx context.Context, query string, arg any) (*models.Route, error) {
	var route models.Route

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&route.ID, &route.DocumentID, &route.RouteModelID, &route.CreatorID, &route.CreatedAt)
	if err != nil {
		return nil, err
	}

	steps, err := r.loadSteps(ctx, route.ID)
	if err != nil {
		return nil, err
	}

	route.Steps = steps

	return &route, nil
}

func (r *RouteRepository) loadSteps(ctx context.Context, routeID string) ([]models.RouteStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, route_id, step_index, name, step_type, target_type,
			target_id, actions, end_date, outcome, comment, actor_id
		FROM route_steps
		WHERE route_id = $1
		ORDER BY step_index
	`, routeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query route steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var steps []models.RouteStep

	for rows.Next() {
		var (
			step    models.RouteStep
			actions []byte
			outcome sql.NullString
		)

		err := rows.Scan(&step.ID, &step.RouteID, &step.Index, &step.Name, &step.Type,
			&step.TargetType, &step.TargetID, &actions, &step.EndDate, &outcome,
			&step.Comment, &step.ActorID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan route step: %w", err)
		}

		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &step.Actions); err != nil {
				return nil, fmt.Errorf("failed to unmarshal step actions: %w", err)
			}
		}

		if outcome.Valid {
			value := models.Outcome(outcome.String)
			step.Outcome = &value
		}

		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating route steps: %w", err)
	}

	return steps, nil
}
