package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

// AclRepository handles permission entries.
type AclRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *AclRepository) Save(ctx context.Context, acl *models.Acl) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO acls (id, source_id, perm, target_type, target_id, origin, route_step_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			source_id = EXCLUDED.source_id,
			perm = EXCLUDED.perm,
			target_type = EXCLUDED.target_type,
			target_id = EXCLUDED.target_id,
			origin = EXCLUDED.origin,
			route_step_id = EXCLUDED.route_step_id
	`, acl.ID, acl.SourceID, acl.Perm, acl.TargetType, acl.TargetID, acl.Origin, acl.RouteStepID, acl.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save acl: %w", err)
	}

	return nil
}

func (r *AclRepository) BySource(ctx context.Context, sourceID string) ([]*models.Acl, error) {
	return r.query(ctx, `
		SELECT id, source_id, perm, target_type, target_id, origin, route_step_id, created_at
		FROM acls
		WHERE source_id = $1
		ORDER BY created_at
	`, sourceID)
}

func (r *AclRepository) ByRouteStep(ctx context.Context, routeStepID string) ([]*models.Acl, error) {
	return r.query(ctx, `
		SELECT id, source_id, perm, target_type, target_id, origin, route_step_id, created_at
		FROM acls
		WHERE route_step_id = $1
		ORDER BY created_at
	`, routeStepID)
}

func (r *AclRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM acls WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete acl: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		return persistence.NewStoreError("Delete", id, persistence.ErrAclNotFound)
	}

	return nil
}

func (r *AclRepository) DeleteBySourceTarget(ctx context.Context, sourceID, targetID string, perm models.Permission) ([]*models.Acl, error) {
	rows, err := r.db.QueryContext(ctx, `
		DELETE FROM acls
		WHERE source_id = $1 AND target_id = $2 AND perm = $3
		RETURNING id, source_id, perm, target_type, target_id, origin, route_step_id, created_at
	`, sourceID, targetID, perm)
	if err != nil {
		return nil, fmt.Errorf("failed to delete acls: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	return scanAcls(rows)
}

func (r *AclRepository) query(ctx context.Context, query string, arg any) ([]*models.Acl, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query acls: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	return scanAcls(rows)
}

func scanAcls(rows *sql.Rows) ([]*models.Acl, error) {
	var out []*models.Acl

	for rows.Next() {
		var acl models.Acl

		err := rows.Scan(&acl.ID, &acl.SourceID, &acl.Perm, &acl.TargetType,
			&acl.TargetID, &acl.Origin, &acl.RouteStepID, &acl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan acl: %w", err)
		}

		out = append(out, &acl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating acls: %w", err)
	}

	return out, nil
}
