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

// UserRepository handles platform principals.
type UserRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *UserRepository) Save(ctx context.Context, user *models.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1
	`, id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.get(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)
}

func (r *UserRepository) get(ctx context.Context, query, arg string) (*models.User, error) {
	var user models.User

	err := r.db.QueryRowContext(ctx, query, arg).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("Get", arg, persistence.ErrUserNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// GroupRepository handles groups and group membership lookups.
type GroupRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *GroupRepository) Save(ctx context.Context, group *models.Group) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO groups (id, name, member_user_ids, member_group_ids, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			member_user_ids = EXCLUDED.member_user_ids,
			member_group_ids = EXCLUDED.member_group_ids
	`, group.ID, group.Name, pq.Array(group.MemberUserIDs), pq.Array(group.MemberGroupIDs), group.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save group: %w", err)
	}

	return nil
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group

	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, member_user_ids, member_group_ids, created_at
		FROM groups
		WHERE id = $1
	`, id).Scan(&group.ID, &group.Name, pq.Array(&group.MemberUserIDs),
		pq.Array(&group.MemberGroupIDs), &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrGroupNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}

	return &group, nil
}

func (r *GroupRepository) GroupsContaining(ctx context.Context, memberID string) ([]*models.Group, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, member_user_ids, member_group_ids, created_at
		FROM groups
		WHERE $1 = ANY(member_user_ids) OR $1 = ANY(member_group_ids)
	`, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	var out []*models.Group

	for rows.Next() {
		var group models.Group

		err := rows.Scan(&group.ID, &group.Name, pq.Array(&group.MemberUserIDs),
			pq.Array(&group.MemberGroupIDs), &group.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}

		out = append(out, &group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}

	return out, nil
}
