// Package acl implements the permission store: durable grants of READ or
// WRITE from a target principal onto a source, with recursive group
// membership resolution for permission checks.
package acl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

type Store struct {
	acls   persistence.AclRepository
	groups persistence.GroupRepository
	bus    eventbus.EventPublisher
	logger *slog.Logger
}

func NewStore(
	acls persistence.AclRepository,
	groups persistence.GroupRepository,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) *Store {
	return &Store{
		acls:   acls,
		groups: groups,
		bus:    bus,
		logger: logger.With("module", "acl"),
	}
}

// Grant creates a permission entry and emits an acl-created event.
// ROUTING-origin grants carry the owning route step id.
func (s *Store) Grant(ctx context.Context, acl models.Acl) (string, error) {
	if acl.Origin == models.AclOriginRouting && acl.RouteStepID == "" {
		return "", fmt.Errorf("routing grant on %s requires an owning route step", acl.SourceID)
	}

	acl.ID = uuid.New().String()
	acl.CreatedAt = time.Now()

	if err := s.acls.Save(ctx, &acl); err != nil {
		return "", fmt.Errorf("failed to save acl entry: %w", err)
	}

	s.publishCreated(ctx, &acl)

	return acl.ID, nil
}

// Revoke removes every entry matching source, target and permission and
// emits acl-deleted events for them.
func (s *Store) Revoke(ctx context.Context, sourceID, targetID string, perm models.Permission) error {
	removed, err := s.acls.DeleteBySourceTarget(ctx, sourceID, targetID, perm)
	if err != nil {
		return fmt.Errorf("failed to revoke %s on %s for %s: %w", perm, sourceID, targetID, err)
	}

	for _, acl := range removed {
		s.publishDeleted(ctx, acl)
	}

	return nil
}

// RevokeByStep removes every ROUTING entry owned by the given step. Used
// on step completion and on route cascade termination so a routing grant
// never outlives its step.
func (s *Store) RevokeByStep(ctx context.Context, routeStepID string) error {
	owned, err := s.acls.ByRouteStep(ctx, routeStepID)
	if err != nil {
		return fmt.Errorf("failed to list acl entries of step %s: %w", routeStepID, err)
	}

	for _, acl := range owned {
		if err := s.acls.Delete(ctx, acl.ID); err != nil {
			return fmt.Errorf("failed to delete acl entry %s: %w", acl.ID, err)
		}

		s.publishDeleted(ctx, acl)
	}

	return nil
}

// Check reports whether the principal holds the requested permission on
// the source, directly or through any group it recursively belongs to.
// A WRITE entry satisfies a READ check.
func (s *Store) Check(ctx context.Context, sourceID string, perm models.Permission, principalID string) (bool, error) {
	targets, err := s.effectiveTargets(ctx, principalID)
	if err != nil {
		return false, err
	}

	entries, err := s.acls.BySource(ctx, sourceID)
	if err != nil {
		return false, fmt.Errorf("failed to list acl entries of %s: %w", sourceID, err)
	}

	for _, entry := range entries {
		if entry.Perm.Implies(perm) && targets[entry.TargetID] {
			return true, nil
		}
	}

	return false, nil
}

// IsStepTarget reports whether the user matches the step target, either
// directly or via recursive group membership when the target is a group.
func (s *Store) IsStepTarget(ctx context.Context, step *models.RouteStep, userID string) (bool, error) {
	if step.TargetType == models.TargetTypeUser {
		return step.TargetID == userID, nil
	}

	targets, err := s.effectiveTargets(ctx, userID)
	if err != nil {
		return false, err
	}

	return targets[step.TargetID], nil
}

// effectiveTargets returns the principal's own id plus every group id it
// transitively belongs to. Group hierarchies are walked with a visited
// set so a membership cycle cannot recurse forever.
func (s *Store) effectiveTargets(ctx context.Context, principalID string) (map[string]bool, error) {
	targets := map[string]bool{principalID: true}
	queue := []string{principalID}

	for len(queue) > 0 {
		memberID := queue[0]
		queue = queue[1:]

		parents, err := s.groups.GroupsContaining(ctx, memberID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve groups of %s: %w", memberID, err)
		}

		for _, group := range parents {
			if targets[group.ID] {
				continue
			}

			targets[group.ID] = true
			queue = append(queue, group.ID)
		}
	}

	return targets, nil
}

func (s *Store) publishCreated(ctx context.Context, acl *models.Acl) {
	event := events.AclCreated{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.AclCreatedEvent,
			Timestamp: time.Now(),
		},
		AclID:       acl.ID,
		SourceID:    acl.SourceID,
		Perm:        string(acl.Perm),
		TargetType:  string(acl.TargetType),
		TargetID:    acl.TargetID,
		Origin:      string(acl.Origin),
		RouteStepID: acl.RouteStepID,
	}

	if err := s.bus.Publish(ctx, acl.SourceID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish acl-created event",
			"acl_id", acl.ID, "error", err)
	}
}

func (s *Store) publishDeleted(ctx context.Context, acl *models.Acl) {
	event := events.AclDeleted{
		BaseEvent: events.BaseEvent{
			ID:        uuid.New().String(),
			Type:      events.AclDeletedEvent,
			Timestamp: time.Now(),
		},
		AclID:       acl.ID,
		SourceID:    acl.SourceID,
		Perm:        string(acl.Perm),
		TargetID:    acl.TargetID,
		RouteStepID: acl.RouteStepID,
	}

	if err := s.bus.Publish(ctx, acl.SourceID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish acl-deleted event",
			"acl_id", acl.ID, "error", err)
	}
}
