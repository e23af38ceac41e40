// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
	"github.com/docdeck/docdeck/pkg/persistence/postgresql"
	"github.com/docdeck/docdeck/pkg/registry"
)

// NewPersistence picks the storage provider from the database URL
// scheme. An empty URL selects the in-memory store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	}

	return memory.NewPersistence(), nil
}

// NewEventBus creates the in-process event bus.
func NewEventBus(logger *slog.Logger) eventbus.EventBus {
	return eventbus.NewWatermillEventBus(logger)
}

// NewRegistry creates the action registry with all builtin actions.
func NewRegistry(logger *slog.Logger) *registry.Registry {
	return registry.NewBuiltinRegistry(logger)
}
