// Package postgresql provides PostgreSQL-backed persistence using
// database/sql with the lib/pq driver.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/docdeck/docdeck/pkg/persistence"
	"github.com/docdeck/docdeck/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	routeModels *RouteModelRepository
	routes      *RouteRepository
	acls        *AclRepository
	documents   *DocumentRepository
	files       *FileRepository
	tags        *TagRepository
	users       *UserRepository
	groups      *GroupRepository
}

// NewPersistence opens the database, runs migrations and builds the
// repositories.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger = logger.With("module", "postgresql")

	manager := sqlbase.NewMigrationManager(logger, db, migrations)
	if err := manager.RunMigrations(ctx); err != nil {
		return nil, err
	}

	return &Persistence{
		db:          db,
		logger:      logger,
		routeModels: &RouteModelRepository{db: db, logger: logger},
		routes:      &RouteRepository{db: db, logger: logger},
		acls:        &AclRepository{db: db, logger: logger},
		documents:   &DocumentRepository{db: db, logger: logger},
		files:       &FileRepository{db: db, logger: logger},
		tags:        &TagRepository{db: db, logger: logger},
		users:       &UserRepository{db: db, logger: logger},
		groups:      &GroupRepository{db: db, logger: logger},
	}, nil
}

func (p *Persistence) RouteModelRepository() persistence.RouteModelRepository { return p.routeModels }
func (p *Persistence) RouteRepository() persistence.RouteRepository           { return p.routes }
func (p *Persistence) AclRepository() persistence.AclRepository               { return p.acls }
func (p *Persistence) DocumentRepository() persistence.DocumentRepository     { return p.documents }
func (p *Persistence) FileRepository() persistence.FileRepository             { return p.files }
func (p *Persistence) TagRepository() persistence.TagRepository               { return p.tags }
func (p *Persistence) UserRepository() persistence.UserRepository             { return p.users }
func (p *Persistence) GroupRepository() persistence.GroupRepository           { return p.groups }

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}
