// Package memory provides an in-memory persistence implementation. It is
// the default provider for the single-process deployment and the one the
// test harnesses use.
package memory

import (
	"context"
	"sync"

	"github.com/docdeck/docdeck/pkg/persistence"
)

// Persistence implements persistence.Persistence with mutex-guarded maps.
// Repositories hand out deep copies so callers never share mutable state
// with the store.
type Persistence struct {
	mu sync.RWMutex

	routeModels *RouteModelRepository
	routes      *RouteRepository
	acls        *AclRepository
	documents   *DocumentRepository
	files       *FileRepository
	tags        *TagRepository
	users       *UserRepository
	groups      *GroupRepository
}

// NewPersistence creates an empty in-memory store.
func NewPersistence() *Persistence {
	p := &Persistence{}
	p.routeModels = &RouteModelRepository{mu: &p.mu, models: map[string]*storedRouteModel{}}
	p.routes = &RouteRepository{mu: &p.mu, routes: map[string]*storedRoute{}}
	p.acls = &AclRepository{mu: &p.mu, acls: map[string]*storedAcl{}}
	p.documents = &DocumentRepository{mu: &p.mu, documents: map[string]*storedDocument{}}
	p.files = &FileRepository{mu: &p.mu, files: map[string]*storedFile{}}
	p.tags = &TagRepository{mu: &p.mu, tags: map[string]*storedTag{}}
	p.users = &UserRepository{mu: &p.mu, users: map[string]*storedUser{}}
	p.groups = &GroupRepository{mu: &p.mu, groups: map[string]*storedGroup{}}

	return p
}

func (p *Persistence) RouteModelRepository() persistence.RouteModelRepository { return p.routeModels }
func (p *Persistence) RouteRepository() persistence.RouteRepository           { return p.routes }
func (p *Persistence) AclRepository() persistence.AclRepository               { return p.acls }
func (p *Persistence) DocumentRepository() persistence.DocumentRepository     { return p.documents }
func (p *Persistence) FileRepository() persistence.FileRepository             { return p.files }
func (p *Persistence) TagRepository() persistence.TagRepository               { return p.tags }
func (p *Persistence) UserRepository() persistence.UserRepository             { return p.users }
func (p *Persistence) GroupRepository() persistence.GroupRepository           { return p.groups }

// HealthCheck always succeeds for the in-memory store.
func (p *Persistence) HealthCheck(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (p *Persistence) Close(_ context.Context) error { return nil }
