// Package persistence provides the data storage abstraction consumed by
// the routing engine, the permission store and the platform services.
package persistence

import (
	"context"

	"github.com/docdeck/docdeck/pkg/models"
)

// RouteModelRepository stores reusable workflow templates.
type RouteModelRepository interface {
	Save(ctx context.Context, model *models.RouteModel) error
	GetByID(ctx context.Context, id string) (*models.RouteModel, error)
	List(ctx context.Context) ([]*models.RouteModel, error)
	Delete(ctx context.Context, id string) error
}

// RouteRepository stores running route instances and their steps.
type RouteRepository interface {
	Save(ctx context.Context, route *models.Route) error
	GetByID(ctx context.Context, id string) (*models.Route, error)
	// GetByStepID resolves the route owning the given step.
	GetByStepID(ctx context.Context, stepID string) (*models.Route, error)
	// ActiveByDocument returns the route with a pending step for the
	// document, or nil when the document is not routed.
	ActiveByDocument(ctx context.Context, documentID string) (*models.Route, error)
	CountByModel(ctx context.Context, routeModelID string) (int, error)
	CountActiveByModel(ctx context.Context, routeModelID string) (int, error)
	Delete(ctx context.Context, id string) error
}

// AclRepository stores permission entries.
type AclRepository interface {
	Save(ctx context.Context, acl *models.Acl) error
	// BySource returns every entry granting access on the source.
	BySource(ctx context.Context, sourceID string) ([]*models.Acl, error)
	ByRouteStep(ctx context.Context, routeStepID string) ([]*models.Acl, error)
	Delete(ctx context.Context, id string) error
	// DeleteBySourceTarget removes entries matching source, target and
	// permission. Returns the removed entries.
	DeleteBySourceTarget(ctx context.Context, sourceID, targetID string, perm models.Permission) ([]*models.Acl, error)
}

// DocumentRepository stores documents and their tag assignments.
type DocumentRepository interface {
	Save(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	// ReplaceTags atomically replaces the document's tag set.
	ReplaceTags(ctx context.Context, documentID string, tagIDs []string) error
	Delete(ctx context.Context, id string) error
}

// FileRepository stores document attachments.
type FileRepository interface {
	Save(ctx context.Context, file *models.File) error
	ByDocument(ctx context.Context, documentID string) ([]*models.File, error)
	Delete(ctx context.Context, id string) error
}

// TagRepository stores tags.
type TagRepository interface {
	Save(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id string) (*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
}

// UserRepository looks up platform principals.
type UserRepository interface {
	Save(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// GroupRepository looks up groups and group membership.
type GroupRepository interface {
	Save(ctx context.Context, group *models.Group) error
	GetByID(ctx context.Context, id string) (*models.Group, error)
	// GroupsContaining returns the groups that directly contain the given
	// member id, which may be a user id or a group id.
	GroupsContaining(ctx context.Context, memberID string) ([]*models.Group, error)
}

// Persistence aggregates the repositories backing one storage provider.
type Persistence interface {
	RouteModelRepository() RouteModelRepository
	RouteRepository() RouteRepository
	AclRepository() AclRepository
	DocumentRepository() DocumentRepository
	FileRepository() FileRepository
	TagRepository() TagRepository
	UserRepository() UserRepository
	GroupRepository() GroupRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}
