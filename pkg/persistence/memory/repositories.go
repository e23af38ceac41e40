package memory

import (
	"context"
	"sync"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

// Stored wrappers keep the canonical copy private to the store.
type (
	storedRouteModel struct{ model models.RouteModel }
	storedRoute      struct{ route models.Route }
	storedAcl        struct{ acl models.Acl }
	storedDocument   struct{ doc models.Document }
	storedFile       struct{ file models.File }
	storedTag        struct{ tag models.Tag }
	storedUser       struct{ user models.User }
	storedGroup      struct{ group models.Group }
)

func cloneActionSpecs(in map[models.Outcome][]models.ActionSpec) map[models.Outcome][]models.ActionSpec {
	if in == nil {
		return nil
	}

	out := make(map[models.Outcome][]models.ActionSpec, len(in))

	for outcome, specs := range in {
		copied := make([]models.ActionSpec, len(specs))

		for i, spec := range specs {
			params := make(map[string]any, len(spec.Params))
			for k, v := range spec.Params {
				params[k] = v
			}

			copied[i] = models.ActionSpec{Kind: spec.Kind, Params: params}
		}

		out[outcome] = copied
	}

	return out
}

func cloneRouteModel(m *models.RouteModel) *models.RouteModel {
	out := *m
	out.Steps = make([]models.StepTemplate, len(m.Steps))

	for i, step := range m.Steps {
		out.Steps[i] = step
		out.Steps[i].Actions = cloneActionSpecs(step.Actions)
	}

	return &out
}

func cloneRoute(r *models.Route) *models.Route {
	out := *r
	out.Steps = make([]models.RouteStep, len(r.Steps))

	for i, step := range r.Steps {
		out.Steps[i] = step
		out.Steps[i].Actions = cloneActionSpecs(step.Actions)

		if step.EndDate != nil {
			end := *step.EndDate
			out.Steps[i].EndDate = &end
		}

		if step.Outcome != nil {
			outcome := *step.Outcome
			out.Steps[i].Outcome = &outcome
		}
	}

	return &out
}

func cloneDocument(d *models.Document) *models.Document {
	out := *d
	out.TagIDs = append([]string(nil), d.TagIDs...)

	if d.DeletedAt != nil {
		deleted := *d.DeletedAt
		out.DeletedAt = &deleted
	}

	return &out
}

func cloneGroup(g *models.Group) *models.Group {
	out := *g
	out.MemberUserIDs = append([]string(nil), g.MemberUserIDs...)
	out.MemberGroupIDs = append([]string(nil), g.MemberGroupIDs...)

	return &out
}

// RouteModelRepository is the in-memory route model store.
type RouteModelRepository struct {
	mu     *sync.RWMutex
	models map[string]*storedRouteModel
}

func (r *RouteModelRepository) Save(_ context.Context, model *models.RouteModel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[model.ID] = &storedRouteModel{model: *cloneRouteModel(model)}

	return nil
}

func (r *RouteModelRepository) GetByID(_ context.Context, id string) (*models.RouteModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.models[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRouteModelNotFound)
	}

	return cloneRouteModel(&stored.model), nil
}

func (r *RouteModelRepository) List(_ context.Context) ([]*models.RouteModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.RouteModel, 0, len(r.models))
	for _, stored := range r.models {
		out = append(out, cloneRouteModel(&stored.model))
	}

	return out, nil
}

func (r *RouteModelRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.models[id]; !ok {
		return persistence.NewStoreError("Delete", id, persistence.ErrRouteModelNotFound)
	}

	delete(r.models, id)

	return nil
}

// RouteRepository is the in-memory route store.
type RouteRepository struct {
	mu     *sync.RWMutex
	routes map[string]*storedRoute
}

func (r *RouteRepository) Save(_ context.Context, route *models.Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.routes[route.ID] = &storedRoute{route: *cloneRoute(route)}

	return nil
}

func (r *RouteRepository) GetByID(_ context.Context, id string) (*models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.routes[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrRouteNotFound)
	}

	return cloneRoute(&stored.route), nil
}

func (r *RouteRepository) GetByStepID(_ context.Context, stepID string) (*models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.routes {
		for i := range stored.route.Steps {
			if stored.route.Steps[i].ID == stepID {
				return cloneRoute(&stored.route), nil
			}
		}
	}

	return nil, persistence.NewStoreError("GetByStepID", stepID, persistence.ErrRouteStepNotFound)
}

func (r *RouteRepository) ActiveByDocument(_ context.Context, documentID string) (*models.Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.routes {
		if stored.route.DocumentID == documentID && !stored.route.Completed() {
			return cloneRoute(&stored.route), nil
		}
	}

	return nil, nil
}

func (r *RouteRepository) CountByModel(_ context.Context, routeModelID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0

	for _, stored := range r.routes {
		if stored.route.RouteModelID == routeModelID {
			count++
		}
	}

	return count, nil
}

func (r *RouteRepository) CountActiveByModel(_ context.Context, routeModelID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0

	for _, stored := range r.routes {
		if stored.route.RouteModelID == routeModelID && !stored.route.Completed() {
			count++
		}
	}

	return count, nil
}

func (r *RouteRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[id]; !ok {
		return persistence.NewStoreError("Delete", id, persistence.ErrRouteNotFound)
	}

	delete(r.routes, id)

	return nil
}

// AclRepository is the in-memory ACL store.
type AclRepository struct {
	mu   *sync.RWMutex
	acls map[string]*storedAcl
}

func (r *AclRepository) Save(_ context.Context, acl *models.Acl) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *acl
	r.acls[acl.ID] = &storedAcl{acl: copied}

	return nil
}

func (r *AclRepository) BySource(_ context.Context, sourceID string) ([]*models.Acl, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Acl

	for _, stored := range r.acls {
		if stored.acl.SourceID == sourceID {
			copied := stored.acl
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *AclRepository) ByRouteStep(_ context.Context, routeStepID string) ([]*models.Acl, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Acl

	for _, stored := range r.acls {
		if stored.acl.RouteStepID == routeStepID {
			copied := stored.acl
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *AclRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.acls[id]; !ok {
		return persistence.NewStoreError("Delete", id, persistence.ErrAclNotFound)
	}

	delete(r.acls, id)

	return nil
}

func (r *AclRepository) DeleteBySourceTarget(_ context.Context, sourceID, targetID string, perm models.Permission) ([]*models.Acl, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []*models.Acl

	for id, stored := range r.acls {
		if stored.acl.SourceID == sourceID && stored.acl.TargetID == targetID && stored.acl.Perm == perm {
			copied := stored.acl
			removed = append(removed, &copied)

			delete(r.acls, id)
		}
	}

	return removed, nil
}

// DocumentRepository is the in-memory document store.
type DocumentRepository struct {
	mu        *sync.RWMutex
	documents map[string]*storedDocument
}

func (r *DocumentRepository) Save(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.documents[doc.ID] = &storedDocument{doc: *cloneDocument(doc)}

	return nil
}

func (r *DocumentRepository) GetByID(_ context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.documents[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrDocumentNotFound)
	}

	return cloneDocument(&stored.doc), nil
}

func (r *DocumentRepository) ReplaceTags(_ context.Context, documentID string, tagIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.documents[documentID]
	if !ok {
		return persistence.NewStoreError("ReplaceTags", documentID, persistence.ErrDocumentNotFound)
	}

	stored.doc.TagIDs = append([]string(nil), tagIDs...)

	return nil
}

func (r *DocumentRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[id]; !ok {
		return persistence.NewStoreError("Delete", id, persistence.ErrDocumentNotFound)
	}

	delete(r.documents, id)

	return nil
}

// FileRepository is the in-memory file store.
type FileRepository struct {
	mu    *sync.RWMutex
	files map[string]*storedFile
}

func (r *FileRepository) Save(_ context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *file
	r.files[file.ID] = &storedFile{file: copied}

	return nil
}

func (r *FileRepository) ByDocument(_ context.Context, documentID string) ([]*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.File

	for _, stored := range r.files {
		if stored.file.DocumentID == documentID {
			copied := stored.file
			out = append(out, &copied)
		}
	}

	return out, nil
}

func (r *FileRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[id]; !ok {
		return persistence.NewStoreError("Delete", id, persistence.ErrFileNotFound)
	}

	delete(r.files, id)

	return nil
}

// TagRepository is the in-memory tag store.
type TagRepository struct {
	mu   *sync.RWMutex
	tags map[string]*storedTag
}

func (r *TagRepository) Save(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *tag
	r.tags[tag.ID] = &storedTag{tag: copied}

	return nil
}

func (r *TagRepository) GetByID(_ context.Context, id string) (*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.tags[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrTagNotFound)
	}

	copied := stored.tag

	return &copied, nil
}

func (r *TagRepository) List(_ context.Context) ([]*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Tag, 0, len(r.tags))

	for _, stored := range r.tags {
		copied := stored.tag
		out = append(out, &copied)
	}

	return out, nil
}

// UserRepository is the in-memory user store.
type UserRepository struct {
	mu    *sync.RWMutex
	users map[string]*storedUser
}

func (r *UserRepository) Save(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *user
	r.users[user.ID] = &storedUser{user: copied}

	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.users[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrUserNotFound)
	}

	copied := stored.user

	return &copied, nil
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.users {
		if stored.user.Username == username {
			copied := stored.user

			return &copied, nil
		}
	}

	return nil, persistence.NewStoreError("GetByUsername", username, persistence.ErrUserNotFound)
}

// GroupRepository is the in-memory group store.
type GroupRepository struct {
	mu     *sync.RWMutex
	groups map[string]*storedGroup
}

func (r *GroupRepository) Save(_ context.Context, group *models.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.groups[group.ID] = &storedGroup{group: *cloneGroup(group)}

	return nil
}

func (r *GroupRepository) GetByID(_ context.Context, id string) (*models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.groups[id]
	if !ok {
		return nil, persistence.NewStoreError("GetByID", id, persistence.ErrGroupNotFound)
	}

	return cloneGroup(&stored.group), nil
}

func (r *GroupRepository) GroupsContaining(_ context.Context, memberID string) ([]*models.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*models.Group

	for _, stored := range r.groups {
		for _, id := range stored.group.MemberUserIDs {
			if id == memberID {
				out = append(out, cloneGroup(&stored.group))

				break
			}
		}

		for _, id := range stored.group.MemberGroupIDs {
			if id == memberID {
				out = append(out, cloneGroup(&stored.group))

				break
			}
		}
	}

	return out, nil
}
