package models

import "time"

// Permission is the access level granted by an ACL entry.
type Permission string

const (
	PermissionRead  Permission = "READ"
	PermissionWrite Permission = "WRITE"
)

// Implies reports whether holding p satisfies a check for other.
// WRITE subsumes READ.
func (p Permission) Implies(other Permission) bool {
	return p == other || (p == PermissionWrite && other == PermissionRead)
}

// TargetType identifies the kind of principal an ACL entry or a route
// step points at.
type TargetType string

const (
	TargetTypeUser  TargetType = "USER"
	TargetTypeGroup TargetType = "GROUP"
	TargetTypeShare TargetType = "SHARE"
)

// AclOrigin records who owns an ACL entry. USER entries persist until
// explicitly revoked; ROUTING entries are owned by a pending route step
// and are revoked when that step ends.
type AclOrigin string

const (
	AclOriginUser    AclOrigin = "USER"
	AclOriginRouting AclOrigin = "ROUTING"
)

// Acl is a grant of a permission from a target principal onto a source,
// typically a document.
type Acl struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"source_id"   validate:"required"`
	Perm        Permission `json:"perm"        validate:"required,oneof=READ WRITE"`
	TargetType  TargetType `json:"target_type" validate:"required,oneof=USER GROUP SHARE"`
	TargetID    string     `json:"target_id"   validate:"required"`
	Origin      AclOrigin  `json:"origin"      validate:"required,oneof=USER ROUTING"`
	RouteStepID string     `json:"route_step_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
