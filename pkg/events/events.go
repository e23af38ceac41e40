// Package events defines the domain event types exchanged between the
// routing engine, the permission store and outside listeners.
package events

import (
	"time"
)

type EventType string

// Topic is the single queue topic all domain events flow through. One
// consumer drains it in submission order.
const Topic = "docdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Document lifecycle events.
	DocumentCreatedEvent EventType = "document.created"
	DocumentUpdatedEvent EventType = "document.updated"
	DocumentDeletedEvent EventType = "document.deleted"

	// File lifecycle events.
	FileCreatedEvent   EventType = "file.created"
	FileDeletedEvent   EventType = "file.deleted"
	FileReprocessEvent EventType = "file.reprocess"

	// Permission events.
	AclCreatedEvent EventType = "acl.created"
	AclDeletedEvent EventType = "acl.deleted"

	// Routing events.
	RouteCompletedEvent EventType = "route.completed"

	// Directory events consumed from outside the engine.
	GroupMembershipChangedEvent EventType = "group.membership.changed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type DocumentCreated struct {
	BaseEvent

	DocumentID string `json:"document_id"`
	CreatorID  string `json:"creator_id,omitempty"`
}

func (e DocumentCreated) GetType() EventType { return DocumentCreatedEvent }

type DocumentUpdated struct {
	BaseEvent

	DocumentID string `json:"document_id"`
}

func (e DocumentUpdated) GetType() EventType { return DocumentUpdatedEvent }

type DocumentDeleted struct {
	BaseEvent

	DocumentID string `json:"document_id"`
}

func (e DocumentDeleted) GetType() EventType { return DocumentDeletedEvent }

type FileCreated struct {
	BaseEvent

	FileID     string `json:"file_id"`
	DocumentID string `json:"document_id"`
}

func (e FileCreated) GetType() EventType { return FileCreatedEvent }

type FileDeleted struct {
	BaseEvent

	FileID     string `json:"file_id"`
	DocumentID string `json:"document_id"`
}

func (e FileDeleted) GetType() EventType { return FileDeletedEvent }

// FileReprocess asks the content processor to re-run extraction for one
// file. PROCESS_FILES emits one of these per attached file.
type FileReprocess struct {
	BaseEvent

	FileID     string `json:"file_id"`
	DocumentID string `json:"document_id"`
}

func (e FileReprocess) GetType() EventType { return FileReprocessEvent }

type AclCreated struct {
	BaseEvent

	AclID       string `json:"acl_id"`
	SourceID    string `json:"source_id"`
	Perm        string `json:"perm"`
	TargetType  string `json:"target_type"`
	TargetID    string `json:"target_id"`
	Origin      string `json:"origin"`
	RouteStepID string `json:"route_step_id,omitempty"`
}

func (e AclCreated) GetType() EventType { return AclCreatedEvent }

type AclDeleted struct {
	BaseEvent

	AclID       string `json:"acl_id"`
	SourceID    string `json:"source_id"`
	Perm        string `json:"perm"`
	TargetID    string `json:"target_id"`
	RouteStepID string `json:"route_step_id,omitempty"`
}

func (e AclDeleted) GetType() EventType { return AclDeletedEvent }

type RouteCompleted struct {
	BaseEvent

	RouteID    string `json:"route_id"`
	DocumentID string `json:"document_id"`
	// LastOutcome is the outcome of the final step.
	LastOutcome string `json:"last_outcome"`
}

func (e RouteCompleted) GetType() EventType { return RouteCompletedEvent }

// GroupMembershipChanged is emitted by the directory layer. Already
// granted ROUTING permissions are not moved; membership changes only
// affect future permission resolution.
type GroupMembershipChanged struct {
	BaseEvent

	GroupID string `json:"group_id"`
}

func (e GroupMembershipChanged) GetType() EventType { return GroupMembershipChangedEvent }
