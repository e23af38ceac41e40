// Package services provides the platform-facing application services
// sitting between the HTTP layer and persistence.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence"
)

var ErrDocumentNotFound = persistence.ErrDocumentNotFound

// Documents manages document, file and tag records and publishes their
// lifecycle events.
type Documents struct {
	persistence persistence.Persistence
	bus         eventbus.EventPublisher
}

func NewDocuments(p persistence.Persistence, bus eventbus.EventPublisher) *Documents {
	return &Documents{persistence: p, bus: bus}
}

func (s *Documents) Create(ctx context.Context, name, creatorID string) (*models.Document, error) {
	now := time.Now()
	doc := &models.Document{
		ID:        uuid.New().String(),
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.persistence.DocumentRepository().Save(ctx, doc); err != nil {
		return nil, err
	}

	event := events.DocumentCreated{
		BaseEvent:  s.baseEvent(events.DocumentCreatedEvent),
		DocumentID: doc.ID,
		CreatorID:  creatorID,
	}

	if err := s.bus.Publish(ctx, doc.ID, event); err != nil {
		return nil, err
	}

	return doc, nil
}

func (s *Documents) Get(ctx context.Context, id string) (*models.Document, error) {
	return s.persistence.DocumentRepository().GetByID(ctx, id)
}

// Delete removes the document and publishes document-deleted. The
// routing engine listens synchronously and cascade-terminates any active
// route before this returns.
func (s *Documents) Delete(ctx context.Context, id string) error {
	if _, err := s.persistence.DocumentRepository().GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.persistence.DocumentRepository().Delete(ctx, id); err != nil {
		return err
	}

	event := events.DocumentDeleted{
		BaseEvent:  s.baseEvent(events.DocumentDeletedEvent),
		DocumentID: id,
	}

	return s.bus.Publish(ctx, id, event)
}

// AttachFile records a file on a document and publishes file-created
// after document-created ordering is already settled by the queue.
func (s *Documents) AttachFile(ctx context.Context, documentID, name, contentType string) (*models.File, error) {
	if _, err := s.persistence.DocumentRepository().GetByID(ctx, documentID); err != nil {
		return nil, err
	}

	file := &models.File{
		ID:          uuid.New().String(),
		DocumentID:  documentID,
		Name:        name,
		ContentType: contentType,
		CreatedAt:   time.Now(),
	}

	if err := s.persistence.FileRepository().Save(ctx, file); err != nil {
		return nil, err
	}

	event := events.FileCreated{
		BaseEvent:  s.baseEvent(events.FileCreatedEvent),
		FileID:     file.ID,
		DocumentID: documentID,
	}

	if err := s.bus.Publish(ctx, documentID, event); err != nil {
		return nil, err
	}

	return file, nil
}

func (s *Documents) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	tag := &models.Tag{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now(),
	}

	if err := s.persistence.TagRepository().Save(ctx, tag); err != nil {
		return nil, err
	}

	return tag, nil
}

func (s *Documents) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.persistence.TagRepository().List(ctx)
}

// IsNotFound reports whether the error is a missing-entity error.
func IsNotFound(err error) bool {
	return persistence.IsNotFound(err) || errors.Is(err, ErrDocumentNotFound)
}

func (s *Documents) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}
