// Package models defines the core domain models for the document platform.
package models

import "time"

// Document represents a managed document. Content storage, rendering and
// indexing live outside this module; the routing engine only needs the
// identity, the tag set and the attached files.
type Document struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"      validate:"required,min=1"`
	CreatorID string     `json:"creator_id"`
	TagIDs    []string   `json:"tag_ids,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// HasTag reports whether the document carries the given tag.
func (d *Document) HasTag(tagID string) bool {
	for _, id := range d.TagIDs {
		if id == tagID {
			return true
		}
	}

	return false
}

// File is a binary attachment of a document. Content extraction and OCR
// are performed by an external processor reacting to file events.
type File struct {
	ID          string    `json:"id"`
	DocumentID  string    `json:"document_id" validate:"required"`
	Name        string    `json:"name"        validate:"required"`
	ContentType string    `json:"content_type,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
