package models

import "time"

// Tag is a label that can be attached to documents, either by users or
// by routing actions on step transitions.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name" validate:"required,min=1"`
	CreatedAt time.Time `json:"created_at"`
}
