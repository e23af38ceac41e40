// Package addtag provides the ADD_TAG builtin routing action.
package addtag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/protocol"
)

const Kind = "ADD_TAG"

func NewAddTagActionFactory() *AddTagActionFactory {
	return &AddTagActionFactory{}
}

type AddTagActionFactory struct{}

func (f *AddTagActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewAddTagAction(params)
}

func (f *AddTagActionFactory) ID() string {
	return Kind
}

func (f *AddTagActionFactory) Name() string {
	return "Add tag"
}

func (f *AddTagActionFactory) Description() string {
	return "Adds a tag to the routed document when the step transition fires."
}

func (f *AddTagActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag_id": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Identifier of the tag to add to the document.",
			},
		},
		"required":             []string{"tag_id"},
		"additionalProperties": false,
	}
}

type AddTagAction struct {
	TagID string
}

func NewAddTagAction(params map[string]any) (*AddTagAction, error) {
	tagID, _ := params["tag_id"].(string)
	if tagID == "" {
		return nil, fmt.Errorf("add tag action requires a tag_id")
	}

	return &AddTagAction{TagID: tagID}, nil
}

// Execute computes the document's new tag set as a set union and replaces
// the assignment. The engine holds the document's mutation lock, so the
// read-then-write cannot lose concurrent updates.
func (a *AddTagAction) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	if _, err := actionCtx.Tags.GetByID(ctx, a.TagID); err != nil {
		return fmt.Errorf("failed to resolve tag %s: %w", a.TagID, err)
	}

	doc, err := actionCtx.Documents.GetByID(ctx, actionCtx.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", actionCtx.DocumentID, err)
	}

	if doc.HasTag(a.TagID) {
		return nil
	}

	tagIDs := append(append([]string(nil), doc.TagIDs...), a.TagID)

	if err := actionCtx.Documents.ReplaceTags(ctx, doc.ID, tagIDs); err != nil {
		return fmt.Errorf("failed to replace tags on document %s: %w", doc.ID, err)
	}

	logger.InfoContext(ctx, "Added tag to document", "document_id", doc.ID, "tag_id", a.TagID)

	return nil
}
