// Package removetag provides the REMOVE_TAG builtin routing action.
package removetag

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/protocol"
)

const Kind = "REMOVE_TAG"

func NewRemoveTagActionFactory() *RemoveTagActionFactory {
	return &RemoveTagActionFactory{}
}

type RemoveTagActionFactory struct{}

func (f *RemoveTagActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewRemoveTagAction(params)
}

func (f *RemoveTagActionFactory) ID() string {
	return Kind
}

func (f *RemoveTagActionFactory) Name() string {
	return "Remove tag"
}

func (f *RemoveTagActionFactory) Description() string {
	return "Removes a tag from the routed document when the step transition fires."
}

func (f *RemoveTagActionFactory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag_id": map[string]any{
				"type":        "string",
				"minLength":   1,
				"description": "Identifier of the tag to remove from the document.",
			},
		},
		"required":             []string{"tag_id"},
		"additionalProperties": false,
	}
}

type RemoveTagAction struct {
	TagID string
}

func NewRemoveTagAction(params map[string]any) (*RemoveTagAction, error) {
	tagID, _ := params["tag_id"].(string)
	if tagID == "" {
		return nil, fmt.Errorf("remove tag action requires a tag_id")
	}

	return &RemoveTagAction{TagID: tagID}, nil
}

// Execute computes the document's new tag set as a set difference and
// replaces the assignment under the engine's per-document lock.
func (a *RemoveTagAction) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	doc, err := actionCtx.Documents.GetByID(ctx, actionCtx.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", actionCtx.DocumentID, err)
	}

	if !doc.HasTag(a.TagID) {
		return nil
	}

	tagIDs := make([]string, 0, len(doc.TagIDs))

	for _, id := range doc.TagIDs {
		if id != a.TagID {
			tagIDs = append(tagIDs, id)
		}
	}

	if err := actionCtx.Documents.ReplaceTags(ctx, doc.ID, tagIDs); err != nil {
		return fmt.Errorf("failed to replace tags on document %s: %w", doc.ID, err)
	}

	logger.InfoContext(ctx, "Removed tag from document", "document_id", doc.ID, "tag_id", a.TagID)

	return nil
}
