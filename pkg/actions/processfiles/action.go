// Package processfiles provides the PROCESS_FILES builtin routing action.
package processfiles

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/protocol"
)

const Kind = "PROCESS_FILES"

func NewProcessFilesActionFactory() *ProcessFilesActionFactory {
	return &ProcessFilesActionFactory{}
}

type ProcessFilesActionFactory struct{}

func (f *ProcessFilesActionFactory) Create(params map[string]any) (protocol.Action, error) {
	return NewProcessFilesAction(params)
}

func (f *ProcessFilesActionFactory) ID() string {
	return Kind
}

func (f *ProcessFilesActionFactory) Name() string {
	return "Process files"
}

func (f *ProcessFilesActionFactory) Description() string {
	return "Re-runs content extraction for every file attached to the routed document."
}

func (f *ProcessFilesActionFactory) Schema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": false,
	}
}

type ProcessFilesAction struct{}

func NewProcessFilesAction(_ map[string]any) (*ProcessFilesAction, error) {
	return &ProcessFilesAction{}, nil
}

// Execute emits one reprocess event per attached file onto the async
// queue. A failure to publish one event is logged and does not abort the
// remaining files; the actual extraction runs in the queue worker.
func (a *ProcessFilesAction) Execute(ctx context.Context, actionCtx protocol.ActionContext, logger *slog.Logger) error {
	files, err := actionCtx.Files.ByDocument(ctx, actionCtx.DocumentID)
	if err != nil {
		return fmt.Errorf("failed to list files of document %s: %w", actionCtx.DocumentID, err)
	}

	var failed int

	for _, file := range files {
		event := events.FileReprocess{
			BaseEvent: events.BaseEvent{
				ID:        uuid.New().String(),
				Type:      events.FileReprocessEvent,
				Timestamp: time.Now(),
			},
			FileID:     file.ID,
			DocumentID: file.DocumentID,
		}

		if err := actionCtx.Events.Publish(ctx, file.DocumentID, event); err != nil {
			failed++

			logger.ErrorContext(ctx, "Failed to queue file for reprocessing",
				"file_id", file.ID, "document_id", file.DocumentID, "error", err)
		}
	}

	logger.InfoContext(ctx, "Queued document files for reprocessing",
		"document_id", actionCtx.DocumentID, "files", len(files), "failed", failed)

	return nil
}
