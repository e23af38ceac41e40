package routing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
)

// ContentProcessor re-runs content extraction for one file. The real
// extractor (OCR, text indexing) lives outside this module.
type ContentProcessor interface {
	Process(ctx context.Context, documentID, fileID string) error
}

// RegisterListeners wires the engine to the event dispatcher.
//
// document-deleted is handled synchronously: cascade termination revokes
// permissions and must be observable when the publisher returns.
// file-reprocess and group-membership-changed ride the async queue.
func RegisterListeners(bus eventbus.EventBus, engine *Engine, processor ContentProcessor, logger *slog.Logger) {
	logger = logger.With("module", "routing_listeners")

	bus.HandleSync(events.DocumentDeletedEvent, func(ctx context.Context, event any) error {
		deleted, ok := event.(events.DocumentDeleted)
		if !ok {
			if p, isPtr := event.(*events.DocumentDeleted); isPtr {
				deleted = *p
			} else {
				return fmt.Errorf("unexpected payload %T for %s", event, events.DocumentDeletedEvent)
			}
		}

		return engine.TerminateForDocument(ctx, deleted.DocumentID)
	})

	bus.Handle(events.GroupMembershipChangedEvent, func(ctx context.Context, event any) error {
		// Routing grants point at the group id, not at its members, so
		// already-granted permissions stay where they are. Resolution of
		// who passes a check happens at check time.
		changed, ok := event.(*events.GroupMembershipChanged)
		if ok {
			logger.DebugContext(ctx, "Group membership changed, grants unchanged",
				"group_id", changed.GroupID)
		}

		return nil
	})

	bus.Handle(events.FileReprocessEvent, func(ctx context.Context, event any) error {
		reprocess, ok := event.(*events.FileReprocess)
		if !ok {
			return fmt.Errorf("unexpected payload %T for %s", event, events.FileReprocessEvent)
		}

		if err := processor.Process(ctx, reprocess.DocumentID, reprocess.FileID); err != nil {
			// Per-file failures are logged; the queue keeps going.
			return fmt.Errorf("reprocess of file %s failed: %w", reprocess.FileID, err)
		}

		return nil
	})
}

// LogProcessor is a ContentProcessor that only records the request. The
// platform deployment replaces it with the real extraction pipeline.
type LogProcessor struct {
	Logger *slog.Logger
}

func (p *LogProcessor) Process(ctx context.Context, documentID, fileID string) error {
	p.Logger.InfoContext(ctx, "Content extraction requested",
		"document_id", documentID, "file_id", fileID)

	return nil
}
