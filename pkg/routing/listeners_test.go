package routing

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/services"
	"github.com/docdeck/docdeck/pkg/testutil"
)

type recordingProcessor struct {
	mu    sync.Mutex
	files []string
}

func (p *recordingProcessor) Process(_ context.Context, _ string, fileID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.files = append(p.files, fileID)

	return nil
}

func (p *recordingProcessor) processed() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.files...)
}

func TestListeners_DocumentDeletedCascade(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewWatermillEventBus(logger)

	t.Cleanup(func() { _ = bus.Close() })

	f := newEngineFixture(t, bus)
	documents := services.NewDocuments(f.persistence, bus)

	RegisterListeners(bus, f.engine, &LogProcessor{Logger: logger}, logger)

	doc, _ := f.seedRoute(t, testutil.ApproveStep("Approval", "approver-1"))

	// Delete publishes document-deleted; the sync listener terminates the
	// route before Delete returns.
	require.NoError(t, documents.Delete(t.Context(), doc.ID))

	active, err := f.engine.ActiveRoute(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Nil(t, active)

	ok, err := f.acls.Check(t.Context(), doc.ID, models.PermissionWrite, "approver-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListeners_FileReprocess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.NewWatermillEventBus(logger)

	t.Cleanup(func() { _ = bus.Close() })

	f := newEngineFixture(t, bus)
	processor := &recordingProcessor{}

	RegisterListeners(bus, f.engine, processor, logger)
	require.NoError(t, bus.Subscribe(t.Context()))

	for _, fileID := range []string{"file-1", "file-2", "file-3"} {
		event := events.FileReprocess{
			BaseEvent: events.BaseEvent{
				ID:        uuid.New().String(),
				Type:      events.FileReprocessEvent,
				Timestamp: time.Now(),
			},
			FileID:     fileID,
			DocumentID: "doc-1",
		}
		require.NoError(t, bus.Publish(t.Context(), "doc-1", event))
	}

	drainCtx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	require.NoError(t, bus.Drain(drainCtx))

	// Queue order is submission order.
	assert.Equal(t, []string{"file-1", "file-2", "file-3"}, processor.processed())
}
