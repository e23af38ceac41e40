package addtag

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/models"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
	"github.com/docdeck/docdeck/pkg/protocol"
	"github.com/docdeck/docdeck/pkg/testutil"
)

func newActionContext(t *testing.T, p *memory.Persistence, documentID string) protocol.ActionContext {
	t.Helper()

	return protocol.ActionContext{
		DocumentID: documentID,
		RouteID:    "route-1",
		StepID:     "step-1",
		Outcome:    models.OutcomeApproved,
		Documents:  p.DocumentRepository(),
		Files:      p.FileRepository(),
		Tags:       p.TagRepository(),
	}
}

func TestNewAddTagAction(t *testing.T) {
	action, err := NewAddTagAction(map[string]any{"tag_id": "tag-1"})
	require.NoError(t, err)
	assert.Equal(t, "tag-1", action.TagID)

	_, err = NewAddTagAction(map[string]any{})
	assert.Error(t, err)
}

func TestAddTagAction_Execute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := memory.NewPersistence()

	doc := testutil.CreateTestDocument()
	require.NoError(t, p.DocumentRepository().Save(t.Context(), doc))
	require.NoError(t, p.TagRepository().Save(t.Context(), &models.Tag{ID: "tag-1", Name: "urgent"}))

	action := &AddTagAction{TagID: "tag-1"}

	require.NoError(t, action.Execute(t.Context(), newActionContext(t, p, doc.ID), logger))

	reloaded, err := p.DocumentRepository().GetByID(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, reloaded.TagIDs)

	// Re-running is a no-op, not a duplicate.
	require.NoError(t, action.Execute(t.Context(), newActionContext(t, p, doc.ID), logger))

	reloaded, err = p.DocumentRepository().GetByID(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-1"}, reloaded.TagIDs)
}

func TestAddTagAction_Execute_UnknownTag(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := memory.NewPersistence()

	doc := testutil.CreateTestDocument()
	require.NoError(t, p.DocumentRepository().Save(t.Context(), doc))

	action := &AddTagAction{TagID: "tag-missing"}

	err := action.Execute(t.Context(), newActionContext(t, p, doc.ID), logger)
	assert.Error(t, err)
}
