package removetag

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

func TestNewRemoveTagAction(t *testing.T) {
	action, err := NewRemoveTagAction(map[string]any{"tag_id": "tag-1"})
	require.NoError(t, err)
	assert.Equal(t, "tag-1", action.TagID)

	_, err = NewRemoveTagAction(nil)
	assert.Error(t, err)
}

func TestRemoveTagAction_Execute(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := memory.NewPersistence()

	doc := testutil.CreateTestDocument(func(d *models.Document) {
		d.TagIDs = []string{"tag-1", "tag-2"}
	})
	require.NoError(t, p.DocumentRepository().Save(t.Context(), doc))

	actionCtx := protocol.ActionContext{
		DocumentID: doc.ID,
		Documents:  p.DocumentRepository(),
		Files:      p.FileRepository(),
		Tags:       p.TagRepository(),
	}

	action := &RemoveTagAction{TagID: "tag-1"}

	require.NoError(t, action.Execute(t.Context(), actionCtx, logger))

	reloaded, err := p.DocumentRepository().GetByID(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-2"}, reloaded.TagIDs)

	// Removing an absent tag is a no-op.
	action = &RemoveTagAction{TagID: "tag-unknown"}

	require.NoError(t, action.Execute(t.Context(), actionCtx, logger))

	reloaded, err = p.DocumentRepository().GetByID(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"tag-2"}, reloaded.TagIDs)
}
