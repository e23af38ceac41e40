package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/eventbus"
	"github.com/docdeck/docdeck/pkg/events"
	"github.com/docdeck/docdeck/pkg/mocks"
	"github.com/docdeck/docdeck/pkg/persistence/memory"
)

func newDocumentsFixture() (*Documents, *memory.Persistence, *mocks.MockEventBus) {
	p := memory.NewPersistence()

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return NewDocuments(p, bus), p, bus
}

func TestDocuments_Create(t *testing.T) {
	service, p, bus := newDocumentsFixture()

	doc, err := service.Create(t.Context(), "Contract", "creator-1")
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "creator-1", doc.CreatorID)

	stored, err := p.DocumentRepository().GetByID(t.Context(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contract", stored.Name)

	bus.AssertCalled(t, "Publish", mock.Anything, doc.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.DocumentCreatedEvent
	}))
}

func TestDocuments_Delete(t *testing.T) {
	service, _, bus := newDocumentsFixture()

	doc, err := service.Create(t.Context(), "Contract", "creator-1")
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), doc.ID))

	_, err = service.Get(t.Context(), doc.ID)
	assert.True(t, IsNotFound(err))

	bus.AssertCalled(t, "Publish", mock.Anything, doc.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.DocumentDeletedEvent
	}))
}

func TestDocuments_Delete_Unknown(t *testing.T) {
	service, _, _ := newDocumentsFixture()

	err := service.Delete(t.Context(), "missing")
	assert.True(t, IsNotFound(err))
}

func TestDocuments_AttachFile(t *testing.T) {
	service, p, bus := newDocumentsFixture()

	doc, err := service.Create(t.Context(), "Contract", "creator-1")
	require.NoError(t, err)

	file, err := service.AttachFile(t.Context(), doc.ID, "contract.pdf", "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, file.DocumentID)

	files, err := p.FileRepository().ByDocument(t.Context(), doc.ID)
	require.NoError(t, err)
	require.Len(t, files, 1)

	bus.AssertCalled(t, "Publish", mock.Anything, doc.ID, mock.MatchedBy(func(event eventbus.Event) bool {
		return event.GetType() == events.FileCreatedEvent
	}))

	_, err = service.AttachFile(t.Context(), "missing", "contract.pdf", "")
	assert.True(t, IsNotFound(err))
}

func TestDocuments_Tags(t *testing.T) {
	service, _, _ := newDocumentsFixture()

	tag, err := service.CreateTag(t.Context(), "urgent")
	require.NoError(t, err)
	assert.NotEmpty(t, tag.ID)

	tags, err := service.ListTags(t.Context())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "urgent", tags[0].Name)
}
