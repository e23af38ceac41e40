package registry

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docdeck/docdeck/pkg/actions/addtag"
	"github.com/docdeck/docdeck/pkg/actions/processfiles"
	"github.com/docdeck/docdeck/pkg/actions/removetag"
)

func newTestRegistry() *Registry {
	return NewBuiltinRegistry(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRegistry_Builtins(t *testing.T) {
	reg := newTestRegistry()

	kinds := reg.ActionKinds()
	assert.Contains(t, kinds, addtag.Kind)
	assert.Contains(t, kinds, removetag.Kind)
	assert.Contains(t, kinds, processfiles.Kind)
}

func TestRegistry_CreateAction(t *testing.T) {
	reg := newTestRegistry()

	action, err := reg.CreateAction(addtag.Kind, map[string]any{"tag_id": "tag-1"})
	require.NoError(t, err)
	assert.NotNil(t, action)

	_, err = reg.CreateAction("NO_SUCH_KIND", nil)
	assert.Error(t, err)
}

func TestRegistry_ValidateSpec(t *testing.T) {
	reg := newTestRegistry()

	t.Run("valid params", func(t *testing.T) {
		assert.NoError(t, reg.ValidateSpec(addtag.Kind, map[string]any{"tag_id": "tag-1"}))
	})

	t.Run("missing required param", func(t *testing.T) {
		assert.Error(t, reg.ValidateSpec(addtag.Kind, map[string]any{}))
	})

	t.Run("nil params fail required check", func(t *testing.T) {
		assert.Error(t, reg.ValidateSpec(removetag.Kind, nil))
	})

	t.Run("unexpected property", func(t *testing.T) {
		assert.Error(t, reg.ValidateSpec(processfiles.Kind, map[string]any{"surprise": true}))
	})

	t.Run("empty params for parameterless action", func(t *testing.T) {
		assert.NoError(t, reg.ValidateSpec(processfiles.Kind, nil))
	})

	t.Run("unknown kind", func(t *testing.T) {
		assert.Error(t, reg.ValidateSpec("NO_SUCH_KIND", map[string]any{}))
	})

	t.Run("wrong param type", func(t *testing.T) {
		assert.Error(t, reg.ValidateSpec(addtag.Kind, map[string]any{"tag_id": 42}))
	})
}
