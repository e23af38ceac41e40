package registry

import (
	"log/slog"

	"github.com/docdeck/docdeck/pkg/actions/addtag"
	"github.com/docdeck/docdeck/pkg/actions/processfiles"
	"github.com/docdeck/docdeck/pkg/actions/removetag"
)

// NewBuiltinRegistry returns a registry with every builtin action kind
// registered.
func NewBuiltinRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.RegisterAction(addtag.NewAddTagActionFactory())
	r.RegisterAction(removetag.NewRemoveTagActionFactory())
	r.RegisterAction(processfiles.NewProcessFilesActionFactory())

	return r
}
