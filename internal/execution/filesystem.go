package execution

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// MkDir creates a directory and its parents.
type MkDir struct {
	Path string
}

func (m MkDir) Description() string { return fmt.Sprintf("mkdir %q", m.Path) }

func (m MkDir) Run(_ context.Context, _ *process.Context) (Outcome, error) {
	if m.Path == "" {
		return Outcome{}, errors.InternalError("mkdir without a path").Build()
	}
	if err := os.MkdirAll(m.Path, 0o750); err != nil {
		return Outcome{}, errors.WrapError(err, errors.CategoryFileSystem, "cannot create directory").
			WithContext("path", m.Path).
			Build()
	}
	return Outcome{}, nil
}

// RmDir removes a directory tree. A missing directory is not an error. Failures are
// reported as result 1 with the reason on stderr.
type RmDir struct {
	Path string
}

func (r RmDir) Description() string { return fmt.Sprintf("rmdir %q", r.Path) }

func (r RmDir) Run(_ context.Context, _ *process.Context) (Outcome, error) {
	if r.Path == "" {
		return Outcome{}, errors.InternalError("rmdir without a path").Build()
	}
	if err := os.RemoveAll(r.Path); err != nil {
		return Outcome{
			Result: 1,
			Stderr: []byte(fmt.Sprintf("error deleting directory %q: %v", r.Path, err)),
		}, nil
	}
	return Outcome{}, nil
}
