package metrics

import (
	"os"
	"path/filepath"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// WriteTextfile writes every metric gathered from g to path in the Prometheus text format.
// The file is replaced atomically.
func WriteTextfile(path string, g prom.Gatherer) error {
	if g == nil {
		return errors.InternalError("no metrics gatherer").Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create metrics directory").
			WithContext("path", path).
			Build()
	}
	if err := prom.WriteToTextfile(path, g); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot write metrics file").
			WithContext("path", path).
			Build()
	}
	return nil
}
