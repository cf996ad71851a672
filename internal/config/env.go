package config

import (
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// envFiles are tried in order. Variables already set in the process environment win.
var envFiles = []string{".env", ".env.local"}

// LoadEnvFiles loads every existing environment file from the current directory and
// returns the names it loaded.
func LoadEnvFiles() ([]string, error) {
	var loaded []string
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return loaded, errors.WrapError(err, errors.CategoryConfig, "cannot load environment file").
				WithContext("path", name).
				Build()
		}
		loaded = append(loaded, name)
	}
	return loaded, nil
}
