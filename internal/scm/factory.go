package scm

import (
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Implementation identifiers understood by New.
const (
	ImplGit      = "git"
	ImplLocalDir = "localdir"
)

// ParseDescription splits a provider description at its first colon.
func ParseDescription(description string) (implementation, location string, err error) {
	implementation, location, found := strings.Cut(description, ":")
	if !found || implementation == "" {
		return "", "", errors.ConfigError("cannot parse source code provider description").
			WithContext("description", description).
			Build()
	}
	return implementation, location, nil
}

// New creates the provider a description names.
func New(description string, opts Options) (Provider, error) {
	implementation, location, err := ParseDescription(description)
	if err != nil {
		return nil, err
	}
	if location == "" {
		return nil, errors.ConfigError("source code provider description without a location").
			WithContext("description", description).
			Build()
	}
	switch implementation {
	case ImplGit:
		return NewGit(location, opts), nil
	case ImplLocalDir:
		return NewLocalDir(location), nil
	default:
		return nil, errors.ConfigError("unknown source code provider implementation").
			WithContext("implementation", implementation).
			Build()
	}
}
