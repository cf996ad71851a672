package config

import (
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Duration is a time.Duration written as "90s" or "5m" in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.ValidationError("invalid duration").
			WithContext("value", raw).
			WithCause(err).
			Build()
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
