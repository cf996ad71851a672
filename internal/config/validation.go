package config

import (
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/sequencer"
)

// Validate checks a build description. Every problem is a configuration error.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateBuild(); err != nil {
		return err
	}
	if err := cv.validateSettings(); err != nil {
		return err
	}
	if err := cv.validateRetry(); err != nil {
		return err
	}
	if err := cv.validateLogging(); err != nil {
		return err
	}
	if err := cv.validatePlugins("build", cv.config.Plugins); err != nil {
		return err
	}
	return cv.validateProjects()
}

func (cv *configurationValidator) validateBuild() error {
	if strings.TrimSpace(cv.config.Build.Name) == "" {
		return errors.ConfigError("build name cannot be empty").Build()
	}
	return nil
}

func (cv *configurationValidator) validateSettings() error {
	s := &cv.config.Settings
	s.BuildType = strings.ToLower(strings.TrimSpace(s.BuildType))
	if err := sequencer.ValidateBuildType(s.BuildType); err != nil {
		return err
	}
	for _, decls := range [][]sequencer.StepDeclaration{s.BuildSteps, s.ProjectSteps, s.ConfigurationSteps} {
		if err := validateDeclarations(decls); err != nil {
			return err
		}
	}
	if err := s.ValidateSelection(); err != nil {
		return err
	}
	if s.Jobs < 1 {
		s.Jobs = 1
	}
	if s.CommandTimeout < 0 {
		return errors.ConfigError("command timeout cannot be negative").Build()
	}
	return nil
}

func validateDeclarations(decls []sequencer.StepDeclaration) error {
	seen := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			return errors.ConfigError("step declaration without a name").Build()
		}
		if d.BuildTypes != strings.ToLower(d.BuildTypes) {
			return errors.ConfigError("step build types must be lowercase letters").
				WithContext("step", d.Name).
				Build()
		}
		if _, dup := seen[d.Name]; dup {
			return errors.ConfigError("step declared twice").
				WithContext("step", d.Name).
				Build()
		}
		seen[d.Name] = struct{}{}
	}
	return nil
}

func (cv *configurationValidator) validateLogging() error {
	l := cv.config.Logging
	if l.Level != "" {
		if _, err := logLevels.NormalizeWithError(l.Level); err != nil {
			return err
		}
	}
	if l.Format != "" {
		if _, err := logFormats.NormalizeWithError(l.Format); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateRetry() error {
	r := cv.config.Retry
	if r.Backoff != "" {
		if _, err := retryBackoffs.NormalizeWithError(r.Backoff); err != nil {
			return err
		}
	}
	if r.MaxRetries != nil && *r.MaxRetries < 0 {
		return errors.ConfigError("max retries cannot be negative").Build()
	}
	return nil
}

func (cv *configurationValidator) validatePlugins(owner string, plugins []PluginConfig) error {
	for _, p := range plugins {
		if strings.TrimSpace(p.Type) == "" {
			return errors.ConfigError("plugin type cannot be empty").
				WithContext("node", owner).
				Build()
		}
	}
	return nil
}

func (cv *configurationValidator) validateProjects() error {
	names := make(map[string]bool)
	for _, p := range cv.config.Projects {
		if strings.TrimSpace(p.Name) == "" {
			return errors.ConfigError("project name cannot be empty").Build()
		}
		if names[p.Name] {
			return errors.ConfigError("duplicate project name").
				WithContext("project", p.Name).
				Build()
		}
		names[p.Name] = true
		if p.SCM != "" && !strings.Contains(p.SCM, ":") {
			return errors.ConfigError("scm must be written as <implementation>:<location>").
				WithContext("project", p.Name).
				WithContext("scm", p.SCM).
				Build()
		}
		if err := cv.validatePlugins(p.Name, p.Plugins); err != nil {
			return err
		}
		if err := ValidateStepActions(p.Name, p.Steps); err != nil {
			return err
		}
		if err := cv.validateConfigurations(p.Name, p.Configurations); err != nil {
			return err
		}
	}
	return nil
}

func (cv *configurationValidator) validateConfigurations(owner string, confs []ConfigurationConfig) error {
	names := make(map[string]bool)
	for _, c := range confs {
		if strings.TrimSpace(c.Name) == "" {
			return errors.ConfigError("configuration name cannot be empty").
				WithContext("node", owner).
				Build()
		}
		if names[c.Name] {
			return errors.ConfigError("duplicate configuration name").
				WithContext("node", owner).
				WithContext("configuration", c.Name).
				Build()
		}
		names[c.Name] = true
		path := owner + "/" + c.Name
		if err := cv.validatePlugins(path, c.Plugins); err != nil {
			return err
		}
		if err := ValidateStepActions(path, c.Steps); err != nil {
			return err
		}
		if err := cv.validateConfigurations(path, c.Variants); err != nil {
			return err
		}
	}
	return nil
}

func ValidateStepActions(owner string, steps []StepActions) error {
	for _, s := range steps {
		if s.Step == "" {
			return errors.ConfigError("step actions without a step name").
				WithContext("node", owner).
				Build()
		}
		for _, a := range s.Actions {
			if err := a.Validate(); err != nil {
				return errors.WrapError(err, errors.CategoryConfig, "invalid action").
					WithContext("node", owner).
					WithContext("step", s.Step).
					Build()
			}
		}
	}
	return nil
}

// Validate checks that the action is well formed.
func (a ActionConfig) Validate() error {
	kinds := 0
	if len(a.Run) > 0 {
		kinds++
	}
	if a.Script != "" {
		kinds++
	}
	if a.MkDir != "" {
		kinds++
	}
	if a.RmDir != "" {
		kinds++
	}
	if kinds != 1 {
		return errors.ConfigError("action must set exactly one of run, script, mkdir and rmdir").Build()
	}
	switch a.When {
	case "", "pre", "main", "post":
	default:
		return errors.ConfigError("action when must be pre, main or post").
			WithContext("when", a.When).
			Build()
	}
	if a.Timeout < 0 {
		return errors.ConfigError("action timeout cannot be negative").Build()
	}
	return nil
}
