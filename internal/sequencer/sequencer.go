// Package sequencer computes the ordered step list of an instruction node from the declared
// default steps, the build type and the command line step switches.
package sequencer

import (
	"strings"

	"git.home.luguber.info/inful/makeomatic/internal/execution"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// StepDeclaration declares a default step and the build types that enable it.
type StepDeclaration struct {
	Name         string `yaml:"name"`
	BuildTypes   string `yaml:"build_types"`
	RunOnFailure bool   `yaml:"run_on_failure"`
}

// Switch is one parsed step override token.
type Switch struct {
	Step   string
	Enable bool
}

func (s Switch) String() string {
	if s.Enable {
		return "enable-" + s.Step
	}
	return "disable-" + s.Step
}

// ValidateBuildType checks that buildType is a single lowercase letter.
func ValidateBuildType(buildType string) error {
	if len(buildType) != 1 || buildType[0] < 'a' || buildType[0] > 'z' {
		return errors.ConfigError("build type must be a single lowercase letter").
			WithContext("build_type", buildType).
			Build()
	}
	return nil
}

// ParseSwitches parses a comma separated list of enable-<name> and disable-<name> tokens.
// Empty tokens are ignored. Names are not checked against any declaration here.
func ParseSwitches(spec string) ([]Switch, error) {
	var switches []Switch
	for _, token := range strings.Split(spec, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		var sw Switch
		switch {
		case strings.HasPrefix(token, "enable-"):
			sw = Switch{Step: strings.TrimPrefix(token, "enable-"), Enable: true}
		case strings.HasPrefix(token, "disable-"):
			sw = Switch{Step: strings.TrimPrefix(token, "disable-")}
		default:
			return nil, errors.ConfigError("step switch must start with enable- or disable-").
				WithContext("switch", token).
				Build()
		}
		if sw.Step == "" {
			return nil, errors.ConfigError("step switch names no step").
				WithContext("switch", token).
				Build()
		}
		switches = append(switches, sw)
	}
	return switches, nil
}

// ValidateSwitches checks that every switch names one of decls.
func ValidateSwitches(decls []StepDeclaration, switches []Switch) error {
	known := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		known[d.Name] = struct{}{}
	}
	for _, sw := range switches {
		if _, ok := known[sw.Step]; !ok {
			return errors.ConfigError("step switch names an undeclared step").
				WithContext("switch", sw.String()).
				Build()
		}
	}
	return nil
}

// Select returns the switches that name one of decls, keeping their order. It lets a single
// switch list, validated once against every declaration list, be applied per node.
func Select(decls []StepDeclaration, switches []Switch) []Switch {
	known := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		known[d.Name] = struct{}{}
	}
	var out []Switch
	for _, sw := range switches {
		if _, ok := known[sw.Step]; ok {
			out = append(out, sw)
		}
	}
	return out
}

// ComputeSteps creates one Step per declaration, in declaration order. A step is enabled
// when buildType is one of its build type letters; switches are then applied left to right.
// All switches are validated before any step is touched, so an invalid switch list yields
// a configuration error and no steps.
func ComputeSteps(decls []StepDeclaration, buildType string, switches []Switch) ([]*execution.Step, error) {
	if err := ValidateBuildType(buildType); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(decls))
	for _, d := range decls {
		if d.Name == "" {
			return nil, errors.ConfigError("step declaration without a name").Build()
		}
		if _, dup := seen[d.Name]; dup {
			return nil, errors.ConfigError("step declared twice").
				WithContext("step", d.Name).
				Build()
		}
		seen[d.Name] = struct{}{}
	}
	if err := ValidateSwitches(decls, switches); err != nil {
		return nil, err
	}

	steps := make([]*execution.Step, 0, len(decls))
	byName := make(map[string]*execution.Step, len(decls))
	for _, d := range decls {
		s := execution.NewStep(d.Name)
		s.SetEnabled(strings.Contains(d.BuildTypes, buildType))
		s.SetRunOnFailure(d.RunOnFailure)
		steps = append(steps, s)
		byName[d.Name] = s
	}
	for _, sw := range switches {
		byName[sw.Step].SetEnabled(sw.Enable)
	}
	return steps, nil
}

// Apply is ComputeSteps for switches still in their command line form.
func Apply(decls []StepDeclaration, buildType, switchSpec string) ([]*execution.Step, error) {
	switches, err := ParseSwitches(switchSpec)
	if err != nil {
		return nil, err
	}
	return ComputeSteps(decls, buildType, switches)
}
