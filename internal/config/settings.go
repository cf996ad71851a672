package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/sequencer"
)

// DefaultBuildType is used when neither the description nor the command line sets one.
const DefaultBuildType = "m"

// DirNames holds the folder names created below node base directories.
type DirNames struct {
	Source   string `yaml:"source"`
	Packages string `yaml:"packages"`
	Docs     string `yaml:"docs"`
	Temp     string `yaml:"temp"`
	Build    string `yaml:"build"`
	Target   string `yaml:"target"`
	Log      string `yaml:"log"`
}

// Settings are the values the engine reads while building the instruction tree.
type Settings struct {
	BuildType             string                      `yaml:"build_type"`
	StepSwitches          string                      `yaml:"step_switches,omitempty"`
	BuildSteps            []sequencer.StepDeclaration `yaml:"build_steps,omitempty"`
	ProjectSteps          []sequencer.StepDeclaration `yaml:"project_steps"`
	ConfigurationSteps    []sequencer.StepDeclaration `yaml:"configuration_steps"`
	BuildTypeDescriptions map[string]string           `yaml:"build_type_descriptions"`
	Dirs                  DirNames                    `yaml:"dirs"`
	NotificationsEnabled  bool                        `yaml:"notifications_enabled"`
	CommandTimeout        Duration                    `yaml:"command_timeout,omitempty"`
	SearchPaths           []string                    `yaml:"search_paths,omitempty"`
	CloneCacheDir         string                      `yaml:"clone_cache_dir,omitempty"`
	Jobs                  int                         `yaml:"jobs,omitempty"`
	Revision              string                      `yaml:"revision,omitempty"`
	Extra                 map[string]string           `yaml:"extra,omitempty"`
}

// DefaultProjectSteps are the project steps in execution order.
func DefaultProjectSteps() []sequencer.StepDeclaration {
	return []sequencer.StepDeclaration{
		{Name: "project-create-folders", BuildTypes: "mcdhpsf"},
		{Name: "project-checkout", BuildTypes: "mcdhpsf"},
		{Name: "project-build-configurations", BuildTypes: "mcdhpsf"},
		{Name: "project-create-docs", BuildTypes: "mcdhpsf"},
		{Name: "project-package", BuildTypes: "dsf"},
		{Name: "project-upload-docs", BuildTypes: "dsf"},
		{Name: "project-upload-packages", BuildTypes: "dsf"},
		{Name: "project-cleanup-docs", BuildTypes: "cdsf", RunOnFailure: true},
		{Name: "project-cleanup-packages", BuildTypes: "cdsf", RunOnFailure: true},
		{Name: "project-cleanup", BuildTypes: "mcdsf", RunOnFailure: true},
	}
}

// DefaultConfigurationSteps are the configuration steps in execution order.
func DefaultConfigurationSteps() []sequencer.StepDeclaration {
	return []sequencer.StepDeclaration{
		{Name: "conf-create-folders", BuildTypes: "mcdhpsf"},
		{Name: "conf-configure", BuildTypes: "mcdhpsf"},
		{Name: "conf-make", BuildTypes: "mcdhpsf"},
		{Name: "conf-make-test", BuildTypes: "mcdhpsf"},
		{Name: "conf-make-install", BuildTypes: "mcdhpsf"},
		{Name: "conf-package", BuildTypes: "mcdhpsf"},
		{Name: "conf-cleanup", BuildTypes: "mcdsf", RunOnFailure: true},
	}
}

// DefaultBuildTypeDescriptions explains each build type letter.
func DefaultBuildTypeDescriptions() map[string]string {
	return map[string]string{
		"e": "Empty build. All build steps are disabled. Useful for debugging build scripts.",
		"m": "Manual build. Does not modify environment variables. Deletes temporary folders.",
		"c": "Continuous build. Builds configurations against the latest matching environment. Deletes temporary folders.",
		"d": "Daily build. Builds configurations against every matching environment. Deletes temporary folders.",
		"h": "Hacker build. Similar to manual builds. Does not delete temporary folders.",
		"p": "1337 coder build. Similar to daily builds. Does not delete temporary folders.",
		"s": "Snapshot build. Similar to daily builds. Creates and uploads packages and documentation.",
		"f": "Full build. All build steps are enabled. Useful for debugging build scripts.",
	}
}

// DefaultSettings returns the settings used when a build description sets nothing.
func DefaultSettings() Settings {
	return Settings{
		BuildType:             DefaultBuildType,
		ProjectSteps:          DefaultProjectSteps(),
		ConfigurationSteps:    DefaultConfigurationSteps(),
		BuildTypeDescriptions: DefaultBuildTypeDescriptions(),
		Dirs: DirNames{
			Source:   "src",
			Packages: "packages",
			Docs:     "docs",
			Temp:     "tmp",
			Build:    "build",
			Target:   "target",
			Log:      "log",
		},
		NotificationsEnabled: true,
		CommandTimeout:       Duration(2 * time.Hour),
		CloneCacheDir:        defaultCloneCacheDir(),
		Jobs:                 1,
	}
}

func defaultCloneCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "makeomatic", "clones")
	}
	return filepath.Join(os.TempDir(), "makeomatic-clones")
}

// BuildTypeDescription returns the description of the current build type.
func (s *Settings) BuildTypeDescription() string {
	if d, ok := s.BuildTypeDescriptions[s.BuildType]; ok {
		return d
	}
	return "Unknown build type."
}

// StepDeclarations returns the build, project and configuration step declarations in
// that order.
func (s *Settings) StepDeclarations() []sequencer.StepDeclaration {
	return slices.Concat(s.BuildSteps, s.ProjectSteps, s.ConfigurationSteps)
}

// ValidateSelection checks the build type and the step switches against the declared
// steps. A build that passes it cannot fail on its step selection once phases run.
func (s *Settings) ValidateSelection() error {
	if err := sequencer.ValidateBuildType(s.BuildType); err != nil {
		return err
	}
	switches, err := sequencer.ParseSwitches(s.StepSwitches)
	if err != nil {
		return err
	}
	return sequencer.ValidateSwitches(s.StepDeclarations(), switches)
}

func formatSteps(decls []sequencer.StepDeclaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, fmt.Sprintf("%s:%s:%t", d.Name, d.BuildTypes, d.RunOnFailure))
	}
	return strings.Join(parts, ",")
}

// queryKeys maps setting names to readers. The dotted names are accepted by the query
// run mode.
var queryKeys = map[string]func(s *Settings) string{
	"project.buildtype":             func(s *Settings) string { return s.BuildType },
	"project.buildsequenceswitches": func(s *Settings) string { return s.StepSwitches },
	"project.buildsteps":            func(s *Settings) string { return formatSteps(s.ProjectSteps) },
	"configuration.buildsteps":      func(s *Settings) string { return formatSteps(s.ConfigurationSteps) },
	"project.buildtypedescription":  func(s *Settings) string { return s.BuildTypeDescription() },
	"project.srcdir":                func(s *Settings) string { return s.Dirs.Source },
	"project.packagesdir":           func(s *Settings) string { return s.Dirs.Packages },
	"project.docsdir":               func(s *Settings) string { return s.Dirs.Docs },
	"project.tempdir":               func(s *Settings) string { return s.Dirs.Temp },
	"project.revision":              func(s *Settings) string { return s.Revision },
	"configuration.builddir":        func(s *Settings) string { return s.Dirs.Build },
	"configuration.targetdir":       func(s *Settings) string { return s.Dirs.Target },
	"script.logdir":                 func(s *Settings) string { return s.Dirs.Log },
	"script.enablenotifications":    func(s *Settings) string { return strconv.FormatBool(s.NotificationsEnabled) },
	"system.commandtimeout":         func(s *Settings) string { return s.CommandTimeout.Std().String() },
	"system.extrapaths":             func(s *Settings) string { return strings.Join(s.SearchPaths, string(os.PathListSeparator)) },
	"scm.clonecachedir":             func(s *Settings) string { return s.CloneCacheDir },
	"make.jobs":                     func(s *Settings) string { return strconv.Itoa(s.Jobs) },
}

// Get returns the value of a named setting. Keys from Extra are looked up last. An
// unknown key is a configuration error.
func (s *Settings) Get(key string) (string, error) {
	if read, ok := queryKeys[key]; ok {
		return read(s), nil
	}
	if v, ok := s.Extra[key]; ok {
		return v, nil
	}
	return "", errors.ConfigError("unknown setting").
		WithContext("key", key).
		Build()
}

// Keys lists every setting name Get understands, sorted.
func (s *Settings) Keys() []string {
	keys := make([]string, 0, len(queryKeys)+len(s.Extra))
	for k := range queryKeys {
		keys = append(keys, k)
	}
	for k := range s.Extra {
		if _, builtin := queryKeys[k]; !builtin {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
