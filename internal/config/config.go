package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

// Config is a build description: the build itself, the settings it runs with and the
// projects, configurations and plugins that make up the instruction tree.
type Config struct {
	Build    BuildConfig     `yaml:"build"`
	Settings Settings        `yaml:"settings"`
	Logging  LoggingConfig   `yaml:"logging"`
	Metrics  MetricsConfig   `yaml:"metrics"`
	History  HistoryConfig   `yaml:"history"`
	Retry    RetryConfig     `yaml:"retry"`
	Plugins  []PluginConfig  `yaml:"plugins,omitempty"`
	Projects []ProjectConfig `yaml:"projects"`
}

// BuildConfig names the root node of the instruction tree.
type BuildConfig struct {
	Name    string `yaml:"name"`
	BaseDir string `yaml:"base_dir,omitempty"` // defaults to <cwd>/<name>
}

// ProjectConfig describes one project below the build.
type ProjectConfig struct {
	Name           string                `yaml:"name"`
	SCM            string                `yaml:"scm,omitempty"` // "<implementation>:<location>", e.g. git:https://host/repo.git
	Revision       string                `yaml:"revision,omitempty"`
	Plugins        []PluginConfig        `yaml:"plugins,omitempty"`
	Steps          []StepActions         `yaml:"steps,omitempty"`
	Configurations []ConfigurationConfig `yaml:"configurations,omitempty"`
}

// ConfigurationConfig describes one way of building a project. Variants are nested
// configurations that inherit nothing but their parent's position in the tree.
type ConfigurationConfig struct {
	Name     string                `yaml:"name"`
	Plugins  []PluginConfig        `yaml:"plugins,omitempty"`
	Steps    []StepActions         `yaml:"steps,omitempty"`
	Variants []ConfigurationConfig `yaml:"variants,omitempty"`
}

// StepActions adds actions to a declared step of the owning node.
type StepActions struct {
	Step    string         `yaml:"step"`
	Actions []ActionConfig `yaml:"actions"`
}

// ActionConfig is one action. Exactly one of Run, Script, MkDir and RmDir must be set.
type ActionConfig struct {
	Run     []string          `yaml:"run,omitempty"`
	Script  string            `yaml:"script,omitempty"`
	MkDir   string            `yaml:"mkdir,omitempty"`
	RmDir   string            `yaml:"rmdir,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	When    string            `yaml:"when,omitempty"` // pre|main|post, default main
	Timeout Duration          `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// PluginConfig attaches a plugin to a node. Options are decoded by the plugin itself.
type PluginConfig struct {
	Type     string         `yaml:"type"`
	Name     string         `yaml:"name,omitempty"`
	Optional bool           `yaml:"optional,omitempty"`
	Disabled bool           `yaml:"disabled,omitempty"`
	Options  map[string]any `yaml:"options,omitempty"`
}

// DecodeOptions decodes the plugin options into out.
func (p PluginConfig) DecodeOptions(out any) error {
	if len(p.Options) == 0 {
		return nil
	}
	data, err := yaml.Marshal(p.Options)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "cannot encode plugin options").
			WithContext("plugin", p.Type).
			Build()
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "invalid plugin options").
			WithContext("plugin", p.Type).
			Build()
	}
	return nil
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig enables the Prometheus textfile written at the end of a build.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"`
}

// HistoryConfig enables the SQLite build history.
type HistoryConfig struct {
	Path string `yaml:"path,omitempty"`
}

// RetryConfig controls retries of transient source control failures.
type RetryConfig struct {
	Backoff    string   `yaml:"backoff,omitempty"`
	Initial    Duration `yaml:"initial,omitempty"`
	Max        Duration `yaml:"max,omitempty"`
	MaxRetries *int     `yaml:"max_retries,omitempty"`
}

// Default returns a Config holding only default settings.
func Default() *Config {
	return &Config{
		Build:    BuildConfig{Name: "build"},
		Settings: DefaultSettings(),
		Logging:  LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}
}

// Load reads and validates the build description at configPath. Environment files are
// loaded first so that ${VAR} references in the description can use them.
func Load(configPath string) (*Config, error) {
	if _, err := LoadEnvFiles(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("build description not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot read build description").
			WithContext("path", configPath).
			Build()
	}
	return Parse(data)
}

// Parse decodes a build description over the defaults and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "cannot parse build description").Build()
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
