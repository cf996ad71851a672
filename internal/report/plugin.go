package report

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/normalization"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
)

// File names written by the Plugin.
const (
	FileJSON     = "report.json"
	FileMarkdown = "report.md"
	FileHTML     = "report.html"
)

// Options configure the report plugin.
type Options struct {
	// Dir receives the report files. Defaults to <root base dir>/report.
	Dir string `yaml:"dir"`
	// Formats selects json, markdown and html. Empty means all of them.
	Formats []string `yaml:"formats"`
	// KeepLogs keeps the root log directory even after a successful build.
	KeepLogs bool `yaml:"keep_logs"`
}

// Plugin writes the build report at the Report phase. Attach it to the root node.
type Plugin struct {
	engine.BasePlugin
	opts    Options
	written []string
}

// NewPlugin returns a report plugin named "report".
func NewPlugin(opts Options) *Plugin {
	return &Plugin{
		BasePlugin: engine.BasePlugin{PluginName: "report"},
		opts:       opts,
	}
}

// Written lists the files produced by the last Report phase.
func (p *Plugin) Written() []string { return p.written }

func (p *Plugin) Report(_ context.Context, hc *engine.HookContext) error {
	root := hc.Node.Root()
	if hc.Node != root {
		return nil
	}
	settings := hc.Settings()
	r := Build(root, Info{
		BuildID:     hc.BuildID,
		BuildType:   settings.BuildType,
		Description: settings.BuildTypeDescription(),
		Host:        nodename.Host(),
		ReturnCode:  hc.Process().ReturnCode(),
	})

	dir := p.opts.Dir
	if dir == "" {
		base, err := root.BaseDir()
		if err != nil {
			return err
		}
		dir = filepath.Join(base, "report")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create report directory").
			WithContext("path", dir).
			Build()
	}

	p.written = p.written[:0]
	for _, format := range p.outputs() {
		name, data, err := render(r, format)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "cannot write report").
				WithContext("path", path).
				Build()
		}
		p.written = append(p.written, path)
	}
	hc.Logger.Info("Build report written", logfields.Path(dir), slog.Int("files", len(p.written)))

	if p.opts.KeepLogs {
		root.SetDeleteLogDirOnShutdown(false)
	}
	return nil
}

func (p *Plugin) outputs() []string {
	if len(p.opts.Formats) == 0 {
		return []string{"json", "markdown", "html"}
	}
	return p.opts.Formats
}

// Format is an output format of the plugin.
type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

var formats = normalization.NewNormalizer("report format", map[string]Format{
	"json":     FormatJSON,
	"markdown": FormatMarkdown,
	"md":       FormatMarkdown,
	"html":     FormatHTML,
}, "")

func render(r *Report, raw string) (string, []byte, error) {
	format, err := formats.NormalizeWithError(raw)
	if err != nil {
		return "", nil, err
	}
	switch format {
	case FormatJSON:
		data, err := r.JSON()
		if err != nil {
			return "", nil, errors.WrapError(err, errors.CategoryInternal, "cannot encode report").Build()
		}
		return FileJSON, data, nil
	case FormatMarkdown:
		return FileMarkdown, r.Markdown(), nil
	default:
		data, err := r.HTML()
		if err != nil {
			return "", nil, errors.WrapError(err, errors.CategoryInternal, "cannot render report").Build()
		}
		return FileHTML, data, nil
	}
}

// Validate checks the configured formats.
func (o Options) Validate() error {
	for _, f := range o.Formats {
		if _, err := formats.NormalizeWithError(f); err != nil {
			return err
		}
	}
	return nil
}

// Clone copies the options and forgets written files.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	cp.written = nil
	return &cp
}
