// Package natsnotify publishes a build summary to NATS when a build finishes.
package natsnotify

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/nodename"
	"git.home.luguber.info/inful/makeomatic/internal/report"
)

// Type is the registry name of the plugin.
const Type = "nats-notify"

const (
	defaultSubject = "makeomatic.builds"
	defaultTimeout = 5 * time.Second
)

// Options configure the connection and the subject.
type Options struct {
	URL     string          `yaml:"url"`
	Subject string          `yaml:"subject"`
	Timeout config.Duration `yaml:"timeout"`
	Name    string          `yaml:"client_name"`
}

// Summary is the message body.
type Summary struct {
	BuildID     string    `json:"build_id,omitempty"`
	Build       string    `json:"build"`
	BuildType   string    `json:"build_type"`
	Host        string    `json:"host"`
	ReturnCode  int       `json:"return_code"`
	Outcome     string    `json:"outcome"`
	Duration    string    `json:"duration"`
	FailedSteps []string  `json:"failed_steps,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Publisher is the part of *nats.Conn the plugin uses.
type Publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// Connector opens a Publisher.
type Connector func(url string, opts ...nats.Option) (Publisher, error)

// Connect dials a NATS server.
func Connect(url string, opts ...nats.Option) (Publisher, error) {
	return nats.Connect(url, opts...)
}

// Plugin publishes a Summary at the Notify phase. Attach it to the root node.
type Plugin struct {
	engine.BasePlugin
	opts    Options
	connect Connector
}

// NewPlugin validates opts and returns the plugin. A nil connector means Connect.
func NewPlugin(opts Options, connect Connector) (*Plugin, error) {
	if opts.URL == "" {
		opts.URL = nats.DefaultURL
	}
	if opts.Subject == "" {
		opts.Subject = defaultSubject
	}
	if strings.ContainsAny(opts.Subject, " \t\r\n") {
		return nil, errors.ConfigError("NATS subject must not contain whitespace").
			WithContext("subject", opts.Subject).
			Build()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.Duration(defaultTimeout)
	}
	if opts.Name == "" {
		opts.Name = "makeomatic"
	}
	if connect == nil {
		connect = Connect
	}
	return &Plugin{
		BasePlugin: engine.BasePlugin{PluginName: Type},
		opts:       opts,
		connect:    connect,
	}, nil
}

// Subject is the subject summaries are published on.
func (p *Plugin) Subject() string { return p.opts.Subject }

func (p *Plugin) Notify(_ context.Context, hc *engine.HookContext) error {
	root := hc.Node.Root()
	if hc.Node != root {
		return nil
	}
	data, err := json.Marshal(summarize(hc, root))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "cannot encode build summary").Build()
	}

	timeout := p.opts.Timeout.Std()
	conn, err := p.connect(p.opts.URL, nats.Name(p.opts.Name), nats.Timeout(timeout))
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to connect to NATS").
			WithContext("url", p.opts.URL).
			Retryable().
			Build()
	}
	defer conn.Close()

	if err := conn.Publish(p.opts.Subject, data); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to publish build summary").
			WithContext("subject", p.opts.Subject).
			Build()
	}
	if err := conn.FlushTimeout(timeout); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to flush build summary").
			WithContext("subject", p.opts.Subject).
			Build()
	}
	hc.Logger.Info("Published build summary",
		logfields.URL(p.opts.URL),
		slog.String("subject", p.opts.Subject))
	return nil
}

func summarize(hc *engine.HookContext, root *engine.Node) Summary {
	code := hc.Process().ReturnCode()
	r := report.Build(root, report.Info{ReturnCode: code})
	return Summary{
		BuildID:     hc.BuildID,
		Build:       root.Name(),
		BuildType:   hc.Settings().BuildType,
		Host:        nodename.Host(),
		ReturnCode:  code,
		Outcome:     r.Outcome,
		Duration:    root.TimeKeeper().DeltaString(),
		FailedSteps: r.FailedSteps(),
		Timestamp:   time.Now().UTC(),
	}
}

// Clone shares the connector.
func (p *Plugin) Clone() engine.Plugin {
	cp := *p
	return &cp
}
