package commands

import (
	"fmt"
	"log/slog"
	"strings"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/makeomatic/internal/build"
	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/eventstore"
	"git.home.luguber.info/inful/makeomatic/internal/logfields"
	"git.home.luguber.info/inful/makeomatic/internal/metrics"
	"git.home.luguber.info/inful/makeomatic/internal/timekeeper"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	BuildType   string `short:"t" name:"build-type" help:"Build type letter (e, m, c, d, h, p, s, f)"`
	Steps       string `name:"steps" help:"Comma separated enable-<step> and disable-<step> switches"`
	NoNotify    bool   `name:"no-notify" help:"Skip the notify phase"`
	Revision    string `name:"revision" help:"Revision to check out when a project does not name one"`
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics to this textfile" type:"path"`
	History     string `name:"history" help:"Record the build in this SQLite database" type:"path"`
	BuildID     string `name:"build-id" help:"Identifier of the build (default: random UUID)"`
}

// apply overrides settings from the command line and validates them before any node
// is created.
func (b *BuildCmd) apply(s *config.Settings) error {
	if b.BuildType != "" {
		s.BuildType = strings.ToLower(strings.TrimSpace(b.BuildType))
	}
	if b.Steps != "" {
		s.StepSwitches = b.Steps
	}
	if b.NoNotify {
		s.NotificationsEnabled = false
	}
	if b.Revision != "" {
		s.Revision = b.Revision
	}
	return s.ValidateSelection()
}

func (b *BuildCmd) Run(g *Global, cli *CLI) error {
	cfg, err := loadConfig(g, cli)
	if err != nil {
		return err
	}
	if err := b.apply(&cfg.Settings); err != nil {
		return err
	}

	svc := build.NewBuildService().WithLogger(g.Logger)

	metricsFile := firstNonEmpty(b.MetricsFile, cfg.Metrics.Textfile)
	var registry *prom.Registry
	if metricsFile != "" {
		registry = prom.NewRegistry()
		svc.WithRecorder(metrics.NewPrometheusRecorder(registry))
	}

	if historyPath := firstNonEmpty(b.History, cfg.History.Path); historyPath != "" {
		store, err := eventstore.NewSQLiteStore(historyPath)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := store.Close(); cerr != nil {
				g.Logger.Warn("Failed to close history", logfields.Error(cerr))
			}
		}()
		svc.WithHistory(store)
	}

	ctx, cancel := signalContext()
	defer cancel()

	res, runErr := svc.Run(ctx, build.BuildRequest{Config: cfg, BuildID: b.BuildID})
	g.ExitCode = res.ReturnCode

	if registry != nil {
		if err := metrics.WriteTextfile(metricsFile, registry); err != nil {
			g.Logger.Warn("Failed to write metrics", logfields.Path(metricsFile), logfields.Error(err))
		}
	}

	fmt.Fprintf(g.Stdout, "Build %s %s (return code %d) in %s\n",
		cfg.Build.Name, res.Status, res.ReturnCode, timekeeper.FormatDuration(res.Duration))
	for _, f := range res.FailedSteps {
		fmt.Fprintf(g.Stdout, "  failed: %s\n", f)
	}
	g.Logger.Debug("Build result", logfields.BuildID(res.BuildID), slog.Int("failed_steps", len(res.FailedSteps)))
	return runErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
