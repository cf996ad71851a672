package commands

import (
	"git.home.luguber.info/inful/makeomatic/internal/build"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/process"
)

// DescribeCmd implements the 'describe' command. It runs the phases that create the
// steps, prints the tree and removes the log directories again.
type DescribeCmd struct {
	BuildType string `short:"t" name:"build-type" help:"Build type letter"`
	Steps     string `name:"steps" help:"Comma separated enable-<step> and disable-<step> switches"`
}

func (d *DescribeCmd) Run(g *Global, cli *CLI) error {
	cfg, err := loadConfig(g, cli)
	if err != nil {
		return err
	}
	overrides := BuildCmd{BuildType: d.BuildType, Steps: d.Steps}
	if err := overrides.apply(&cfg.Settings); err != nil {
		return err
	}

	svc := build.NewBuildService().WithLogger(g.Logger)
	root, err := svc.NewTreeBuilder(build.BuildRequest{Config: cfg}).Build(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng := engine.New(&cfg.Settings, process.New(), engine.WithLogger(g.Logger))
	for _, phase := range []engine.Phase{engine.PhasePrepare, engine.PhasePreFlightCheck, engine.PhaseSetup} {
		if err := eng.RunPhase(ctx, root, phase); err != nil {
			return err
		}
	}
	if err := engine.Describe(g.Stdout, root); err != nil {
		return err
	}
	return eng.RunPhase(ctx, root, engine.PhaseShutDown)
}
