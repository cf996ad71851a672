package build

import (
	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/plugin"
	"git.home.luguber.info/inful/makeomatic/internal/plugins/command"
	"git.home.luguber.info/inful/makeomatic/internal/scm"
)

// stepsPluginName names the plugin that carries the steps section of a node.
const stepsPluginName = "steps"

// TreeBuilder creates instruction trees from build descriptions.
type TreeBuilder struct {
	registry *plugin.Registry
	scm      scm.Options
}

// NewTreeBuilder returns a builder resolving plugin types with registry and creating
// source control providers with scmOpts.
func NewTreeBuilder(registry *plugin.Registry, scmOpts scm.Options) *TreeBuilder {
	return &TreeBuilder{registry: registry, scm: scmOpts}
}

// Build creates the tree: the build node, one project node per project and the
// configurations and variants below them, each with its plugins.
func (b *TreeBuilder) Build(cfg *config.Config) (*engine.Node, error) {
	root := engine.NewNode(cfg.Build.Name, engine.KindBuild)
	if cfg.Build.BaseDir != "" {
		root.SetBaseDir(cfg.Build.BaseDir)
	}
	if err := b.attachPlugins(root, cfg.Plugins); err != nil {
		return nil, err
	}
	for _, pc := range cfg.Projects {
		project, err := b.project(pc)
		if err != nil {
			return nil, err
		}
		if err := root.AddChild(project); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (b *TreeBuilder) project(pc config.ProjectConfig) (*engine.Node, error) {
	n := engine.NewNode(pc.Name, engine.KindProject)
	if pc.SCM != "" {
		provider, err := scm.New(pc.SCM, b.scm)
		if err != nil {
			return nil, err
		}
		n.AddPlugin(scm.NewPlugin(provider, pc.Revision))
	}
	if err := b.attachPlugins(n, pc.Plugins); err != nil {
		return nil, err
	}
	if err := attachSteps(n, pc.Steps); err != nil {
		return nil, err
	}
	for _, cc := range pc.Configurations {
		c, err := b.configuration(cc, engine.KindConfiguration)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(c); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *TreeBuilder) configuration(cc config.ConfigurationConfig, kind engine.Kind) (*engine.Node, error) {
	n := engine.NewNode(cc.Name, kind)
	if err := b.attachPlugins(n, cc.Plugins); err != nil {
		return nil, err
	}
	if err := attachSteps(n, cc.Steps); err != nil {
		return nil, err
	}
	for _, vc := range cc.Variants {
		v, err := b.configuration(vc, engine.KindVariant)
		if err != nil {
			return nil, err
		}
		if err := n.AddChild(v); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (b *TreeBuilder) attachPlugins(n *engine.Node, cfgs []config.PluginConfig) error {
	for _, pc := range cfgs {
		p, err := b.registry.New(pc, n.Kind())
		if err != nil {
			return err
		}
		n.AddPlugin(p)
	}
	return nil
}

// attachSteps turns the steps section of a node into a command plugin.
func attachSteps(n *engine.Node, steps []config.StepActions) error {
	if len(steps) == 0 {
		return nil
	}
	p, err := command.NewPlugin(engine.BasePlugin{PluginName: stepsPluginName}, command.Options{Steps: steps})
	if err != nil {
		return err
	}
	n.AddPlugin(p)
	return nil
}
