package plugin

import (
	"sort"
	"sync"

	"git.home.luguber.info/inful/makeomatic/internal/config"
	"git.home.luguber.info/inful/makeomatic/internal/engine"
	"git.home.luguber.info/inful/makeomatic/internal/foundation/errors"
)

type entry struct {
	meta    Metadata
	factory Factory
}

// Registry manages plugin type registration and instantiation.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// NewRegistry creates a new empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds a plugin type. Registering a type twice is an internal error.
func (r *Registry) Register(meta Metadata, factory Factory) error {
	if factory == nil {
		return errors.InternalError("cannot register nil plugin factory").
			WithContext("type", meta.Type).
			Build()
	}
	if err := meta.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[meta.Type]; exists {
		return errors.InternalError("plugin type already registered").
			WithContext("type", meta.Type).
			Build()
	}
	r.entries[meta.Type] = entry{meta: meta, factory: factory}
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func (r *Registry) MustRegister(meta Metadata, factory Factory) {
	if err := r.Register(meta, factory); err != nil {
		panic(err)
	}
}

// Metadata returns the metadata of a registered type.
func (r *Registry) Metadata(pluginType string) (Metadata, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[pluginType]
	return e.meta, ok
}

// Has checks if a plugin type is registered.
func (r *Registry) Has(pluginType string) bool {
	_, ok := r.Metadata(pluginType)
	return ok
}

// List returns the metadata of every registered type, sorted by type.
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Metadata, 0, len(r.entries))
	for _, e := range r.entries {
		result = append(result, e.meta)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Type < result[j].Type })
	return result
}

// Count returns the number of registered plugin types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// New creates the plugin cfg describes for a node of kind k. Unknown types and types that
// cannot be attached to k are configuration errors.
func (r *Registry) New(cfg config.PluginConfig, k engine.Kind) (engine.Plugin, error) {
	meta, ok := r.Metadata(cfg.Type)
	if !ok {
		return nil, errors.ConfigError("unknown plugin type").
			WithContext("type", cfg.Type).
			WithContext("known", r.types()).
			Build()
	}
	if !meta.Allows(k) {
		return nil, errors.ConfigError("plugin cannot be attached to this kind of node").
			WithContext("type", cfg.Type).
			WithContext("kind", k.String()).
			Build()
	}

	r.mu.RLock()
	factory := r.entries[cfg.Type].factory
	r.mu.RUnlock()

	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}
	p, err := factory(cfg, engine.BasePlugin{PluginName: name, Disabled: cfg.Disabled, IsOptional: cfg.Optional})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Registry) types() []string {
	list := r.List()
	out := make([]string, 0, len(list))
	for _, m := range list {
		out = append(out, m.Type)
	}
	return out
}
