package model

import (
	"context"
	"fmt"
	"time"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// Phase distinguishes the two dependency graphs of a run.
type Phase string

const (
	PhaseInit   Phase = "init"
	PhaseUpdate Phase = "update"
)

// Var names a required-at-init variable together with the axes it must be
// registered with.
type Var struct {
	Name string
	Axes []string
}

// FactoryArgs bundles everything a model factory needs to build a
// configured instance.
type FactoryArgs struct {
	Vars     *axes.Registry
	Store    *store.Store
	Config   *config.Tree
	Interval time.Duration
}

// Definition is a submodel's registration record: declarative metadata, its
// schema fragment, the variables it contributes to the registry, and the
// factory building a configured instance.
type Definition struct {
	Name string

	// RequiredForInit lists the variables that must be present in the data
	// store, with matching axes, before the factory runs.
	RequiredForInit []Var

	// VarsUpdated lists the variables this model's Update is allowed to
	// write.
	VarsUpdated []string

	// MinInterval and MaxInterval bound the sensible update cadence.
	// Intervals outside the bounds are logged as warnings, not rejected.
	MinInterval time.Duration
	MaxInterval time.Duration

	// InitDependsOn and UpdateDependsOn are the model-supplied default
	// dependency edges, overridable per phase in configuration.
	InitDependsOn   []string
	UpdateDependsOn []string

	// Fragment is the model's contribution to the composed config schema.
	Fragment config.Fragment

	// Variables are the descriptors the model registers into the variable
	// registry at startup.
	Variables []axes.Descriptor

	Factory func(ctx context.Context, args FactoryArgs) (Model, error)
}

// Registry maps model names to definitions for one run. Registration order
// is preserved only for deterministic iteration; scheduling order comes
// from configuration.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry returns an empty model registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds a definition. A duplicate name is a programming error in
// the startup wiring, so it panics (mirroring handler registration) rather
// than returning an error.
func (r *Registry) Register(def Definition) {
	if def.Name == "" || def.Factory == nil {
		panic("model: Register needs a name and a factory")
	}
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("model: %q already registered", def.Name))
	}
	if def.Fragment.Key == "" {
		def.Fragment.Key = def.Name
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
}

// Get returns the definition for a model name.
func (r *Registry) Get(name string) (Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return def, nil
}

// Names returns all registered model names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Fragments returns every model's schema fragment, for composed validation.
func (r *Registry) Fragments() []config.Fragment {
	out := make([]config.Fragment, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name].Fragment)
	}
	return out
}

// RegisterVariables registers every model's variable descriptors into the
// variable registry. Registration is commutative, so the order models were
// registered in does not matter.
func (r *Registry) RegisterVariables(vars *axes.Registry) error {
	for _, name := range r.order {
		for _, d := range r.defs[name].Variables {
			if err := vars.Register(d); err != nil {
				return fmt.Errorf("model %q: %w", name, err)
			}
		}
	}
	return nil
}

// Dependencies resolves a model's dependency edges for a phase: the
// configured depends_on list when present, the definition's default
// otherwise. Every referenced name must itself be a registered model.
func (r *Registry) Dependencies(name string, cfg *config.Tree, phase Phase) ([]string, error) {
	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	deps := def.InitDependsOn
	if phase == PhaseUpdate {
		deps = def.UpdateDependsOn
	}
	key := "depends_on." + string(phase)
	if cfg.Has(key) {
		deps, err = cfg.StringList(key)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", name, err)
		}
	}

	for _, dep := range deps {
		if _, ok := r.defs[dep]; !ok {
			return nil, fmt.Errorf("%w: %q (dependency of %q, phase %s)", ErrUnknownModel, dep, name, phase)
		}
	}
	return deps, nil
}

// Construct builds a configured model instance: it reads and checks the
// update interval, validates every required-at-init variable against the
// store and the variable registry, runs the factory and marks the instance
// Initialized. Failures wrap ErrInitialisation naming the offending
// variable or key.
func (r *Registry) Construct(ctx context.Context, name string, vars *axes.Registry, st *store.Store, cfg *config.Tree) (Model, error) {
	logger := ctxlog.FromContext(ctx)

	def, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	interval, err := cfg.Duration("update_interval")
	if err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", ErrInitialisation, name, err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: model %q: update interval %s must be positive", ErrInitialisation, name, interval)
	}
	if def.MinInterval > 0 && interval < def.MinInterval {
		logger.Warn("update interval below the model's recommended minimum",
			"model", name, "interval", interval, "min", def.MinInterval)
	}
	if def.MaxInterval > 0 && interval > def.MaxInterval {
		logger.Warn("update interval above the model's recommended maximum",
			"model", name, "interval", interval, "max", def.MaxInterval)
	}

	for _, req := range def.RequiredForInit {
		if !st.Contains(req.Name) {
			return nil, fmt.Errorf("%w: model %q requires variable %q which is not in the data store",
				ErrInitialisation, name, req.Name)
		}
		desc, err := vars.Describe(req.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: model %q: %v", ErrInitialisation, name, err)
		}
		if !axesEqual(desc.Axes, req.Axes) {
			return nil, fmt.Errorf("%w: model %q requires variable %q on axes %v, registered axes are %v",
				ErrInitialisation, name, req.Name, req.Axes, desc.Axes)
		}
	}

	m, err := def.Factory(ctx, FactoryArgs{Vars: vars, Store: st, Config: cfg, Interval: interval})
	if err != nil {
		return nil, fmt.Errorf("%w: model %q: %v", ErrInitialisation, name, err)
	}
	if err := markInitialized(m); err != nil {
		return nil, err
	}
	logger.Debug("model constructed", "model", name, "interval", interval)
	return m, nil
}

func axesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
