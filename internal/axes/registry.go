package axes

import (
	"fmt"
	"sort"
)

// Axis names form a fixed vocabulary. Every variable descriptor draws its
// dimensions from this set.
const (
	Spatial      = "spatial"
	Time         = "time"
	SoilLayers   = "soil_layers"
	CanopyLayers = "canopy_layers"
)

// vocabulary is the set of admissible axis names.
var vocabulary = map[string]struct{}{
	Spatial:      {},
	Time:         {},
	SoilLayers:   {},
	CanopyLayers: {},
}

// Descriptor declares a variable: its unique name, ordered axes, unit and
// element kind. Scalar variables have no axes.
type Descriptor struct {
	Name string
	Axes []string
	Unit string
}

// equal reports whether two descriptors declare the same variable.
func (d Descriptor) equal(o Descriptor) bool {
	if d.Name != o.Name || d.Unit != o.Unit || len(d.Axes) != len(o.Axes) {
		return false
	}
	for i := range d.Axes {
		if d.Axes[i] != o.Axes[i] {
			return false
		}
	}
	return true
}

// Sizes maps axis names to their resolved lengths for a particular run.
type Sizes map[string]int

// Registry is the per-run catalog of variable descriptors.
type Registry struct {
	vars map[string]Descriptor
}

// NewRegistry returns an empty variable registry.
func NewRegistry() *Registry {
	return &Registry{vars: make(map[string]Descriptor)}
}

// Register adds a descriptor to the registry. Registration is commutative
// and idempotent: registering the identical descriptor twice is a no-op,
// while registering the same name with a different descriptor fails with
// ErrDuplicateVariable.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty variable name", ErrUnknownVariable)
	}
	for _, axis := range d.Axes {
		if _, ok := vocabulary[axis]; !ok {
			return fmt.Errorf("%w: %q in variable %q", ErrUnknownAxis, axis, d.Name)
		}
	}
	if existing, ok := r.vars[d.Name]; ok {
		if existing.equal(d) {
			return nil
		}
		return fmt.Errorf("%w: %q", ErrDuplicateVariable, d.Name)
	}
	r.vars[d.Name] = d
	return nil
}

// Describe returns the descriptor for a registered variable.
func (r *Registry) Describe(name string) (Descriptor, error) {
	d, ok := r.vars[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}
	return d, nil
}

// Contains reports whether the variable name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.vars[name]
	return ok
}

// Names returns all registered variable names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveShape resolves a variable's axes against the given sizes, returning
// one length per declared axis. Scalars resolve to an empty shape. It fails
// with ErrUnknownVariable for unregistered names and ErrUnresolvedAxis when
// an axis has no entry in sizes.
func (r *Registry) ResolveShape(name string, sizes Sizes) ([]int, error) {
	d, ok := r.vars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, name)
	}

	shape := make([]int, len(d.Axes))
	for i, axis := range d.Axes {
		n, ok := sizes[axis]
		if !ok || n <= 0 {
			return nil, fmt.Errorf("%w: axis %q of variable %q", ErrUnresolvedAxis, axis, name)
		}
		shape[i] = n
	}
	return shape, nil
}
