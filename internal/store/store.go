package store

import (
	"fmt"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
)

// entry is one stored variable: its resolved shape and the backing array the
// store exclusively owns.
type entry struct {
	shape []int
	data  []float64
}

// Store maps variable names to shaped arrays sized against the grid and the
// configured axis sizes.
type Store struct {
	grid     *grid.Grid
	registry *axes.Registry
	sizes    axes.Sizes

	entries    map[string]*entry
	categories map[string]map[float64][]int

	// Active write scope; nil means unrestricted driver access.
	writerModel   string
	writerAllowed map[string]struct{}
}

// New builds an empty store sized to the grid and the given extra axis
// sizes. The spatial axis size is always the grid's cell count.
func New(g *grid.Grid, registry *axes.Registry, sizes axes.Sizes) *Store {
	resolved := axes.Sizes{axes.Spatial: g.CellCount()}
	for name, n := range sizes {
		if name == axes.Spatial {
			continue
		}
		resolved[name] = n
	}
	return &Store{
		grid:       g,
		registry:   registry,
		sizes:      resolved,
		entries:    make(map[string]*entry),
		categories: make(map[string]map[float64][]int),
	}
}

// Grid returns the grid the store is sized to.
func (s *Store) Grid() *grid.Grid {
	return s.grid
}

// Sizes returns the resolved axis sizes the store validates against.
func (s *Store) Sizes() axes.Sizes {
	return s.sizes
}

// Contains reports whether the variable is present in the store.
func (s *Store) Contains(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Names returns the variables currently present, in registry (sorted) order.
func (s *Store) Names() []string {
	var names []string
	for _, name := range s.registry.Names() {
		if s.Contains(name) {
			names = append(names, name)
		}
	}
	return names
}

// Get returns the backing array of a stored variable. The slice is shared,
// not a copy: later Set calls are observed through it.
func (s *Store) Get(name string) ([]float64, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingVariable, name)
	}
	return e.data, nil
}

// Shape returns the resolved shape of a stored variable.
func (s *Store) Shape(name string) ([]int, error) {
	e, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingVariable, name)
	}
	out := make([]int, len(e.shape))
	copy(out, e.shape)
	return out, nil
}

// Set writes an array to a variable. The variable must be registered; a
// first write creates the entry at its resolved shape, a later write
// overwrites the backing array in place. A length mismatch fails with
// ErrShapeMismatch and leaves the stored value untouched. Inside an active
// write scope the variable must be in the writing model's declared set.
func (s *Store) Set(name string, data []float64) error {
	if err := s.checkWriteAllowed(name); err != nil {
		return err
	}

	e, ok := s.entries[name]
	if !ok {
		shape, err := s.registry.ResolveShape(name, s.sizes)
		if err != nil {
			return err
		}
		if len(data) != product(shape) {
			return fmt.Errorf("%w: %q: got %d values, shape %v needs %d",
				ErrShapeMismatch, name, len(data), shape, product(shape))
		}
		e = &entry{shape: shape, data: make([]float64, len(data))}
		copy(e.data, data)
		s.entries[name] = e
		return nil
	}

	if len(data) != len(e.data) {
		return fmt.Errorf("%w: %q: got %d values, shape %v needs %d",
			ErrShapeMismatch, name, len(data), e.shape, len(e.data))
	}
	copy(e.data, data)
	return nil
}

// BeginWrite opens a write scope for a model: until EndWrite, only the
// listed variables may be written.
func (s *Store) BeginWrite(model string, allowed []string) {
	s.writerModel = model
	s.writerAllowed = make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		s.writerAllowed[name] = struct{}{}
	}
}

// EndWrite closes the active write scope, restoring unrestricted driver
// access.
func (s *Store) EndWrite() {
	s.writerModel = ""
	s.writerAllowed = nil
}

func (s *Store) checkWriteAllowed(name string) error {
	if s.writerAllowed == nil {
		return nil
	}
	if _, ok := s.writerAllowed[name]; !ok {
		return fmt.Errorf("%w: model %q wrote %q outside its declared updated variables",
			ErrUndeclaredWrite, s.writerModel, name)
	}
	return nil
}

// DefineCategory builds a named categorical mapping from a spatial variable
// already in the store: cells are grouped by their value of that variable.
// Data files may then use the mapping name as a dimension.
func (s *Store) DefineCategory(name, sourceVariable string) error {
	data, err := s.Get(sourceVariable)
	if err != nil {
		return fmt.Errorf("categorical mapping %q: %w", name, err)
	}
	shape, _ := s.Shape(sourceVariable)
	if len(shape) != 1 || shape[0] != s.grid.CellCount() {
		return fmt.Errorf("%w: %q: mapping source %q must be a spatial variable",
			ErrDataValidation, name, sourceVariable)
	}

	groups := make(map[float64][]int)
	for cellID, v := range data {
		groups[v] = append(groups[v], cellID)
	}
	s.categories[name] = groups
	return nil
}

func product(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
