package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
)

// Mode selects how a file's spatial dimension is remapped onto the grid.
type Mode string

const (
	// MapCellID matches a "cell_id" dimension directly, optionally permuted
	// by a cell_id coordinate array.
	MapCellID Mode = "cell_id"
	// MapXYIndex matches leading "y", "x" index dimensions against the
	// grid's rows and columns.
	MapXYIndex Mode = "xy"
	// MapCoordinates matches a points dimension against grid centroids
	// through x and y coordinate arrays.
	MapCoordinates Mode = "coords"
	// MapCategory expands a categorical dimension through a previously
	// defined cell grouping.
	MapCategory Mode = "category"
)

// Mapping tells LoadFromFile how to align a file's named dimensions with
// the system's axis vocabulary.
type Mapping struct {
	Mode Mode
	// Category names the categorical mapping for MapCategory.
	Category string
}

// arrayFile is the self-describing array format: named dimensions, a shape,
// flat row-major data and optional coordinate arrays per dimension.
type arrayFile struct {
	Dims   []string             `json:"dims"`
	Shape  []int                `json:"shape"`
	Data   []float64            `json:"data"`
	Coords map[string][]float64 `json:"coords"`
}

// LoadFromFile reads an array from a structured data file, remaps its named
// dimensions onto the axis vocabulary using the given mapping, validates the
// result against the variable's resolved shape and stores it. The spatial
// dimension must lead; any trailing dimensions must be vocabulary axes with
// matching configured sizes.
func (s *Store) LoadFromFile(name, path string, mapping Mapping) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	var f arrayFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("load %q from %s: %w", name, path, err)
	}
	if err := f.check(); err != nil {
		return fmt.Errorf("%w: %q from %s: %v", ErrDataValidation, name, path, err)
	}

	spatial, trailing, err := s.remapSpatial(&f, mapping)
	if err != nil {
		return fmt.Errorf("variable %q from %s: %w", name, path, err)
	}

	shape, err := s.registry.ResolveShape(name, s.sizes)
	if err != nil {
		return err
	}
	got := append([]int{s.grid.CellCount()}, trailing...)
	if !shapeEqual(got, shape) {
		return fmt.Errorf("%w: %q from %s: file resolves to shape %v, variable needs %v",
			ErrDataValidation, name, path, got, shape)
	}

	e, ok := s.entries[name]
	if !ok {
		s.entries[name] = &entry{shape: shape, data: spatial}
		return nil
	}
	copy(e.data, spatial)
	return nil
}

func (f *arrayFile) check() error {
	if len(f.Dims) == 0 {
		return fmt.Errorf("file declares no dimensions")
	}
	if len(f.Dims) != len(f.Shape) {
		return fmt.Errorf("%d dims but %d shape entries", len(f.Dims), len(f.Shape))
	}
	if len(f.Data) != product(f.Shape) {
		return fmt.Errorf("shape %v needs %d values, file has %d", f.Shape, product(f.Shape), len(f.Data))
	}
	return nil
}

// remapSpatial converts the file's leading spatial dimension(s) to cell-ID
// order, returning the remapped row-major data and the trailing axis sizes.
func (s *Store) remapSpatial(f *arrayFile, mapping Mapping) ([]float64, []int, error) {
	switch mapping.Mode {
	case MapCellID:
		return s.remapCellID(f)
	case MapXYIndex:
		return s.remapXYIndex(f)
	case MapCoordinates:
		return s.remapCoordinates(f)
	case MapCategory:
		return s.remapCategory(f, mapping.Category)
	default:
		return nil, nil, fmt.Errorf("%w: unrecognized mapping mode %q", ErrDataValidation, mapping.Mode)
	}
}

func (s *Store) remapCellID(f *arrayFile) ([]float64, []int, error) {
	if f.Dims[0] != "cell_id" {
		return nil, nil, fmt.Errorf("%w: leading dimension %q, want cell_id", ErrDataValidation, f.Dims[0])
	}
	n := s.grid.CellCount()
	if f.Shape[0] != n {
		return nil, nil, fmt.Errorf("%w: cell_id length %d, grid has %d cells", ErrDataValidation, f.Shape[0], n)
	}
	trailing, err := s.trailingAxes(f)
	if err != nil {
		return nil, nil, err
	}

	ids, ok := f.Coords["cell_id"]
	if !ok {
		return f.Data, trailing, nil
	}

	// Reorder rows by the cell_id coordinate, which must be a permutation
	// of all cell IDs.
	perm := make([]int, n)
	for i := range perm {
		perm[i] = -1
	}
	for pos, idf := range ids {
		id := int(idf)
		if id < 0 || id >= n || perm[id] != -1 {
			return nil, nil, fmt.Errorf("%w: cell_id coordinate is not a permutation of grid cell IDs", ErrDataValidation)
		}
		perm[id] = pos
	}
	return reorderRows(f.Data, perm, product(trailing)), trailing, nil
}

func (s *Store) remapXYIndex(f *arrayFile) ([]float64, []int, error) {
	if len(f.Dims) < 2 || f.Dims[0] != "y" || f.Dims[1] != "x" {
		return nil, nil, fmt.Errorf("%w: leading dimensions %v, want [y x]", ErrDataValidation, f.Dims)
	}
	nx, ny := s.grid.NX(), s.grid.NY()
	if f.Shape[0] != ny || f.Shape[1] != nx {
		return nil, nil, fmt.Errorf("%w: file is %dx%d (y by x), grid is %dx%d", ErrDataValidation,
			f.Shape[0], f.Shape[1], ny, nx)
	}
	// Cell IDs are row-major y*nx + x, so flattening [y][x] is already
	// cell-ID order.
	trailing, err := s.trailingAxes(f)
	if err != nil {
		return nil, nil, err
	}
	return f.Data, trailing, nil
}

func (s *Store) remapCoordinates(f *arrayFile) ([]float64, []int, error) {
	xs, okX := f.Coords["x"]
	ys, okY := f.Coords["y"]
	if !okX || !okY {
		return nil, nil, fmt.Errorf("%w: coordinate mapping needs x and y coordinate arrays", ErrDataValidation)
	}
	if len(xs) != f.Shape[0] || len(ys) != f.Shape[0] {
		return nil, nil, fmt.Errorf("%w: coordinate arrays must match the leading dimension length %d",
			ErrDataValidation, f.Shape[0])
	}

	ids, err := s.grid.MapCoords(xs, ys)
	if err != nil {
		return nil, nil, err
	}

	n := s.grid.CellCount()
	if len(ids) != n {
		return nil, nil, fmt.Errorf("%w: %d coordinate points for %d grid cells", grid.ErrGridMismatch, len(ids), n)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = -1
	}
	for pos, id := range ids {
		if perm[id] != -1 {
			return nil, nil, fmt.Errorf("%w: two coordinate points map to cell %d", grid.ErrGridMismatch, id)
		}
		perm[id] = pos
	}

	trailing, err := s.trailingAxes(f)
	if err != nil {
		return nil, nil, err
	}
	return reorderRows(f.Data, perm, product(trailing)), trailing, nil
}

func (s *Store) remapCategory(f *arrayFile, category string) ([]float64, []int, error) {
	groups, ok := s.categories[category]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if f.Dims[0] != category {
		return nil, nil, fmt.Errorf("%w: leading dimension %q, want %q", ErrDataValidation, f.Dims[0], category)
	}
	values, ok := f.Coords[category]
	if !ok {
		return nil, nil, fmt.Errorf("%w: categorical file needs a %q coordinate array", ErrDataValidation, category)
	}
	if len(values) != f.Shape[0] {
		return nil, nil, fmt.Errorf("%w: %d category coordinates for dimension length %d",
			ErrDataValidation, len(values), f.Shape[0])
	}

	trailing, err := s.trailingAxes(f)
	if err != nil {
		return nil, nil, err
	}
	block := product(trailing)

	n := s.grid.CellCount()
	out := make([]float64, n*block)
	assigned := make([]bool, n)
	for pos, cat := range values {
		cells, ok := groups[cat]
		if !ok {
			return nil, nil, fmt.Errorf("%w: category value %g groups no cells", ErrDataValidation, cat)
		}
		for _, cellID := range cells {
			copy(out[cellID*block:(cellID+1)*block], f.Data[pos*block:(pos+1)*block])
			assigned[cellID] = true
		}
	}
	for cellID, ok := range assigned {
		if !ok {
			return nil, nil, fmt.Errorf("%w: cell %d belongs to no listed category", ErrDataValidation, cellID)
		}
	}
	return out, trailing, nil
}

// trailingAxes validates that every dimension after the spatial one is a
// vocabulary axis with the configured size, returning those sizes.
func (s *Store) trailingAxes(f *arrayFile) ([]int, error) {
	skip := 1
	if f.Dims[0] == "y" {
		skip = 2
	}
	var trailing []int
	for i := skip; i < len(f.Dims); i++ {
		want, ok := s.sizes[f.Dims[i]]
		if !ok {
			return nil, fmt.Errorf("%w: dimension %q is not a known axis", ErrDataValidation, f.Dims[i])
		}
		if f.Shape[i] != want {
			return nil, fmt.Errorf("%w: dimension %q has length %d, axis size is %d",
				ErrDataValidation, f.Dims[i], f.Shape[i], want)
		}
		trailing = append(trailing, f.Shape[i])
	}
	return trailing, nil
}

// reorderRows rebuilds row-major data so that destination row i takes the
// source row perm[i], each row being block values long.
func reorderRows(data []float64, perm []int, block int) []float64 {
	if block == 0 {
		block = 1
	}
	out := make([]float64, len(perm)*block)
	for dst, src := range perm {
		copy(out[dst*block:(dst+1)*block], data[src*block:(src+1)*block])
	}
	return out
}
