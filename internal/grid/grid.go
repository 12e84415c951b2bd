package grid

import (
	"fmt"
	"math"
)

// Type identifies the tessellation of the grid.
type Type string

const (
	// Square tiles the plane with axis-aligned squares.
	Square Type = "square"
	// Hexagon tiles the plane with pointy-top hexagons in odd-r offset rows.
	Hexagon Type = "hexagon"
)

// Config holds the parameters a Grid is built from.
type Config struct {
	Type     Type
	CellArea float64
	NX       int
	NY       int
	XOff     float64
	YOff     float64
}

// Grid is the immutable spatial layout of the simulation. All queries are
// read-only after construction.
type Grid struct {
	cfg       Config
	centroids [][2]float64
	neighbors [][]int
}

// New builds a Grid from the given configuration. It fails with
// ErrInvalidGridConfig if nx, ny or cell area are non-positive, or if the
// grid type is unrecognized.
func New(cfg Config) (*Grid, error) {
	if cfg.NX <= 0 || cfg.NY <= 0 {
		return nil, fmt.Errorf("%w: nx=%d ny=%d must be positive", ErrInvalidGridConfig, cfg.NX, cfg.NY)
	}
	if cfg.CellArea <= 0 {
		return nil, fmt.Errorf("%w: cell_area=%g must be positive", ErrInvalidGridConfig, cfg.CellArea)
	}

	g := &Grid{cfg: cfg}
	switch cfg.Type {
	case Square:
		g.buildSquare()
	case Hexagon:
		g.buildHex()
	default:
		return nil, fmt.Errorf("%w: unrecognized grid type %q", ErrInvalidGridConfig, cfg.Type)
	}
	return g, nil
}

// CellCount returns the total number of cells, NX*NY.
func (g *Grid) CellCount() int {
	return g.cfg.NX * g.cfg.NY
}

// CellIDs returns all cell IDs in ascending order. The slice is freshly
// allocated on each call.
func (g *Grid) CellIDs() []int {
	ids := make([]int, g.CellCount())
	for i := range ids {
		ids[i] = i
	}
	return ids
}

// NX returns the number of columns.
func (g *Grid) NX() int {
	return g.cfg.NX
}

// NY returns the number of rows.
func (g *Grid) NY() int {
	return g.cfg.NY
}

// Area returns the configured per-cell area.
func (g *Grid) Area() float64 {
	return g.cfg.CellArea
}

// GridType returns the tessellation type.
func (g *Grid) GridType() Type {
	return g.cfg.Type
}

// Centroid returns the (x, y) centroid of the given cell.
func (g *Grid) Centroid(cellID int) (float64, float64, error) {
	if cellID < 0 || cellID >= g.CellCount() {
		return 0, 0, fmt.Errorf("%w: %d (grid has %d cells)", ErrUnknownCell, cellID, g.CellCount())
	}
	c := g.centroids[cellID]
	return c[0], c[1], nil
}

// Neighbors returns the IDs of the cells geometrically adjacent to the given
// cell. Square grids use 4-connectivity; hexagon grids use the six offset-row
// neighbors. Cells on the boundary have fewer neighbors.
func (g *Grid) Neighbors(cellID int) ([]int, error) {
	if cellID < 0 || cellID >= g.CellCount() {
		return nil, fmt.Errorf("%w: %d (grid has %d cells)", ErrUnknownCell, cellID, g.CellCount())
	}
	out := make([]int, len(g.neighbors[cellID]))
	copy(out, g.neighbors[cellID])
	return out, nil
}

// Distance returns the Euclidean distance between two cell centroids.
func (g *Grid) Distance(a, b int) (float64, error) {
	ax, ay, err := g.Centroid(a)
	if err != nil {
		return 0, err
	}
	bx, by, err := g.Centroid(b)
	if err != nil {
		return 0, err
	}
	return math.Hypot(bx-ax, by-ay), nil
}

// Resolution returns the characteristic centroid spacing of the grid: the
// side length for square grids, the hex width for hexagon grids. Used as the
// alignment tolerance base for coordinate matching.
func (g *Grid) Resolution() float64 {
	switch g.cfg.Type {
	case Hexagon:
		side := math.Sqrt(2 * g.cfg.CellArea / (3 * math.Sqrt(3)))
		return math.Sqrt(3) * side
	default:
		return math.Sqrt(g.cfg.CellArea)
	}
}

// MapCoords resolves one (x, y) coordinate pair per array position onto cell
// IDs by nearest-centroid matching within half the grid resolution. It fails
// with ErrGridMismatch if the arrays differ in length or any coordinate has
// no centroid within tolerance.
func (g *Grid) MapCoords(xs, ys []float64) ([]int, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: %d x coordinates vs %d y coordinates", ErrGridMismatch, len(xs), len(ys))
	}

	tol := g.Resolution() / 2
	ids := make([]int, len(xs))
	for i := range xs {
		best := -1
		bestDist := math.Inf(1)
		for id, c := range g.centroids {
			d := math.Hypot(xs[i]-c[0], ys[i]-c[1])
			if d < bestDist {
				best = id
				bestDist = d
			}
		}
		if best < 0 || bestDist > tol {
			return nil, fmt.Errorf("%w: coordinate (%g, %g) is %.3g from the nearest centroid (tolerance %.3g)",
				ErrGridMismatch, xs[i], ys[i], bestDist, tol)
		}
		ids[i] = best
	}
	return ids, nil
}

// xy converts a cell ID into its (column, row) position.
func (g *Grid) xy(cellID int) (int, int) {
	return cellID % g.cfg.NX, cellID / g.cfg.NX
}

// id converts a (column, row) position into a cell ID, or -1 when the
// position lies outside the grid.
func (g *Grid) id(x, y int) int {
	if x < 0 || x >= g.cfg.NX || y < 0 || y >= g.cfg.NY {
		return -1
	}
	return y*g.cfg.NX + x
}
