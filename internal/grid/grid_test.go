package grid

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func squareGrid(t *testing.T, nx, ny int) *Grid {
	t.Helper()
	g, err := New(Config{Type: Square, CellArea: 100, NX: nx, NY: ny})
	require.NoError(t, err)
	return g
}

func TestNew(t *testing.T) {
	t.Run("rejects non-positive dimensions", func(t *testing.T) {
		_, err := New(Config{Type: Square, CellArea: 100, NX: 0, NY: 3})
		assert.ErrorIs(t, err, ErrInvalidGridConfig)

		_, err = New(Config{Type: Square, CellArea: 100, NX: 3, NY: -1})
		assert.ErrorIs(t, err, ErrInvalidGridConfig)
	})

	t.Run("rejects non-positive cell area", func(t *testing.T) {
		_, err := New(Config{Type: Square, CellArea: 0, NX: 3, NY: 3})
		assert.ErrorIs(t, err, ErrInvalidGridConfig)
	})

	t.Run("rejects unrecognized grid type", func(t *testing.T) {
		_, err := New(Config{Type: "triangle", CellArea: 100, NX: 3, NY: 3})
		assert.ErrorIs(t, err, ErrInvalidGridConfig)
	})

	t.Run("builds both tessellations", func(t *testing.T) {
		for _, typ := range []Type{Square, Hexagon} {
			g, err := New(Config{Type: typ, CellArea: 100, NX: 4, NY: 3})
			require.NoError(t, err)
			assert.Equal(t, 12, g.CellCount())
		}
	})
}

func TestCellIDs(t *testing.T) {
	g := squareGrid(t, 3, 3)

	ids := g.CellIDs()
	assert.Len(t, ids, 9)
	assert.Equal(t, g.CellCount(), len(ids))

	seen := make(map[int]bool)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate cell id %d", id)
		seen[id] = true
	}
}

func TestCentroid(t *testing.T) {
	g := squareGrid(t, 3, 3)

	// cell 0 is lower-left; side is sqrt(100) = 10.
	x, y, err := g.Centroid(0)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, x, 1e-9)
	assert.InDelta(t, 5.0, y, 1e-9)

	// cell 4 is the middle of the 3x3 grid.
	x, y, err = g.Centroid(4)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, x, 1e-9)
	assert.InDelta(t, 15.0, y, 1e-9)

	_, _, err = g.Centroid(9)
	assert.ErrorIs(t, err, ErrUnknownCell)
}

func TestSquareNeighbors(t *testing.T) {
	g := squareGrid(t, 3, 3)

	nbs, err := g.Neighbors(4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3, 5, 7}, nbs)

	nbs, err = g.Neighbors(0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, nbs)

	_, err = g.Neighbors(-1)
	assert.ErrorIs(t, err, ErrUnknownCell)
}

func TestHexNeighbors(t *testing.T) {
	g, err := New(Config{Type: Hexagon, CellArea: 100, NX: 3, NY: 3})
	require.NoError(t, err)

	// Middle cell of row 1 (odd row, shifted right): all six neighbors exist.
	nbs, err := g.Neighbors(4)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 2, 3, 5, 7, 8}, nbs)

	// Lower-left corner of an even row.
	nbs, err = g.Neighbors(0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{1, 3}, nbs)
}

func TestDistance(t *testing.T) {
	g := squareGrid(t, 3, 3)

	d, err := g.Distance(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, d, 1e-9)

	d, err = g.Distance(0, 4)
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Sqrt2, d, 1e-9)
}

func TestMapCoords(t *testing.T) {
	g := squareGrid(t, 3, 3)

	t.Run("maps exact centroids", func(t *testing.T) {
		ids, err := g.MapCoords([]float64{5, 15, 25}, []float64{5, 15, 25})
		require.NoError(t, err)
		assert.Equal(t, []int{0, 4, 8}, ids)
	})

	t.Run("tolerates sub-resolution offsets", func(t *testing.T) {
		ids, err := g.MapCoords([]float64{6.5}, []float64{4.2})
		require.NoError(t, err)
		assert.Equal(t, []int{0}, ids)
	})

	t.Run("rejects out-of-extent coordinates", func(t *testing.T) {
		_, err := g.MapCoords([]float64{500}, []float64{500})
		assert.ErrorIs(t, err, ErrGridMismatch)
	})

	t.Run("rejects mismatched array lengths", func(t *testing.T) {
		_, err := g.MapCoords([]float64{5, 15}, []float64{5})
		assert.ErrorIs(t, err, ErrGridMismatch)
	})
}

func TestExportGeoJSON(t *testing.T) {
	g := squareGrid(t, 2, 2)

	var buf bytes.Buffer
	require.NoError(t, g.ExportGeoJSON(&buf))

	var coll struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &coll))
	assert.Equal(t, "FeatureCollection", coll.Type)
	assert.Len(t, coll.Features, 4)

	// Export must not mutate the grid.
	assert.Equal(t, 4, g.CellCount())
	ids := g.CellIDs()
	assert.Equal(t, []int{0, 1, 2, 3}, ids)
}
