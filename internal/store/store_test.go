package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 3, NY: 3})
	require.NoError(t, err)

	reg := axes.NewRegistry()
	require.NoError(t, reg.Register(axes.Descriptor{Name: "temperature", Axes: []string{axes.Spatial}, Unit: "C"}))
	require.NoError(t, reg.Register(axes.Descriptor{Name: "soil_carbon", Axes: []string{axes.Spatial, axes.SoilLayers}, Unit: "kg m-2"}))
	require.NoError(t, reg.Register(axes.Descriptor{Name: "biome", Axes: []string{axes.Spatial}, Unit: "1"}))

	return New(g, reg, axes.Sizes{axes.SoilLayers: 2})
}

func TestLoadFromValue(t *testing.T) {
	t.Run("scalar broadcasts to every cell", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.LoadFromValue("temperature", cty.NumberFloatVal(20)))

		data, err := s.Get("temperature")
		require.NoError(t, err)
		require.Len(t, data, 9)
		for _, v := range data {
			assert.Equal(t, 20.0, v)
		}
	})

	t.Run("trailing-axis list broadcasts across cells", func(t *testing.T) {
		s := testStore(t)
		layers := cty.ListVal([]cty.Value{cty.NumberFloatVal(1.5), cty.NumberFloatVal(0.5)})
		require.NoError(t, s.LoadFromValue("soil_carbon", layers))

		data, err := s.Get("soil_carbon")
		require.NoError(t, err)
		require.Len(t, data, 18)
		assert.Equal(t, 1.5, data[0])
		assert.Equal(t, 0.5, data[1])
		assert.Equal(t, 1.5, data[16])
		assert.Equal(t, 0.5, data[17])
	})

	t.Run("full nested literal is stored as-is", func(t *testing.T) {
		s := testStore(t)
		cells := make([]cty.Value, 9)
		for i := range cells {
			cells[i] = cty.NumberIntVal(int64(i))
		}
		require.NoError(t, s.LoadFromValue("temperature", cty.ListVal(cells)))

		data, err := s.Get("temperature")
		require.NoError(t, err)
		assert.Equal(t, 8.0, data[8])
	})

	t.Run("incompatible shape fails", func(t *testing.T) {
		s := testStore(t)
		bad := cty.ListVal([]cty.Value{cty.NumberIntVal(1), cty.NumberIntVal(2), cty.NumberIntVal(3)})
		err := s.LoadFromValue("temperature", bad)
		assert.ErrorIs(t, err, ErrBroadcast)
	})

	t.Run("unregistered variable fails", func(t *testing.T) {
		s := testStore(t)
		err := s.LoadFromValue("pressure", cty.NumberIntVal(1))
		assert.ErrorIs(t, err, axes.ErrUnknownVariable)
	})
}

func TestSet(t *testing.T) {
	t.Run("first write creates the entry", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.Set("temperature", make([]float64, 9)))
		assert.True(t, s.Contains("temperature"))
	})

	t.Run("mismatched shape fails and leaves the value unchanged", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.LoadFromValue("temperature", cty.NumberFloatVal(20)))

		err := s.Set("temperature", make([]float64, 4))
		require.ErrorIs(t, err, ErrShapeMismatch)

		data, err := s.Get("temperature")
		require.NoError(t, err)
		for _, v := range data {
			assert.Equal(t, 20.0, v)
		}
	})

	t.Run("overwrite is observed through prior references", func(t *testing.T) {
		s := testStore(t)
		require.NoError(t, s.LoadFromValue("temperature", cty.NumberFloatVal(20)))

		ref, err := s.Get("temperature")
		require.NoError(t, err)

		next := make([]float64, 9)
		for i := range next {
			next[i] = 21
		}
		require.NoError(t, s.Set("temperature", next))
		assert.Equal(t, 21.0, ref[0])
	})

	t.Run("get of absent variable fails", func(t *testing.T) {
		s := testStore(t)
		_, err := s.Get("temperature")
		assert.ErrorIs(t, err, ErrMissingVariable)
	})
}

func TestWriteScope(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.LoadFromValue("temperature", cty.NumberFloatVal(20)))
	require.NoError(t, s.LoadFromValue("soil_carbon", cty.NumberFloatVal(1)))

	s.BeginWrite("plants", []string{"temperature"})

	assert.NoError(t, s.Set("temperature", make([]float64, 9)))

	err := s.Set("soil_carbon", make([]float64, 18))
	require.ErrorIs(t, err, ErrUndeclaredWrite)
	assert.Contains(t, err.Error(), "plants")

	s.EndWrite()
	assert.NoError(t, s.Set("soil_carbon", make([]float64, 18)))
}

func writeArrayFile(t *testing.T, f arrayFile) string {
	t.Helper()
	raw, err := json.Marshal(f)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestLoadFromFile(t *testing.T) {
	t.Run("direct cell_id dimension", func(t *testing.T) {
		s := testStore(t)
		path := writeArrayFile(t, arrayFile{Dims: []string{"cell_id"}, Shape: []int{9}, Data: seq(9)})

		require.NoError(t, s.LoadFromFile("temperature", path, Mapping{Mode: MapCellID}))
		data, err := s.Get("temperature")
		require.NoError(t, err)
		assert.Equal(t, 4.0, data[4])
	})

	t.Run("cell_id coordinate permutes rows", func(t *testing.T) {
		s := testStore(t)
		// Values listed in reverse cell order.
		ids := make([]float64, 9)
		for i := range ids {
			ids[i] = float64(8 - i)
		}
		path := writeArrayFile(t, arrayFile{
			Dims: []string{"cell_id"}, Shape: []int{9}, Data: seq(9),
			Coords: map[string][]float64{"cell_id": ids},
		})

		require.NoError(t, s.LoadFromFile("temperature", path, Mapping{Mode: MapCellID}))
		data, err := s.Get("temperature")
		require.NoError(t, err)
		assert.Equal(t, 8.0, data[0])
		assert.Equal(t, 0.0, data[8])
	})

	t.Run("two-dimensional index match", func(t *testing.T) {
		s := testStore(t)
		path := writeArrayFile(t, arrayFile{Dims: []string{"y", "x"}, Shape: []int{3, 3}, Data: seq(9)})

		require.NoError(t, s.LoadFromFile("temperature", path, Mapping{Mode: MapXYIndex}))
		data, err := s.Get("temperature")
		require.NoError(t, err)
		// Row y=1, column x=2 is cell 5 and the sixth file value.
		assert.Equal(t, 5.0, data[5])
	})

	t.Run("coordinate match against centroids", func(t *testing.T) {
		s := testStore(t)
		// Points listed in reverse cell order; centroids of the 3x3 grid
		// with side 10.
		var xs, ys, data []float64
		for i := 8; i >= 0; i-- {
			xs = append(xs, float64(i%3)*10+5)
			ys = append(ys, float64(i/3)*10+5)
			data = append(data, float64(i)*100)
		}
		path := writeArrayFile(t, arrayFile{
			Dims: []string{"points"}, Shape: []int{9}, Data: data,
			Coords: map[string][]float64{"x": xs, "y": ys},
		})

		require.NoError(t, s.LoadFromFile("temperature", path, Mapping{Mode: MapCoordinates}))
		got, err := s.Get("temperature")
		require.NoError(t, err)
		assert.Equal(t, 0.0, got[0])
		assert.Equal(t, 800.0, got[8])
	})

	t.Run("misaligned coordinates fail with a grid mismatch", func(t *testing.T) {
		s := testStore(t)
		var xs, ys []float64
		for i := 0; i < 9; i++ {
			xs = append(xs, float64(i)*1000)
			ys = append(ys, float64(i)*1000)
		}
		path := writeArrayFile(t, arrayFile{
			Dims: []string{"points"}, Shape: []int{9}, Data: seq(9),
			Coords: map[string][]float64{"x": xs, "y": ys},
		})

		err := s.LoadFromFile("temperature", path, Mapping{Mode: MapCoordinates})
		assert.ErrorIs(t, err, grid.ErrGridMismatch)
	})

	t.Run("categorical mapping expands groups to cells", func(t *testing.T) {
		s := testStore(t)
		// Cells 0-4 are biome 1, cells 5-8 biome 2.
		biomes := []float64{1, 1, 1, 1, 1, 2, 2, 2, 2}
		require.NoError(t, s.Set("biome", biomes))
		require.NoError(t, s.DefineCategory("biome", "biome"))

		path := writeArrayFile(t, arrayFile{
			Dims: []string{"biome"}, Shape: []int{2}, Data: []float64{10, 30},
			Coords: map[string][]float64{"biome": {1, 2}},
		})

		require.NoError(t, s.LoadFromFile("temperature", path, Mapping{Mode: MapCategory, Category: "biome"}))
		data, err := s.Get("temperature")
		require.NoError(t, err)
		assert.Equal(t, 10.0, data[0])
		assert.Equal(t, 10.0, data[4])
		assert.Equal(t, 30.0, data[5])
		assert.Equal(t, 30.0, data[8])
	})

	t.Run("undefined categorical mapping fails", func(t *testing.T) {
		s := testStore(t)
		path := writeArrayFile(t, arrayFile{
			Dims: []string{"biome"}, Shape: []int{1}, Data: []float64{10},
			Coords: map[string][]float64{"biome": {1}},
		})
		err := s.LoadFromFile("temperature", path, Mapping{Mode: MapCategory, Category: "biome"})
		assert.ErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("trailing axis dimensions are validated", func(t *testing.T) {
		s := testStore(t)
		path := writeArrayFile(t, arrayFile{
			Dims: []string{"cell_id", "soil_layers"}, Shape: []int{9, 2}, Data: seq(18),
		})
		require.NoError(t, s.LoadFromFile("soil_carbon", path, Mapping{Mode: MapCellID}))

		bad := writeArrayFile(t, arrayFile{
			Dims: []string{"cell_id", "soil_layers"}, Shape: []int{9, 3}, Data: seq(27),
		})
		err := s.LoadFromFile("soil_carbon", bad, Mapping{Mode: MapCellID})
		assert.ErrorIs(t, err, ErrDataValidation)
	})

	t.Run("wrong cell count fails", func(t *testing.T) {
		s := testStore(t)
		path := writeArrayFile(t, arrayFile{Dims: []string{"cell_id"}, Shape: []int{4}, Data: seq(4)})
		err := s.LoadFromFile("temperature", path, Mapping{Mode: MapCellID})
		assert.ErrorIs(t, err, ErrDataValidation)
	})
}
