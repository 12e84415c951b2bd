package hydrology_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/hydrology"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

func newModel(t *testing.T, precipitation float64) (model.Model, *store.Store) {
	t.Helper()

	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 2, NY: 2})
	require.NoError(t, err)

	reg := model.NewRegistry()
	reg.Register(hydrology.Definition())

	vars := axes.NewRegistry()
	require.NoError(t, reg.RegisterVariables(vars))
	require.NoError(t, vars.Register(axes.Descriptor{
		Name: "precipitation", Axes: []string{axes.Spatial}, Unit: "mm/day",
	}))

	tree := config.NewTree()
	require.NoError(t, tree.SetLeaf("hydrology.update_interval", cty.StringVal("24h"), "test"))
	require.NoError(t, config.Validate(tree, reg.Fragments()))

	st := store.New(g, vars, nil)
	require.NoError(t, st.LoadFromValue("precipitation", cty.NumberFloatVal(precipitation)))

	m, err := reg.Construct(context.Background(), hydrology.ModelName, vars, st, tree.Sub(hydrology.ModelName))
	require.NoError(t, err)
	return m, st
}

func TestConstructRequiresPrecipitation(t *testing.T) {
	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 2, NY: 2})
	require.NoError(t, err)

	reg := model.NewRegistry()
	reg.Register(hydrology.Definition())
	vars := axes.NewRegistry()
	require.NoError(t, reg.RegisterVariables(vars))

	tree := config.NewTree()
	require.NoError(t, tree.SetLeaf("hydrology.update_interval", cty.StringVal("24h"), "test"))
	require.NoError(t, config.Validate(tree, reg.Fragments()))

	st := store.New(g, vars, nil)
	_, err = reg.Construct(context.Background(), hydrology.ModelName, vars, st, tree.Sub(hydrology.ModelName))
	require.ErrorIs(t, err, model.ErrInitialisation)
	assert.Contains(t, err.Error(), "precipitation")
}

func TestSetupFillsBuckets(t *testing.T) {
	m, st := newModel(t, 0)
	require.NoError(t, model.RunSetup(context.Background(), m))

	moisture, err := st.Get("soil_moisture")
	require.NoError(t, err)
	for _, v := range moisture {
		assert.InDelta(t, 45, v, 1e-9) // 150 * 0.3
	}
	runoff, err := st.Get("surface_runoff")
	require.NoError(t, err)
	for _, v := range runoff {
		assert.Zero(t, v)
	}
}

func TestUpdateBalancesBucket(t *testing.T) {
	m, st := newModel(t, 10)
	ctx := context.Background()
	require.NoError(t, model.RunSetup(ctx, m))
	require.NoError(t, model.RunSpinup(ctx, m))

	before, err := st.Get("soil_moisture")
	require.NoError(t, err)
	start := append([]float64(nil), before...)

	require.NoError(t, model.RunUpdate(ctx, m, 0))
	after, err := st.Get("soil_moisture")
	require.NoError(t, err)
	for i := range after {
		expected := (start[i] + 10) * 0.95
		assert.InDelta(t, expected, after[i], 1e-9)
	}
}

func TestOverflowBecomesRunoff(t *testing.T) {
	m, st := newModel(t, 500)
	ctx := context.Background()
	require.NoError(t, model.RunSetup(ctx, m))
	require.NoError(t, model.RunSpinup(ctx, m))

	require.NoError(t, model.RunUpdate(ctx, m, 0))

	moisture, err := st.Get("soil_moisture")
	require.NoError(t, err)
	runoff, err := st.Get("surface_runoff")
	require.NoError(t, err)
	for i := range moisture {
		assert.InDelta(t, 150, moisture[i], 1e-9)
		assert.Greater(t, runoff[i], 0.0)
	}
}
