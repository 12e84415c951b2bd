package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// probe counts update calls and appends its name to a shared call log.
type probe struct {
	model.Base
	model.NoopHooks
	calls   *[]string
	updates int
	fail    error
}

func (p *probe) Update(context.Context, int) error {
	if p.fail != nil {
		return p.fail
	}
	p.updates++
	if p.calls != nil {
		*p.calls = append(*p.calls, p.Name())
	}
	return nil
}

// buildProbe constructs a Ready probe through the registry so the lifecycle
// contract holds.
func buildProbe(t *testing.T, name, interval string, calls *[]string, fail error) *probe {
	t.Helper()

	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 2, NY: 2})
	require.NoError(t, err)
	vars := axes.NewRegistry()
	st := store.New(g, vars, nil)

	var built *probe
	reg := model.NewRegistry()
	reg.Register(model.Definition{
		Name: name,
		Factory: func(_ context.Context, args model.FactoryArgs) (model.Model, error) {
			built = &probe{Base: model.NewBase(name, args.Interval), calls: calls, fail: fail}
			return built, nil
		},
	})

	cfg := config.NewTree()
	require.NoError(t, cfg.SetLeaf("update_interval", cty.StringVal(interval), "test"))

	ctx := context.Background()
	m, err := reg.Construct(ctx, name, vars, st, cfg)
	require.NoError(t, err)
	require.NoError(t, model.RunSetup(ctx, m))
	return built
}

func testTiming(hours int) Timing {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	return Timing{Start: start, End: start.Add(time.Duration(hours) * time.Hour), Interval: time.Hour}
}

func emptyStore(t *testing.T) *store.Store {
	t.Helper()
	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 2, NY: 2})
	require.NoError(t, err)
	return store.New(g, axes.NewRegistry(), nil)
}

func TestTimingValidate(t *testing.T) {
	t.Run("accepts a whole number of intervals", func(t *testing.T) {
		assert.NoError(t, testTiming(4).Validate(nil))
		assert.Equal(t, 4, testTiming(4).Steps())
	})

	t.Run("rejects non-positive interval", func(t *testing.T) {
		tm := testTiming(4)
		tm.Interval = 0
		assert.ErrorIs(t, tm.Validate(nil), ErrTimingConfiguration)
	})

	t.Run("rejects end not after start", func(t *testing.T) {
		tm := testTiming(4)
		tm.End = tm.Start
		assert.ErrorIs(t, tm.Validate(nil), ErrTimingConfiguration)
	})

	t.Run("rejects fractional final steps", func(t *testing.T) {
		tm := testTiming(4)
		tm.Interval = 90 * time.Minute
		assert.ErrorIs(t, tm.Validate(nil), ErrTimingConfiguration)
	})

	t.Run("rejects model interval below the global interval", func(t *testing.T) {
		m := buildProbe(t, "fast", "30m", nil, nil)
		err := testTiming(4).Validate([]model.Model{m})
		require.ErrorIs(t, err, ErrTimingConfiguration)
		assert.Contains(t, err.Error(), "fast")
	})

	t.Run("rejects model interval that is not a multiple of the global interval", func(t *testing.T) {
		m := buildProbe(t, "ragged", "90m", nil, nil)
		err := testTiming(6).Validate([]model.Model{m})
		require.ErrorIs(t, err, ErrTimingConfiguration)
		assert.Contains(t, err.Error(), "ragged")
		assert.Contains(t, err.Error(), "not a multiple")
	})
}

func TestRunnerCadence(t *testing.T) {
	// Over four hourly ticks, an hourly model updates four times and a
	// two-hourly model twice.
	hourly := buildProbe(t, "hourly", "1h", nil, nil)
	twoHourly := buildProbe(t, "two_hourly", "2h", nil, nil)

	r := NewRunner(testTiming(4), []Entry{
		{Model: hourly},
		{Model: twoHourly},
	}, emptyStore(t), nil)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 4, hourly.updates)
	assert.Equal(t, 2, twoHourly.updates)
}

func TestRunnerDependencyOrder(t *testing.T) {
	var calls []string
	soil := buildProbe(t, "soil", "1h", &calls, nil)
	plants := buildProbe(t, "plants", "1h", &calls, nil)

	// Entries already sorted by ResolveOrder: soil before plants.
	r := NewRunner(testTiming(3), []Entry{
		{Model: soil},
		{Model: plants},
	}, emptyStore(t), nil)

	require.NoError(t, r.Run(context.Background()))
	require.Len(t, calls, 6)
	for i := 0; i < len(calls); i += 2 {
		assert.Equal(t, "soil", calls[i])
		assert.Equal(t, "plants", calls[i+1])
	}
}

func TestRunnerFailureAbortsTick(t *testing.T) {
	var calls []string
	soil := buildProbe(t, "soil", "1h", &calls, assert.AnError)
	plants := buildProbe(t, "plants", "1h", &calls, nil)

	r := NewRunner(testTiming(3), []Entry{
		{Model: soil},
		{Model: plants},
	}, emptyStore(t), nil)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, assert.AnError)
	// The failing model ran first; the dependent model never ran.
	assert.Empty(t, calls)
	assert.Equal(t, 0, plants.updates)
}

func TestRunnerHook(t *testing.T) {
	hourly := buildProbe(t, "hourly", "1h", nil, nil)
	twoHourly := buildProbe(t, "two_hourly", "2h", nil, nil)

	var hookTicks []int
	var updatedCounts []int
	hook := func(_ context.Context, timeIndex int, _ time.Time, updated []Entry) error {
		hookTicks = append(hookTicks, timeIndex)
		updatedCounts = append(updatedCounts, len(updated))
		return nil
	}

	r := NewRunner(testTiming(4), []Entry{
		{Model: hourly},
		{Model: twoHourly},
	}, emptyStore(t), hook)

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, []int{0, 1, 2, 3}, hookTicks)
	assert.Equal(t, []int{2, 1, 2, 1}, updatedCounts)
}

func TestRunnerCancellation(t *testing.T) {
	hourly := buildProbe(t, "hourly", "1h", nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(testTiming(4), []Entry{{Model: hourly}}, emptyStore(t), nil)
	err := r.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, hourly.updates)
}

// incrementer adds one to a spatial temperature field on every update.
type incrementer struct {
	model.Base
	model.NoopHooks
	store *store.Store
}

func (m *incrementer) Update(context.Context, int) error {
	temp, err := m.store.Get("temperature")
	if err != nil {
		return err
	}
	next := make([]float64, len(temp))
	for i, v := range temp {
		next[i] = v + 1
	}
	return m.store.Set("temperature", next)
}

func TestRunnerUpdatesFlowThroughStore(t *testing.T) {
	g, err := grid.New(grid.Config{Type: grid.Square, CellArea: 100, NX: 3, NY: 3})
	require.NoError(t, err)
	vars := axes.NewRegistry()
	require.NoError(t, vars.Register(axes.Descriptor{
		Name: "temperature", Axes: []string{axes.Spatial}, Unit: "C",
	}))
	st := store.New(g, vars, nil)
	require.NoError(t, st.LoadFromValue("temperature", cty.NumberFloatVal(20)))

	var built *incrementer
	reg := model.NewRegistry()
	reg.Register(model.Definition{
		Name:            "warming",
		RequiredForInit: []model.Var{{Name: "temperature", Axes: []string{axes.Spatial}}},
		VarsUpdated:     []string{"temperature"},
		Factory: func(_ context.Context, args model.FactoryArgs) (model.Model, error) {
			built = &incrementer{Base: model.NewBase("warming", args.Interval), store: args.Store}
			return built, nil
		},
	})

	cfg := config.NewTree()
	require.NoError(t, cfg.SetLeaf("update_interval", cty.StringVal("1h"), "test"))
	ctx := context.Background()
	m, err := reg.Construct(ctx, "warming", vars, st, cfg)
	require.NoError(t, err)
	require.NoError(t, model.RunSetup(ctx, m))

	temp, err := st.Get("temperature")
	require.NoError(t, err)
	require.Len(t, temp, 9)
	for _, v := range temp {
		assert.InDelta(t, 20, v, 1e-9)
	}

	r := NewRunner(testTiming(1), []Entry{
		{Model: built, VarsUpdated: []string{"temperature"}},
	}, st, nil)
	require.NoError(t, r.Run(ctx))

	// the reference taken before the run observes the overwrite
	for _, v := range temp {
		assert.InDelta(t, 21, v, 1e-9)
	}
}
