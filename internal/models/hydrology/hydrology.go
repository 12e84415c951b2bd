// Package hydrology provides the bucket hydrology submodel: per-cell soil
// moisture filled by precipitation, drained by evapotranspiration, with the
// overflow leaving as surface runoff.
package hydrology

import (
	"context"
	"math"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// ModelName is the registration and configuration key.
const ModelName = "hydrology"

// Model tracks a single moisture bucket per cell.
type Model struct {
	model.Base

	store *store.Store

	capacity        float64
	etRate          float64
	initialFraction float64
}

// Definition returns the submodel's registration record. Precipitation must
// be supplied through the configured input data before the model is built.
func Definition() model.Definition {
	return model.Definition{
		Name: ModelName,
		RequiredForInit: []model.Var{
			{Name: "precipitation", Axes: []string{axes.Spatial}},
		},
		VarsUpdated: []string{"soil_moisture", "surface_runoff"},
		MinInterval: time.Minute,
		MaxInterval: 30 * 24 * time.Hour,
		Variables: []axes.Descriptor{
			{Name: "soil_moisture", Axes: []string{axes.Spatial}, Unit: "mm"},
			{Name: "surface_runoff", Axes: []string{axes.Spatial}, Unit: "mm"},
		},
		Fragment: config.Fragment{
			Key: ModelName,
			Defaults: map[string]cty.Value{
				"update_interval":                     cty.StringVal("1h"),
				"constants.soil_capacity":             cty.NumberFloatVal(150),
				"constants.evapotranspiration_rate":   cty.NumberFloatVal(0.05),
				"constants.initial_moisture_fraction": cty.NumberFloatVal(0.3),
			},
			Validate: validate,
		},
		Factory: fromConfig,
	}
}

func validate(sub *config.Tree) error {
	if err := config.FloatInRange(sub, "constants.soil_capacity", 1, 2000); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.evapotranspiration_rate", 0, 1); err != nil {
		return err
	}
	return config.FloatInRange(sub, "constants.initial_moisture_fraction", 0, 1)
}

func fromConfig(_ context.Context, args model.FactoryArgs) (model.Model, error) {
	capacity, err := args.Config.Float("constants.soil_capacity")
	if err != nil {
		return nil, err
	}
	etRate, err := args.Config.Float("constants.evapotranspiration_rate")
	if err != nil {
		return nil, err
	}
	fraction, err := args.Config.Float("constants.initial_moisture_fraction")
	if err != nil {
		return nil, err
	}

	return &Model{
		Base:            model.NewBase(ModelName, args.Interval),
		store:           args.Store,
		capacity:        capacity,
		etRate:          etRate,
		initialFraction: fraction,
	}, nil
}

// Setup fills every bucket to the configured initial fraction and zeroes
// the runoff field.
func (m *Model) Setup(_ context.Context) error {
	n := m.store.Grid().CellCount()

	moisture := make([]float64, n)
	for i := range moisture {
		moisture[i] = m.capacity * m.initialFraction
	}
	if err := m.store.Set("soil_moisture", moisture); err != nil {
		return err
	}
	return m.store.Set("surface_runoff", make([]float64, n))
}

// Spinup drains the buckets to their precipitation-free equilibrium over a
// fixed number of daily steps.
func (m *Model) Spinup(_ context.Context) error {
	moisture, err := m.store.Get("soil_moisture")
	if err != nil {
		return err
	}
	next := append([]float64(nil), moisture...)
	for day := 0; day < 10; day++ {
		for i := range next {
			next[i] -= next[i] * m.etRate
		}
	}
	return m.store.Set("soil_moisture", next)
}

// Update runs one bucket step: precipitation in, evapotranspiration out,
// overflow above capacity recorded as runoff. Precipitation is read as a
// daily rate and scaled to the update interval.
func (m *Model) Update(_ context.Context, _ int) error {
	precipitation, err := m.store.Get("precipitation")
	if err != nil {
		return err
	}
	moisture, err := m.store.Get("soil_moisture")
	if err != nil {
		return err
	}

	intervalDays := m.Interval().Hours() / 24

	next := make([]float64, len(moisture))
	runoff := make([]float64, len(moisture))
	for i := range moisture {
		level := moisture[i] + precipitation[i]*intervalDays
		level -= level * m.etRate * intervalDays
		if level > m.capacity {
			runoff[i] = level - m.capacity
			level = m.capacity
		}
		next[i] = math.Max(0, level)
	}

	if err := m.store.Set("soil_moisture", next); err != nil {
		return err
	}
	return m.store.Set("surface_runoff", runoff)
}

// Cleanup is a no-op.
func (m *Model) Cleanup(context.Context) error { return nil }

var _ model.Model = (*Model)(nil)
