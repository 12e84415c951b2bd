// Package soil provides the soil carbon submodel: a per-cell, per-layer
// carbon pool fed by litter and decayed at a rate modified by air
// temperature and soil moisture.
package soil

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
const ModelName = "soil"

// Model tracks soil carbon across the configured soil layers.
type Model struct {
	model.Base

	store  *store.Store
	layers int

	initialCarbon  float64
	decayRate      float64
	referenceTemp  float64
	q10            float64
	litterInput    float64
	moistureOptMin float64
	moistureOptMax float64
}

// Definition returns the submodel's registration record. Temperature and
// moisture come from the abiotic and hydrology models, so both are declared
// as default dependencies for setup and update.
func Definition() model.Definition {
	return model.Definition{
		Name: ModelName,
		RequiredForInit: []model.Var{
			{Name: "air_temperature", Axes: []string{axes.Spatial}},
			{Name: "soil_moisture", Axes: []string{axes.Spatial}},
		},
		VarsUpdated:     []string{"soil_carbon"},
		InitDependsOn:   []string{"abiotic", "hydrology"},
		UpdateDependsOn: []string{"abiotic", "hydrology"},
		MinInterval:     time.Hour,
		MaxInterval:     30 * 24 * time.Hour,
		Variables: []axes.Descriptor{
			{Name: "soil_carbon", Axes: []string{axes.Spatial, axes.SoilLayers}, Unit: "kg/m2"},
		},
		Fragment: config.Fragment{
			Key: ModelName,
			Defaults: map[string]cty.Value{
				"update_interval":               cty.StringVal("24h"),
				"constants.initial_carbon":      cty.NumberFloatVal(5),
				"constants.decay_rate":          cty.NumberFloatVal(0.001),
				"constants.reference_temp":      cty.NumberFloatVal(20),
				"constants.q10":                 cty.NumberFloatVal(2),
				"constants.litter_input":        cty.NumberFloatVal(0.002),
				"constants.moisture_optimum_mm": cty.NumberFloatVal(60),
			},
			Validate: validate,
		},
		Factory: fromConfig,
	}
}

func validate(sub *config.Tree) error {
	if err := config.FloatInRange(sub, "constants.initial_carbon", 0, 100); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.decay_rate", 0, 1); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.q10", 1, 5); err != nil {
		return err
	}
	return config.FloatInRange(sub, "constants.litter_input", 0, 10)
}

func fromConfig(_ context.Context, args model.FactoryArgs) (model.Model, error) {
	cfg := args.Config

	initial, err := cfg.Float("constants.initial_carbon")
	if err != nil {
		return nil, err
	}
	decay, err := cfg.Float("constants.decay_rate")
	if err != nil {
		return nil, err
	}
	refTemp, err := cfg.Float("constants.reference_temp")
	if err != nil {
		return nil, err
	}
	q10, err := cfg.Float("constants.q10")
	if err != nil {
		return nil, err
	}
	litter, err := cfg.Float("constants.litter_input")
	if err != nil {
		return nil, err
	}
	optimum, err := cfg.Float("constants.moisture_optimum_mm")
	if err != nil {
		return nil, err
	}

	layers, ok := args.Store.Sizes()[axes.SoilLayers]
	if !ok || layers < 1 {
		layers = 1
	}

	return &Model{
		Base:           model.NewBase(ModelName, args.Interval),
		store:          args.Store,
		layers:         layers,
		initialCarbon:  initial,
		decayRate:      decay,
		referenceTemp:  refTemp,
		q10:            q10,
		litterInput:    litter,
		moistureOptMin: optimum / 2,
		moistureOptMax: optimum * 2,
	}, nil
}

// Setup initialises every layer to the configured carbon stock, halving the
// stock in each layer below the surface.
func (m *Model) Setup(_ context.Context) error {
	n := m.store.Grid().CellCount()
	carbon := make([]float64, n*m.layers)
	for cell := 0; cell < n; cell++ {
		stock := m.initialCarbon
		for layer := 0; layer < m.layers; layer++ {
			carbon[cell*m.layers+layer] = stock
			stock /= 2
		}
	}
	return m.store.Set("soil_carbon", carbon)
}

// Spinup is a no-op: the pools start at their configured stock.
func (m *Model) Spinup(context.Context) error { return nil }

// Update decays every carbon pool at the environment-modified rate and adds
// litter input to the surface layer.
func (m *Model) Update(_ context.Context, _ int) error {
	temperature, err := m.store.Get("air_temperature")
	if err != nil {
		return err
	}
	moisture, err := m.store.Get("soil_moisture")
	if err != nil {
		return err
	}
	carbon, err := m.store.Get("soil_carbon")
	if err != nil {
		return err
	}

	intervalDays := m.Interval().Hours() / 24

	next := make([]float64, len(carbon))
	for cell := 0; cell < len(temperature); cell++ {
		rate := m.decayRate * m.temperatureFactor(temperature[cell]) * m.moistureFactor(moisture[cell])
		for layer := 0; layer < m.layers; layer++ {
			idx := cell*m.layers + layer
			pool := carbon[idx] * (1 - rate*intervalDays)
			if layer == 0 {
				pool += m.litterInput * intervalDays
			}
			next[idx] = math.Max(0, pool)
		}
	}
	return m.store.Set("soil_carbon", next)
}

// Cleanup is a no-op.
func (m *Model) Cleanup(context.Context) error { return nil }

// temperatureFactor is a Q10 response relative to the reference temperature.
func (m *Model) temperatureFactor(tC float64) float64 {
	return math.Pow(m.q10, (tC-m.referenceTemp)/10)
}

// moistureFactor is 1 inside the optimum band and falls off linearly to 0
// at a dry bucket or double the band's upper edge.
func (m *Model) moistureFactor(mm float64) float64 {
	switch {
	case mm <= 0:
		return 0
	case mm < m.moistureOptMin:
		return mm / m.moistureOptMin
	case mm <= m.moistureOptMax:
		return 1
	case mm < 2*m.moistureOptMax:
		return 2 - mm/m.moistureOptMax
	default:
		return 0
	}
}

var _ model.Model = (*Model)(nil)
