// Package plants provides the vegetation submodel: per-cell plant biomass
// resolved over the canopy layers, growing logistically at a rate driven by
// air temperature and soil carbon.
package plants

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
const ModelName = "plants"

// Model tracks canopy-layered plant biomass.
type Model struct {
	model.Base

	store  *store.Store
	layers int

	initialBiomass   float64
	growthRate       float64
	carryingCapacity float64
	optimumTemp      float64
	tempTolerance    float64
	fertilityCarbon  float64
	extinction       float64
}

// Definition returns the submodel's registration record.
func Definition() model.Definition {
	return model.Definition{
		Name: ModelName,
		RequiredForInit: []model.Var{
			{Name: "air_temperature", Axes: []string{axes.Spatial}},
			{Name: "soil_carbon", Axes: []string{axes.Spatial, axes.SoilLayers}},
		},
		VarsUpdated:     []string{"plant_biomass"},
		InitDependsOn:   []string{"soil", "abiotic"},
		UpdateDependsOn: []string{"soil", "abiotic"},
		MinInterval:     time.Hour,
		MaxInterval:     30 * 24 * time.Hour,
		Variables: []axes.Descriptor{
			{Name: "plant_biomass", Axes: []string{axes.Spatial, axes.CanopyLayers}, Unit: "kg/m2"},
		},
		Fragment: config.Fragment{
			Key: ModelName,
			Defaults: map[string]cty.Value{
				"update_interval":             cty.StringVal("24h"),
				"constants.initial_biomass":   cty.NumberFloatVal(1),
				"constants.growth_rate":       cty.NumberFloatVal(0.01),
				"constants.carrying_capacity": cty.NumberFloatVal(30),
				"constants.optimum_temp":      cty.NumberFloatVal(22),
				"constants.temp_tolerance":    cty.NumberFloatVal(10),
				"constants.fertility_carbon":  cty.NumberFloatVal(5),
				"constants.light_extinction":  cty.NumberFloatVal(0.5),
			},
			Validate: validate,
		},
		Factory: fromConfig,
	}
}

func validate(sub *config.Tree) error {
	if err := config.FloatInRange(sub, "constants.growth_rate", 0, 1); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.carrying_capacity", 0.1, 1000); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.temp_tolerance", 0.1, 50); err != nil {
		return err
	}
	return config.FloatInRange(sub, "constants.light_extinction", 0, 1)
}

func fromConfig(_ context.Context, args model.FactoryArgs) (model.Model, error) {
	cfg := args.Config

	initial, err := cfg.Float("constants.initial_biomass")
	if err != nil {
		return nil, err
	}
	growth, err := cfg.Float("constants.growth_rate")
	if err != nil {
		return nil, err
	}
	capacity, err := cfg.Float("constants.carrying_capacity")
	if err != nil {
		return nil, err
	}
	optimum, err := cfg.Float("constants.optimum_temp")
	if err != nil {
		return nil, err
	}
	tolerance, err := cfg.Float("constants.temp_tolerance")
	if err != nil {
		return nil, err
	}
	fertility, err := cfg.Float("constants.fertility_carbon")
	if err != nil {
		return nil, err
	}
	extinction, err := cfg.Float("constants.light_extinction")
	if err != nil {
		return nil, err
	}

	layers, ok := args.Store.Sizes()[axes.CanopyLayers]
	if !ok || layers < 1 {
		layers = 1
	}

	return &Model{
		Base:             model.NewBase(ModelName, args.Interval),
		store:            args.Store,
		layers:           layers,
		initialBiomass:   initial,
		growthRate:       growth,
		carryingCapacity: capacity,
		optimumTemp:      optimum,
		tempTolerance:    tolerance,
		fertilityCarbon:  fertility,
		extinction:       extinction,
	}, nil
}

// Setup seeds every cell with the initial biomass spread over the canopy.
func (m *Model) Setup(_ context.Context) error {
	n := m.store.Grid().CellCount()
	biomass := make([]float64, n*m.layers)
	for cell := 0; cell < n; cell++ {
		m.fillCanopy(biomass[cell*m.layers:(cell+1)*m.layers], m.initialBiomass)
	}
	return m.store.Set("plant_biomass", biomass)
}

// Spinup is a no-op.
func (m *Model) Spinup(context.Context) error { return nil }

// Update grows each cell's total biomass logistically and redistributes it
// over the canopy layers with the light extinction profile.
func (m *Model) Update(_ context.Context, _ int) error {
	temperature, err := m.store.Get("air_temperature")
	if err != nil {
		return err
	}
	carbon, err := m.store.Get("soil_carbon")
	if err != nil {
		return err
	}
	carbonShape, err := m.store.Shape("soil_carbon")
	if err != nil {
		return err
	}
	soilLayers := carbonShape[len(carbonShape)-1]

	biomass, err := m.store.Get("plant_biomass")
	if err != nil {
		return err
	}

	intervalDays := m.Interval().Hours() / 24

	next := make([]float64, len(biomass))
	for cell := 0; cell < len(temperature); cell++ {
		total := 0.0
		for layer := 0; layer < m.layers; layer++ {
			total += biomass[cell*m.layers+layer]
		}

		rate := m.growthRate * m.temperatureFactor(temperature[cell]) * m.fertility(carbon, cell, soilLayers)
		total += rate * total * (1 - total/m.carryingCapacity) * intervalDays
		m.fillCanopy(next[cell*m.layers:(cell+1)*m.layers], math.Max(0, total))
	}
	return m.store.Set("plant_biomass", next)
}

// Cleanup is a no-op.
func (m *Model) Cleanup(context.Context) error { return nil }

// fillCanopy distributes a cell total over the layers following the light
// extinction profile, top layer first.
func (m *Model) fillCanopy(dst []float64, total float64) {
	weight := 1.0
	sum := 0.0
	weights := make([]float64, len(dst))
	for i := range dst {
		weights[i] = weight
		sum += weight
		weight *= m.extinction
	}
	for i := range dst {
		dst[i] = total * weights[i] / sum
	}
}

// temperatureFactor is a Gaussian response around the optimum temperature.
func (m *Model) temperatureFactor(tC float64) float64 {
	d := (tC - m.optimumTemp) / m.tempTolerance
	return math.Exp(-d * d)
}

// fertility is the cell's mean soil carbon relative to the reference stock,
// capped at 1.
func (m *Model) fertility(carbon []float64, cell, soilLayers int) float64 {
	sum := 0.0
	for layer := 0; layer < soilLayers; layer++ {
		sum += carbon[cell*soilLayers+layer]
	}
	mean := sum / float64(soilLayers)
	return math.Min(1, mean/m.fertilityCarbon)
}

var _ model.Model = (*Model)(nil)
