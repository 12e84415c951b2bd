// Package abiotic provides the microclimate submodel: spatial air
// temperature and relative humidity fields with a noise-derived spatial
// pattern and a diurnal cycle.
package abiotic

import (
	"context"
	"math"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
	"github.com/zclconf/go-cty/cty"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// ModelName is the registration and configuration key.
const ModelName = "abiotic"

// Model computes per-cell air temperature and relative humidity.
type Model struct {
	model.Base

	store *store.Store

	meanTemperature  float64
	diurnalAmplitude float64
	noiseAmplitude   float64
	seed             int64

	// base spatial pattern, frozen at setup
	baseField []float64
}

// Definition returns the submodel's registration record.
func Definition() model.Definition {
	return model.Definition{
		Name:        ModelName,
		VarsUpdated: []string{"air_temperature", "relative_humidity"},
		MinInterval: time.Minute,
		MaxInterval: 24 * time.Hour,
		Variables: []axes.Descriptor{
			{Name: "air_temperature", Axes: []string{axes.Spatial}, Unit: "C"},
			{Name: "relative_humidity", Axes: []string{axes.Spatial}, Unit: "1"},
		},
		Fragment: config.Fragment{
			Key: ModelName,
			Defaults: map[string]cty.Value{
				"update_interval":             cty.StringVal("1h"),
				"constants.mean_temperature":  cty.NumberFloatVal(20),
				"constants.diurnal_amplitude": cty.NumberFloatVal(5),
				"constants.noise_amplitude":   cty.NumberFloatVal(2),
				"constants.noise_seed":        cty.NumberIntVal(42),
			},
			Validate: validate,
		},
		Factory: fromConfig,
	}
}

func validate(sub *config.Tree) error {
	if err := config.FloatInRange(sub, "constants.mean_temperature", -50, 50); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.diurnal_amplitude", 0, 20); err != nil {
		return err
	}
	return config.FloatInRange(sub, "constants.noise_amplitude", 0, 10)
}

func fromConfig(_ context.Context, args model.FactoryArgs) (model.Model, error) {
	mean, err := args.Config.Float("constants.mean_temperature")
	if err != nil {
		return nil, err
	}
	amplitude, err := args.Config.Float("constants.diurnal_amplitude")
	if err != nil {
		return nil, err
	}
	noiseAmp, err := args.Config.Float("constants.noise_amplitude")
	if err != nil {
		return nil, err
	}
	seed, err := args.Config.Int("constants.noise_seed")
	if err != nil {
		return nil, err
	}

	return &Model{
		Base:             model.NewBase(ModelName, args.Interval),
		store:            args.Store,
		meanTemperature:  mean,
		diurnalAmplitude: amplitude,
		noiseAmplitude:   noiseAmp,
		seed:             int64(seed),
	}, nil
}

// Setup derives the frozen spatial temperature pattern from smooth noise
// over the cell centroids and writes the initial fields.
func (m *Model) Setup(_ context.Context) error {
	g := m.store.Grid()
	noise := opensimplex.NewNormalized(m.seed)
	scale := g.Resolution() * 4

	m.baseField = make([]float64, g.CellCount())
	for _, cellID := range g.CellIDs() {
		x, y, err := g.Centroid(cellID)
		if err != nil {
			return err
		}
		// Normalized noise is in [0, 1]; center it around the mean.
		n := noise.Eval2(x/scale, y/scale)
		m.baseField[cellID] = m.meanTemperature + (n-0.5)*2*m.noiseAmplitude
	}

	if err := m.store.Set("air_temperature", m.baseField); err != nil {
		return err
	}
	return m.store.Set("relative_humidity", m.humidity(m.baseField))
}

// Spinup is a no-op: the microclimate has no internal state to equilibrate.
func (m *Model) Spinup(context.Context) error { return nil }

// Update applies the diurnal cycle on top of the frozen spatial pattern.
func (m *Model) Update(_ context.Context, timeIndex int) error {
	stepsPerDay := int(24 * time.Hour / m.Interval())
	if stepsPerDay < 1 {
		stepsPerDay = 1
	}
	phase := 2 * math.Pi * float64(timeIndex%stepsPerDay) / float64(stepsPerDay)

	temp := make([]float64, len(m.baseField))
	for i, base := range m.baseField {
		temp[i] = base + m.diurnalAmplitude*math.Sin(phase)
	}

	if err := m.store.Set("air_temperature", temp); err != nil {
		return err
	}
	return m.store.Set("relative_humidity", m.humidity(temp))
}

// Cleanup is a no-op.
func (m *Model) Cleanup(context.Context) error { return nil }

func (m *Model) humidity(temp []float64) []float64 {
	rh := make([]float64, len(temp))
	for i, tC := range temp {
		v := 0.9 - 0.01*(tC-m.meanTemperature)
		rh[i] = math.Min(1, math.Max(0, v))
	}
	return rh
}

var _ model.Model = (*Model)(nil)
