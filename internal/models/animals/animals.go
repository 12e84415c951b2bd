// Package animals provides the herbivore submodel: a per-cell grazer
// biomass pool feeding on the plant canopy from the understorey upward.
package animals

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
const ModelName = "animals"

// Model tracks herbivore biomass grazing the plant canopy.
type Model struct {
	model.Base

	store *store.Store

	initialBiomass float64
	grazingRate    float64
	halfSaturation float64
	efficiency     float64
	mortality      float64
}

// Definition returns the submodel's registration record. Grazing removes
// plant biomass, so plant_biomass carries a second declared writer here,
// sequenced after the plants model by the update dependency.
func Definition() model.Definition {
	return model.Definition{
		Name: ModelName,
		RequiredForInit: []model.Var{
			{Name: "plant_biomass", Axes: []string{axes.Spatial, axes.CanopyLayers}},
		},
		VarsUpdated:     []string{"herbivore_biomass", "plant_biomass"},
		InitDependsOn:   []string{"plants"},
		UpdateDependsOn: []string{"plants"},
		MinInterval:     time.Hour,
		MaxInterval:     30 * 24 * time.Hour,
		Variables: []axes.Descriptor{
			{Name: "herbivore_biomass", Axes: []string{axes.Spatial}, Unit: "kg/m2"},
		},
		Fragment: config.Fragment{
			Key: ModelName,
			Defaults: map[string]cty.Value{
				"update_interval":           cty.StringVal("24h"),
				"constants.initial_biomass": cty.NumberFloatVal(0.1),
				"constants.grazing_rate":    cty.NumberFloatVal(0.02),
				"constants.half_saturation": cty.NumberFloatVal(2),
				"constants.efficiency":      cty.NumberFloatVal(0.3),
				"constants.mortality":       cty.NumberFloatVal(0.005),
			},
			Validate: validate,
		},
		Factory: fromConfig,
	}
}

func validate(sub *config.Tree) error {
	if err := config.FloatInRange(sub, "constants.grazing_rate", 0, 1); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.half_saturation", 0.01, 100); err != nil {
		return err
	}
	if err := config.FloatInRange(sub, "constants.efficiency", 0, 1); err != nil {
		return err
	}
	return config.FloatInRange(sub, "constants.mortality", 0, 1)
}

func fromConfig(_ context.Context, args model.FactoryArgs) (model.Model, error) {
	cfg := args.Config

	initial, err := cfg.Float("constants.initial_biomass")
	if err != nil {
		return nil, err
	}
	grazing, err := cfg.Float("constants.grazing_rate")
	if err != nil {
		return nil, err
	}
	half, err := cfg.Float("constants.half_saturation")
	if err != nil {
		return nil, err
	}
	efficiency, err := cfg.Float("constants.efficiency")
	if err != nil {
		return nil, err
	}
	mortality, err := cfg.Float("constants.mortality")
	if err != nil {
		return nil, err
	}

	return &Model{
		Base:           model.NewBase(ModelName, args.Interval),
		store:          args.Store,
		initialBiomass: initial,
		grazingRate:    grazing,
		halfSaturation: half,
		efficiency:     efficiency,
		mortality:      mortality,
	}, nil
}

// Setup seeds every cell with the initial herbivore biomass.
func (m *Model) Setup(_ context.Context) error {
	n := m.store.Grid().CellCount()
	herbivores := make([]float64, n)
	for i := range herbivores {
		herbivores[i] = m.initialBiomass
	}
	return m.store.Set("herbivore_biomass", herbivores)
}

// Spinup is a no-op.
func (m *Model) Spinup(context.Context) error { return nil }

// Update runs one grazing step: a saturating functional response sets the
// intake, a share of the intake becomes herbivore biomass, and the intake is
// removed from the canopy starting at the understorey.
func (m *Model) Update(_ context.Context, _ int) error {
	plantBiomass, err := m.store.Get("plant_biomass")
	if err != nil {
		return err
	}
	plantShape, err := m.store.Shape("plant_biomass")
	if err != nil {
		return err
	}
	layers := plantShape[len(plantShape)-1]

	herbivores, err := m.store.Get("herbivore_biomass")
	if err != nil {
		return err
	}

	intervalDays := m.Interval().Hours() / 24

	plants := append([]float64(nil), plantBiomass...)
	next := make([]float64, len(herbivores))
	for cell := range herbivores {
		available := 0.0
		for layer := 0; layer < layers; layer++ {
			available += plants[cell*layers+layer]
		}

		intake := m.grazingRate * herbivores[cell] * available / (m.halfSaturation + available) * intervalDays
		intake = math.Min(intake, available)
		m.graze(plants[cell*layers:(cell+1)*layers], intake)

		growth := m.efficiency * intake
		loss := m.mortality * herbivores[cell] * intervalDays
		next[cell] = math.Max(0, herbivores[cell]+growth-loss)
	}

	if err := m.store.Set("plant_biomass", plants); err != nil {
		return err
	}
	return m.store.Set("herbivore_biomass", next)
}

// Cleanup is a no-op.
func (m *Model) Cleanup(context.Context) error { return nil }

// graze removes the intake from a cell's canopy layers, deepest layer first.
func (m *Model) graze(canopy []float64, intake float64) {
	for layer := len(canopy) - 1; layer >= 0 && intake > 0; layer-- {
		taken := math.Min(canopy[layer], intake)
		canopy[layer] -= taken
		intake -= taken
	}
}

var _ model.Model = (*Model)(nil)
