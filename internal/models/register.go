// Package models wires the reference submodels into a model registry.
// Registration is explicit: nothing registers itself through import side
// effects.
package models

import (
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/abiotic"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/animals"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/hydrology"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/plants"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models/soil"
)

// RegisterAll registers every reference submodel and its variables.
func RegisterAll(models *model.Registry, vars *axes.Registry) error {
	models.Register(abiotic.Definition())
	models.Register(hydrology.Definition())
	models.Register(soil.Definition())
	models.Register(plants.Definition())
	models.Register(animals.Definition())
	return models.RegisterVariables(vars)
}
