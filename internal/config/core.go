package config

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// CoreKey is the top-level configuration key owned by the core itself.
const CoreKey = "core"

// CoreFragment returns the schema fragment for the `core` block: grid
// layout, layer sizes, run timing, data sources and output options.
func CoreFragment() Fragment {
	return Fragment{
		Key:      CoreKey,
		Required: true,
		Defaults: map[string]cty.Value{
			"grid.type":                 cty.StringVal("square"),
			"grid.xoff":                 cty.Zero,
			"grid.yoff":                 cty.Zero,
			"layers.soil":               cty.NumberIntVal(2),
			"layers.canopy":             cty.NumberIntVal(3),
			"output.initial_state":      cty.True,
			"output.continuous":         cty.True,
			"output.final_state":        cty.True,
			"output.save_merged_config": cty.False,
			"output.export_grid":        cty.False,
		},
		Validate: validateCore,
	}
}

func validateCore(sub *Tree) error {
	var errs []error

	if err := RequireDefined(sub,
		"grid.cell_nx", "grid.cell_ny", "grid.cell_area",
		"timing.start", "timing.end", "timing.update_interval",
	); err != nil {
		errs = append(errs, err)
	}

	if sub.Has("grid.type") {
		if typ, err := sub.String("grid.type"); err != nil {
			errs = append(errs, err)
		} else if typ != "square" && typ != "hexagon" {
			errs = append(errs, fmt.Errorf("key %q: %q is not a grid type (square or hexagon)", "grid.type", typ))
		}
	}

	for _, path := range []string{"grid.cell_nx", "grid.cell_ny", "layers.soil", "layers.canopy"} {
		if !sub.Has(path) {
			continue
		}
		if n, err := sub.Int(path); err != nil {
			errs = append(errs, err)
		} else if n <= 0 {
			errs = append(errs, fmt.Errorf("key %q: %d must be positive", path, n))
		}
	}
	if sub.Has("grid.cell_area") {
		if a, err := sub.Float("grid.cell_area"); err != nil {
			errs = append(errs, err)
		} else if a <= 0 {
			errs = append(errs, fmt.Errorf("key %q: %g must be positive", "grid.cell_area", a))
		}
	}

	if sub.Has("timing.start") {
		if _, err := sub.Time("timing.start"); err != nil {
			errs = append(errs, err)
		}
	}
	if sub.Has("timing.end") {
		if _, err := sub.Time("timing.end"); err != nil {
			errs = append(errs, err)
		}
	}
	if sub.Has("timing.update_interval") {
		if _, err := sub.Duration("timing.update_interval"); err != nil {
			errs = append(errs, err)
		}
	}

	// Each data source declares exactly one of a literal value or a file.
	data := sub.Sub("data.variable")
	for _, name := range sub.Keys("data.variable") {
		hasValue := data.Has(name + ".value")
		hasFile := data.Has(name + ".file")
		if hasValue == hasFile {
			errs = append(errs, fmt.Errorf("data source %q: exactly one of value or file must be set", name))
		}
	}

	return errors.Join(errs...)
}
