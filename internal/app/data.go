package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

const (
	dataVariableKey = "core.data.variable"
	dataCategoryKey = "core.data.category"
)

// populateData loads every `core.data` source into the store, in declaration
// order. Category groupings are defined after the plain sources, so a
// grouping can be built from a variable loaded in the same configuration,
// and categorical files load last.
func (a *App) populateData(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	names := a.merged.Keys(dataVariableKey)
	for _, name := range names {
		if err := a.declareVariable(name); err != nil {
			return err
		}
	}

	var categorical []string
	for _, name := range names {
		mode, err := a.merged.StringOr(dataVariableKey+"."+name+".mapping", string(store.MapCellID))
		if err != nil {
			return err
		}
		if store.Mode(mode) == store.MapCategory {
			categorical = append(categorical, name)
			continue
		}
		if err := a.loadVariable(name, store.Mode(mode)); err != nil {
			return err
		}
		logger.Debug("data source loaded", "variable", name)
	}

	for _, name := range a.merged.Keys(dataCategoryKey) {
		source, err := a.merged.String(dataCategoryKey + "." + name + ".source")
		if err != nil {
			return err
		}
		if err := a.store.DefineCategory(name, source); err != nil {
			return err
		}
		logger.Debug("category defined", "category", name, "source", source)
	}

	for _, name := range categorical {
		if err := a.loadVariable(name, store.MapCategory); err != nil {
			return err
		}
		logger.Debug("categorical data source loaded", "variable", name)
	}
	return nil
}

// declareVariable registers a data source in the variable registry when no
// model already declares it. The axis list defaults to a plain spatial
// field.
func (a *App) declareVariable(name string) error {
	if a.vars.Contains(name) {
		return nil
	}

	axisNames := []string{axes.Spatial}
	if a.merged.Has(dataVariableKey + "." + name + ".axes") {
		var err error
		axisNames, err = a.merged.StringList(dataVariableKey + "." + name + ".axes")
		if err != nil {
			return err
		}
	}
	unit, err := a.merged.StringOr(dataVariableKey+"."+name+".unit", "")
	if err != nil {
		return err
	}
	return a.vars.Register(axes.Descriptor{Name: name, Axes: axisNames, Unit: unit})
}

func (a *App) loadVariable(name string, mode store.Mode) error {
	valuePath := dataVariableKey + "." + name + ".value"
	filePath := dataVariableKey + "." + name + ".file"

	if a.merged.Has(valuePath) {
		value, err := a.merged.Value(valuePath)
		if err != nil {
			return err
		}
		if err := a.store.LoadFromValue(name, value); err != nil {
			return fmt.Errorf("data source %q: %w", name, err)
		}
		return nil
	}

	file, err := a.merged.String(filePath)
	if err != nil {
		return err
	}
	// Relative file paths resolve against the declaring configuration file.
	if !filepath.IsAbs(file) {
		if src := a.merged.SourceFile(filePath); src != "" {
			file = filepath.Join(filepath.Dir(src), file)
		}
	}

	category, err := a.merged.StringOr(dataVariableKey+"."+name+".category", "")
	if err != nil {
		return err
	}
	mapping := store.Mapping{Mode: mode, Category: category}
	if err := a.store.LoadFromFile(name, file, mapping); err != nil {
		return fmt.Errorf("data source %q: %w", name, err)
	}
	return nil
}
