// Package app assembles a simulation from configuration: registries, grid,
// data store, models and scheduler, plus the output surface of a run.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/axes"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/config"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/grid"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/hclconf"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/models"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/scheduler"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// App encapsulates one assembled simulation and its dependencies.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config

	merged   *config.Tree
	registry *model.Registry
	vars     *axes.Registry
	grid     *grid.Grid
	store    *store.Store
	timing   scheduler.Timing

	// models in init order; entries in update order
	models  []model.Model
	entries []scheduler.Entry

	logFile *os.File
}

// New assembles an App: it loads and validates the configuration, builds
// the grid and the data store, populates the input data, and constructs and
// sets up every configured model in init dependency order. The returned App
// is ready for Run.
func New(outW io.Writer, cfg *Config) (*App, error) {
	a := &App{outW: outW, cfg: cfg}

	logW := outW
	if cfg.LogFile != "" {
		f, err := os.Create(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logW = f
	}
	a.logger = newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), a.logger)

	if err := a.assemble(ctx); err != nil {
		a.closeLogFile()
		return nil, err
	}
	return a, nil
}

func (a *App) assemble(ctx context.Context) error {
	loader := hclconf.NewLoader()
	trees, err := loader.Load(ctx, a.cfg.ConfigPaths...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	merged, err := config.Merge(trees...)
	if err != nil {
		return fmt.Errorf("merge configuration: %w", err)
	}
	a.merged = merged
	a.logger.Debug("configuration loaded", "files", len(trees))

	a.registry = model.NewRegistry()
	a.vars = axes.NewRegistry()
	if err := models.RegisterAll(a.registry, a.vars); err != nil {
		return fmt.Errorf("register models: %w", err)
	}

	fragments := append([]config.Fragment{config.CoreFragment()}, a.registry.Fragments()...)
	if err := config.Validate(merged, fragments); err != nil {
		return err
	}
	a.logger.Debug("configuration validated")

	if err := a.buildGridAndStore(); err != nil {
		return err
	}
	if err := a.populateData(ctx); err != nil {
		return err
	}
	if err := a.buildTiming(); err != nil {
		return err
	}
	if err := a.buildModels(ctx); err != nil {
		return err
	}
	return a.timing.Validate(a.models)
}

// activeModels returns the models named by top-level configuration blocks,
// in declaration order.
func (a *App) activeModels() []string {
	var names []string
	for _, key := range a.merged.Keys("") {
		if key == config.CoreKey {
			continue
		}
		names = append(names, key)
	}
	return names
}

func (a *App) buildGridAndStore() error {
	sub := a.merged.Sub("core.grid")

	typ, err := sub.String("type")
	if err != nil {
		return err
	}
	gridType := grid.Square
	if typ == "hexagon" {
		gridType = grid.Hexagon
	}
	nx, err := sub.Int("cell_nx")
	if err != nil {
		return err
	}
	ny, err := sub.Int("cell_ny")
	if err != nil {
		return err
	}
	area, err := sub.Float("cell_area")
	if err != nil {
		return err
	}
	xoff, err := sub.Float("xoff")
	if err != nil {
		return err
	}
	yoff, err := sub.Float("yoff")
	if err != nil {
		return err
	}

	g, err := grid.New(grid.Config{
		Type: gridType, CellArea: area, NX: nx, NY: ny, XOff: xoff, YOff: yoff,
	})
	if err != nil {
		return err
	}
	a.grid = g

	soilLayers, err := a.merged.Int("core.layers.soil")
	if err != nil {
		return err
	}
	canopyLayers, err := a.merged.Int("core.layers.canopy")
	if err != nil {
		return err
	}
	sizes := axes.Sizes{axes.SoilLayers: soilLayers, axes.CanopyLayers: canopyLayers}

	a.store = store.New(g, a.vars, sizes)
	a.logger.Info("grid built", "type", typ, "cells", g.CellCount())
	return nil
}

func (a *App) buildTiming() error {
	start, err := a.merged.Time("core.timing.start")
	if err != nil {
		return err
	}
	end, err := a.merged.Time("core.timing.end")
	if err != nil {
		return err
	}
	interval, err := a.merged.Duration("core.timing.update_interval")
	if err != nil {
		return err
	}
	a.timing = scheduler.Timing{Start: start, End: end, Interval: interval}
	return nil
}

// buildModels constructs and sets up every active model in init dependency
// order, then spins them all up. Interleaving construction with setup lets
// a later model's init requirements be satisfied by an earlier model's
// setup output.
func (a *App) buildModels(ctx context.Context) error {
	active := a.activeModels()
	activeSet := make(map[string]struct{}, len(active))
	for _, name := range active {
		activeSet[name] = struct{}{}
	}

	edges := func(phase model.Phase) (map[string][]string, error) {
		out := make(map[string][]string, len(active))
		for _, name := range active {
			deps, err := a.registry.Dependencies(name, a.merged.Sub(name), phase)
			if err != nil {
				return nil, err
			}
			for _, dep := range deps {
				if _, ok := activeSet[dep]; !ok {
					return nil, fmt.Errorf("%w: model %q depends on %q which is not configured",
						model.ErrInitialisation, name, dep)
				}
			}
			out[name] = deps
		}
		return out, nil
	}

	initEdges, err := edges(model.PhaseInit)
	if err != nil {
		return err
	}
	initOrder, err := scheduler.ResolveOrder(active, initEdges)
	if err != nil {
		return err
	}

	for _, name := range initOrder {
		m, err := a.registry.Construct(ctx, name, a.vars, a.store, a.merged.Sub(name))
		if err != nil {
			return err
		}
		if err := model.RunSetup(ctx, m); err != nil {
			return fmt.Errorf("setup %q: %w", name, err)
		}
		a.models = append(a.models, m)
	}
	for _, m := range a.models {
		if err := model.RunSpinup(ctx, m); err != nil {
			return fmt.Errorf("spinup %q: %w", m.Name(), err)
		}
	}
	a.logger.Info("models ready", "order", initOrder)

	updateEdges, err := edges(model.PhaseUpdate)
	if err != nil {
		return err
	}
	updateOrder, err := scheduler.ResolveOrder(active, updateEdges)
	if err != nil {
		return err
	}
	byName := make(map[string]model.Model, len(a.models))
	for _, m := range a.models {
		byName[m.Name()] = m
	}
	for _, name := range updateOrder {
		def, err := a.registry.Get(name)
		if err != nil {
			return err
		}
		a.entries = append(a.entries, scheduler.Entry{Model: byName[name], VarsUpdated: def.VarsUpdated})
	}
	a.warnSharedWriters()
	return nil
}

// warnSharedWriters flags variables declared in more than one active
// model's updated set. Dependency ordering keeps such writes sequenced
// within a tick, but relaxing the one-writer discipline should be a visible
// choice, not a silent one.
func (a *App) warnSharedWriters() {
	writers := make(map[string][]string)
	var order []string
	for _, e := range a.entries {
		for _, v := range e.VarsUpdated {
			if len(writers[v]) == 0 {
				order = append(order, v)
			}
			writers[v] = append(writers[v], e.Model.Name())
		}
	}
	for _, v := range order {
		if len(writers[v]) > 1 {
			a.logger.Warn("variable has multiple writers within a tick",
				"variable", v, "models", writers[v])
		}
	}
}

// Store exposes the data store, primarily for tests.
func (a *App) Store() *store.Store {
	return a.store
}

// Grid exposes the grid, primarily for tests.
func (a *App) Grid() *grid.Grid {
	return a.grid
}

// Timing exposes the run timing, primarily for tests.
func (a *App) Timing() scheduler.Timing {
	return a.timing
}

func (a *App) closeLogFile() {
	if a.logFile != nil {
		a.logFile.Close()
	}
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// newLogger builds the run's isolated logger. Level and format strings were
// already validated by the CLI; anything unrecognized falls back to
// info-level text output.
func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
