package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/output"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/progress"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/scheduler"
)

// Run drives the assembled simulation from start to end: initial snapshot,
// the scheduler loop with continuous output, final snapshot, cleanup.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	defer a.closeLogFile()

	opts, err := a.outputOptions()
	if err != nil {
		return err
	}
	writer, err := output.NewWriter(opts, a.store)
	if err != nil {
		return err
	}
	defer writer.Close()
	a.logger.Info("run starting", "run_id", writer.RunID(),
		"start", a.timing.Start.Format(time.RFC3339),
		"end", a.timing.End.Format(time.RFC3339),
		"steps", a.timing.Steps())

	if err := a.writeRunRecords(opts); err != nil {
		return err
	}
	if err := writer.WriteSnapshot(output.StageInitial, 0); err != nil {
		return err
	}

	var reporter *progress.Reporter
	if a.cfg.Progress {
		reporter = progress.New(a.outW, a.timing.Steps())
	}

	hook := func(ctx context.Context, timeIndex int, current time.Time, updated []scheduler.Entry) error {
		if err := writer.WriteSeries(timeIndex, current, updatedVariables(updated)); err != nil {
			return err
		}
		reporter.Tick(timeIndex, current.Add(a.timing.Interval))
		return nil
	}

	runner := scheduler.NewRunner(a.timing, a.entries, a.store, hook)
	runErr := runner.Run(ctx)
	if runErr == nil {
		if err := writer.WriteSnapshot(output.StageFinal, a.timing.Steps()); err != nil {
			return err
		}
		reporter.Done()
	}

	return errors.Join(runErr, a.cleanup(ctx))
}

func (a *App) outputOptions() (output.Options, error) {
	opts := output.Options{Dir: a.cfg.OutputDir}

	var err error
	read := func(dst *bool, key string) {
		if err != nil {
			return
		}
		*dst, err = a.merged.Bool("core.output." + key)
	}
	read(&opts.Initial, "initial_state")
	read(&opts.Continuous, "continuous")
	read(&opts.Final, "final_state")
	read(&opts.MergedCfg, "save_merged_config")
	read(&opts.GridExport, "export_grid")
	return opts, err
}

// writeRunRecords emits the optional provenance artifacts: the merged
// configuration the run actually used and the grid geometry.
func (a *App) writeRunRecords(opts output.Options) error {
	if opts.MergedCfg {
		f, err := os.Create(filepath.Join(opts.Dir, "merged_config.json"))
		if err != nil {
			return fmt.Errorf("write merged config: %w", err)
		}
		err = a.merged.WriteMerged(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write merged config: %w", err)
		}
	}
	if opts.GridExport {
		f, err := os.Create(filepath.Join(opts.Dir, "grid.geojson"))
		if err != nil {
			return fmt.Errorf("export grid: %w", err)
		}
		err = a.grid.ExportGeoJSON(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("export grid: %w", err)
		}
	}
	return nil
}

// cleanup releases every model, in reverse init order.
func (a *App) cleanup(ctx context.Context) error {
	var errs []error
	for i := len(a.models) - 1; i >= 0; i-- {
		if err := model.RunCleanup(ctx, a.models[i]); err != nil {
			errs = append(errs, fmt.Errorf("cleanup %q: %w", a.models[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

// updatedVariables collects the distinct variables written during a tick,
// preserving update order.
func updatedVariables(updated []scheduler.Entry) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, e := range updated {
		for _, v := range e.VarsUpdated {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			names = append(names, v)
		}
	}
	return names
}
