package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/ctxlog"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/model"
	"github.com/ImperialCollegeLondon/virtual-ecosystem-sub001/internal/store"
)

// Timing is the global clock of a run.
type Timing struct {
	Start    time.Time
	End      time.Time
	Interval time.Duration
}

// Steps returns the number of ticks in the run.
func (tm Timing) Steps() int {
	return int(tm.End.Sub(tm.Start) / tm.Interval)
}

// Validate checks the global timing and every model's cadence against it.
// The run length must be a whole number of intervals: fractional final
// steps are rejected rather than silently truncated.
func (tm Timing) Validate(models []model.Model) error {
	if tm.Interval <= 0 {
		return fmt.Errorf("%w: update interval %s must be positive", ErrTimingConfiguration, tm.Interval)
	}
	if !tm.End.After(tm.Start) {
		return fmt.Errorf("%w: end %s is not after start %s", ErrTimingConfiguration,
			tm.End.Format(time.RFC3339), tm.Start.Format(time.RFC3339))
	}
	if tm.End.Sub(tm.Start)%tm.Interval != 0 {
		return fmt.Errorf("%w: run length %s is not a whole number of %s intervals",
			ErrTimingConfiguration, tm.End.Sub(tm.Start), tm.Interval)
	}
	for _, m := range models {
		if m.Interval() < tm.Interval {
			return fmt.Errorf("%w: model %q interval %s is smaller than the global interval %s",
				ErrTimingConfiguration, m.Name(), m.Interval(), tm.Interval)
		}
		if m.Interval()%tm.Interval != 0 {
			return fmt.Errorf("%w: model %q interval %s is not a multiple of the global interval %s",
				ErrTimingConfiguration, m.Name(), m.Interval(), tm.Interval)
		}
	}
	return nil
}

// Entry pairs a model with the variables its updates may write.
type Entry struct {
	Model       model.Model
	VarsUpdated []string
}

// TickHook runs after every tick's due models have updated, receiving the
// models that updated during the tick. The output layer hangs off this.
type TickHook func(ctx context.Context, timeIndex int, current time.Time, updated []Entry) error

// Runner drives the timing loop over models already sorted into update
// dependency order.
type Runner struct {
	timing  Timing
	entries []Entry
	store   *store.Store
	hook    TickHook
}

// NewRunner builds a runner. The entries must already be in resolved update
// order; hook may be nil.
func NewRunner(timing Timing, entries []Entry, st *store.Store, hook TickHook) *Runner {
	return &Runner{timing: timing, entries: entries, store: st, hook: hook}
}

// Run advances simulation time from start to end. At each tick every due
// model updates, in order, inside a store write scope restricted to its
// declared variables; its next due time then advances by its own interval.
// Context cancellation aborts before the next tick. The first error from a
// model update stops the loop immediately: later models in that tick never
// run and the data store keeps whatever was already written.
func (r *Runner) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	nextDue := make(map[string]time.Time, len(r.entries))
	for _, e := range r.entries {
		nextDue[e.Model.Name()] = r.timing.Start
	}

	current := r.timing.Start
	timeIndex := 0
	for current.Before(r.timing.End) {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted before step %d: %w", timeIndex, err)
		}

		var updated []Entry
		for _, e := range r.entries {
			name := e.Model.Name()
			if current.Before(nextDue[name]) {
				continue
			}

			r.store.BeginWrite(name, e.VarsUpdated)
			err := model.RunUpdate(ctx, e.Model, timeIndex)
			r.store.EndWrite()
			if err != nil {
				return err
			}

			nextDue[name] = nextDue[name].Add(e.Model.Interval())
			updated = append(updated, e)
		}

		if r.hook != nil && len(updated) > 0 {
			if err := r.hook(ctx, timeIndex, current, updated); err != nil {
				return fmt.Errorf("output hook at step %d: %w", timeIndex, err)
			}
		}

		current = current.Add(r.timing.Interval)
		timeIndex++
	}

	logger.Info("timing loop complete", "steps", timeIndex, "end", current.Format(time.RFC3339))
	return nil
}
