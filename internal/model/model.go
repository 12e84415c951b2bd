package model

import (
	"context"
	"fmt"
	"time"
)

// State is a model's position in the lifecycle state machine.
type State int

const (
	Unconfigured State = iota
	Initialized
	Ready
	Terminated
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Initialized:
		return "initialized"
	case Ready:
		return "ready"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Model is the uniform interface every submodel satisfies. Concrete models
// embed Base, which carries the name, update interval and lifecycle state.
type Model interface {
	Name() string
	Interval() time.Duration
	State() State

	// Setup performs one-off derivations after construction; Spinup brings
	// internal state to equilibrium before the timing loop; Update performs
	// one step of domain computation; Cleanup is the final hook. Any of the
	// four may be a no-op.
	Setup(ctx context.Context) error
	Spinup(ctx context.Context) error
	Update(ctx context.Context, timeIndex int) error
	Cleanup(ctx context.Context) error

	base() *Base
}

// Base carries the contract bookkeeping shared by all models. Embed it by
// value and initialize it with NewBase inside the model's factory.
type Base struct {
	name     string
	interval time.Duration
	state    State
}

// NewBase returns the embedded bookkeeping for a model under construction.
func NewBase(name string, interval time.Duration) Base {
	return Base{name: name, interval: interval, state: Unconfigured}
}

// Name returns the model's registered name.
func (b *Base) Name() string { return b.name }

// Interval returns the model's configured update interval.
func (b *Base) Interval() time.Duration { return b.interval }

// State returns the model's lifecycle state.
func (b *Base) State() State { return b.state }

func (b *Base) base() *Base { return b }

func (b *Base) transition(from, to State, step string) error {
	if b.state != from {
		return fmt.Errorf("%w: %s of model %q in state %s (want %s)",
			ErrLifecycle, step, b.name, b.state, from)
	}
	b.state = to
	return nil
}

// markInitialized moves a freshly constructed model out of Unconfigured.
// The registry calls it when a factory returns successfully.
func markInitialized(m Model) error {
	return m.base().transition(Unconfigured, Initialized, "construction")
}

// RunSetup advances an Initialized model to Ready through its Setup hook.
func RunSetup(ctx context.Context, m Model) error {
	if err := m.base().transition(Initialized, Ready, "setup"); err != nil {
		return err
	}
	if err := m.Setup(ctx); err != nil {
		return fmt.Errorf("setup of model %q: %w", m.Name(), err)
	}
	return nil
}

// RunSpinup runs the spinup hook of a Ready model.
func RunSpinup(ctx context.Context, m Model) error {
	if m.State() != Ready {
		return fmt.Errorf("%w: spinup of model %q in state %s", ErrLifecycle, m.Name(), m.State())
	}
	if err := m.Spinup(ctx); err != nil {
		return fmt.Errorf("spinup of model %q: %w", m.Name(), err)
	}
	return nil
}

// RunUpdate runs one update step of a Ready model.
func RunUpdate(ctx context.Context, m Model, timeIndex int) error {
	if m.State() != Ready {
		return fmt.Errorf("%w: update of model %q in state %s", ErrLifecycle, m.Name(), m.State())
	}
	if err := m.Update(ctx, timeIndex); err != nil {
		return fmt.Errorf("update of model %q at step %d: %w", m.Name(), timeIndex, err)
	}
	return nil
}

// RunCleanup advances a Ready model to Terminated through its Cleanup hook.
func RunCleanup(ctx context.Context, m Model) error {
	if err := m.base().transition(Ready, Terminated, "cleanup"); err != nil {
		return err
	}
	if err := m.Cleanup(ctx); err != nil {
		return fmt.Errorf("cleanup of model %q: %w", m.Name(), err)
	}
	return nil
}

// NoopHooks provides no-op Setup, Spinup and Cleanup implementations for
// models that only compute during Update.
type NoopHooks struct{}

func (NoopHooks) Setup(context.Context) error   { return nil }
func (NoopHooks) Spinup(context.Context) error  { return nil }
func (NoopHooks) Cleanup(context.Context) error { return nil }
