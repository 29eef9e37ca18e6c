// Package experiment runs the batch re-solve loop: one solve per externally
// supplied initial guess, all sharing a single bound problem structure.
package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/ctrlkit/pushopt/internal/guess"
	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
	"github.com/ctrlkit/pushopt/internal/nlp"
	"github.com/ctrlkit/pushopt/internal/solver"
	"github.com/ctrlkit/pushopt/internal/store"
)

// Policy decides what a data error in one experiment does to the batch.
// Configuration errors and context cancellation always halt regardless.
type Policy int

const (
	HaltOnError Policy = iota
	SkipOnError
)

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "halt":
		return HaltOnError, nil
	case "skip":
		return SkipOnError, nil
	}
	return 0, fmt.Errorf("experiment: unknown policy %q (want halt or skip)", s)
}

type Config struct {
	Experiments int
	Target      []float64
	Policy      Policy
}

// Outcome records one experiment's run: its result ID and solver report, or
// the error that stopped it.
type Outcome struct {
	Experiment int
	ResultID   string
	Report     *solver.Report
	Err        error
}

// Driver solves experiments strictly in ascending index order. Each solve is
// cold: seeded from its own external guess, never from the previous
// solution. The only state shared across experiments is the bound problem
// inside the engine, mutated solely through parameter rebinding and guess
// resets.
type Driver struct {
	engine  solver.Engine
	source  guess.Source
	results *store.Store
	par     model.Params
	lay     layout.Layout
	target  *nlp.ParamHandle
	initial *nlp.ParamHandle
	cfg     Config

	initialized bool
}

func New(engine solver.Engine, source guess.Source, results *store.Store,
	par model.Params, target, initial *nlp.ParamHandle, cfg Config) (*Driver, error) {

	if cfg.Experiments < 1 {
		return nil, fmt.Errorf("experiment: need at least 1 experiment, got %d", cfg.Experiments)
	}
	if len(cfg.Target) != layout.NumState {
		return nil, fmt.Errorf("%w: target state has %d values, want %d", nlp.ErrParamLength, len(cfg.Target), layout.NumState)
	}
	lay, err := layout.New(par.Steps)
	if err != nil {
		return nil, err
	}
	return &Driver{
		engine:  engine,
		source:  source,
		results: results,
		par:     par,
		lay:     lay,
		target:  target,
		initial: initial,
		cfg:     cfg,
	}, nil
}

// Run executes the batch. The returned slice holds one outcome per attempted
// experiment; the error is non-nil when the batch stopped early.
func (d *Driver) Run(ctx context.Context) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, d.cfg.Experiments)
	for i := 1; i <= d.cfg.Experiments; i++ {
		out, halt := d.runOne(ctx, i)
		outcomes = append(outcomes, out)
		if out.Err != nil && (halt || d.cfg.Policy == HaltOnError) {
			return outcomes, out.Err
		}
	}
	return outcomes, nil
}

// runOne loads the guess, binds parameters, solves and persists. halt marks
// errors that must stop the batch even under SkipOnError.
func (d *Driver) runOne(ctx context.Context, i int) (out Outcome, halt bool) {
	out.Experiment = i

	g, err := d.source.Load(i)
	if err != nil {
		out.Err = fmt.Errorf("experiment %d: %w", i, err)
		return out, false
	}
	if len(g) != d.lay.Size() {
		out.Err = fmt.Errorf("experiment %d: %w: guess holds %d values, want %d", i, guess.ErrLength, len(g), d.lay.Size())
		return out, false
	}

	// The guess's first block is state-consistent by contract; its state
	// components are the experiment's initial condition.
	initialState := d.lay.Block(g, 0).State()

	if !d.initialized {
		if err := d.target.Bind(d.cfg.Target); err != nil {
			out.Err = fmt.Errorf("experiment %d: %w", i, err)
			return out, true
		}
		if err := d.initial.Bind(initialState); err != nil {
			out.Err = fmt.Errorf("experiment %d: %w", i, err)
			return out, true
		}
		if err := d.engine.Initialize(g); err != nil {
			out.Err = fmt.Errorf("experiment %d: %w", i, err)
			return out, true
		}
		d.initialized = true
	} else {
		// Target is batch-wide; only the initial condition changes.
		if err := d.initial.Bind(initialState); err != nil {
			out.Err = fmt.Errorf("experiment %d: %w", i, err)
			return out, true
		}
		if err := d.engine.Reset(g); err != nil {
			out.Err = fmt.Errorf("experiment %d: %w", i, err)
			return out, true
		}
	}

	report, err := d.engine.Solve(ctx)
	if err != nil {
		out.Err = fmt.Errorf("experiment %d: %w", i, err)
		return out, true
	}
	out.Report = report

	// Persist unconditionally: non-convergence is recorded, not discarded.
	meta := store.ResultMetadata{
		ID:                   store.ResultID(i),
		Experiment:           i,
		Timestamp:            time.Now(),
		Dt:                   d.par.Dt,
		Steps:                d.par.Steps,
		InitialState:         initialState,
		TargetState:          d.target.Value(),
		Converged:            report.Converged,
		Iterations:           report.Iterations,
		Objective:            report.Objective,
		MaxEqualityViolation: report.MaxEqualityViolation,
		MinInequality:        report.MinInequality,
	}
	id, err := d.results.Save(meta, d.engine.Solution())
	if err != nil {
		out.Err = fmt.Errorf("experiment %d: %w", i, err)
		return out, true
	}
	out.ResultID = id
	return out, false
}
