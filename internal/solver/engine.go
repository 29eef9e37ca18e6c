package solver

import (
	"context"
	"errors"
)

// Hyperparameter names the engines recognize. Setting any other name is a
// configuration error.
const (
	HyperTrustRegionTol    = "trustRegionTol"
	HyperTrailTol          = "trailTol"
	HyperWeightedTolFactor = "WeightedTolFactor"
	HyperVerbose           = "verbose"
)

var (
	// ErrUnknownHyperParameter indicates an unrecognized hyperparameter name.
	ErrUnknownHyperParameter = errors.New("solver: unknown hyperparameter")

	// ErrHyperValue indicates a hyperparameter value vector of the wrong shape.
	ErrHyperValue = errors.New("solver: invalid hyperparameter value")

	// ErrNotInitialized indicates Reset, Solve or Solution before Initialize.
	ErrNotInitialized = errors.New("solver: engine not initialized")
)

// Report summarizes one solve. Persistence happens regardless of Converged;
// the driver records the report next to the result so non-convergence is
// visible rather than silently discarded.
type Report struct {
	Converged            bool
	Iterations           int
	Objective            float64
	MaxEqualityViolation float64
	MinInequality        float64
}

// Engine is the narrow surface this package's consumers depend on. The
// problem structure is bound at construction; Initialize seeds the working
// trajectory for the first solve and Reset re-seeds it for later solves while
// preserving hyperparameters and bound residual parameters.
type Engine interface {
	SetHyperParameter(name string, value []float64) error
	Initialize(guess []float64) error
	Reset(guess []float64) error
	Solve(ctx context.Context) (*Report, error)
	Solution() []float64
}
