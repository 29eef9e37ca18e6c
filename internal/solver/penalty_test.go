package solver

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ctrlkit/pushopt/internal/nlp"
)

func unconstrainedProblem(t *testing.T, target float64) *nlp.Problem {
	t.Helper()
	prob, err := nlp.New(1, "quad")
	if err != nil {
		t.Fatal(err)
	}
	h, err := prob.SetObjective("obj", 1, func(x, p []float64) float64 {
		d := x[0] - p[0]
		return d * d
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := h.Bind([]float64{target}); err != nil {
		t.Fatal(err)
	}
	return prob
}

func TestSetHyperParameter(t *testing.T) {
	e := NewPenalty(unconstrainedProblem(t, 0))

	tests := []struct {
		name    string
		hyper   string
		value   []float64
		wantErr error
	}{
		{"trust region tol", HyperTrustRegionTol, []float64{1e-4}, nil},
		{"trail tol", HyperTrailTol, []float64{1e-4}, nil},
		{"weighted tol factor", HyperWeightedTolFactor, []float64{5}, nil},
		{"verbose", HyperVerbose, []float64{0}, nil},
		{"unknown name", "mu", []float64{100}, ErrUnknownHyperParameter},
		{"empty value", HyperTrailTol, nil, ErrHyperValue},
		{"too many values", HyperTrailTol, []float64{1, 2}, ErrHyperValue},
		{"negative tolerance", HyperTrustRegionTol, []float64{-1}, ErrHyperValue},
		{"growth below one", HyperWeightedTolFactor, []float64{0.5}, ErrHyperValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.SetHyperParameter(tt.hyper, tt.value)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLifecycleErrors(t *testing.T) {
	prob := unconstrainedProblem(t, 0)
	e := NewPenalty(prob)

	if err := e.Reset([]float64{0}); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Reset before Initialize: got %v, want ErrNotInitialized", err)
	}
	if _, err := e.Solve(context.Background()); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Solve before Initialize: got %v, want ErrNotInitialized", err)
	}
	if err := e.Initialize([]float64{0, 1}); !errors.Is(err, nlp.ErrSize) {
		t.Errorf("Initialize with wrong size: got %v, want ErrSize", err)
	}
	if err := e.Initialize([]float64{0}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := e.Reset([]float64{0, 1}); !errors.Is(err, nlp.ErrSize) {
		t.Errorf("Reset with wrong size: got %v, want ErrSize", err)
	}
}

func TestInitializeRequiresBoundParameters(t *testing.T) {
	prob, _ := nlp.New(1, "unbound")
	if _, err := prob.SetObjective("obj", 1, func(x, p []float64) float64 { return x[0] * p[0] }); err != nil {
		t.Fatal(err)
	}
	e := NewPenalty(prob)
	if err := e.Initialize([]float64{0}); !errors.Is(err, nlp.ErrUnbound) {
		t.Errorf("got %v, want ErrUnbound", err)
	}
}

func TestSolveUnconstrained(t *testing.T) {
	e := NewPenalty(unconstrainedProblem(t, 3))
	if err := e.Initialize([]float64{0}); err != nil {
		t.Fatal(err)
	}

	report, err := e.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !report.Converged {
		t.Error("expected convergence")
	}
	if report.Iterations == 0 {
		t.Error("expected at least one iteration")
	}
	x := e.Solution()
	if math.Abs(x[0]-3) > 1e-2 {
		t.Errorf("solution = %g, want ~3", x[0])
	}
}

func TestSolveEqualityConstrained(t *testing.T) {
	prob, _ := nlp.New(1, "eq")
	h, _ := prob.SetObjective("obj", 1, func(x, p []float64) float64 {
		return (x[0] - p[0]) * (x[0] - p[0])
	})
	if err := h.Bind([]float64{0}); err != nil {
		t.Fatal(err)
	}
	if err := prob.AddEquality("pin", 1, func(x []float64) []float64 {
		return []float64{x[0] - 1}
	}); err != nil {
		t.Fatal(err)
	}

	e := NewPenalty(prob)
	if err := e.Initialize([]float64{0}); err != nil {
		t.Fatal(err)
	}
	report, err := e.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !report.Converged {
		t.Errorf("expected convergence, report %+v", report)
	}
	if report.MaxEqualityViolation > 2e-3 {
		t.Errorf("equality violation %g too large", report.MaxEqualityViolation)
	}
	if x := e.Solution(); math.Abs(x[0]-1) > 5e-3 {
		t.Errorf("solution = %g, want ~1", x[0])
	}
}

func TestSolveInequalityConstrained(t *testing.T) {
	prob, _ := nlp.New(1, "ineq")
	h, _ := prob.SetObjective("obj", 1, func(x, p []float64) float64 {
		return (x[0] + 2 - p[0]) * (x[0] + 2 - p[0])
	})
	if err := h.Bind([]float64{0}); err != nil {
		t.Fatal(err)
	}
	if err := prob.AddInequality("floor", 1, func(x []float64) []float64 {
		return []float64{x[0]}
	}); err != nil {
		t.Fatal(err)
	}

	e := NewPenalty(prob)
	if err := e.Initialize([]float64{1}); err != nil {
		t.Fatal(err)
	}
	report, err := e.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	if !report.Converged {
		t.Errorf("expected convergence, report %+v", report)
	}
	x := e.Solution()
	if x[0] > 0.05 || x[0] < -5e-3 {
		t.Errorf("solution = %g, want ~0 from above", x[0])
	}
	if report.MinInequality < -2e-3 {
		t.Errorf("inequality violation %g too large", report.MinInequality)
	}
}

func TestResetPreservesHyperparametersAndBindings(t *testing.T) {
	e := NewPenalty(unconstrainedProblem(t, 3))
	if err := e.SetHyperParameter(HyperTrailTol, []float64{1e-4}); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize([]float64{0}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Solve(context.Background()); err != nil {
		t.Fatal(err)
	}

	// re-seed and solve again from a different guess
	if err := e.Reset([]float64{10}); err != nil {
		t.Fatal(err)
	}
	report, err := e.Solve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !report.Converged {
		t.Error("expected convergence after reset")
	}
	if x := e.Solution(); math.Abs(x[0]-3) > 1e-2 {
		t.Errorf("solution = %g, want ~3", x[0])
	}
}

func TestSolveHonorsContext(t *testing.T) {
	e := NewPenalty(unconstrainedProblem(t, 3))
	if err := e.Initialize([]float64{0}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.Solve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestSolutionIsACopy(t *testing.T) {
	e := NewPenalty(unconstrainedProblem(t, 0))
	if err := e.Initialize([]float64{5}); err != nil {
		t.Fatal(err)
	}
	s := e.Solution()
	s[0] = -1
	if e.Solution()[0] != 5 {
		t.Error("Solution must return a copy")
	}
}
