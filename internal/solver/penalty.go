package solver

import (
	"context"
	"fmt"
	"math"

	"github.com/ctrlkit/pushopt/internal/nlp"
)

// Penalty is the built-in reference engine: a quadratic-penalty method with
// finite-difference gradients and backtracking line search. It trades speed
// for having no dependencies beyond the problem itself; drop-in replacements
// implementing Engine can be swapped in by the caller.
type Penalty struct {
	prob *nlp.Problem

	x           []float64
	initialized bool

	stepTol  float64 // inner-loop gradient tolerance
	conTol   float64 // constraint feasibility tolerance
	muGrowth float64 // penalty weight growth per outer iteration
	verbose  bool

	maxOuter int
	maxInner int
}

func NewPenalty(prob *nlp.Problem) *Penalty {
	return &Penalty{
		prob:     prob,
		stepTol:  1e-3,
		conTol:   1e-3,
		muGrowth: 10.0,
		maxOuter: 12,
		maxInner: 250,
	}
}

func (e *Penalty) SetHyperParameter(name string, value []float64) error {
	if len(value) != 1 {
		return fmt.Errorf("%w: %s wants 1 value, got %d", ErrHyperValue, name, len(value))
	}
	v := value[0]
	switch name {
	case HyperTrustRegionTol:
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrHyperValue, name, v)
		}
		e.stepTol = v
	case HyperTrailTol:
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", ErrHyperValue, name, v)
		}
		e.conTol = v
	case HyperWeightedTolFactor:
		if v <= 1 {
			return fmt.Errorf("%w: %s must exceed 1, got %g", ErrHyperValue, name, v)
		}
		e.muGrowth = v
	case HyperVerbose:
		e.verbose = v != 0
	default:
		return fmt.Errorf("%w: %q", ErrUnknownHyperParameter, name)
	}
	return nil
}

func (e *Penalty) Initialize(guess []float64) error {
	if err := e.prob.CheckPoint(guess); err != nil {
		return err
	}
	if err := e.prob.Ready(); err != nil {
		return err
	}
	e.x = clone(guess)
	e.initialized = true
	return nil
}

func (e *Penalty) Reset(guess []float64) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if err := e.prob.CheckPoint(guess); err != nil {
		return err
	}
	if err := e.prob.Ready(); err != nil {
		return err
	}
	e.x = clone(guess)
	return nil
}

func (e *Penalty) Solve(ctx context.Context) (*Report, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}

	x := clone(e.x)
	mu := 10.0
	iterations := 0
	converged := false

	for outer := 0; outer < e.maxOuter; outer++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var inner int
		x, inner = e.minimizeMerit(ctx, x, mu)
		iterations += inner

		maxEq := nlp.MaxAbs(e.prob.Equalities(x))
		minIneq := e.minInequality(x)
		if e.verbose {
			fmt.Printf("penalty: outer=%d mu=%.1e inner=%d f=%.6g maxEq=%.3g minIneq=%.3g\n",
				outer, mu, inner, e.prob.Objective(x), maxEq, minIneq)
		}

		if maxEq <= e.conTol && minIneq >= -e.conTol {
			converged = true
			break
		}
		mu *= e.muGrowth
	}

	e.x = x
	return &Report{
		Converged:            converged,
		Iterations:           iterations,
		Objective:            e.prob.Objective(x),
		MaxEqualityViolation: nlp.MaxAbs(e.prob.Equalities(x)),
		MinInequality:        e.minInequality(x),
	}, nil
}

func (e *Penalty) Solution() []float64 {
	return clone(e.x)
}

// merit is the penalized objective: f + mu*(sum h^2 + sum min(0,g)^2).
func (e *Penalty) merit(x []float64, mu float64) float64 {
	m := e.prob.Objective(x)
	for _, h := range e.prob.Equalities(x) {
		m += mu * h * h
	}
	for _, g := range e.prob.Inequalities(x) {
		if g < 0 {
			m += mu * g * g
		}
	}
	return m
}

// minimizeMerit runs gradient descent with Armijo backtracking until the
// gradient norm drops below stepTol or the iteration budget is spent.
func (e *Penalty) minimizeMerit(ctx context.Context, x []float64, mu float64) ([]float64, int) {
	step := 1.0
	for iter := 0; iter < e.maxInner; iter++ {
		if ctx.Err() != nil {
			return x, iter
		}

		grad := e.gradient(x, mu)
		if nlp.MaxAbs(grad) <= e.stepTol {
			return x, iter
		}

		f0 := e.merit(x, mu)
		gg := dot(grad, grad)
		alpha := step
		accepted := false
		for alpha > 1e-14 {
			trial := axpy(x, grad, -alpha)
			if e.merit(trial, mu) <= f0-1e-4*alpha*gg {
				x = trial
				accepted = true
				break
			}
			alpha /= 2
		}
		if !accepted {
			return x, iter
		}
		step = math.Min(alpha*2, 1.0)
	}
	return x, e.maxInner
}

// gradient approximates the merit gradient with central differences.
func (e *Penalty) gradient(x []float64, mu float64) []float64 {
	grad := make([]float64, len(x))
	work := clone(x)
	for i := range x {
		h := 1e-6 * math.Max(1, math.Abs(x[i]))
		work[i] = x[i] + h
		fp := e.merit(work, mu)
		work[i] = x[i] - h
		fm := e.merit(work, mu)
		work[i] = x[i]
		grad[i] = (fp - fm) / (2 * h)
	}
	return grad
}

func (e *Penalty) minInequality(x []float64) float64 {
	if e.prob.InequalityDim() == 0 {
		return 0
	}
	return nlp.Min(e.prob.Inequalities(x))
}

func clone(v []float64) []float64 {
	c := make([]float64, len(v))
	copy(c, v)
	return c
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func axpy(x, d []float64, alpha float64) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		out[i] = x[i] + alpha*d[i]
	}
	return out
}
