package nlp

import (
	"fmt"
	"math"
)

// Func evaluates a residual vector at decision vector x.
type Func func(x []float64) []float64

// ParamFunc evaluates a residual vector at decision vector x with an
// externally bound parameter p.
type ParamFunc func(x, p []float64) []float64

// Objective evaluates the scalar objective at x with parameter p.
type Objective func(x, p []float64) float64

type objectiveEntry struct {
	name     string
	paramDim int
	fn       Objective
	param    []float64
}

type residualEntry struct {
	name     string
	dim      int
	paramDim int
	fn       Func
	pfn      ParamFunc
	param    []float64
}

func (e *residualEntry) eval(x []float64) []float64 {
	if e.pfn != nil {
		return e.pfn(x, e.param)
	}
	return e.fn(x)
}

// ParamHandle rebinds the parameter of one registered function. Handles are
// returned at registration time; there is no name-keyed lookup to misspell.
type ParamHandle struct {
	name string
	dim  int
	slot *[]float64
}

func (h *ParamHandle) Name() string { return h.name }

// Bind replaces the bound parameter value. The value is copied.
func (h *ParamHandle) Bind(v []float64) error {
	if len(v) != h.dim {
		return fmt.Errorf("%w: %s expects %d values, got %d", ErrParamLength, h.name, h.dim, len(v))
	}
	c := make([]float64, len(v))
	copy(c, v)
	*h.slot = c
	return nil
}

// Value returns a copy of the currently bound parameter, or nil if unbound.
func (h *ParamHandle) Value() []float64 {
	if *h.slot == nil {
		return nil
	}
	c := make([]float64, len(*h.slot))
	copy(c, *h.slot)
	return c
}

// Problem is an optimization problem description: decision-vector size, one
// objective, and ordered equality and inequality residuals. Structure is
// fixed after registration; only bound parameter values change between
// solves.
type Problem struct {
	name         string
	size         int
	objective    *objectiveEntry
	equalities   []*residualEntry
	inequalities []*residualEntry
}

func New(size int, name string) (*Problem, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: decision vector size must be positive, got %d", ErrSize, size)
	}
	return &Problem{name: name, size: size}, nil
}

func (p *Problem) Name() string { return p.name }
func (p *Problem) Size() int    { return p.size }

// SetObjective registers the scalar objective with a parameter of length
// paramDim and returns the handle used to bind the parameter.
func (p *Problem) SetObjective(name string, paramDim int, fn Objective) (*ParamHandle, error) {
	if p.objective != nil {
		return nil, fmt.Errorf("%w: %s then %s", ErrObjectiveSet, p.objective.name, name)
	}
	if paramDim < 0 {
		return nil, fmt.Errorf("%w: %s declares negative parameter dimension %d", ErrParamLength, name, paramDim)
	}
	e := &objectiveEntry{name: name, paramDim: paramDim, fn: fn}
	p.objective = e
	return &ParamHandle{name: name, dim: paramDim, slot: &e.param}, nil
}

// AddEquality registers a residual that must equal zero at a solution.
func (p *Problem) AddEquality(name string, dim int, fn Func) error {
	e := &residualEntry{name: name, dim: dim, fn: fn}
	return p.add(&p.equalities, e)
}

// AddEqualityParam registers a parametric equality residual and returns the
// handle used to bind its parameter.
func (p *Problem) AddEqualityParam(name string, dim, paramDim int, fn ParamFunc) (*ParamHandle, error) {
	e := &residualEntry{name: name, dim: dim, paramDim: paramDim, pfn: fn}
	if err := p.add(&p.equalities, e); err != nil {
		return nil, err
	}
	return &ParamHandle{name: name, dim: paramDim, slot: &e.param}, nil
}

// AddInequality registers a residual that must be >= 0 at a solution.
func (p *Problem) AddInequality(name string, dim int, fn Func) error {
	e := &residualEntry{name: name, dim: dim, fn: fn}
	return p.add(&p.inequalities, e)
}

// add probes the function on a zero vector so a dimension mismatch is caught
// here, not inside a solve.
func (p *Problem) add(set *[]*residualEntry, e *residualEntry) error {
	if e.dim <= 0 {
		return fmt.Errorf("%w: %s declares dimension %d", ErrResidualDim, e.name, e.dim)
	}
	probe := make([]float64, p.size)
	var out []float64
	if e.pfn != nil {
		out = e.pfn(probe, make([]float64, e.paramDim))
	} else {
		out = e.fn(probe)
	}
	if len(out) != e.dim {
		return fmt.Errorf("%w: %s declares %d components but produced %d", ErrResidualDim, e.name, e.dim, len(out))
	}
	*set = append(*set, e)
	return nil
}

// Ready reports whether the problem can be solved: an objective is set and
// every parametric function has a bound parameter.
func (p *Problem) Ready() error {
	if p.objective == nil {
		return fmt.Errorf("nlp: problem %s has no objective", p.name)
	}
	if p.objective.paramDim > 0 && p.objective.param == nil {
		return fmt.Errorf("%w: %s", ErrUnbound, p.objective.name)
	}
	for _, e := range append(append([]*residualEntry{}, p.equalities...), p.inequalities...) {
		if e.pfn != nil && e.param == nil {
			return fmt.Errorf("%w: %s", ErrUnbound, e.name)
		}
	}
	return nil
}

// CheckPoint validates that x matches the decision-vector size.
func (p *Problem) CheckPoint(x []float64) error {
	if len(x) != p.size {
		return fmt.Errorf("%w: problem %s wants %d variables, got %d", ErrSize, p.name, p.size, len(x))
	}
	return nil
}

// Objective evaluates the scalar objective. The problem must be Ready and
// x must have the decision-vector size.
func (p *Problem) Objective(x []float64) float64 {
	return p.objective.fn(x, p.objective.param)
}

// Equalities concatenates all equality residuals in registration order.
func (p *Problem) Equalities(x []float64) []float64 {
	return evalAll(p.equalities, x)
}

// Inequalities concatenates all inequality residuals in registration order.
func (p *Problem) Inequalities(x []float64) []float64 {
	return evalAll(p.inequalities, x)
}

func (p *Problem) EqualityDim() int   { return totalDim(p.equalities) }
func (p *Problem) InequalityDim() int { return totalDim(p.inequalities) }

func evalAll(set []*residualEntry, x []float64) []float64 {
	out := make([]float64, 0, totalDim(set))
	for _, e := range set {
		out = append(out, e.eval(x)...)
	}
	return out
}

func totalDim(set []*residualEntry) int {
	n := 0
	for _, e := range set {
		n += e.dim
	}
	return n
}

// MaxAbs returns the infinity norm of v, 0 for an empty vector.
func MaxAbs(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}

// Min returns the smallest component of v, +Inf for an empty vector.
func Min(v []float64) float64 {
	m := math.Inf(1)
	for _, x := range v {
		if x < m {
			m = x
		}
	}
	return m
}
