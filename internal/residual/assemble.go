package residual

import (
	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
	"github.com/ctrlkit/pushopt/internal/nlp"
)

// Registered function names, visible in errors and solver verbose output.
const (
	ObjectiveName = "swingUpObjective"
	DynamicsName  = "dynamicsDefects"
	ContactName   = "contactComplementarity"
	InitialName   = "initialCondition"
)

// Assembled bundles the swing-up problem with the two parameter handles the
// experiment driver rebinds. The problem structure is built once per
// experiment family; only the handle values change afterwards.
type Assembled struct {
	Problem *nlp.Problem
	Target  *nlp.ParamHandle
	Initial *nlp.ParamHandle
}

// Assemble validates the model parameters and registers the four residual
// functions on a fresh problem.
func Assemble(p model.Params, name string) (*Assembled, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	lay, err := layout.New(p.Steps)
	if err != nil {
		return nil, err
	}

	prob, err := nlp.New(lay.Size(), name)
	if err != nil {
		return nil, err
	}

	target, err := prob.SetObjective(ObjectiveName, layout.NumState, Objective(p, lay))
	if err != nil {
		return nil, err
	}
	if err := prob.AddEquality(DynamicsName, (lay.Horizon-1)*layout.NumState, Dynamics(p, lay)); err != nil {
		return nil, err
	}
	if err := prob.AddInequality(ContactName, (lay.Horizon-1)*ContactComponents, Contact(p, lay)); err != nil {
		return nil, err
	}
	initial, err := prob.AddEqualityParam(InitialName, layout.NumState, layout.NumState, Initial(lay))
	if err != nil {
		return nil, err
	}

	return &Assembled{Problem: prob, Target: target, Initial: initial}, nil
}
