package nlp

import "errors"

// Configuration errors, all detected at construction/registration/bind time,
// never during a solve.
var (
	// ErrSize indicates a decision-vector size mismatch.
	ErrSize = errors.New("nlp: decision vector size mismatch")

	// ErrResidualDim indicates a residual function whose output length does
	// not match its declared dimension.
	ErrResidualDim = errors.New("nlp: residual dimension mismatch")

	// ErrParamLength indicates a parameter vector whose length does not match
	// the dimension the owning residual function expects.
	ErrParamLength = errors.New("nlp: parameter length mismatch")

	// ErrObjectiveSet indicates a second objective registration.
	ErrObjectiveSet = errors.New("nlp: objective already registered")

	// ErrUnbound indicates a parametric function whose parameter was never bound.
	ErrUnbound = errors.New("nlp: parameter not bound")
)
