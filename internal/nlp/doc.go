// Package nlp describes a nonlinear program as an immutable aggregate of
// residual functions over a flat decision vector:
//
//   - one scalar [Objective], minimized,
//   - ordered equality residuals, zero at a solution,
//   - ordered inequality residuals, >= 0 at a solution.
//
// Residual functions are pure: they may be called repeatedly with different
// decision vectors and retain no state. Functions that depend on an external
// parameter (a tracking target, an initial condition) are registered as
// parametric and yield a [ParamHandle]; rebinding a parameter changes values
// only, never problem structure. Dimension checks happen at registration and
// bind time so that a misconfigured problem fails before any solve.
package nlp
