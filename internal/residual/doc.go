// Package residual builds the four residual functions of the pushbot
// swing-up problem: terminal tracking objective, semi-implicit Euler
// dynamics defects, wall contact complementarity, and the initial-condition
// pin. Constructors take the physical parameters and decision layout
// explicitly and return pure functions of the flat trajectory.
package residual
