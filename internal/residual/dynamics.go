package residual

import (
	"math"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
	"github.com/ctrlkit/pushopt/internal/nlp"
)

// Accelerations evaluates the continuous-time cart and pole accelerations of
// the pushbot. The contact forces enter as generalized forces applied at the
// pole tip: lambda1 pushes off wall 1 (+d1), lambda2 off wall 2 (-d2).
//
// The shared denominator mc + mp - mp*cos^2(theta) is bounded below by mc
// for positive masses and never vanishes.
func Accelerations(p model.Params, theta, thetaDot, u, lambda1, lambda2 float64) (xDD, thetaDD float64) {
	mc := p.CartMass
	mp := p.PoleMass
	l := p.PoleLength
	g := p.Gravity

	sin := math.Sin(theta)
	cos := math.Cos(theta)
	den := mc + mp - mp*cos*cos

	xDD = (lambda2 - lambda1 + u + lambda1*cos*cos - lambda2*cos*cos -
		g*mp*cos*sin + l*mp*thetaDot*thetaDot*sin) / den

	thetaDD = -(lambda1*mc*cos - lambda2*mc*cos + mp*u*cos -
		g*mp*mp*sin - g*mc*mp*sin + l*mp*mp*thetaDot*thetaDot*cos*sin) /
		(l * mp * den)

	return xDD, thetaDD
}

// Dynamics returns the (N-1)*4 dynamics defect residual. Each block pair
// (i, i+1) contributes one semi-implicit Euler step: the position update
// uses the next velocity, the velocity update uses accelerations at the
// current state, control and contact forces. The mixed scheme is load-bearing
// for the solver's Jacobian structure; do not symmetrize it.
func Dynamics(p model.Params, lay layout.Layout) nlp.Func {
	dt := p.Dt
	return func(x []float64) []float64 {
		out := make([]float64, (lay.Horizon-1)*layout.NumState)
		for i := 0; i < lay.Horizon-1; i++ {
			cur := lay.Block(x, i)
			next := lay.Block(x, i+1)

			xDD, thetaDD := Accelerations(p, cur.Theta(), cur.ThetaDot(), cur.U(), cur.Lambda1(), cur.Lambda2())

			k := i * layout.NumState
			out[k+0] = next.X() - cur.X() - next.XDot()*dt
			out[k+1] = next.Theta() - cur.Theta() - next.ThetaDot()*dt
			out[k+2] = next.XDot() - cur.XDot() - xDD*dt
			out[k+3] = next.ThetaDot() - cur.ThetaDot() - thetaDD*dt
		}
		return out
	}
}
