package residual

import (
	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
	"github.com/ctrlkit/pushopt/internal/nlp"
)

// Tracking and control cost weights. Q = diag(100,100,100,100) on the
// terminal state error, R = diag(0.001, 0, 0) on the control block: only the
// actuation force is penalized, contact forces are shaped by the
// complementarity constraints instead.
const (
	trackingWeight = 100.0
	controlWeight  = 0.001
)

// Objective returns the swing-up objective: terminal tracking cost on the
// last block plus running control cost over blocks 0..N-2. The target state
// (length 4) is the bound parameter.
func Objective(p model.Params, lay layout.Layout) nlp.Objective {
	return func(x, target []float64) float64 {
		tracking := 0.0
		last := lay.Block(x, lay.Horizon-1)
		for j := 0; j < layout.NumState; j++ {
			e := last.Get(layout.Field(j)) - target[j]
			tracking += trackingWeight * e * e
		}

		// No control cost on the last block: it has no following transition.
		control := 0.0
		for i := 0; i < lay.Horizon-1; i++ {
			u := lay.Block(x, i).U()
			control += controlWeight * u * u
		}

		return tracking + control
	}
}
