package residual

import (
	"math"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
	"github.com/ctrlkit/pushopt/internal/nlp"
)

// ContactComponents is the number of inequality components per block.
const ContactComponents = 6

// Gaps returns the softened wall clearances at a block: distance from the
// pole tip to each wall plus the spring relaxation lambda/k.
func Gaps(p model.Params, b layout.Block) (gap1, gap2 float64) {
	tip := b.X() + p.PoleLength*math.Sin(b.Theta())
	gap1 = p.WallOffset1 - tip + b.Lambda1()/p.WallStiffness1
	gap2 = p.WallOffset2 + tip + b.Lambda2()/p.WallStiffness2
	return gap1, gap2
}

// Contact returns the (N-1)*6 contact inequality residual. Per block:
//
//	lambda1 >= 0, lambda2 >= 0, gap1 >= 0, gap2 >= 0,
//	-(lambda1*gap1) >= 0, -(lambda2*gap2) >= 0
//
// Together these force lambda*gap = 0 at a feasible point: contact force is
// zero unless the (softened) gap is closed. Blocks run only to N-2, leaving
// the final block's contact forces unconstrained here; that boundary is part
// of the formulation and intentionally kept.
func Contact(p model.Params, lay layout.Layout) nlp.Func {
	return func(x []float64) []float64 {
		out := make([]float64, (lay.Horizon-1)*ContactComponents)
		for i := 0; i < lay.Horizon-1; i++ {
			b := lay.Block(x, i)
			gap1, gap2 := Gaps(p, b)

			k := i * ContactComponents
			out[k+0] = b.Lambda1()
			out[k+1] = b.Lambda2()
			out[k+2] = gap1
			out[k+3] = gap2
			out[k+4] = -(b.Lambda1() * gap1)
			out[k+5] = -(b.Lambda2() * gap2)
		}
		return out
	}
}
