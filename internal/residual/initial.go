package residual

import (
	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/nlp"
)

// Initial returns the length-4 residual pinning the first block's state to
// the bound initial-state parameter. The parameter is rebound per experiment
// without rebuilding the function.
func Initial(lay layout.Layout) nlp.ParamFunc {
	return func(x, initial []float64) []float64 {
		out := make([]float64, layout.NumState)
		first := lay.Block(x, 0)
		for j := 0; j < layout.NumState; j++ {
			out[j] = first.Get(layout.Field(j)) - initial[j]
		}
		return out
	}
}
