package guess

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
)

// GenerateConfig controls batch guess generation.
type GenerateConfig struct {
	Dir         string
	Experiments int
	Seed        int64
	// Spread scales the random perturbation of the initial cart position and
	// pole angle around the hanging pose.
	Spread float64
}

// Generate writes one guess file per experiment index: a straight-line
// interpolation in state space from a randomly perturbed hanging pose to the
// target, with zero actuation and contact forces. The first block is
// state-consistent by construction, as the driver requires.
func Generate(cfg GenerateConfig, p model.Params, target []float64) error {
	if cfg.Experiments < 1 {
		return fmt.Errorf("guess: need at least 1 experiment, got %d", cfg.Experiments)
	}
	if len(target) != layout.NumState {
		return fmt.Errorf("%w: target has %d values, want %d", ErrLength, len(target), layout.NumState)
	}
	lay, err := layout.New(p.Steps)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	src := NewFileSource(cfg.Dir, lay.Size())

	for i := 1; i <= cfg.Experiments; i++ {
		start := []float64{
			cfg.Spread * (2*rng.Float64() - 1),
			math.Pi + cfg.Spread*(2*rng.Float64()-1),
			0,
			0,
		}
		traj := interpolate(lay, start, target)
		if err := writeFile(src.Path(i), lay, traj); err != nil {
			return fmt.Errorf("guess: experiment %d: %w", i, err)
		}
	}
	return nil
}

func interpolate(lay layout.Layout, start, target []float64) []float64 {
	traj := make([]float64, lay.Size())
	for i := 0; i < lay.Horizon; i++ {
		frac := float64(i) / float64(lay.Horizon-1)
		b := lay.Block(traj, i)
		for j := 0; j < layout.NumState; j++ {
			b.Set(layout.Field(j), start[j]+frac*(target[j]-start[j]))
		}
	}
	return traj
}

func writeFile(path string, lay layout.Layout, traj []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write(layout.FieldNames()); err != nil {
		return err
	}
	row := make([]string, layout.BlockWidth)
	for i := 0; i < lay.Horizon; i++ {
		b := lay.Block(traj, i)
		for j := range row {
			row[j] = strconv.FormatFloat(b.Get(layout.Field(j)), 'f', 6, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
