// Package export writes PNG figures of solved trajectories.
package export

import (
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/model"
)

// WritePlots renders two figures for a trajectory: the four state components
// and the three control-block components. Returns the written paths.
func WritePlots(dir, id string, par model.Params, traj, times []float64) ([]string, error) {
	lay, err := layout.New(par.Steps)
	if err != nil {
		return nil, err
	}
	if len(traj) != lay.Size() {
		return nil, fmt.Errorf("export: trajectory holds %d values, want %d", len(traj), lay.Size())
	}

	statesPath := filepath.Join(dir, id+"_states.png")
	err = linePlot(statesPath, id+" states", "state",
		"x", series(lay, traj, times, layout.X),
		"theta", series(lay, traj, times, layout.Theta),
		"x_dot", series(lay, traj, times, layout.XDot),
		"theta_dot", series(lay, traj, times, layout.ThetaDot),
	)
	if err != nil {
		return nil, err
	}

	forcesPath := filepath.Join(dir, id+"_forces.png")
	err = linePlot(forcesPath, id+" actuation and contact forces", "force",
		"u", series(lay, traj, times, layout.U),
		"lambda1", series(lay, traj, times, layout.Lambda1),
		"lambda2", series(lay, traj, times, layout.Lambda2),
	)
	if err != nil {
		return nil, err
	}

	return []string{statesPath, forcesPath}, nil
}

func series(lay layout.Layout, traj, times []float64, f layout.Field) plotter.XYs {
	pts := make(plotter.XYs, lay.Horizon)
	for i := 0; i < lay.Horizon; i++ {
		pts[i].X = times[i]
		pts[i].Y = lay.Block(traj, i).Get(f)
	}
	return pts
}

// linePlot draws labeled series against time; vs alternates name, XYs.
func linePlot(path, title, yLabel string, vs ...interface{}) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time [s]"
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())

	if err := plotutil.AddLines(p, vs...); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
