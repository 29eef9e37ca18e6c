package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/ctrlkit/pushopt/internal/config"
	"github.com/ctrlkit/pushopt/internal/experiment"
	"github.com/ctrlkit/pushopt/internal/export"
	"github.com/ctrlkit/pushopt/internal/guess"
	"github.com/ctrlkit/pushopt/internal/layout"
	"github.com/ctrlkit/pushopt/internal/nlp"
	"github.com/ctrlkit/pushopt/internal/residual"
	"github.com/ctrlkit/pushopt/internal/solver"
	"github.com/ctrlkit/pushopt/internal/store"
	"github.com/ctrlkit/pushopt/internal/viz"
)

var (
	configFile string
	dataDir    string
	guessDir   string

	experiments int
	policy      string
	target      []float64

	trustRegionTol    float64
	trailTol          float64
	weightedTolFactor float64
	verbose           bool

	seed   int64
	spread float64

	field string
	fps   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "pushopt",
		Short: "contact-implicit trajectory optimization for the pushbot swing-up",
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".pushopt", "result directory")
	rootCmd.PersistentFlags().StringVar(&guessDir, "guess-dir", "guesses", "initial guess directory")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve the experiment batch",
		RunE:  runSolve,
	}
	solveCmd.Flags().IntVar(&experiments, "experiments", 30, "number of experiments")
	solveCmd.Flags().StringVar(&policy, "policy", "halt", "data error policy: halt or skip")
	solveCmd.Flags().Float64SliceVar(&target, "target", []float64{0, 0, 0, 0}, "target state [x,theta,x_dot,theta_dot]")
	solveCmd.Flags().Float64Var(&trustRegionTol, "trust-region-tol", 1e-3, "solver trust region tolerance")
	solveCmd.Flags().Float64Var(&trailTol, "trail-tol", 1e-3, "solver trail tolerance")
	solveCmd.Flags().Float64Var(&weightedTolFactor, "weighted-tol-factor", 10, "solver weighted tolerance factor")
	solveCmd.Flags().BoolVar(&verbose, "verbose", false, "solver progress output")

	guessCmd := &cobra.Command{
		Use:   "guess",
		Short: "generate initial guess files",
		RunE:  runGuess,
	}
	guessCmd.Flags().IntVar(&experiments, "experiments", 30, "number of guess files")
	guessCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	guessCmd.Flags().Float64Var(&spread, "spread", 0.3, "initial state perturbation magnitude")
	guessCmd.Flags().Float64SliceVar(&target, "target", []float64{0, 0, 0, 0}, "target state the guesses interpolate to")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored results",
		RunE:  runList,
	}

	showCmd := &cobra.Command{
		Use:   "show [result_id]",
		Short: "print result metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [result_id]",
		Short: "plot one trajectory column in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlot,
	}
	plotCmd.Flags().StringVar(&field, "field", "theta", "column: x, theta, x_dot, theta_dot, u, lambda1, lambda2")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [result_id]",
		Short: "write PNG figures of a result",
		Args:  cobra.ExactArgs(1),
		RunE:  runExportPNG,
	}

	playCmd := &cobra.Command{
		Use:   "play [result_id]",
		Short: "animate a solved swing-up in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlay,
	}
	playCmd.Flags().IntVar(&fps, "fps", 30, "playback frame rate")

	verifyCmd := &cobra.Command{
		Use:   "verify [result_id]",
		Short: "recompute objective and residual norms for a stored result",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}

	rootCmd.AddCommand(solveCmd, guessCmd, listCmd, showCmd, plotCmd, exportPNGCmd, playCmd, verifyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig merges defaults, the optional config file and flags. Flags win
// only when explicitly set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("experiments") {
		cfg.Run.Experiments = experiments
	}
	if cmd.Flags().Changed("policy") {
		cfg.Run.Policy = policy
	}
	if cmd.Flags().Changed("target") {
		cfg.Run.Target = target
	}
	if cmd.Flags().Changed("trust-region-tol") {
		cfg.Solver.TrustRegionTol = trustRegionTol
	}
	if cmd.Flags().Changed("trail-tol") {
		cfg.Solver.TrailTol = trailTol
	}
	if cmd.Flags().Changed("weighted-tol-factor") {
		cfg.Solver.WeightedTolFactor = weightedTolFactor
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Solver.Verbose = verbose
	}
	if cmd.Flags().Changed("data") || cfg.Run.DataDir == "" {
		cfg.Run.DataDir = dataDir
	}
	if cmd.Flags().Changed("guess-dir") || cfg.Run.GuessDir == "" {
		cfg.Run.GuessDir = guessDir
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	asm, err := residual.Assemble(cfg.Model, "PushbotSwingUp")
	if err != nil {
		return err
	}

	engine := solver.NewPenalty(asm.Problem)
	hypers := []struct {
		name  string
		value float64
	}{
		{solver.HyperTrustRegionTol, cfg.Solver.TrustRegionTol},
		{solver.HyperTrailTol, cfg.Solver.TrailTol},
		{solver.HyperWeightedTolFactor, cfg.Solver.WeightedTolFactor},
		{solver.HyperVerbose, boolToFloat(cfg.Solver.Verbose)},
	}
	for _, h := range hypers {
		if err := engine.SetHyperParameter(h.name, []float64{h.value}); err != nil {
			return err
		}
	}

	pol, err := experiment.ParsePolicy(cfg.Run.Policy)
	if err != nil {
		return err
	}

	st := store.New(cfg.Run.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	source := guess.NewFileSource(cfg.Run.GuessDir, asm.Problem.Size())

	driver, err := experiment.New(engine, source, st, cfg.Model, asm.Target, asm.Initial, experiment.Config{
		Experiments: cfg.Run.Experiments,
		Target:      cfg.Run.Target,
		Policy:      pol,
	})
	if err != nil {
		return err
	}

	fmt.Printf("solving %d experiments (N=%d, dt=%g)...\n", cfg.Run.Experiments, cfg.Model.Steps, cfg.Model.Dt)
	start := time.Now()
	outcomes, runErr := driver.Run(context.Background())
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXP\tRESULT\tCONVERGED\tITERS\tOBJECTIVE\tMAX|EQ|\tMIN INEQ")
	for _, out := range outcomes {
		if out.Err != nil {
			fmt.Fprintf(w, "%d\t-\terror: %v\t\t\t\t\n", out.Experiment, out.Err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%d\t%.6g\t%.3g\t%.3g\n",
			out.Experiment, out.ResultID, out.Report.Converged, out.Report.Iterations,
			out.Report.Objective, out.Report.MaxEqualityViolation, out.Report.MinInequality)
	}
	w.Flush()
	fmt.Printf("completed in %v\n", elapsed)

	return runErr
}

func runGuess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	gen := guess.GenerateConfig{
		Dir:         cfg.Run.GuessDir,
		Experiments: cfg.Run.Experiments,
		Seed:        seed,
		Spread:      spread,
	}
	if err := guess.Generate(gen, cfg.Model, cfg.Run.Target); err != nil {
		return err
	}
	fmt.Printf("wrote %d guess files to %s\n", cfg.Run.Experiments, cfg.Run.GuessDir)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	results, err := st.List()
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("no results found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEXP\tTIME\tCONVERGED\tOBJECTIVE\tMAX|EQ|")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%t\t%.6g\t%.3g\n",
			r.ID, r.Experiment, r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Converged, r.Objective, r.MaxEqualityViolation)
	}
	return w.Flush()
}

func runShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func runPlot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, _, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	f, err := layout.FieldByName(field)
	if err != nil {
		return err
	}
	lay, err := layout.New(meta.Steps)
	if err != nil {
		return err
	}

	data := make([]float64, lay.Horizon)
	for i := 0; i < lay.Horizon; i++ {
		data[i] = lay.Block(traj, i).Get(f)
	}

	fmt.Printf("result: %s (converged=%t, objective=%.6g)\n\n", meta.ID, meta.Converged, meta.Objective)
	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs timestep", f)),
	)
	fmt.Println(graph)
	return nil
}

func runExportPNG(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	par := cfg.Model
	par.Steps = meta.Steps
	par.Dt = meta.Dt

	paths, err := export.WritePlots(cfg.Run.DataDir, meta.ID, par, traj, times)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	par := cfg.Model
	par.Steps = meta.Steps
	par.Dt = meta.Dt

	m, err := viz.New(meta.ID, traj, times, par, fps)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	st := store.New(cfg.Run.DataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	traj, _, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	par := cfg.Model
	par.Steps = meta.Steps
	par.Dt = meta.Dt

	asm, err := residual.Assemble(par, "PushbotVerify")
	if err != nil {
		return err
	}
	if err := asm.Target.Bind(meta.TargetState); err != nil {
		return err
	}
	if err := asm.Initial.Bind(meta.InitialState); err != nil {
		return err
	}
	if err := asm.Problem.CheckPoint(traj); err != nil {
		return err
	}

	eq := asm.Problem.Equalities(traj)
	ineq := asm.Problem.Inequalities(traj)

	fmt.Printf("result: %s\n", meta.ID)
	fmt.Printf("objective:          %.6g (stored %.6g)\n", asm.Problem.Objective(traj), meta.Objective)
	fmt.Printf("max |equality|:     %.3g over %d components\n", nlp.MaxAbs(eq), len(eq))
	fmt.Printf("min inequality:     %.3g over %d components\n", nlp.Min(ineq), len(ineq))
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
