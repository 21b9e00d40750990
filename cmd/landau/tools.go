package main

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/landau/internal/analysis"
	"github.com/san-kum/landau/internal/automation"
	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/export"
	"github.com/san-kum/landau/internal/integrators"
	"github.com/san-kum/landau/internal/metrics"
	"github.com/san-kum/landau/internal/optim"
	"github.com/san-kum/landau/internal/perturb"
	"github.com/san-kum/landau/internal/physics"
	"github.com/san-kum/landau/internal/render"
	"github.com/san-kum/landau/internal/sim"
	"github.com/san-kum/landau/internal/storage"
)

var (
	// record
	frameEvery int
	frameDelay int
	// sweep
	sweepParam     string
	sweepMin       float64
	sweepMax       float64
	sweepPoints    int
	sweepTransient int
	sweepRecord    int
	// lyapunov / orbit
	lyapSteps   int
	lyapEpsilon float64
	orbitCell   int
	orbitSteps  int
	// bench
	benchSize  int
	benchSteps int
	// montecarlo
	mcBase   string
	mcSteps  int
	mcSeed   int64
	mcTrials int
	mcParam  string
	mcJitter float64
	// optimize
	optGrid   []string
	optMetric string
	// ensemble
	ensembleRuns int
)

// toolCommands are the rendering, analysis and batch commands.
func toolCommands() []*cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "run a simulation and write the final lattice as PNG",
		RunE:  snapshot,
	}
	addLatticeFlags(snapshotCmd)
	addViewFlags(snapshotCmd)
	snapshotCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default landau.png)")
	snapshotCmd.Flags().IntVar(&scale, "scale", 0, "pixels per cell (default 4)")

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "run a simulation and record it as an animated GIF",
		RunE:  record,
	}
	addLatticeFlags(recordCmd)
	addViewFlags(recordCmd)
	recordCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default landau.gif)")
	recordCmd.Flags().IntVar(&scale, "scale", 0, "pixels per cell (default 2)")
	recordCmd.Flags().IntVar(&frameEvery, "every", 10, "steps between frames")
	recordCmd.Flags().IntVar(&frameDelay, "delay", 5, "frame delay in 1/100 s")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter and plot the settled amplitude",
		RunE:  sweep,
	}
	addLatticeFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "lambda", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", -0.2, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 0.4, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 20, "number of values")
	sweepCmd.Flags().IntVar(&sweepTransient, "transient", 300, "steps discarded before recording")
	sweepCmd.Flags().IntVar(&sweepRecord, "record", 50, "steps recorded per value")

	lyapunovCmd := &cobra.Command{
		Use:   "lyapunov",
		Short: "estimate the largest Lyapunov exponent of the lattice",
		RunE:  lyapunov,
	}
	addLatticeFlags(lyapunovCmd)
	lyapunovCmd.Flags().IntVar(&lyapSteps, "lyap-steps", 500, "steps of separation tracking")
	lyapunovCmd.Flags().Float64Var(&lyapEpsilon, "epsilon", 1e-8, "initial separation")

	orbitCmd := &cobra.Command{
		Use:   "orbit",
		Short: "trace one cell in the complex plane",
		RunE:  orbit,
	}
	addLatticeFlags(orbitCmd)
	orbitCmd.Flags().IntVar(&orbitCell, "cell", -1, "cell index (default: lattice centre)")
	orbitCmd.Flags().IntVar(&orbitSteps, "orbit-steps", 400, "steps to trace")
	orbitCmd.Flags().StringVarP(&output, "output", "o", "", "also write the orbit as SVG")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure step throughput for every backend, scheme and coupling law",
		RunE:  bench,
	}
	benchCmd.Flags().IntVar(&benchSize, "size", 64, "lattice side N")
	benchCmd.Flags().IntVar(&benchSteps, "steps", 50, "steps per combination")

	compareCmd := &cobra.Command{
		Use:   "compare",
		Short: "compare euler and rk4 from the same initial lattice",
		RunE:  compare,
	}
	addLatticeFlags(compareCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	montecarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run jittered trials and count diverged runs",
		RunE:  monteCarlo,
	}
	montecarloCmd.Flags().StringVar(&mcBase, "preset", "", "base preset or config file")
	montecarloCmd.Flags().IntVar(&mcSteps, "steps", 0, "steps per trial (default from base)")
	montecarloCmd.Flags().Int64Var(&mcSeed, "seed", config.DefaultSeed, "first trial seed")
	montecarloCmd.Flags().IntVar(&mcTrials, "trials", 20, "number of trials")
	montecarloCmd.Flags().StringVar(&mcParam, "param", "", "parameter to jitter")
	montecarloCmd.Flags().Float64Var(&mcJitter, "jitter", 0.05, "uniform jitter half-width")

	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "grid search parameters minimizing a metric",
		RunE:  optimize,
	}
	addLatticeFlags(optimizeCmd)
	optimizeCmd.Flags().StringArrayVar(&optGrid, "grid", nil, "axis as name=lo:hi:n (repeatable)")
	optimizeCmd.Flags().StringVar(&optMetric, "metric", "final_dissonance", "metric to minimize")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "run the same configuration over consecutive seeds in parallel",
		RunE:  ensemble,
	}
	addLatticeFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&ensembleRuns, "runs", 8, "number of members")

	return []*cobra.Command{
		snapshotCmd, recordCmd, sweepCmd, lyapunovCmd, orbitCmd,
		benchCmd, compareCmd, scenarioCmd, montecarloCmd, optimizeCmd, ensembleCmd,
	}
}

func newExperiment(cmd *cobra.Command) (*experiment.Experiment, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	exp, err := experiment.New(cfg, nil, sim.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	return exp, cfg, nil
}

func displayMode(cfg *config.Config) render.Mode {
	m, err := render.ParseMode(cfg.View.Mode)
	if err != nil {
		return render.ModeCombined
	}
	return m
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func pixelScale(def int) int {
	if scale > 0 {
		return scale
	}
	return def
}

func snapshot(cmd *cobra.Command, args []string) error {
	exp, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if _, err := exp.Run(ctx); err != nil {
		logger.Warn("run stopped early", "err", err)
	}

	path := orDefault(output, "landau.png")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	img := render.Image(exp.GetSimulator().Field(), displayMode(cfg), cfg.View.Colormap, pixelScale(4))
	if err := render.WritePNG(f, img); err != nil {
		return err
	}
	logger.Info("snapshot written", "path", path, "step", exp.GetSimulator().StepCount())
	return nil
}

func record(cmd *cobra.Command, args []string) error {
	exp, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	if frameEvery < 1 {
		frameEvery = 1
	}
	ctx, cancel := signalContext()
	defer cancel()

	s := exp.GetSimulator()
	mode := displayMode(cfg)
	px := pixelScale(2)
	rec := render.NewRecorder(frameDelay)
	rec.Add(render.Image(s.Field(), mode, cfg.View.Colormap, px))

	runErr := s.Run(ctx, cfg.Steps, func(d dynamo.Diagnostics) bool {
		if d.Step%frameEvery == 0 {
			rec.Add(render.Image(s.Field(), mode, cfg.View.Colormap, px))
		}
		return true
	})
	if runErr != nil {
		logger.Warn("run stopped early", "err", runErr)
	}

	path := orDefault(output, "landau.gif")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := rec.Encode(f); err != nil {
		return err
	}
	logger.Info("recording written", "path", path, "frames", rec.Len())
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("sweeping", "param", sweepParam, "min", sweepMin, "max", sweepMax, "points", sweepPoints)
	data, err := analysis.Sweep(ctx, p, analysis.SweepConfig{
		Param:     sweepParam,
		Min:       sweepMin,
		Max:       sweepMax,
		Points:    sweepPoints,
		Transient: sweepTransient,
		Record:    sweepRecord,
		Seed:      cfg.Seed,
	})
	if err != nil {
		return err
	}

	fmt.Printf("mean amplitude vs %s [%.3g, %.3g]\n\n", sweepParam, sweepMin, sweepMax)
	fmt.Println(analysis.SweepToASCII(data, 60, 16))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tDISSONANCE\tCOHERENCE\tVALUES\n", strings.ToUpper(sweepParam))
	for _, pt := range data {
		fmt.Fprintf(w, "%.4f\t%.5f\t%.4f\t%d\n", pt.Param, pt.Dissonance, pt.Coherence, len(pt.Values))
	}
	return w.Flush()
}

func lyapunov(cmd *cobra.Command, args []string) error {
	exp, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	// settle onto the attractor before measuring separation
	s := exp.GetSimulator()
	if err := s.Run(ctx, cfg.Steps, nil); err != nil {
		return err
	}

	p := s.Params()
	rng := rand.New(rand.NewSource(cfg.Seed))
	model := perturb.New(p.Size)
	dyn := physics.NewLandau(p, s.Links(), model, rng)
	integ, err := integrators.New(p.Scheme)
	if err != nil {
		return err
	}
	u := make(dynamo.Control, dyn.ControlDim())
	model.Inputs(p, rng, u)

	lambdaMax := analysis.LyapunovExponent(dyn, integ, s.Field().Z, u, p.Dt, lyapSteps, lyapEpsilon)
	fmt.Printf("largest lyapunov exponent: %.6f\n", lambdaMax)
	switch {
	case lambdaMax > 1e-3:
		fmt.Println("separation grows: sensitive dependence on initial state")
	case lambdaMax < -1e-3:
		fmt.Println("separation decays: trajectories converge")
	default:
		fmt.Println("separation neutral: limit cycle or marginal drift")
	}
	return nil
}

func orbit(cmd *cobra.Command, args []string) error {
	exp, cfg, err := newExperiment(cmd)
	if err != nil {
		return err
	}
	s := exp.GetSimulator()
	p := s.Params()

	cell := orbitCell
	if cell < 0 {
		cell = (p.Size/2)*p.Size + p.Size/2
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	model := perturb.New(p.Size)
	dyn := physics.NewLandau(p, s.Links(), model, rng)
	integ, err := integrators.New(p.Scheme)
	if err != nil {
		return err
	}
	u := make(dynamo.Control, dyn.ControlDim())
	model.Inputs(p, rng, u)

	portrait := analysis.CellTrajectory(dyn, integ, s.Field().Z, u, cell, p.Dt, orbitSteps)
	if portrait == nil {
		return fmt.Errorf("cell %d outside %d×%d lattice", cell, p.Size, p.Size)
	}

	fmt.Printf("orbit of cell %d (row %d, col %d)\n\n", cell, cell/p.Size, cell%p.Size)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 60, 24))

	if output != "" {
		if err := os.WriteFile(output, []byte(export.TrajectoryToSVG(portrait.Points, 600, "#00ffcc")), 0644); err != nil {
			return err
		}
		logger.Info("svg written", "path", output)
	}
	return nil
}

func bench(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BACKEND\tSCHEME\tMODE\tN\tSTEPS/S\tCELLS/S\n")

	for _, name := range compute.BackendNames() {
		backend, err := compute.ParseBackend(name)
		if err != nil {
			return err
		}
		for _, schemeName := range dynamo.SchemeNames() {
			for _, modeName := range dynamo.CouplingModeNames() {
				p := dynamo.DefaultParams()
				p.Size = benchSize
				p.Scheme, _ = dynamo.ParseScheme(schemeName)
				p.Mode, _ = dynamo.ParseCouplingMode(modeName)
				p.Dt = 0.05

				s, err := sim.New(p, rand.New(rand.NewSource(1)), sim.WithBackend(backend))
				if err != nil {
					return err
				}
				start := time.Now()
				for i := 0; i < benchSteps; i++ {
					if _, err := s.Step(); err != nil {
						return err
					}
				}
				rate := float64(benchSteps) / time.Since(start).Seconds()
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\t%.3g\n",
					name, schemeName, modeName, benchSize, rate, rate*float64(benchSize*benchSize))
			}
		}
	}
	return w.Flush()
}

func compare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	type outcome struct {
		name   string
		result *sim.Result
		field  dynamo.State
		series []float64
		err    error
	}

	var outcomes []outcome
	for _, name := range []string{"euler", "rk4"} {
		c := cfg.Clone()
		c.Scheme = name
		exp, err := experiment.New(c, nil, sim.WithLogger(logger))
		if err != nil {
			return err
		}
		start := time.Now()
		result, runErr := exp.Run(ctx)
		logger.Debug("compared", "scheme", name, "elapsed", time.Since(start))

		hist := exp.History()
		diss := make([]float64, len(hist))
		for i, d := range hist {
			diss[i] = d.Dissonance
		}
		outcomes = append(outcomes, outcome{
			name:   name,
			result: result,
			field:  exp.GetSimulator().Field().Z,
			series: diss,
			err:    runErr,
		})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SCHEME\tSTEPS\tDISSONANCE\tCOHERENCE\tAMP MEAN\tSTATUS\n")
	for _, o := range outcomes {
		status := "ok"
		if o.err != nil {
			status = o.err.Error()
		}
		fmt.Fprintf(w, "%s\t%d\t%.5f\t%.4f\t%.4f\t%s\n", o.name, o.result.Steps,
			o.result.Final.Dissonance, o.result.Final.Coherence, o.result.Final.Amplitude.Mean, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	diff := outcomes[0].field.Sub(outcomes[1].field).Norm()
	fmt.Printf("\nfinal state distance |euler - rk4|: %.6g (rms per cell %.6g)\n",
		diff, diff/math.Sqrt(float64(cfg.Size*cfg.Size)))

	if len(outcomes[0].series) > 1 && len(outcomes[1].series) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.PlotMany([][]float64{outcomes[0].series, outcomes[1].series},
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Green),
			asciigraph.SeriesLegends("euler", "rk4"),
			asciigraph.Caption("dissonance vs step"),
		))
	}
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	runner := automation.NewRunner(registry, st, logger)
	res, err := runner.RunScenario(ctx, sc)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Printf("  %s\n", sc.Description)
	}
	fmt.Printf("run id: %s\n", res.RunID)
	fmt.Printf("steps: %d (t=%.2f)\n", res.Result.Steps, res.Result.Time)
	fmt.Printf("final dissonance: %.6f  coherence: %.4f\n\n", res.Result.Final.Dissonance, res.Result.Final.Coherence)

	if len(res.Series) > 1 {
		diss := make([]float64, len(res.Series))
		for i, d := range res.Series {
			diss[i] = d.Dissonance
		}
		fmt.Println(asciigraph.Plot(diss, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("dissonance vs step")))
	}
	return nil
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	runner := automation.NewRunner(registry, nil, logger)
	results, err := runner.RunMonteCarlo(ctx, automation.MonteCarloConfig{
		Base:   mcBase,
		Steps:  mcSteps,
		Trials: mcTrials,
		Seed:   mcSeed,
		Param:  mcParam,
		Jitter: mcJitter,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "TRIAL\tSEED\tVALUE\tDISSONANCE\tSTABLE\n")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.5f\t%t\n", r.TrialID, r.Seed, r.ParamValue, r.Final.Dissonance, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  diverged: %d\n", stable, unstable)
	return nil
}

// parseAxis reads name=lo:hi:n.
func parseAxis(s string) (string, []float64, error) {
	name, spec, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("grid axis %q: want name=lo:hi:n", s)
	}
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return "", nil, fmt.Errorf("grid axis %q: want name=lo:hi:n", s)
	}
	lo, err1 := strconv.ParseFloat(parts[0], 64)
	hi, err2 := strconv.ParseFloat(parts[1], 64)
	n, err3 := strconv.Atoi(parts[2])
	if err := errors.Join(err1, err2, err3); err != nil {
		return "", nil, fmt.Errorf("grid axis %q: %w", s, err)
	}
	return name, optim.Linspace(lo, hi, n), nil
}

func optimize(cmd *cobra.Command, args []string) error {
	if len(optGrid) == 0 {
		return fmt.Errorf("at least one --grid axis is required")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if _, err := registry.GetMetric(optMetric); err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, axis := range optGrid {
		name, values, err := parseAxis(axis)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch(names, ranges)
	logger.Info("grid search", "points", gs.Size(), "metric", optMetric)

	best, value, err := gs.Search(ctx, func(params map[string]float64) (*experiment.Experiment, error) {
		m, err := registry.GetMetric(optMetric)
		if err != nil {
			return nil, err
		}
		exp, err := experiment.New(cfg, []dynamo.Metric{m})
		if err != nil {
			return nil, err
		}
		s := exp.GetSimulator()
		p := s.Params()
		for k, v := range params {
			if err := p.SetParam(k, v); err != nil {
				return nil, err
			}
		}
		return exp, s.Configure(p)
	}, optMetric)
	if err != nil {
		return err
	}

	fmt.Printf("best %s: %.6f\n", optMetric, value)
	for _, name := range names {
		fmt.Printf("  %-14s %.6g\n", name, best[name])
	}
	return nil
}

func ensemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.Params()
	if err != nil {
		return err
	}
	pattern, err := cfg.InitPattern()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(p, ensembleRuns, cfg.Seed, metrics.Standard, sim.WithPattern(pattern), sim.WithLogger(logger))
	start := time.Now()
	results, err := ens.Run(ctx, cfg.Steps)
	if err != nil {
		return err
	}
	logger.Info("ensemble finished", "runs", len(results), "elapsed", time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SEED\tDISSONANCE\tCOHERENCE\tAMP MEAN\n")
	var mean, sq float64
	for i, r := range results {
		d := r.Final.Dissonance
		mean += d
		sq += d * d
		fmt.Fprintf(w, "%d\t%.5f\t%.4f\t%.4f\n", cfg.Seed+int64(i), d, r.Final.Coherence, r.Final.Amplitude.Mean)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	n := float64(len(results))
	mean /= n
	std := math.Sqrt(math.Max(sq/n-mean*mean, 0))
	fmt.Printf("\ndissonance: %.5f ± %.5f over %d seeds\n", mean, std, len(results))
	return nil
}
