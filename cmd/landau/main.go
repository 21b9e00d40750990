package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/landau/internal/compute"
	"github.com/san-kum/landau/internal/config"
	"github.com/san-kum/landau/internal/dynamo"
	"github.com/san-kum/landau/internal/experiment"
	"github.com/san-kum/landau/internal/render"
	"github.com/san-kum/landau/internal/sim"
	"github.com/san-kum/landau/internal/storage"
	"github.com/san-kum/landau/internal/viz"
)

var (
	dataDir     string
	logLevel    string
	backendName string
	// Lattice configuration
	configFile string
	preset     string
	size       int
	seed       int64
	steps      int
	pattern    string
	lambda     float64
	omega      float64
	dt         float64
	scheme     string
	mode       string
	norm       string
	beta       float64
	smallWorld float64
	attack     bool
	persistent bool
	// View
	viewMode string
	colormap string
	theme    string
	speed    int
	outDir   string
	// Output
	output string
	scale  int

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "landau",
	})
	registry = experiment.NewRegistry()
)

// main registers the commands and executes the root command. Without a
// subcommand the interactive lattice view starts.
func main() {
	rootCmd := &cobra.Command{
		Use:   "landau",
		Short: "stuart-landau oscillator lattice lab",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)

			backend, err := compute.ParseBackend(backendName)
			if err != nil {
				return err
			}
			compute.SetBackend(backend)
			return nil
		},
		RunE:         runLive,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".landau", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "serial", "coupling executor (serial, cpu)")
	addLatticeFlags(rootCmd)
	addViewFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the lattice with live visualization",
		RunE:  runLive,
	}
	addLatticeFlags(liveCmd)
	addViewFlags(liveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless simulation and store it",
		RunE:  runSimulation,
	}
	addLatticeFlags(runCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range registry.ListPresets() {
				cfg, _ := registry.GetPreset(name)
				fmt.Printf("  %-12s N=%-4d dt=%-5.3g ω=%-5.3g %s/%s/%s\n",
					name, cfg.Size, cfg.Dt, cfg.Omega, cfg.Scheme, cfg.Mode, cfg.Normalization)
			}
			return nil
		},
	}

	rootCmd.AddCommand(liveCmd, runCmd, presetsCmd)
	rootCmd.AddCommand(runCommands()...)
	rootCmd.AddCommand(toolCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLatticeFlags(cmd *cobra.Command) {
	d := dynamo.DefaultParams()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&size, "size", d.Size, "lattice side N")
	f.Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of steps")
	f.StringVar(&pattern, "pattern", "uniform", "initial pattern (uniform, noise, zero)")
	f.Float64Var(&lambda, "lambda", d.Lambda, "bifurcation parameter λ")
	f.Float64Var(&omega, "omega", d.Omega, "angular frequency ω")
	f.Float64Var(&dt, "dt", d.Dt, "timestep")
	f.StringVar(&scheme, "scheme", d.Scheme.String(), "integrator (euler, rk4)")
	f.StringVar(&mode, "mode", d.Mode.String(), "coupling law (linear, dn, diffusive)")
	f.StringVar(&norm, "norm", d.Normalization.String(), "kernel normalization (global, none)")
	f.Float64Var(&beta, "beta", d.Beta, "gain-control strength β")
	f.Float64Var(&smallWorld, "small-world", d.SmallWorld, "long-range link strength")
	f.BoolVar(&attack, "attack", false, "start with the attack active")
	f.BoolVar(&persistent, "persistent", false, "leave a decaying residual after the attack")
}

func addViewFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&viewMode, "view", "", "view mode (combined, phase, amplitude)")
	f.StringVar(&colormap, "colormap", "", "amplitude colormap")
	f.StringVar(&theme, "theme", "", "tui theme")
	f.IntVar(&speed, "speed", 1, "simulation steps per frame")
	f.StringVar(&outDir, "out", ".", "directory for snapshots and recordings")
}

// loadConfig resolves --preset or --config and then applies every flag
// the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	ref := preset
	if configFile != "" {
		ref = configFile
	}
	cfg, err := registry.Resolve(ref)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("size") {
		cfg.Size = size
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("steps") {
		cfg.Steps = steps
	}
	if f.Changed("pattern") {
		cfg.Pattern = pattern
	}
	if f.Changed("lambda") {
		cfg.Lambda = lambda
	}
	if f.Changed("omega") {
		cfg.Omega = omega
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("scheme") {
		cfg.Scheme = scheme
	}
	if f.Changed("mode") {
		cfg.Mode = mode
	}
	if f.Changed("norm") {
		cfg.Normalization = norm
	}
	if f.Changed("beta") {
		cfg.Beta = beta
	}
	if f.Changed("small-world") {
		cfg.SmallWorld = smallWorld
	}
	if f.Changed("attack") {
		cfg.Attack.Active = attack
	}
	if f.Changed("persistent") {
		cfg.Attack.Persistent = persistent
	}
	if f.Lookup("view") != nil {
		if f.Changed("view") {
			cfg.View.Mode = viewMode
		}
		if f.Changed("colormap") {
			cfg.View.Colormap = colormap
		}
		if f.Changed("theme") {
			cfg.View.Theme = theme
		}
	}
	return cfg, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runLive(cmd *cobra.Command, args []string) error {
	opts := viz.Options{StepsPerTick: speed, OutDir: outDir}
	if preset == "" && configFile == "" && !cmd.Flags().Changed("size") {
		opts.Colormap, opts.Theme = colormap, theme
		return viz.RunPicker(registry, opts)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, nil, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	if m, err := render.ParseMode(cfg.View.Mode); err == nil {
		opts.Mode = m
	}
	opts.Colormap, opts.Theme = cfg.View.Colormap, cfg.View.Theme
	return viz.Run(exp.GetSimulator(), opts)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, nil, sim.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	name := preset
	if name == "" {
		name = "landau"
	}
	logger.Info("running", "preset", name, "size", cfg.Size, "steps", cfg.Steps, "scheme", cfg.Scheme, "mode", cfg.Mode)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if runErr != nil {
		logger.Error("run stopped", "err", runErr, "step", result.Steps)
	}

	runID, err := exp.Save(st, name)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (t=%.2f)\n", result.Steps, result.Time)
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Printf("  %-18s %.6f\n", k, result.Metrics[k])
	}
	return runErr
}
