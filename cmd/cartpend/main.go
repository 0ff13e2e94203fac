package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	steps      int
	dt         float64
	integrator string
	controller string
	validate   bool
	// initial state
	pos   float64
	theta float64
	vel   float64
	omega float64
	// physical parameters
	cartMass   float64
	poleMass   float64
	poleLength float64
	gravity    float64
	// controller parameters
	force  float64
	kp     float64
	ki     float64
	kd     float64
	target float64
	// phase plot axes
	xAxis int
	yAxis int
	// live view
	frameRate     int
	stepsPerFrame int
	// export
	format string
	// sweep
	sweepAxes []string
	metric    string
	minimize  bool
	// monte carlo
	trials       int
	perturbation float64
	seed         int64
	// snapshot
	snapStep int
	outFile  string
	trace    bool

	envCfg config.Env
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cartpend",
		Short:         "cart and inverted pendulum simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if envCfg, err = config.ParseEnv(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("data") {
				dataDir = envCfg.DataDir
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cartpend", "data directory (env CARTPEND_DATA_DIR)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&format, "format", "json", "output format (json, csv)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the pole angle",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 1, "state index for x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 3, "state index for y-axis")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	liveCmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 3, "model steps per frame")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare integrators on the same configuration",
		Args:  cobra.NoArgs,
		RunE:  benchIntegrators,
	}
	addSimFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search over parameters",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepAxes, "param", nil, "swept parameter, name=v1,v2 or name=start:stop:step (repeatable)")
	sweepCmd.Flags().StringVar(&metric, "metric", "reward", "metric to optimize")
	sweepCmd.Flags().BoolVar(&minimize, "minimize", false, "minimize the metric instead of maximizing")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "run randomly perturbed trials and count balanced outcomes",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.05, "uniform perturbation of every state component")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "write an SVG of one recorded state",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&snapStep, "step", -1, "state index, negative counts from the end")
	snapshotCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	snapshotCmd.Flags().BoolVar(&trace, "trace", false, "draw the pendulum tip trajectory instead")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, analyzeCmd, phaseCmd, liveCmd, benchCmd, sweepCmd, presetsCmd, scenarioCmd, monteCarloCmd, snapshotCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	defaults := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&steps, "steps", defaults.Steps, "number of steps")
	f.Float64Var(&dt, "dt", defaults.Dt, "timestep (env CARTPEND_DT)")
	f.StringVar(&integrator, "integrator", defaults.Integrator, fmt.Sprintf("integrator %v (env CARTPEND_INTEGRATOR)", integrators.Names()))
	f.StringVar(&controller, "controller", defaults.Controller, fmt.Sprintf("controller %v", control.Names()))
	f.BoolVar(&validate, "validate", false, "reject non-physical parameters")
	f.Float64Var(&pos, "pos", 0, "initial cart position")
	f.Float64Var(&theta, "theta", 0, "initial pole angle (0 is upright)")
	f.Float64Var(&vel, "vel", 0, "initial cart velocity")
	f.Float64Var(&omega, "omega", 0, "initial pole angular velocity")
	f.Float64Var(&cartMass, "cart-mass", defaults.Params.CartMass, "cart mass")
	f.Float64Var(&poleMass, "pole-mass", defaults.Params.PoleMass, "pole mass")
	f.Float64Var(&poleLength, "pole-length", defaults.Params.PoleLength, "pole length")
	f.Float64Var(&gravity, "gravity", defaults.Params.Gravity, "gravitational acceleration")
	f.Float64Var(&force, "force", 0, "constant controller force")
	f.Float64Var(&kp, "kp", defaults.ControllerParams.Kp, "pid kp")
	f.Float64Var(&ki, "ki", defaults.ControllerParams.Ki, "pid ki")
	f.Float64Var(&kd, "kd", defaults.ControllerParams.Kd, "pid kd")
	f.Float64Var(&target, "target", 0, "pid target angle")
}

// resolveConfig layers preset, config file, environment and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(envCfg)

	flags := cmd.Flags()
	overrides := []struct {
		name  string
		apply func()
	}{
		{"steps", func() { cfg.Steps = steps }},
		{"dt", func() { cfg.Dt = dt }},
		{"integrator", func() { cfg.Integrator = integrator }},
		{"controller", func() { cfg.Controller = controller }},
		{"validate", func() { cfg.ValidateParams = validate }},
		{"pos", func() { cfg.InitState.Pos = pos }},
		{"theta", func() { cfg.InitState.Theta = theta }},
		{"vel", func() { cfg.InitState.Vel = vel }},
		{"omega", func() { cfg.InitState.Omega = omega }},
		{"cart-mass", func() { cfg.Params.CartMass = cartMass }},
		{"pole-mass", func() { cfg.Params.PoleMass = poleMass }},
		{"pole-length", func() { cfg.Params.PoleLength = poleLength }},
		{"gravity", func() { cfg.Params.Gravity = gravity }},
		{"force", func() { cfg.ControllerParams.Force = force }},
		{"kp", func() { cfg.ControllerParams.Kp = kp }},
		{"ki", func() { cfg.ControllerParams.Ki = ki }},
		{"kd", func() { cfg.ControllerParams.Kd = kd }},
		{"target", func() { cfg.ControllerParams.Target = target }},
	}
	for _, o := range overrides {
		if flags.Changed(o.name) {
			o.apply()
		}
	}
	return cfg, cfg.Validate()
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Printf("  %-10s controller=%-9s theta=%.3f steps=%d\n", name, p.Controller, p.InitState.Theta, p.Steps)
	}
	return nil
}
