package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/experiment"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/optim"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"github.com/san-kum/cartpend/internal/viz"
	"github.com/spf13/cobra"
)

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}
	ctrl, err := control.New(cfg.Controller, cfg.Params, cfg.ControllerParams)
	if err != nil {
		return err
	}

	m := sim.New(
		sim.WithParams(cfg.Params),
		sim.WithTimeStep(cfg.Dt),
		sim.WithIntegrator(integ),
		sim.WithInitialState(cfg.GetInitState()),
	)

	opts := viz.DefaultLiveOptions()
	opts.FPS = frameRate
	opts.StepsPerFrame = stepsPerFrame

	live := viz.NewLive(m, ctrl, viz.NewRenderer(cfg.Params), opts)
	return viz.RunLive(cmd.Context(), live)
}

func benchIntegrators(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %d steps (dt=%.4f, controller=%s)\n\n", cfg.Steps, cfg.Dt, cfg.Controller)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INTEG\tSTEPS\tTIME\tSTEPS/SEC\tFINAL THETA\tENERGY DRIFT")

	for _, name := range integrators.Names() {
		c := *cfg
		c.Integrator = name
		exp, err := experiment.New(&c)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := exp.Run(cmd.Context())
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\n", name, err)
			continue
		}

		final := result.States[len(result.States)-1]
		fmt.Fprintf(w, "%s\t%d\t%v\t%.0f\t%+.6f\t%.2e\n",
			name,
			result.StepsTaken,
			elapsed.Round(time.Microsecond),
			float64(result.StepsTaken)/elapsed.Seconds(),
			final[physics.Angle],
			result.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func sweepParams(cmd *cobra.Command, args []string) error {
	if len(sweepAxes) == 0 {
		return fmt.Errorf("at least one --param is required (one of %v)", optim.Parameters())
	}

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	axes := make([]optim.Axis, 0, len(sweepAxes))
	for _, s := range sweepAxes {
		axis, err := optim.ParseAxis(s)
		if err != nil {
			return err
		}
		axes = append(axes, axis)
	}

	g, err := optim.NewGridSearch(axes, metric, !minimize)
	if err != nil {
		return err
	}

	start := time.Now()
	points, best, err := g.Search(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	fmt.Printf("swept %d configurations in %v\n\n", len(points), time.Since(start).Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := make([]string, 0, len(axes)+1)
	for _, a := range axes {
		header = append(header, strings.ToUpper(a.Name))
	}
	header = append(header, strings.ToUpper(metric))
	fmt.Fprintln(w, strings.Join(header, "\t"))

	for _, p := range points {
		row := make([]string, 0, len(axes)+1)
		for _, a := range axes {
			row = append(row, fmt.Sprintf("%g", p.Values[a.Name]))
		}
		row = append(row, fmt.Sprintf("%.6g", p.Score))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	names := make([]string, 0, len(best.Values))
	for name := range best.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, best.Values[name])
	}
	fmt.Printf("\nbest: %s (%s=%.6g)\n", strings.Join(parts, " "), metric, best.Score)
	return nil
}
