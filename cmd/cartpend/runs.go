package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/cartpend/internal/analysis"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/experiment"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/storage"
	"github.com/spf13/cobra"
)

var stateNames = [physics.StateDim]string{"cart position", "pole angle", "cart velocity", "pole angular velocity"}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("running %d steps (dt=%.4f, %s, %s)...\n", cfg.Steps, cfg.Dt, cfg.Integrator, cfg.Controller)
	start := time.Now()
	result, runErr := exp.Run(cmd.Context())
	elapsed := time.Since(start)

	if result == nil {
		return runErr
	}

	runID, err := st.Save(exp.Metadata(preset, runErr), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("total reward: %.0f\n", result.TotalReward())
	printMetrics(result.Metrics)

	var simErr *dynamo.SimulationError
	if errors.As(runErr, &simErr) {
		return fmt.Errorf("run %s stopped early: %w", runID, simErr)
	}
	return runErr
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tDT\tINTEG\tCTRL\tREWARD\tSTATUS")

	for _, run := range runs {
		status := "ok"
		if run.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.4fs\t%s\t%s\t%.0f\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Dt,
			run.Integrator,
			run.Controller,
			run.TotalReward,
			status,
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(tr.States) == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}
	return meta, tr, nil
}

func column(states [][]float64, idx int) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s[idx]
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("controller: %s\n", meta.Controller)
	fmt.Printf("samples: %d\n\n", len(tr.States))

	for idx, caption := range stateNames {
		graph := asciigraph.Plot(column(tr.States, idx),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(tr.Controls) > 1 {
		graph := asciigraph.Plot(tr.Controls[:len(tr.Controls)-1],
			asciigraph.Height(6),
			asciigraph.Width(80),
			asciigraph.Caption("force"),
		)
		fmt.Println(graph)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	switch format {
	case "json":
		return st.Export(os.Stdout, args[0])
	case "csv":
		tr, err := st.LoadTrajectory(args[0])
		if err != nil {
			return err
		}
		return storage.WriteCSV(os.Stdout, tr)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if len(tr.States) < 4 {
		return fmt.Errorf("run %s is too short to analyze", meta.ID)
	}

	angle := column(tr.States, physics.Angle)
	ps := analysis.PowerSpectrum(angle)
	plotData := ps[:max(len(ps)/4, 2)]

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (pole angle)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq := analysis.DominantFrequency(angle, meta.Dt)
	fmt.Printf("resolution: %.4f hz\n", analysis.BinWidth(len(angle), meta.Dt))
	fmt.Printf("dominant frequency: %.4f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	// only the hanging equilibrium oscillates
	if len(meta.InitState) > physics.Angle && math.Cos(meta.InitState[physics.Angle]) < 0 {
		fmt.Printf("small-oscillation prediction: %.4f hz\n", physics.SmallOscillationFrequency(meta.Params))
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	pp := analysis.NewPhasePortrait(tr.States, xAxis, yAxis)
	if pp == nil {
		return fmt.Errorf("axes must be in [0, %d)", physics.StateDim)
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("x-axis: %s, y-axis: %s\n\n", stateNames[xAxis], stateNames[yAxis])
	fmt.Print(pp.ASCII(70, 20))
	return nil
}
