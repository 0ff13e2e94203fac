package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/san-kum/cartpend/internal/analysis"
	"github.com/san-kum/cartpend/internal/automation"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/export"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/storage"
	"github.com/san-kum/cartpend/internal/viz"
	"github.com/spf13/cobra"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s (%d steps)\n", sc.Name, len(sc.Steps))
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	results, err := automation.RunScenario(cmd.Context(), sc, st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tSTEPS\tREWARD\tSTATUS")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\t%s\n", r.Name, r.RunID, r.Result.StepsTaken, r.Result.TotalReward(), status)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	balanced, fallen := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d (seed %d, perturbation ±%g)\n", len(results), seed, perturbation)
	fmt.Printf("balanced: %d\n", balanced)
	fmt.Printf("fallen: %d\n", fallen)
	fmt.Printf("success rate: %.1f%%\n", 100*float64(balanced)/float64(len(results)))
	return nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	var svg string
	if trace {
		points := make([]analysis.Point, len(tr.States))
		for i, x := range tr.States {
			px, py := physics.Tip(meta.Params, x)
			points[i] = analysis.Point{X: px, Y: py}
		}
		svg = export.TrajectoryToSVG(points, 800, 400, "#00ccff")
	} else {
		idx := snapStep
		if idx < 0 {
			idx += len(tr.States)
		}
		if idx < 0 || idx >= len(tr.States) {
			return fmt.Errorf("step %d out of range [0, %d)", snapStep, len(tr.States))
		}

		r := viz.NewRenderer(meta.Params)
		if err := r.Open(); err != nil {
			return err
		}
		defer r.Close()
		if err := r.Draw(dynamo.State(tr.States[idx])); err != nil {
			return err
		}
		svg = export.CanvasToSVG(r.Canvas(), 4)
	}

	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	_, err = io.WriteString(out, svg)
	return err
}
