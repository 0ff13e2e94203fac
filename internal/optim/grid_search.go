package optim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/san-kum/cartpend/internal/experiment"
	"github.com/san-kum/cartpend/internal/sim"
)

// Setter writes one swept value into a config.
type Setter func(cfg *config.Config, v float64)

var setters = map[string]Setter{
	"kp":          func(c *config.Config, v float64) { c.ControllerParams.Kp = v },
	"ki":          func(c *config.Config, v float64) { c.ControllerParams.Ki = v },
	"kd":          func(c *config.Config, v float64) { c.ControllerParams.Kd = v },
	"force":       func(c *config.Config, v float64) { c.ControllerParams.Force = v },
	"theta":       func(c *config.Config, v float64) { c.InitState.Theta = v },
	"omega":       func(c *config.Config, v float64) { c.InitState.Omega = v },
	"cart_mass":   func(c *config.Config, v float64) { c.Params.CartMass = v },
	"pole_mass":   func(c *config.Config, v float64) { c.Params.PoleMass = v },
	"pole_length": func(c *config.Config, v float64) { c.Params.PoleLength = v },
}

func Parameters() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Axis struct {
	Name   string
	Values []float64
}

// Point is one grid cell and the metric it scored.
type Point struct {
	Values map[string]float64
	Score  float64
}

type GridSearch struct {
	axes     []Axis
	metric   string
	maximize bool
}

func NewGridSearch(axes []Axis, metric string, maximize bool) (*GridSearch, error) {
	for _, a := range axes {
		if _, ok := setters[a.Name]; !ok {
			return nil, fmt.Errorf("unknown sweep parameter: %s", a.Name)
		}
		if len(a.Values) == 0 {
			return nil, fmt.Errorf("sweep parameter %s has no values", a.Name)
		}
	}
	return &GridSearch{axes: axes, metric: metric, maximize: maximize}, nil
}

// Grid enumerates every combination of axis values.
func (g *GridSearch) Grid() []map[string]float64 {
	var out []map[string]float64
	g.enumerate(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.axes) {
		*out = append(*out, current)
		return
	}
	axis := g.axes[depth]
	for _, val := range axis.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[axis.Name] = val
		g.enumerate(depth+1, next, out)
	}
}

// Search runs one simulation per grid cell in parallel from base and
// returns every scored point plus the best one.
func (g *GridSearch) Search(ctx context.Context, base *config.Config) ([]Point, Point, error) {
	grid := g.Grid()

	factory := func(i int) (*sim.Runner, error) {
		cfg := *base
		for name, v := range grid[i] {
			setters[name](&cfg, v)
		}
		exp, err := experiment.New(&cfg)
		if err != nil {
			return nil, fmt.Errorf("grid point %v: %w", grid[i], err)
		}
		return exp.Runner(), nil
	}

	results, err := sim.NewEnsemble(factory, len(grid)).Run(ctx, base.Steps)
	if err != nil {
		return nil, Point{}, err
	}

	points := make([]Point, len(grid))
	best := Point{Score: math.Inf(1)}
	if g.maximize {
		best.Score = math.Inf(-1)
	}
	for i, res := range results {
		score, ok := res.Metrics[g.metric]
		if !ok {
			return nil, Point{}, fmt.Errorf("unknown metric: %s", g.metric)
		}
		points[i] = Point{Values: grid[i], Score: score}
		if (g.maximize && score > best.Score) || (!g.maximize && score < best.Score) {
			best = points[i]
		}
	}
	return points, best, nil
}
