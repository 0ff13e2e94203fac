package automation

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/experiment"
	"github.com/san-kum/cartpend/internal/metrics"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"github.com/san-kum/cartpend/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset (or the defaults) and overrides the
// fields it sets.
type ScenarioStep struct {
	Name       string                  `yaml:"name"`
	Preset     string                  `yaml:"preset"`
	Controller string                  `yaml:"controller"`
	Integrator string                  `yaml:"integrator"`
	Steps      int                     `yaml:"steps"`
	Dt         float64                 `yaml:"dt"`
	InitState  *config.InitStateConfig `yaml:"init_state"`
	Params     *physics.Params         `yaml:"params"`
	Control    *ControlOverrides       `yaml:"controller_params"`
}

type ControlOverrides struct {
	Force *float64 `yaml:"force"`
	Kp    *float64 `yaml:"kp"`
	Ki    *float64 `yaml:"ki"`
	Kd    *float64 `yaml:"kd"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &scenario, nil
}

// Config resolves the step into a full run configuration.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		if cfg = config.GetPreset(s.Preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	if s.Controller != "" {
		cfg.Controller = s.Controller
	}
	if s.Integrator != "" {
		cfg.Integrator = s.Integrator
	}
	if s.Steps > 0 {
		cfg.Steps = s.Steps
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.InitState != nil {
		cfg.InitState = *s.InitState
	}
	if s.Params != nil {
		cfg.Params = *s.Params
	}
	if c := s.Control; c != nil {
		set := func(dst *float64, v *float64) {
			if v != nil {
				*dst = *v
			}
		}
		set(&cfg.ControllerParams.Force, c.Force)
		set(&cfg.ControllerParams.Kp, c.Kp)
		set(&cfg.ControllerParams.Ki, c.Ki)
		set(&cfg.ControllerParams.Kd, c.Kd)
	}
	return cfg, nil
}

// StepResult is the outcome of one scenario step. RunID is empty when no
// store was given.
type StepResult struct {
	Name   string
	RunID  string
	Result *dynamo.Result
	Err    error
}

// RunScenario executes the steps in order. A failing simulation is recorded
// in its StepResult and the scenario continues; configuration and storage
// errors stop it.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step %d", i+1)
		}

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("%s: %w", name, err)
		}
		exp, err := experiment.New(cfg)
		if err != nil {
			return results, fmt.Errorf("%s setup: %w", name, err)
		}

		res, runErr := exp.Run(ctx)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}

		sr := StepResult{Name: name, Result: res, Err: runErr}
		if st != nil && res != nil {
			if sr.RunID, err = st.Save(exp.Metadata(step.Preset, runErr), res); err != nil {
				return results, fmt.Errorf("%s save: %w", name, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

type MonteCarloResult struct {
	TrialID    int
	InitState  dynamo.State
	FinalState dynamo.State
	Reward     float64
	Balanced   bool
}

// RunMonteCarlo perturbs every component of the base initial state
// uniformly within ±Perturbation and runs the trials in parallel. A trial is
// balanced when it ends upright.
func RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("trials must be positive, got %d", cfg.NumTrials)
	}
	if err := cfg.Base.Validate(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	base := cfg.Base.GetInitState()
	inits := make([]dynamo.State, cfg.NumTrials)
	for i := range inits {
		x := make(dynamo.State, len(base))
		for j, v := range base {
			x[j] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		inits[i] = x
	}

	factory := func(i int) (*sim.Runner, error) {
		c := *cfg.Base
		x := inits[i]
		c.InitState = config.InitStateConfig{Pos: x[0], Theta: x[1], Vel: x[2], Omega: x[3]}
		exp, err := experiment.New(&c)
		if err != nil {
			return nil, err
		}
		return exp.Runner(), nil
	}

	runs, err := sim.NewEnsemble(factory, cfg.NumTrials).Run(ctx, cfg.Base.Steps)
	if err != nil {
		return nil, err
	}

	results := make([]MonteCarloResult, len(runs))
	for i, res := range runs {
		final := res.States[len(res.States)-1]
		results[i] = MonteCarloResult{
			TrialID:    i,
			InitState:  inits[i],
			FinalState: final,
			Reward:     res.TotalReward(),
			Balanced:   metrics.Upright(final) == 1,
		}
	}
	return results, nil
}

// MonteCarloStats counts balanced and fallen trials.
func MonteCarloStats(results []MonteCarloResult) (balanced int, fallen int) {
	for _, r := range results {
		if r.Balanced {
			balanced++
		} else {
			fallen++
		}
	}
	return
}
