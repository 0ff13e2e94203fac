package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/cartpend/internal/config"
	"github.com/san-kum/cartpend/internal/control"
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/metrics"
	"github.com/san-kum/cartpend/internal/sim"
	"github.com/san-kum/cartpend/internal/storage"
)

// Experiment is a configured model, controller and runner.
type Experiment struct {
	cfg    config.Config
	runner *sim.Runner
}

// New validates cfg and wires the simulation it describes.
func New(cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	ctrl, err := control.New(cfg.Controller, cfg.Params, cfg.ControllerParams)
	if err != nil {
		return nil, fmt.Errorf("controller %s: %w", cfg.Controller, err)
	}

	opts := []sim.Option{
		sim.WithParams(cfg.Params),
		sim.WithTimeStep(cfg.Dt),
		sim.WithIntegrator(integ),
		sim.WithInitialState(cfg.GetInitState()),
	}
	var model *sim.Model
	if cfg.ValidateParams {
		if model, err = sim.NewValidated(opts...); err != nil {
			return nil, err
		}
	} else {
		model = sim.New(opts...)
	}

	runner := sim.NewRunner(model, ctrl, metrics.Upright)
	for _, m := range metrics.Defaults(cfg.Params) {
		runner.AddMetric(m)
	}

	return &Experiment{cfg: *cfg, runner: runner}, nil
}

func (e *Experiment) Config() config.Config { return e.cfg }

// Runner returns the underlying runner for adding observers.
func (e *Experiment) Runner() *sim.Runner { return e.runner }

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	return e.runner.Run(ctx, e.cfg.Steps)
}

// Metadata describes a finished run for the run store. A non-nil runErr is
// recorded so partial runs can be told apart.
func (e *Experiment) Metadata(preset string, runErr error) storage.RunMetadata {
	meta := storage.RunMetadata{
		Preset:     preset,
		Params:     e.cfg.Params,
		Dt:         e.cfg.Dt,
		Integrator: e.cfg.Integrator,
		Controller: e.cfg.Controller,
		InitState:  e.cfg.GetInitState(),
	}
	if runErr != nil {
		meta.Error = runErr.Error()
	}
	return meta
}
