package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// RewardFunc scores a state after a step.
type RewardFunc func(x dynamo.State) float64

// Runner drives a model under a controller and records the trajectory.
type Runner struct {
	model      *Model
	controller dynamo.Controller
	reward     RewardFunc
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

// NewRunner wires a runner. A nil controller applies zero force and a nil
// reward leaves Result.Rewards empty.
func NewRunner(m *Model, controller dynamo.Controller, reward RewardFunc) *Runner {
	return &Runner{
		model:      m,
		controller: controller,
		reward:     reward,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

func (r *Runner) Model() *Model { return r.model }

// Run takes steps from the model's current state. A cancelled context or a
// failed step ends the run early; the partial result is returned with the
// error.
func (r *Runner) Run(ctx context.Context, steps int) (*dynamo.Result, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	result := &dynamo.Result{
		States:   make([]dynamo.State, 0, steps+1),
		Controls: make([]dynamo.Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Metrics:  make(map[string]float64),
	}
	if r.reward != nil {
		result.Rewards = make([]float64, 0, steps)
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	x := r.model.State()
	result.States = append(result.States, x)
	result.Times = append(result.Times, r.model.Time())

	var runErr error
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()
		default:
		}
		if runErr != nil {
			break
		}

		t := r.model.Time()
		u := r.compute(x, t)

		for _, m := range r.metrics {
			if _, ok := m.(dynamo.ArrivalMetric); !ok {
				m.Observe(x, u, t)
			}
		}
		for _, obs := range r.observers {
			obs.OnStep(x, u, t)
		}

		next, err := r.model.Step(u[0])
		if err != nil {
			runErr = &dynamo.SimulationError{Step: i, Time: t, State: x, Wrapped: err}
			break
		}

		x = next
		result.StepsTaken++
		result.States = append(result.States, x)
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, r.model.Time())
		if r.reward != nil {
			result.Rewards = append(result.Rewards, r.reward(x))
		}
		for _, m := range r.metrics {
			if _, ok := m.(dynamo.ArrivalMetric); ok {
				m.Observe(x, u, r.model.Time())
			}
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, runErr
}

func (r *Runner) compute(x dynamo.State, t float64) dynamo.Control {
	if r.controller == nil {
		return dynamo.Control{0}
	}
	u := r.controller.Compute(x, t)
	if len(u) == 0 {
		return dynamo.Control{0}
	}
	return u
}
