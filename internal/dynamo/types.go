package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	if s == nil {
		return nil
	}
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func (s State) Sub(other State) State {
	result := make(State, len(s))
	for i := range s {
		if i < len(other) {
			result[i] = s[i] - other[i]
		} else {
			result[i] = s[i]
		}
	}
	return result
}

type Control []float64

// Derivative returns dx/dt at (t, x). Implementations close over the
// action applied during the step.
type Derivative func(t float64, x State) (State, error)

// Integrator advances x0 from t0 to t1 and returns only the terminal state.
type Integrator interface {
	Integrate(f Derivative, x0 State, t0, t1 float64) (State, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Metric interface {
	Name() string
	Observe(x State, u Control, t float64)
	Value() float64
	Reset()
}

// ArrivalMetric is a Metric fed the state each step arrives at rather than
// the state the step starts from.
type ArrivalMetric interface {
	Metric
	ObservesArrival()
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	Rewards    []float64
	Metrics    map[string]float64
	StepsTaken int
}

// TotalReward sums the per-step rewards of the run.
func (r *Result) TotalReward() float64 {
	total := 0.0
	for _, v := range r.Rewards {
		total += v
	}
	return total
}
