package metrics

import (
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// EnergyDrift tracks the largest relative deviation of the mechanical
// energy from its first observed value. Only meaningful for unforced runs.
type EnergyDrift struct {
	name          string
	params        physics.Params
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(p physics.Params) *EnergyDrift {
	return &EnergyDrift{
		name:   "energy_drift",
		params: p,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(x dynamo.State, u dynamo.Control, t float64) {
	energy := physics.Energy(e.params, x)

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// Defaults is the metric set recorded for every stored run.
func Defaults(p physics.Params) []dynamo.Metric {
	return []dynamo.Metric{
		NewReward(),
		NewEnergyDrift(p),
		NewStability(TrackLimit, UprightThreshold),
		NewControlEffort(),
	}
}
