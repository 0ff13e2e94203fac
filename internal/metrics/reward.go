package metrics

import (
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// UprightThreshold is the largest |θ| in radians still counted as upright.
const UprightThreshold = 0.5

// Upright scores 1 while the pendulum is within UprightThreshold of vertical.
func Upright(x dynamo.State) float64 {
	if math.Abs(x[physics.Angle]) < UprightThreshold {
		return 1
	}
	return 0
}

// Reward accumulates Upright over the states each step arrives at, matching
// the per-step rewards recorded in a run.
type Reward struct {
	name  string
	total float64
}

func NewReward() *Reward {
	return &Reward{name: "reward"}
}

func (r *Reward) Name() string { return r.name }

func (r *Reward) Observe(x dynamo.State, u dynamo.Control, t float64) {
	r.total += Upright(x)
}

func (r *Reward) ObservesArrival() {}

func (r *Reward) Value() float64 { return r.total }

func (r *Reward) Reset() { r.total = 0 }
