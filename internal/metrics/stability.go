package metrics

import (
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// TrackLimit is the default half-width of the track in metres.
const TrackLimit = 2.0

// Stability is the fraction of samples with the cart on the track and the
// pole near upright. The angle is wrapped, so a pole that swings over the
// top counts as upright again.
type Stability struct {
	track   float64
	angle   float64
	inside  int
	samples int
}

// NewStability bounds |x| by track and the wrapped |θ| by angle.
func NewStability(track, angle float64) *Stability {
	return &Stability{track: track, angle: angle}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, u dynamo.Control, t float64) {
	s.samples++
	theta := math.Remainder(x[physics.Angle], 2*math.Pi)
	if math.Abs(x[physics.Pos]) <= s.track && math.Abs(theta) <= s.angle {
		s.inside++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1
	}
	return float64(s.inside) / float64(s.samples)
}

func (s *Stability) Reset() {
	s.inside = 0
	s.samples = 0
}
