package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Indices into the state vector.
const (
	Pos = iota
	Angle
	Vel
	AngularVel
)

const (
	StateDim   = 4
	ControlDim = 1
)

// Params are the physical constants of the cart and pendulum. They are
// fixed for the lifetime of a model.
type Params struct {
	CartMass   float64 `yaml:"cart_mass" toml:"cart_mass" json:"cart_mass"`
	PoleMass   float64 `yaml:"pole_mass" toml:"pole_mass" json:"pole_mass"`
	PoleLength float64 `yaml:"pole_length" toml:"pole_length" json:"pole_length"`
	Gravity    float64 `yaml:"gravity" toml:"gravity" json:"gravity"`
}

func DefaultParams() Params {
	return Params{
		CartMass:   1.0,
		PoleMass:   1.0,
		PoleLength: 1.0,
		Gravity:    9.81,
	}
}

// Validate reports non-physical parameters. Models do not call it unless
// validation is requested.
func (p Params) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"cart_mass", p.CartMass},
		{"pole_mass", p.PoleMass},
		{"pole_length", p.PoleLength},
		{"gravity", p.Gravity},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s is not finite", dynamo.ErrInvalidParameters, f.name)
		}
		if f.value <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %g", dynamo.ErrInvalidParameters, f.name, f.value)
		}
	}
	return nil
}

// Assemble builds the mass matrix M and forcing vector F for state x and
// applied cart force u. Both are freshly allocated.
func Assemble(p Params, x dynamo.State, u float64) (*mat.Dense, *mat.VecDense) {
	theta := x[Angle]
	xDot := x[Vel]
	thetaDot := x[AngularVel]

	sint, cost := math.Sincos(theta)
	ml := p.PoleMass * p.PoleLength

	m := mat.NewDense(4, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, p.CartMass + p.PoleMass, ml * cost,
		0, 0, cost, p.PoleLength,
	})
	f := mat.NewVecDense(4, []float64{
		xDot,
		thetaDot,
		ml*thetaDot*thetaDot*sint + u,
		p.Gravity * sint,
	})
	return m, f
}

// Derivative returns the state derivative for a constant force u. Any
// failure of the linear solve is reported as dynamo.ErrSingularSystem.
func Derivative(p Params, u float64) dynamo.Derivative {
	return func(t float64, x dynamo.State) (dynamo.State, error) {
		if len(x) != StateDim {
			return nil, fmt.Errorf("%w: got state of length %d", dynamo.ErrDimensionMismatch, len(x))
		}
		m, f := Assemble(p, x, u)

		var qdot mat.VecDense
		if err := qdot.SolveVec(m, f); err != nil {
			return nil, fmt.Errorf("%w: %v", dynamo.ErrSingularSystem, err)
		}
		return dynamo.State(mat.Col(nil, 0, &qdot)), nil
	}
}

// Linearize returns (A, B) of ẋ = A·x + B·u about the upright equilibrium.
func Linearize(p Params) (*mat.Dense, *mat.Dense) {
	mc, mp, l, g := p.CartMass, p.PoleMass, p.PoleLength, p.Gravity

	a := mat.NewDense(4, 4, []float64{
		0, 0, 1, 0,
		0, 0, 0, 1,
		0, -mp * g / mc, 0, 0,
		0, (mc + mp) * g / (mc * l), 0, 0,
	})
	b := mat.NewDense(4, 1, []float64{
		0,
		0,
		1 / mc,
		-1 / (mc * l),
	})
	return a, b
}

// Tip returns the world position of the pendulum tip.
func Tip(p Params, x dynamo.State) (float64, float64) {
	sint, cost := math.Sincos(x[Angle])
	return x[Pos] + p.PoleLength*sint, p.PoleLength * cost
}

// SmallOscillationFrequency is the natural frequency in Hz of small swings
// about the hanging equilibrium.
func SmallOscillationFrequency(p Params) float64 {
	omega2 := (p.CartMass + p.PoleMass) * p.Gravity / (p.CartMass * p.PoleLength)
	return math.Sqrt(omega2) / (2 * math.Pi)
}

// Energy is the total mechanical energy of the cart and a point mass at the
// pendulum tip. It is conserved while no force is applied.
func Energy(p Params, x dynamo.State) float64 {
	cost := math.Cos(x[Angle])
	v, w := x[Vel], x[AngularVel]
	mp, l := p.PoleMass, p.PoleLength

	ke := 0.5*(p.CartMass+mp)*v*v + mp*l*v*w*cost + 0.5*mp*l*l*w*w
	pe := mp * p.Gravity * l * cost
	return ke + pe
}
