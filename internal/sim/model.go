package sim

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/integrators"
	"github.com/san-kum/cartpend/internal/physics"
)

const DefaultDt = 0.01

// Model is the cart-pendulum dynamics model.
type Model struct {
	params     physics.Params
	dt         float64
	integrator dynamo.Integrator
	state      dynamo.State
	t          float64
}

type Option func(*Model)

func WithParams(p physics.Params) Option {
	return func(m *Model) { m.params = p }
}

func WithTimeStep(dt float64) Option {
	return func(m *Model) { m.dt = dt }
}

func WithIntegrator(integ dynamo.Integrator) Option {
	return func(m *Model) { m.integrator = integ }
}

// WithInitialState sets the state the model starts from. The slice is copied.
func WithInitialState(x0 dynamo.State) Option {
	return func(m *Model) { m.state = initialState(x0) }
}

// New builds a model. Parameters are accepted as given; use NewValidated to
// reject non-physical values.
func New(opts ...Option) *Model {
	m := &Model{
		params:     physics.DefaultParams(),
		dt:         DefaultDt,
		integrator: integrators.NewDormandPrince(),
		state:      initialState(nil),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewValidated is New followed by a parameter and time step check.
func NewValidated(opts ...Option) (*Model, error) {
	m := New(opts...)
	if err := m.params.Validate(); err != nil {
		return nil, err
	}
	if !(m.dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidParameters, m.dt)
	}
	return m, nil
}

func initialState(x0 dynamo.State) dynamo.State {
	if x0 == nil {
		return make(dynamo.State, physics.StateDim)
	}
	return x0.Clone()
}

// Reset replaces the current state with a copy of x0, or the zero state
// when x0 is nil, and returns it.
func (m *Model) Reset(x0 dynamo.State) dynamo.State {
	m.state = initialState(x0)
	m.t = 0
	return m.state.Clone()
}

// Transition integrates x under constant force u for one time step without
// touching the model state.
func (m *Model) Transition(x dynamo.State, u float64) (dynamo.State, error) {
	return m.integrator.Integrate(physics.Derivative(m.params, u), x, 0, m.dt)
}

// Step advances the model by one time step under force u. On error the
// state is left unchanged.
func (m *Model) Step(u float64) (dynamo.State, error) {
	next, err := m.Transition(m.state, u)
	if err != nil {
		return nil, err
	}
	m.state = next
	m.t += m.dt
	return m.state.Clone(), nil
}

func (m *Model) State() dynamo.State    { return m.state.Clone() }
func (m *Model) Params() physics.Params { return m.params }
func (m *Model) Dt() float64            { return m.dt }

// Time is the simulated time since construction or the last Reset.
func (m *Model) Time() float64 { return m.t }

func (m *Model) StateDim() int   { return physics.StateDim }
func (m *Model) ControlDim() int { return physics.ControlDim }
