package control

import "github.com/san-kum/cartpend/internal/dynamo"

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{0}
}

// Constant applies the same force every step.
type Constant struct {
	U float64
}

func NewConstant(u float64) *Constant {
	return &Constant{U: u}
}

func (c *Constant) Compute(x dynamo.State, t float64) dynamo.Control {
	return dynamo.Control{c.U}
}
