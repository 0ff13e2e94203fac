// Package control provides cart force policies for the cart-pendulum model.
//
// Controllers implement [dynamo.Controller]:
//
//   - [None]: zero force
//   - [Constant]: fixed force
//   - [PID]: PID on the pendulum angle
//   - [StateFeedback]: u = -K·(x - target), gains from [Place]
//
// # Usage
//
//	k, err := control.Place(physics.DefaultParams(), []complex128{-2, -2, -3, -3})
//	ctrl := control.NewStateFeedback(k, nil)
//	r := sim.NewRunner(sim.New(), ctrl, metrics.Upright)
package control
