// Package dynamo provides the core simulation primitives shared by the
// cart-pendulum model, its integrators and its consumers.
//
//   - [State]: vector representing system state
//   - [Derivative]: time-derivative of a state, closed over the current action
//   - [Integrator]: advances a state over a time span
//   - [Controller]: feedback policy producing the applied force
//   - [Metric] and [Observer]: passive consumers of a run
//
// # Example
//
//	m := sim.New()
//	x, err := m.Step(0.5)
//	if errors.Is(err, dynamo.ErrSingularSystem) {
//	    // degenerate parameters or angle
//	}
//
// # Thread Safety
//
// Nothing in this package synchronizes access. A model and its integrator
// belong to a single goroutine; run one model per goroutine for parallel work.
package dynamo
