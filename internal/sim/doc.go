// Package sim owns the cart-pendulum [Model] and the loops that drive it.
//
// A Model holds the only long-lived simulation state: the current
// (x, θ, ẋ, θ̇) vector. [Model.Step] integrates the equations of motion over
// one fixed interval and commits the result only when integration succeeds.
// [Runner] drives a model under a controller for a number of steps and
// records a [dynamo.Result]; [Ensemble] runs independent runners in parallel.
//
// Models are not safe for concurrent use.
package sim
