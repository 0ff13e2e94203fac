// Package physics holds the equations of motion of the cart and inverted
// pendulum.
//
// The model is written in mass-matrix form with the velocities stacked into
// the unknown vector, so a single dense solve yields the full state
// derivative:
//
//	M(θ) · [ẋ, θ̇, ẍ, θ̈]ᵀ = F(θ, θ̇, u)
//
// State layout is (x, θ, ẋ, θ̇) with θ = 0 the pendulum pointing straight up.
//
//	p := physics.DefaultParams()
//	M, F := physics.Assemble(p, x, u)
//	dx, err := physics.Derivative(p, u)(0, x)
package physics
