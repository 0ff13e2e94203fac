package integrators

import (
	"fmt"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// RK4 is the classical fixed-step Runge-Kutta method. A span is split into
// Substeps equal steps.
type RK4 struct {
	Substeps int

	k1, k2, k3, k4 dynamo.State
	scratch        dynamo.State
}

func NewRK4(substeps int) *RK4 {
	if substeps < 1 {
		substeps = 1
	}
	return &RK4{Substeps: substeps}
}

func (r *RK4) ensureScratch(n int) {
	if len(r.k1) != n {
		r.k1 = make(dynamo.State, n)
		r.k2 = make(dynamo.State, n)
		r.k3 = make(dynamo.State, n)
		r.k4 = make(dynamo.State, n)
		r.scratch = make(dynamo.State, n)
	}
}

func (r *RK4) Integrate(f dynamo.Derivative, x0 dynamo.State, t0, t1 float64) (dynamo.State, error) {
	if t1 < t0 {
		return nil, fmt.Errorf("integrators: invalid span [%g, %g]", t0, t1)
	}
	x := x0.Clone()
	if t1 == t0 {
		return x, nil
	}

	dt := (t1 - t0) / float64(r.Substeps)
	t := t0
	for i := 0; i < r.Substeps; i++ {
		next, err := r.step(f, x, t, dt)
		if err != nil {
			return nil, fmt.Errorf("integrate at t=%g: %w", t, err)
		}
		if !next.IsValid() {
			return nil, fmt.Errorf("%w: at t=%g", dynamo.ErrInvalidState, t+dt)
		}
		x = next
		t += dt
	}
	return x, nil
}

func (r *RK4) step(f dynamo.Derivative, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	r.ensureScratch(n)

	k1, err := f(t, x)
	if err != nil {
		return nil, err
	}
	copy(r.k1, k1)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k1[i]
	}
	k2, err := f(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k2, k2)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*0.5*r.k2[i]
	}
	k3, err := f(t+dt*0.5, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k3, k3)

	for i := 0; i < n; i++ {
		r.scratch[i] = x[i] + dt*r.k3[i]
	}
	k4, err := f(t+dt, r.scratch)
	if err != nil {
		return nil, err
	}
	copy(r.k4, k4)

	result := make(dynamo.State, n)
	dt6 := dt / 6.0
	for i := 0; i < n; i++ {
		result[i] = x[i] + dt6*(r.k1[i]+2*r.k2[i]+2*r.k3[i]+r.k4[i])
	}

	return result, nil
}
