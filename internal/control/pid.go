package control

import (
	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
)

// PID acts on the pendulum angle error θ - Target. A positive tilt calls
// for a positive push, so the gains are positive for a stabilizing loop.
type PID struct {
	Kp       float64
	Ki       float64
	Kd       float64
	Target   float64
	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

func (p *PID) Compute(x dynamo.State, t float64) dynamo.Control {
	if len(x) != physics.StateDim {
		return dynamo.Control{0}
	}

	err := x[physics.Angle] - p.Target

	if p.first {
		p.prevErr = err
		p.prevT = t
		p.first = false
		return dynamo.Control{p.Kp*err + p.Kd*x[physics.AngularVel]}
	}

	dt := t - p.prevT
	if dt > 0 {
		p.integral += err * dt
		derivative := (err - p.prevErr) / dt

		u := p.Kp*err + p.Ki*p.integral + p.Kd*derivative

		p.prevErr = err
		p.prevT = t

		return dynamo.Control{u}
	}
	return dynamo.Control{p.Kp * err}
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
