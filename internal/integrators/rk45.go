package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/cartpend/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// DefaultTolerance matches the default relative and absolute tolerance of
// LSODA-style solvers (sqrt of machine epsilon).
const DefaultTolerance = 1.49012e-8

// DormandPrince integrates over a span with an embedded 5(4) pair and
// error-controlled step size. Only the terminal state is returned.
type DormandPrince struct {
	RelTol   float64
	AbsTol   float64
	MinStep  float64
	MaxSteps int

	safety   float64
	minScale float64
	maxScale float64
}

func NewDormandPrince() *DormandPrince {
	return &DormandPrince{
		RelTol:   DefaultTolerance,
		AbsTol:   DefaultTolerance,
		MinStep:  1e-12,
		MaxSteps: 10000,
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *DormandPrince) Integrate(f dynamo.Derivative, x0 dynamo.State, t0, t1 float64) (dynamo.State, error) {
	span := t1 - t0
	if span < 0 || math.IsNaN(span) {
		return nil, fmt.Errorf("integrators: invalid span [%g, %g]", t0, t1)
	}
	if span == 0 {
		return x0.Clone(), nil
	}

	x := x0.Clone()
	t := t0
	h := span

	k1, err := f(t, x)
	if err != nil {
		return nil, fmt.Errorf("integrate at t=%g: %w", t, err)
	}

	for steps := 0; t < t1; steps++ {
		if steps >= r.MaxSteps {
			return nil, fmt.Errorf("%w: exceeded %d steps at t=%g", dynamo.ErrStepTooSmall, r.MaxSteps, t)
		}

		last := t+h >= t1
		if last {
			h = t1 - t
		}

		xNew, k7, errNorm, err := r.step(f, x, k1, t, h)
		if err != nil {
			return nil, fmt.Errorf("integrate at t=%g: %w", t, err)
		}
		if math.IsNaN(errNorm) || math.IsInf(errNorm, 0) {
			return nil, fmt.Errorf("%w: error estimate diverged at t=%g", dynamo.ErrInvalidState, t)
		}

		accepted := errNorm <= 1
		if accepted {
			if !xNew.IsValid() {
				return nil, fmt.Errorf("%w: at t=%g", dynamo.ErrInvalidState, t+h)
			}
			x = xNew
			k1 = k7
			if last {
				t = t1
				break
			}
			t += h
		}

		h *= r.scale(errNorm, accepted)
		if h < r.MinStep {
			return nil, fmt.Errorf("%w: h=%g at t=%g", dynamo.ErrStepTooSmall, h, t)
		}
	}

	return x, nil
}

func (r *DormandPrince) scale(errNorm float64, accepted bool) float64 {
	if errNorm == 0 {
		return r.maxScale
	}
	s := r.safety * math.Pow(errNorm, -0.2)
	s = math.Max(r.minScale, math.Min(r.maxScale, s))
	if !accepted {
		s = math.Min(s, 1)
	}
	return s
}

// step takes one trial step of size h. k1 is the derivative at (t, x); the
// returned k7 is the derivative at the new point and is reused as the next
// k1 when the step is accepted.
func (r *DormandPrince) step(f dynamo.Derivative, x, k1 dynamo.State, t, h float64) (dynamo.State, dynamo.State, float64, error) {
	n := len(x)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + h*b21*k1[i]
	}
	k2, err := f(t+a2*h, x2)
	if err != nil {
		return nil, nil, 0, err
	}

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + h*(b31*k1[i]+b32*k2[i])
	}
	k3, err := f(t+a3*h, x3)
	if err != nil {
		return nil, nil, 0, err
	}

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + h*(b41*k1[i]+b42*k2[i]+b43*k3[i])
	}
	k4, err := f(t+a4*h, x4)
	if err != nil {
		return nil, nil, 0, err
	}

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + h*(b51*k1[i]+b52*k2[i]+b53*k3[i]+b54*k4[i])
	}
	k5, err := f(t+a5*h, x5)
	if err != nil {
		return nil, nil, 0, err
	}

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + h*(b61*k1[i]+b62*k2[i]+b63*k3[i]+b64*k4[i]+b65*k5[i])
	}
	k6, err := f(t+h, x6)
	if err != nil {
		return nil, nil, 0, err
	}

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + h*(c1*k1[i]+c3*k3[i]+c4*k4[i]+c5*k5[i]+c6*k6[i])
	}

	k7, err := f(t+h, xNew)
	if err != nil {
		return nil, nil, 0, err
	}

	// RMS of the scaled local error estimate
	sum := 0.0
	for i := 0; i < n; i++ {
		errEst := h * (dc1*k1[i] + dc3*k3[i] + dc4*k4[i] + dc5*k5[i] + dc6*k6[i] + dc7*k7[i])
		sc := r.AbsTol + r.RelTol*math.Max(math.Abs(x[i]), math.Abs(xNew[i]))
		sum += (errEst / sc) * (errEst / sc)
	}
	errNorm := 0.0
	if n > 0 {
		errNorm = math.Sqrt(sum / float64(n))
	}

	return xNew, k7, errNorm, nil
}
