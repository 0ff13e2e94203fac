package control

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/metrics"
	"github.com/san-kum/cartpend/internal/physics"
	"github.com/san-kum/cartpend/internal/sim"
	"gonum.org/v1/gonum/mat"
)

func TestNoneAndConstant(t *testing.T) {
	x := dynamo.State{1, 0.3, 0, 0}

	if u := NewNone().Compute(x, 0); len(u) != 1 || u[0] != 0 {
		t.Errorf("None returned %v", u)
	}
	if u := NewConstant(2.5).Compute(x, 0); len(u) != 1 || u[0] != 2.5 {
		t.Errorf("Constant returned %v", u)
	}
}

func TestPlaceDefaultParams(t *testing.T) {
	k, err := Place(physics.DefaultParams(), []complex128{-2, -2, -3, -3})
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	// closed loop s⁴ + (k3-k4)s³ + (k1-k2-2g)s² - g·k3·s - g·k1
	want := []float64{-36 / 9.81, -36/9.81 - 19.62 - 37, -60 / 9.81, -60/9.81 - 10}
	for i := range want {
		if math.Abs(k[i]-want[i]) > 1e-6 {
			t.Errorf("K[%d] = %.6f, want %.6f", i, k[i], want[i])
		}
	}
}

func TestPlaceClosedLoopPoles(t *testing.T) {
	p := physics.Params{CartMass: 2.0, PoleMass: 0.5, PoleLength: 0.7, Gravity: 9.81}
	poles := []complex128{-1, -2, -3, -4}

	k, err := Place(p, poles)
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	a, b := physics.Linearize(p)
	var bk mat.Dense
	bk.Mul(b, mat.NewDense(1, 4, k))
	var cl mat.Dense
	cl.Sub(a, &bk)

	var eig mat.Eigen
	if ok := eig.Factorize(&cl, mat.EigenNone); !ok {
		t.Fatal("eigen decomposition failed")
	}
	vals := eig.Values(nil)
	got := make([]float64, len(vals))
	for i, v := range vals {
		if math.Abs(imag(v)) > 1e-6 {
			t.Errorf("unexpected complex pole %v", v)
		}
		got[i] = real(v)
	}
	sort.Float64s(got)

	want := []float64{-4, -3, -2, -1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("pole %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPlaceComplexPoles(t *testing.T) {
	if _, err := Place(physics.DefaultParams(), []complex128{complex(-2, 1), complex(-2, -1), -3, -4}); err != nil {
		t.Errorf("conjugate pair rejected: %v", err)
	}
	if _, err := Place(physics.DefaultParams(), []complex128{complex(-2, 1), -2, -3, -4}); err == nil {
		t.Error("expected error for unpaired complex pole")
	}
}

func TestPlaceWrongPoleCount(t *testing.T) {
	_, err := Place(physics.DefaultParams(), []complex128{-1, -2})
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStateFeedbackBalances(t *testing.T) {
	p := physics.DefaultParams()
	k, err := Place(p, DefaultPoles)
	if err != nil {
		t.Fatalf("place failed: %v", err)
	}

	m := sim.New(sim.WithParams(p), sim.WithInitialState(dynamo.State{0, 0.1, 0, 0}))
	r := sim.NewRunner(m, NewStateFeedback(k, nil), metrics.Upright)

	result, err := r.Run(context.Background(), 500)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.TotalReward() != 500 {
		t.Errorf("pendulum fell: reward %v of 500", result.TotalReward())
	}
	for i, v := range m.State() {
		if math.Abs(v) > 0.01 {
			t.Errorf("state[%d] = %v, expected regulation to zero", i, v)
		}
	}
}

func TestStateFeedbackTarget(t *testing.T) {
	s := NewStateFeedback([]float64{1, 2, 3, 4}, dynamo.State{1, 0, 0, 0})
	u := s.Compute(dynamo.State{1, 1, 1, 1}, 0)
	if u[0] != -9 {
		t.Errorf("expected -9, got %v", u[0])
	}
}

func TestPIDStabilizesAngle(t *testing.T) {
	m := sim.New(sim.WithInitialState(dynamo.State{0, 0.1, 0, 0}))
	c := DefaultParams()
	r := sim.NewRunner(m, NewPID(c.Kp, c.Ki, c.Kd, 0), metrics.Upright)

	result, err := r.Run(context.Background(), 300)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if result.TotalReward() != 300 {
		t.Errorf("pendulum fell: reward %v of 300", result.TotalReward())
	}
	if theta := m.State()[physics.Angle]; math.Abs(theta) > 0.02 {
		t.Errorf("angle not regulated: %v", theta)
	}
}

func TestPIDReset(t *testing.T) {
	pid := NewPID(10, 1, 1, 0)
	pid.Compute(dynamo.State{0, 0.2, 0, 0}, 0)
	pid.Compute(dynamo.State{0, 0.2, 0, 0}, 0.01)

	pid.Reset()
	u := pid.Compute(dynamo.State{0, 0.1, 0, 0}, 0)
	if math.Abs(u[0]-1.0) > 1e-12 {
		t.Errorf("expected proportional-only output after reset, got %v", u[0])
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		c, err := New(name, physics.DefaultParams(), DefaultParams())
		if err != nil {
			t.Fatalf("New(%q) failed: %v", name, err)
		}
		if u := c.Compute(dynamo.State{0, 0, 0, 0}, 0); len(u) != 1 {
			t.Errorf("%s: expected scalar control, got %v", name, u)
		}
	}

	if _, err := New("nonexistent", physics.DefaultParams(), DefaultParams()); err == nil {
		t.Error("expected error for unknown controller")
	}

	_, err := New("feedback", physics.DefaultParams(), Params{Poles: []float64{-1}})
	if err == nil {
		t.Error("expected error for wrong pole count")
	}
}
