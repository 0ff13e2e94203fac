package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/dynamo"
)

func harmonic(t float64, x dynamo.State) (dynamo.State, error) {
	return dynamo.State{x[1], -x[0]}, nil
}

func harmonicEnergy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestDormandPrince_Accuracy(t *testing.T) {
	integ := NewDormandPrince()
	x0 := dynamo.State{1.0, 0.0}

	x, err := integ.Integrate(harmonic, x0, 0, 1.0)
	if err != nil {
		t.Fatalf("integrate failed: %v", err)
	}

	if math.Abs(x[0]-math.Cos(1.0)) > 1e-7 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], math.Cos(1.0))
	}
	if math.Abs(x[1]+math.Sin(1.0)) > 1e-7 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], -math.Sin(1.0))
	}
}

func TestDormandPrince_EnergyConservation(t *testing.T) {
	integ := NewDormandPrince()
	x := dynamo.State{1.0, 0.0}
	initialEnergy := harmonicEnergy(x)

	dt := 0.01
	var err error
	for i := 0; i < 1000; i++ {
		x, err = integ.Integrate(harmonic, x, float64(i)*dt, float64(i+1)*dt)
		if err != nil {
			t.Fatalf("span %d failed: %v", i, err)
		}
	}

	drift := math.Abs(harmonicEnergy(x)-initialEnergy) / initialEnergy
	if drift > 1e-6 {
		t.Errorf("energy drift too high: %e", drift)
	}
}

func TestDormandPrince_ZeroSpan(t *testing.T) {
	integ := NewDormandPrince()
	x0 := dynamo.State{1, 2, 3, 4}

	x, err := integ.Integrate(harmonic, x0, 0.5, 0.5)
	if err != nil {
		t.Fatalf("zero span failed: %v", err)
	}
	x[0] = 99
	if x0[0] == 99 {
		t.Error("zero span result aliases the input")
	}
}

func TestDormandPrince_DoesNotMutateInput(t *testing.T) {
	integ := NewDormandPrince()
	x0 := dynamo.State{1.0, 0.0}

	if _, err := integ.Integrate(harmonic, x0, 0, 0.5); err != nil {
		t.Fatal(err)
	}
	if x0[0] != 1.0 || x0[1] != 0.0 {
		t.Errorf("input state mutated: %v", x0)
	}
}

func TestDormandPrince_NegativeSpan(t *testing.T) {
	if _, err := NewDormandPrince().Integrate(harmonic, dynamo.State{1, 0}, 1, 0); err == nil {
		t.Error("expected error for negative span")
	}
}

func TestDormandPrince_PropagatesDerivativeError(t *testing.T) {
	sentinel := errors.New("boom")
	calls := 0
	f := func(t float64, x dynamo.State) (dynamo.State, error) {
		calls++
		if calls > 3 {
			return nil, sentinel
		}
		return dynamo.State{x[1], -x[0]}, nil
	}

	_, err := NewDormandPrince().Integrate(f, dynamo.State{1, 0}, 0, 1)
	if !errors.Is(err, sentinel) {
		t.Errorf("expected derivative error to propagate, got %v", err)
	}
}

func TestDormandPrince_InvalidState(t *testing.T) {
	f := func(t float64, x dynamo.State) (dynamo.State, error) {
		return dynamo.State{math.NaN()}, nil
	}

	_, err := NewDormandPrince().Integrate(f, dynamo.State{1}, 0, 1)
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestDormandPrince_StepBudget(t *testing.T) {
	integ := NewDormandPrince()
	integ.MaxSteps = 20

	stiff := func(t float64, x dynamo.State) (dynamo.State, error) {
		return dynamo.State{-1e7 * (x[0] - math.Cos(t))}, nil
	}

	_, err := integ.Integrate(stiff, dynamo.State{0}, 0, 1)
	if !errors.Is(err, dynamo.ErrStepTooSmall) {
		t.Errorf("expected ErrStepTooSmall, got %v", err)
	}
}

func TestDormandPrince_VsRK4(t *testing.T) {
	rk4 := NewRK4(1)
	rk45 := NewDormandPrince()

	x4 := dynamo.State{1.0, 0.0}
	x45 := dynamo.State{1.0, 0.0}
	dt := 0.1
	var err error

	for i := 0; i < 100; i++ {
		t0, t1 := float64(i)*dt, float64(i+1)*dt
		if x4, err = rk4.Integrate(harmonic, x4, t0, t1); err != nil {
			t.Fatal(err)
		}
		if x45, err = rk45.Integrate(harmonic, x45, t0, t1); err != nil {
			t.Fatal(err)
		}
	}

	t.Logf("RK4 final: [%.6f, %.6f]", x4[0], x4[1])
	t.Logf("RK45 final: [%.6f, %.6f]", x45[0], x45[1])

	e4 := math.Abs(harmonicEnergy(x4) - 0.5)
	e45 := math.Abs(harmonicEnergy(x45) - 0.5)
	if e45 > e4 {
		t.Log("Warning: RK45 not more accurate than RK4 for this case")
	}
}
