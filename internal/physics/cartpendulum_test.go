package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/cartpend/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

func TestAssembleEntries(t *testing.T) {
	p := Params{CartMass: 2.0, PoleMass: 0.5, PoleLength: 0.8, Gravity: 9.81}
	x := dynamo.State{0.4, 0.3, 1.5, 2.0}
	u := 0.7

	m, f := Assemble(p, x, u)

	cost := math.Cos(0.3)
	sint := math.Sin(0.3)
	wantM := [][]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 2.5, 0.5 * 0.8 * cost},
		{0, 0, cost, 0.8},
	}
	for i := range wantM {
		for j := range wantM[i] {
			if got := m.At(i, j); math.Abs(got-wantM[i][j]) > 1e-15 {
				t.Errorf("M[%d][%d] = %v, want %v", i, j, got, wantM[i][j])
			}
		}
	}

	wantF := []float64{1.5, 2.0, 0.5*0.8*4.0*sint + 0.7, 9.81 * sint}
	for i, want := range wantF {
		if got := f.AtVec(i); math.Abs(got-want) > 1e-15 {
			t.Errorf("F[%d] = %v, want %v", i, got, want)
		}
	}
}

func TestAssembleFreshAllocation(t *testing.T) {
	p := DefaultParams()
	x := dynamo.State{0, 0.2, 0, 0}

	m1, f1 := Assemble(p, x, 1)
	m1.Set(2, 2, 100)
	f1.SetVec(2, 100)

	m2, f2 := Assemble(p, x, 1)
	if m2.At(2, 2) != 2 {
		t.Errorf("mass matrix shared between calls: got %v", m2.At(2, 2))
	}
	if f2.AtVec(2) == 100 {
		t.Error("forcing vector shared between calls")
	}
}

func TestDerivativeEquilibrium(t *testing.T) {
	f := Derivative(DefaultParams(), 0)

	dx, err := f(0, dynamo.State{0, 0, 0, 0})
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}
	for i, v := range dx {
		if math.Abs(v) > 1e-12 {
			t.Errorf("dx[%d] = %v, expected zero at equilibrium", i, v)
		}
	}
}

func TestDerivativeStructuralIdentity(t *testing.T) {
	p := DefaultParams()
	states := []dynamo.State{
		{0, 0, 0, 0},
		{1.0, 0.3, -2.0, 0.5},
		{-0.5, math.Pi - 0.1, 0.25, -3.0},
		{3.0, 2.0, 10.0, 7.5},
	}
	actions := []float64{-10, 0, 0.5, 25}

	for _, x := range states {
		for _, u := range actions {
			dx, err := Derivative(p, u)(0, x)
			if err != nil {
				t.Fatalf("derivative failed for x=%v u=%v: %v", x, u, err)
			}
			if math.Abs(dx[Pos]-x[Vel]) > 1e-12 || math.Abs(dx[Angle]-x[AngularVel]) > 1e-12 {
				t.Errorf("x=%v u=%v: positional rows %v, %v do not match velocities %v, %v",
					x, u, dx[Pos], dx[Angle], x[Vel], x[AngularVel])
			}
		}
	}
}

func TestDerivativeClosedForm(t *testing.T) {
	p := DefaultParams()
	x := dynamo.State{0, 0.4, 0.2, -1.1}
	u := 1.3

	dx, err := Derivative(p, u)(0, x)
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}

	sint, cost := math.Sincos(x[Angle])
	f3 := x[AngularVel]*x[AngularVel]*sint + u
	f4 := p.Gravity * sint
	det := 2 - cost*cost
	wantXAcc := (f3 - cost*f4) / det
	wantThetaAcc := (2*f4 - cost*f3) / det

	if math.Abs(dx[Vel]-wantXAcc) > 1e-12 {
		t.Errorf("cart acceleration = %v, want %v", dx[Vel], wantXAcc)
	}
	if math.Abs(dx[AngularVel]-wantThetaAcc) > 1e-12 {
		t.Errorf("angular acceleration = %v, want %v", dx[AngularVel], wantThetaAcc)
	}
}

func TestDerivativeSatisfiesEquations(t *testing.T) {
	p := Params{CartMass: 1.5, PoleMass: 0.3, PoleLength: 0.6, Gravity: 9.81}
	x := dynamo.State{0.1, -0.8, 0.4, 2.2}
	u := -3.0

	dx, err := Derivative(p, u)(0, x)
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}

	m, f := Assemble(p, x, u)
	var lhs mat.VecDense
	lhs.MulVec(m, mat.NewVecDense(4, dx))
	for i := 0; i < 4; i++ {
		if math.Abs(lhs.AtVec(i)-f.AtVec(i)) > 1e-12 {
			t.Errorf("row %d: M·dx = %v, F = %v", i, lhs.AtVec(i), f.AtVec(i))
		}
	}
}

func TestDerivativeGravitySign(t *testing.T) {
	dx, err := Derivative(DefaultParams(), 0)(0, dynamo.State{0, 0.01, 0, 0})
	if err != nil {
		t.Fatalf("derivative failed: %v", err)
	}
	if dx[AngularVel] <= 0 {
		t.Errorf("expected positive angular acceleration for positive tilt, got %v", dx[AngularVel])
	}
}

func TestDerivativeSingular(t *testing.T) {
	p := DefaultParams()
	p.PoleLength = 0

	for _, x := range []dynamo.State{{0, 0, 0, 0}, {1, 0.5, -1, 2}, {0, math.Pi / 2, 0, 0}} {
		_, err := Derivative(p, 1.0)(0, x)
		if !errors.Is(err, dynamo.ErrSingularSystem) {
			t.Errorf("state %v: expected ErrSingularSystem, got %v", x, err)
		}
	}
}

func TestDerivativeDimensionMismatch(t *testing.T) {
	_, err := Derivative(DefaultParams(), 0)(0, dynamo.State{0, 0})
	if !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *Params)
		wantErr bool
	}{
		{"defaults", func(p *Params) {}, false},
		{"zero cart mass", func(p *Params) { p.CartMass = 0 }, true},
		{"negative pole mass", func(p *Params) { p.PoleMass = -1 }, true},
		{"zero length", func(p *Params) { p.PoleLength = 0 }, true},
		{"zero gravity", func(p *Params) { p.Gravity = 0 }, true},
		{"NaN length", func(p *Params) { p.PoleLength = math.NaN() }, true},
		{"Inf mass", func(p *Params) { p.CartMass = math.Inf(1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr && !errors.Is(err, dynamo.ErrInvalidParameters) {
				t.Errorf("expected ErrInvalidParameters, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLinearizeMatchesDerivative(t *testing.T) {
	p := Params{CartMass: 1.2, PoleMass: 0.4, PoleLength: 0.9, Gravity: 9.81}
	a, b := Linearize(p)

	const h = 1e-6
	for j := 0; j < 4; j++ {
		xp := dynamo.State{0, 0, 0, 0}
		xm := dynamo.State{0, 0, 0, 0}
		xp[j] = h
		xm[j] = -h
		fp, err := Derivative(p, 0)(0, xp)
		if err != nil {
			t.Fatal(err)
		}
		fm, err := Derivative(p, 0)(0, xm)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 4; i++ {
			fd := (fp[i] - fm[i]) / (2 * h)
			if math.Abs(fd-a.At(i, j)) > 1e-5 {
				t.Errorf("A[%d][%d] = %v, finite difference %v", i, j, a.At(i, j), fd)
			}
		}
	}

	fp, _ := Derivative(p, h)(0, dynamo.State{0, 0, 0, 0})
	fm, _ := Derivative(p, -h)(0, dynamo.State{0, 0, 0, 0})
	for i := 0; i < 4; i++ {
		fd := (fp[i] - fm[i]) / (2 * h)
		if math.Abs(fd-b.At(i, 0)) > 1e-5 {
			t.Errorf("B[%d] = %v, finite difference %v", i, b.At(i, 0), fd)
		}
	}
}

func TestTip(t *testing.T) {
	p := DefaultParams()
	p.PoleLength = 0.5

	px, py := Tip(p, dynamo.State{1.0, math.Pi / 2, 0, 0})
	if math.Abs(px-1.5) > 1e-12 || math.Abs(py) > 1e-12 {
		t.Errorf("Tip = (%v, %v), want (1.5, 0)", px, py)
	}

	px, py = Tip(p, dynamo.State{0, 0, 0, 0})
	if math.Abs(px) > 1e-12 || math.Abs(py-0.5) > 1e-12 {
		t.Errorf("upright Tip = (%v, %v), want (0, 0.5)", px, py)
	}
}

func TestSmallOscillationFrequency(t *testing.T) {
	got := SmallOscillationFrequency(DefaultParams())
	want := math.Sqrt(19.62) / (2 * math.Pi)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("frequency = %v, want %v", got, want)
	}
}

func TestEnergy(t *testing.T) {
	p := DefaultParams()

	if got := Energy(p, dynamo.State{0, 0, 0, 0}); math.Abs(got-9.81) > 1e-12 {
		t.Errorf("upright energy = %v, want 9.81", got)
	}
	if got := Energy(p, dynamo.State{0, math.Pi, 0, 0}); math.Abs(got+9.81) > 1e-12 {
		t.Errorf("hanging energy = %v, want -9.81", got)
	}

	got := Energy(p, dynamo.State{0, 0, 2, 0})
	if math.Abs(got-(0.5*2*4+9.81)) > 1e-12 {
		t.Errorf("translating energy = %v, want %v", got, 0.5*2*4+9.81)
	}
}
