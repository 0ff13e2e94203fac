package control

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/san-kum/cartpend/internal/dynamo"
	"github.com/san-kum/cartpend/internal/physics"
	"gonum.org/v1/gonum/mat"
)

var ErrUncontrollable = errors.New("control: system is not controllable")

// DefaultPoles are the closed-loop poles used when none are configured.
var DefaultPoles = []complex128{-2, -2, -3, -3}

// StateFeedback applies u = -K·(x - target).
type StateFeedback struct {
	K      []float64
	Target dynamo.State
}

func NewStateFeedback(k []float64, target dynamo.State) *StateFeedback {
	if target == nil {
		target = make(dynamo.State, len(k))
	}
	return &StateFeedback{K: k, Target: target}
}

func (s *StateFeedback) Compute(x dynamo.State, t float64) dynamo.Control {
	u := 0.0
	for j := range x {
		if j >= len(s.K) {
			break
		}
		target := 0.0
		if j < len(s.Target) {
			target = s.Target[j]
		}
		u -= s.K[j] * (x[j] - target)
	}
	return dynamo.Control{u}
}

// Place computes gains K placing the poles of A - B·K for the upright
// linearization of p, using Ackermann's formula. Complex poles must come in
// conjugate pairs.
func Place(p physics.Params, poles []complex128) ([]float64, error) {
	a, b := physics.Linearize(p)
	n, _ := a.Dims()
	if len(poles) != n {
		return nil, fmt.Errorf("%w: need %d poles, got %d", dynamo.ErrDimensionMismatch, n, len(poles))
	}

	coeffs, err := charPoly(poles)
	if err != nil {
		return nil, err
	}

	// controllability matrix [B AB A²B A³B]
	ctrb := mat.NewDense(n, n, nil)
	col := mat.VecDenseCopyOf(b.ColView(0))
	for j := 0; j < n; j++ {
		ctrb.SetCol(j, col.RawVector().Data)
		var next mat.VecDense
		next.MulVec(a, col)
		col = &next
	}

	// φ(A) = Aⁿ + c[n-1]Aⁿ⁻¹ + ... + c[0]I, by Horner's scheme
	phi := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		phi.Set(i, i, 1)
	}
	for k := n - 1; k >= 0; k-- {
		phi.Mul(phi, a)
		for i := 0; i < n; i++ {
			phi.Set(i, i, phi.At(i, i)+coeffs[k])
		}
	}

	// K = e_nᵀ · C⁻¹ · φ(A); solve Cᵀy = e_n instead of inverting C
	en := mat.NewVecDense(n, nil)
	en.SetVec(n-1, 1)
	var y mat.VecDense
	if err := y.SolveVec(ctrb.T(), en); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUncontrollable, err)
	}

	var k mat.VecDense
	k.MulVec(phi.T(), &y)
	return mat.Col(nil, 0, &k), nil
}

// charPoly returns c[0..n-1] with Π(s - pᵢ) = sⁿ + c[n-1]sⁿ⁻¹ + ... + c[0].
func charPoly(poles []complex128) ([]float64, error) {
	poly := []complex128{1}
	for _, p := range poles {
		next := make([]complex128, len(poly)+1)
		for i, c := range poly {
			next[i+1] += c
			next[i] -= c * p
		}
		poly = next
	}

	n := len(poles)
	coeffs := make([]float64, n)
	for i := 0; i < n; i++ {
		if math.Abs(imag(poly[i])) > 1e-9*math.Max(1, cmplx.Abs(poly[i])) {
			return nil, fmt.Errorf("control: poles %v are not closed under conjugation", poles)
		}
		coeffs[i] = real(poly[i])
	}
	return coeffs, nil
}
