package qsim

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Matrix is the minimal read-only view of a complex matrix shared by every
// backend engine. *mat.CDense satisfies it, as do the sparse and
// device-resident representations in qsim/backend.
type Matrix interface {
	Dims() (r, c int)
	At(i, j int) complex128
}

// Entry is one explicit nonzero of a matrix under construction. Backends
// build operators from entry lists so sparse engines never materialize the
// zeros outside the gate's support.
type Entry struct {
	Row, Col int
	V        complex128
}

// Trace returns the sum of diagonal entries of a square matrix.
func Trace(m Matrix) complex128 {
	n, _ := m.Dims()
	var t complex128
	for i := 0; i < n; i++ {
		t += m.At(i, i)
	}
	return t
}

// MaxHermitianDeviation returns the largest |m[i][j] - conj(m[j][i])| over
// all entry pairs, zero for an exactly Hermitian matrix.
func MaxHermitianDeviation(m Matrix) float64 {
	n, _ := m.Dims()
	var worst float64
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := cmplx.Abs(m.At(i, j) - cmplx.Conj(m.At(j, i)))
			if d > worst {
				worst = d
			}
		}
	}
	return worst
}

// MinEigenvalue returns the smallest eigenvalue of a Hermitian matrix.
// A Hermitian H = A + iB embeds into the real symmetric block matrix
// [[A, -B], [B, A]], whose spectrum is that of H with each eigenvalue
// doubled, so the symmetric eigensolver applies directly. Used by the
// positivity checks on density matrices.
func MinEigenvalue(m Matrix) float64 {
	n, _ := m.Dims()
	sym := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			a, b := real(v), imag(v)
			sym.SetSym(i, j, a)
			sym.SetSym(n+i, n+j, a)
			sym.SetSym(i, n+j, -b)
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return math.NaN()
	}
	values := eig.Values(nil)
	min := math.Inf(1)
	for _, v := range values {
		if v < min {
			min = v
		}
	}
	return min
}

// cloneCDense copies an arbitrary Matrix into a fresh *mat.CDense.
func cloneCDense(m Matrix) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, m.At(i, j))
		}
	}
	return out
}
