// Package backend provides the built-in linear-algebra engines behind the
// qsim.Backend contract: dense (gonum), sparse (nonzero maps), accel
// (worker-parallel kernels), and jit (compiled gate kernels). Importing
// this package for side effects registers all four:
//
//	import _ "github.com/quantum-sim/quantum-sim/qsim/backend"
//
// All engines agree within 1e-10 absolute error on the same inputs.
package backend

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/quantum-sim/quantum-sim/qsim"
)

func init() {
	qsim.RegisterBackend("dense", func() qsim.Backend { return Dense{} })
}

// Dense stores matrices as gonum mat.CDense and runs explicit complex
// kernels over that storage. It is the canonical engine: every other
// engine converts to and from its representation.
type Dense struct{}

// Name implements qsim.Backend.
func (Dense) Name() string { return "dense" }

// Zeros implements qsim.Backend.
func (Dense) Zeros(r, c int) qsim.Matrix { return mat.NewCDense(r, c, nil) }

// Eye implements qsim.Backend.
func (Dense) Eye(n int) qsim.Matrix {
	out := mat.NewCDense(n, n, nil)
	for i := 0; i < n; i++ {
		out.Set(i, i, 1)
	}
	return out
}

// FromEntries implements qsim.Backend.
func (Dense) FromEntries(r, c int, entries []qsim.Entry) qsim.Matrix {
	out := mat.NewCDense(r, c, nil)
	for _, e := range entries {
		out.Set(e.Row, e.Col, e.V)
	}
	return out
}

// MatMul implements qsim.Backend. The i-k-j loop order keeps the inner
// loop contiguous in both b and the output row, and skipping zero a-entries
// makes expanded gate operators (mostly zeros) cheap.
func (Dense) MatMul(a, b qsim.Matrix) qsim.Matrix {
	ad, bd := toCDense(a), toCDense(b)
	ar, ac := ad.Dims()
	br, bc := bd.Dims()
	if ac != br {
		panic(fmt.Sprintf("backend: %dx%d matrix times %dx%d matrix", ar, ac, br, bc))
	}
	data := make([]complex128, ar*bc)
	for i := 0; i < ar; i++ {
		row := data[i*bc : (i+1)*bc]
		for k := 0; k < ac; k++ {
			av := ad.At(i, k)
			if av == 0 {
				continue
			}
			for j := 0; j < bc; j++ {
				row[j] += av * bd.At(k, j)
			}
		}
	}
	return mat.NewCDense(ar, bc, data)
}

// Kron implements qsim.Backend.
func (Dense) Kron(a, b qsim.Matrix) qsim.Matrix {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	out := mat.NewCDense(ar*br, ac*bc, nil)
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			av := a.At(i, j)
			if av == 0 {
				continue
			}
			for p := 0; p < br; p++ {
				for q := 0; q < bc; q++ {
					out.Set(i*br+p, j*bc+q, av*b.At(p, q))
				}
			}
		}
	}
	return out
}

// Dagger implements qsim.Backend.
func (Dense) Dagger(a qsim.Matrix) qsim.Matrix {
	r, c := a.Dims()
	out := mat.NewCDense(c, r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return out
}

// Add implements qsim.Backend.
func (Dense) Add(a, b qsim.Matrix) qsim.Matrix {
	r, c := mustSameDims(a, b)
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j)+b.At(i, j))
		}
	}
	return out
}

// Scale implements qsim.Backend.
func (Dense) Scale(f complex128, a qsim.Matrix) qsim.Matrix {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, f*a.At(i, j))
		}
	}
	return out
}

// MulVec implements qsim.Backend.
func (Dense) MulVec(a qsim.Matrix, v []complex128) []complex128 {
	r, c := a.Dims()
	if c != len(v) {
		panic(fmt.Sprintf("backend: %dx%d matrix times length-%d vector", r, c, len(v)))
	}
	out := make([]complex128, r)
	for i := 0; i < r; i++ {
		var sum complex128
		for j := 0; j < c; j++ {
			sum += a.At(i, j) * v[j]
		}
		out[i] = sum
	}
	return out
}

// ToDense implements qsim.Backend. The result is always a fresh copy.
func (Dense) ToDense(a qsim.Matrix) *mat.CDense { return copyCDense(a) }

// FromDense implements qsim.Backend.
func (Dense) FromDense(d *mat.CDense) qsim.Matrix { return copyCDense(d) }

// toCDense views a Matrix as *mat.CDense without copying when possible.
func toCDense(a qsim.Matrix) *mat.CDense {
	if d, ok := a.(*mat.CDense); ok {
		return d
	}
	return copyCDense(a)
}

func copyCDense(a qsim.Matrix) *mat.CDense {
	r, c := a.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, a.At(i, j))
		}
	}
	return out
}

func mustSameDims(a, b qsim.Matrix) (r, c int) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(fmt.Sprintf("backend: dimension mismatch %dx%d vs %dx%d", ar, ac, br, bc))
	}
	return ar, ac
}
