package backend

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"github.com/quantum-sim/quantum-sim/qsim"
)

func init() {
	qsim.RegisterBackend("sparse", func() qsim.Backend { return Sparse{} })
}

// Sparse stores only nonzero entries, keyed by row-major position. Memory
// stays proportional to the nonzero count, which for expanded gate
// operators is 2^(n+k) rather than the 4^n of the dense table. Semantics
// are bit-identical to the dense engine.
type Sparse struct{}

// csMatrix is the nonzero-map representation. Zero-valued entries are
// never stored.
type csMatrix struct {
	rows, cols int
	nz         map[uint64]complex128
}

func newCS(rows, cols int) *csMatrix {
	return &csMatrix{rows: rows, cols: cols, nz: make(map[uint64]complex128)}
}

func (m *csMatrix) key(i, j int) uint64 { return uint64(i)*uint64(m.cols) + uint64(j) }

func (m *csMatrix) set(i, j int, v complex128) {
	k := m.key(i, j)
	if v == 0 {
		delete(m.nz, k)
		return
	}
	m.nz[k] = v
}

// Dims implements qsim.Matrix.
func (m *csMatrix) Dims() (int, int) { return m.rows, m.cols }

// At implements qsim.Matrix.
func (m *csMatrix) At(i, j int) complex128 { return m.nz[m.key(i, j)] }

// each visits every nonzero entry.
func (m *csMatrix) each(f func(i, j int, v complex128)) {
	for k, v := range m.nz {
		f(int(k/uint64(m.cols)), int(k%uint64(m.cols)), v)
	}
}

// toCS views a Matrix as csMatrix, scanning foreign representations for
// their nonzeros.
func toCS(a qsim.Matrix) *csMatrix {
	if m, ok := a.(*csMatrix); ok {
		return m
	}
	r, c := a.Dims()
	out := newCS(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v != 0 {
				out.nz[out.key(i, j)] = v
			}
		}
	}
	return out
}

// Name implements qsim.Backend.
func (Sparse) Name() string { return "sparse" }

// Zeros implements qsim.Backend.
func (Sparse) Zeros(r, c int) qsim.Matrix { return newCS(r, c) }

// Eye implements qsim.Backend.
func (Sparse) Eye(n int) qsim.Matrix {
	out := newCS(n, n)
	for i := 0; i < n; i++ {
		out.nz[out.key(i, i)] = 1
	}
	return out
}

// FromEntries implements qsim.Backend.
func (Sparse) FromEntries(r, c int, entries []qsim.Entry) qsim.Matrix {
	out := newCS(r, c)
	for _, e := range entries {
		out.set(e.Row, e.Col, e.V)
	}
	return out
}

// MatMul implements qsim.Backend. Cost is proportional to the product of
// nonzero row occupancies, never to the full dimension squared.
func (Sparse) MatMul(a, b qsim.Matrix) qsim.Matrix {
	as, bs := toCS(a), toCS(b)
	// Index b's nonzeros by row so each a-entry joins only matching terms.
	type colVal struct {
		col int
		v   complex128
	}
	byRow := make(map[int][]colVal)
	bs.each(func(i, j int, v complex128) {
		byRow[i] = append(byRow[i], colVal{col: j, v: v})
	})
	out := newCS(as.rows, bs.cols)
	as.each(func(i, k int, av complex128) {
		for _, cv := range byRow[k] {
			key := out.key(i, cv.col)
			out.nz[key] += av * cv.v
		}
	})
	// Cancellation can leave exact zeros behind.
	for k, v := range out.nz {
		if v == 0 {
			delete(out.nz, k)
		}
	}
	return out
}

// Kron implements qsim.Backend.
func (Sparse) Kron(a, b qsim.Matrix) qsim.Matrix {
	as, bs := toCS(a), toCS(b)
	out := newCS(as.rows*bs.rows, as.cols*bs.cols)
	as.each(func(i, j int, av complex128) {
		bs.each(func(p, q int, bv complex128) {
			out.nz[out.key(i*bs.rows+p, j*bs.cols+q)] = av * bv
		})
	})
	return out
}

// Dagger implements qsim.Backend.
func (Sparse) Dagger(a qsim.Matrix) qsim.Matrix {
	as := toCS(a)
	out := newCS(as.cols, as.rows)
	as.each(func(i, j int, v complex128) {
		out.nz[out.key(j, i)] = cmplx.Conj(v)
	})
	return out
}

// Add implements qsim.Backend.
func (Sparse) Add(a, b qsim.Matrix) qsim.Matrix {
	mustSameDims(a, b)
	as, bs := toCS(a), toCS(b)
	out := newCS(as.rows, as.cols)
	as.each(func(i, j int, v complex128) {
		out.nz[out.key(i, j)] = v
	})
	bs.each(func(i, j int, v complex128) {
		out.set(i, j, out.At(i, j)+v)
	})
	return out
}

// Scale implements qsim.Backend.
func (Sparse) Scale(f complex128, a qsim.Matrix) qsim.Matrix {
	as := toCS(a)
	out := newCS(as.rows, as.cols)
	if f == 0 {
		return out
	}
	as.each(func(i, j int, v complex128) {
		out.nz[out.key(i, j)] = f * v
	})
	return out
}

// MulVec implements qsim.Backend.
func (Sparse) MulVec(a qsim.Matrix, v []complex128) []complex128 {
	as := toCS(a)
	if as.cols != len(v) {
		panic(fmt.Sprintf("backend: %dx%d matrix times length-%d vector", as.rows, as.cols, len(v)))
	}
	out := make([]complex128, as.rows)
	as.each(func(i, j int, av complex128) {
		out[i] += av * v[j]
	})
	return out
}

// ToDense implements qsim.Backend.
func (Sparse) ToDense(a qsim.Matrix) *mat.CDense {
	as := toCS(a)
	out := mat.NewCDense(as.rows, as.cols, nil)
	as.each(func(i, j int, v complex128) {
		out.Set(i, j, v)
	})
	return out
}

// FromDense implements qsim.Backend.
func (Sparse) FromDense(d *mat.CDense) qsim.Matrix { return toCS(d) }

// Sparsity implements qsim.SparsityDetector: the fraction of entries with
// magnitude at or below tol.
func (Sparse) Sparsity(a qsim.Matrix, tol float64) float64 {
	r, c := a.Dims()
	total := r * c
	if total == 0 {
		return 1
	}
	significant := 0
	if as, ok := a.(*csMatrix); ok {
		as.each(func(_, _ int, v complex128) {
			if cmplx.Abs(v) > tol {
				significant++
			}
		})
	} else {
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if cmplx.Abs(a.At(i, j)) > tol {
					significant++
				}
			}
		}
	}
	return 1 - float64(significant)/float64(total)
}
