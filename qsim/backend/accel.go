package backend

import (
	"fmt"
	"math/cmplx"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/quantum-sim/quantum-sim/qsim"
)

func init() {
	qsim.RegisterBackend("accel", func() qsim.Backend { return newAccel() })
}

// Accel keeps matrices in flat row-major buffers and runs the multiply and
// matrix-vector kernels across worker goroutines, one row block per
// worker. It is the accelerator-class engine: the buffer layout is what a
// device offload would consume, and with no device attached the kernels
// execute on all CPUs.
type Accel struct {
	workers int
}

func newAccel() *Accel {
	return &Accel{workers: runtime.GOMAXPROCS(0)}
}

// buf is a flat row-major complex buffer.
type buf struct {
	rows, cols int
	data       []complex128
}

func newBuf(rows, cols int) *buf {
	return &buf{rows: rows, cols: cols, data: make([]complex128, rows*cols)}
}

// Dims implements qsim.Matrix.
func (b *buf) Dims() (int, int) { return b.rows, b.cols }

// At implements qsim.Matrix.
func (b *buf) At(i, j int) complex128 { return b.data[i*b.cols+j] }

func toBuf(a qsim.Matrix) *buf {
	if b, ok := a.(*buf); ok {
		return b
	}
	r, c := a.Dims()
	out := newBuf(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.data[i*c+j] = a.At(i, j)
		}
	}
	return out
}

// parallelRows splits [0,rows) into one contiguous block per worker.
func (a *Accel) parallelRows(rows int, f func(lo, hi int)) {
	workers := a.workers
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		f(0, rows)
		return
	}
	var wg sync.WaitGroup
	chunk := (rows + workers - 1) / workers
	for lo := 0; lo < rows; lo += chunk {
		hi := lo + chunk
		if hi > rows {
			hi = rows
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			f(lo, hi)
		}(lo, hi)
	}
	wg.Wait()
}

// Name implements qsim.Backend.
func (a *Accel) Name() string { return "accel" }

// Zeros implements qsim.Backend.
func (a *Accel) Zeros(r, c int) qsim.Matrix { return newBuf(r, c) }

// Eye implements qsim.Backend.
func (a *Accel) Eye(n int) qsim.Matrix {
	out := newBuf(n, n)
	for i := 0; i < n; i++ {
		out.data[i*n+i] = 1
	}
	return out
}

// FromEntries implements qsim.Backend.
func (a *Accel) FromEntries(r, c int, entries []qsim.Entry) qsim.Matrix {
	out := newBuf(r, c)
	for _, e := range entries {
		out.data[e.Row*c+e.Col] = e.V
	}
	return out
}

// MatMul implements qsim.Backend.
func (a *Accel) MatMul(x, y qsim.Matrix) qsim.Matrix {
	xb, yb := toBuf(x), toBuf(y)
	out := newBuf(xb.rows, yb.cols)
	a.parallelRows(xb.rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			xrow := xb.data[i*xb.cols : (i+1)*xb.cols]
			orow := out.data[i*out.cols : (i+1)*out.cols]
			for k, xv := range xrow {
				if xv == 0 {
					continue
				}
				yrow := yb.data[k*yb.cols : (k+1)*yb.cols]
				for j, yv := range yrow {
					orow[j] += xv * yv
				}
			}
		}
	})
	return out
}

// Kron implements qsim.Backend.
func (a *Accel) Kron(x, y qsim.Matrix) qsim.Matrix {
	xb, yb := toBuf(x), toBuf(y)
	out := newBuf(xb.rows*yb.rows, xb.cols*yb.cols)
	a.parallelRows(xb.rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < xb.cols; j++ {
				xv := xb.data[i*xb.cols+j]
				if xv == 0 {
					continue
				}
				for p := 0; p < yb.rows; p++ {
					dst := (i*yb.rows+p)*out.cols + j*yb.cols
					src := yb.data[p*yb.cols : (p+1)*yb.cols]
					for q, yv := range src {
						out.data[dst+q] = xv * yv
					}
				}
			}
		}
	})
	return out
}

// Dagger implements qsim.Backend.
func (a *Accel) Dagger(x qsim.Matrix) qsim.Matrix {
	xb := toBuf(x)
	out := newBuf(xb.cols, xb.rows)
	a.parallelRows(xb.rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for j := 0; j < xb.cols; j++ {
				out.data[j*out.cols+i] = cmplx.Conj(xb.data[i*xb.cols+j])
			}
		}
	})
	return out
}

// Add implements qsim.Backend.
func (a *Accel) Add(x, y qsim.Matrix) qsim.Matrix {
	mustSameDims(x, y)
	xb, yb := toBuf(x), toBuf(y)
	out := newBuf(xb.rows, xb.cols)
	a.parallelRows(xb.rows, func(lo, hi int) {
		for i := lo * xb.cols; i < hi*xb.cols; i++ {
			out.data[i] = xb.data[i] + yb.data[i]
		}
	})
	return out
}

// Scale implements qsim.Backend.
func (a *Accel) Scale(f complex128, x qsim.Matrix) qsim.Matrix {
	xb := toBuf(x)
	out := newBuf(xb.rows, xb.cols)
	for i, v := range xb.data {
		out.data[i] = f * v
	}
	return out
}

// MulVec implements qsim.Backend.
func (a *Accel) MulVec(x qsim.Matrix, v []complex128) []complex128 {
	xb := toBuf(x)
	if xb.cols != len(v) {
		panic(fmt.Sprintf("backend: %dx%d matrix times length-%d vector", xb.rows, xb.cols, len(v)))
	}
	out := make([]complex128, xb.rows)
	a.parallelRows(xb.rows, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			row := xb.data[i*xb.cols : (i+1)*xb.cols]
			var sum complex128
			for j, mv := range row {
				sum += mv * v[j]
			}
			out[i] = sum
		}
	})
	return out
}

// ToDense implements qsim.Backend.
func (a *Accel) ToDense(x qsim.Matrix) *mat.CDense {
	xb := toBuf(x)
	data := append([]complex128(nil), xb.data...)
	return mat.NewCDense(xb.rows, xb.cols, data)
}

// FromDense implements qsim.Backend.
func (a *Accel) FromDense(d *mat.CDense) qsim.Matrix { return toBuf(d) }

// Sparsity implements qsim.SparsityDetector.
func (a *Accel) Sparsity(x qsim.Matrix, tol float64) float64 {
	xb := toBuf(x)
	if len(xb.data) == 0 {
		return 1
	}
	significant := 0
	for _, v := range xb.data {
		if cmplx.Abs(v) > tol {
			significant++
		}
	}
	return 1 - float64(significant)/float64(len(xb.data))
}
