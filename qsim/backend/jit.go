package backend

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"sync"

	"github.com/quantum-sim/quantum-sim/qsim"
)

func init() {
	qsim.RegisterBackend("jit", func() qsim.Backend { return newJIT() })
}

// JIT compiles (gate, targets, system size) triples into closures that
// apply the gate with bit arithmetic directly on the amplitude slice, then
// caches them by content fingerprint. Repeated applications of the same
// gate skip both operator expansion and recompilation. Matrix-level
// operations delegate to the dense engine, so the jit engine is
// interchangeable with the others on the full Backend contract.
type JIT struct {
	Dense

	mu      sync.Mutex
	kernels map[string]func([]complex128)
}

func newJIT() *JIT {
	return &JIT{kernels: make(map[string]func([]complex128))}
}

// Name implements qsim.Backend.
func (j *JIT) Name() string { return "jit" }

// CompileGate implements qsim.GateCompiler. The returned kernel is
// bit-identical in semantics to multiplying by the expanded operator.
func (j *JIT) CompileGate(gate qsim.Matrix, targets []int, numQubits int) (func(psi []complex128), error) {
	key := kernelKey(gate, targets, numQubits)
	j.mu.Lock()
	kernel, ok := j.kernels[key]
	j.mu.Unlock()
	if ok {
		return kernel, nil
	}

	kernel, err := compileKernel(gate, targets, numQubits)
	if err != nil {
		return nil, err
	}
	j.mu.Lock()
	j.kernels[key] = kernel
	j.mu.Unlock()
	return kernel, nil
}

// compileKernel precomputes the index tables for a k-qubit gate: offsets
// locate each gate-space basis state inside the full index, and the outer
// loop enumerates every assignment of the non-target qubits.
func compileKernel(gate qsim.Matrix, targets []int, numQubits int) (func(psi []complex128), error) {
	gr, gc := gate.Dims()
	k := len(targets)
	if gr != gc || gr != 1<<k {
		return nil, fmt.Errorf("jit: %dx%d gate cannot act on %d qubits: %w", gr, gc, k, qsim.ErrDimensionMismatch)
	}
	if k > numQubits {
		return nil, fmt.Errorf("jit: gate spans %d qubits but system has %d: %w", k, numQubits, qsim.ErrDimensionMismatch)
	}
	targetMask := 0
	for _, q := range targets {
		if q < 0 || q >= numQubits {
			return nil, fmt.Errorf("jit: target qubit %d out of range [0,%d): %w", q, numQubits, qsim.ErrDimensionMismatch)
		}
		if targetMask&(1<<q) != 0 {
			return nil, fmt.Errorf("jit: duplicate target qubit %d: %w", q, qsim.ErrInvalidParameter)
		}
		targetMask |= 1 << q
	}

	gateDim := 1 << k
	// offsets[g]: the full-space bits of gate-space index g.
	offsets := make([]int, gateDim)
	for g := 0; g < gateDim; g++ {
		for pos, q := range targets {
			offsets[g] |= ((g >> pos) & 1) << q
		}
	}
	// Flatten the gate matrix row-major for the inner loop.
	flat := make([]complex128, gateDim*gateDim)
	for i := 0; i < gateDim; i++ {
		for c := 0; c < gateDim; c++ {
			flat[i*gateDim+c] = gate.At(i, c)
		}
	}
	// nonTargets: bit positions the outer loop enumerates.
	nonTargets := make([]int, 0, numQubits-k)
	for q := 0; q < numQubits; q++ {
		if targetMask&(1<<q) == 0 {
			nonTargets = append(nonTargets, q)
		}
	}
	outer := 1 << len(nonTargets)
	dim := 1 << numQubits

	return func(psi []complex128) {
		if len(psi) != dim {
			panic(fmt.Sprintf("jit: kernel for dim %d applied to length-%d vector", dim, len(psi)))
		}
		scratch := make([]complex128, gateDim)
		for m := 0; m < outer; m++ {
			base := 0
			for pos, q := range nonTargets {
				base |= ((m >> pos) & 1) << q
			}
			for g := 0; g < gateDim; g++ {
				scratch[g] = psi[base|offsets[g]]
			}
			for g := 0; g < gateDim; g++ {
				var sum complex128
				row := flat[g*gateDim : (g+1)*gateDim]
				for h, amp := range scratch {
					sum += row[h] * amp
				}
				psi[base|offsets[g]] = sum
			}
		}
	}, nil
}

// kernelKey fingerprints the gate content, target order, and system size.
func kernelKey(gate qsim.Matrix, targets []int, numQubits int) string {
	h := fnv.New64a()
	var word [8]byte
	put := func(f float64) {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(f))
		h.Write(word[:])
	}
	r, c := gate.Dims()
	for i := 0; i < r; i++ {
		for col := 0; col < c; col++ {
			v := gate.At(i, col)
			put(real(v))
			put(imag(v))
		}
	}
	return fmt.Sprintf("%d|%v|%x", numQubits, targets, h.Sum64())
}
