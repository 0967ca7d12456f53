package qsim

import (
	"fmt"
	"math/bits"
)

// ExpandOperator embeds a k-qubit operator acting on the given target
// qubits into the full 2^numQubits-dimensional space, acting as identity
// outside the targets. Gate bit k corresponds to targets[k].
//
// For every pair of full-space indices (i, j) whose non-target bits agree,
// the entry is the gate entry at the gate-space indices obtained by
// extracting the target bits of i and j in target order; every other entry
// is zero. Construction goes through the backend's FromEntries so sparse
// engines only materialize the 2^n·2^k nonzeros rather than the 4^n dense
// table.
//
// Fast path: a gate that already spans all qubits in natural order is
// returned unchanged.
func ExpandOperator(b Backend, gate Matrix, targets []int, numQubits int) (Matrix, error) {
	gr, gc := gate.Dims()
	if gr != gc {
		return nil, fmt.Errorf("expand: gate matrix is %dx%d, want square: %w", gr, gc, ErrDimensionMismatch)
	}
	k := len(targets)
	if k == 0 {
		return nil, fmt.Errorf("expand: no target qubits: %w", ErrInvalidParameter)
	}
	if gr != 1<<k {
		return nil, fmt.Errorf("expand: %dx%d gate cannot act on %d qubits: %w", gr, gc, k, ErrDimensionMismatch)
	}
	if k > numQubits {
		return nil, fmt.Errorf("expand: gate spans %d qubits but system has %d: %w", k, numQubits, ErrDimensionMismatch)
	}
	var targetMask int
	naturalOrder := true
	for pos, q := range targets {
		if q < 0 || q >= numQubits {
			return nil, fmt.Errorf("expand: target qubit %d out of range [0,%d): %w", q, numQubits, ErrDimensionMismatch)
		}
		if targetMask&(1<<q) != 0 {
			return nil, fmt.Errorf("expand: duplicate target qubit %d: %w", q, ErrInvalidParameter)
		}
		targetMask |= 1 << q
		if q != pos {
			naturalOrder = false
		}
	}
	if k == numQubits && naturalOrder {
		return gate, nil
	}

	dim := 1 << numQubits
	entries := make([]Entry, 0, dim*(1<<k))
	for i := 0; i < dim; i++ {
		gi := gateIndex(i, targets)
		rest := i &^ targetMask
		for gj := 0; gj < 1<<k; gj++ {
			v := gate.At(gi, gj)
			if v == 0 {
				continue
			}
			entries = append(entries, Entry{Row: i, Col: rest | spreadBits(gj, targets), V: v})
		}
	}
	return b.FromEntries(dim, dim, entries), nil
}

// gateIndex extracts the target-qubit bits of a full-space index, in
// target order, as a k-bit gate-space index.
func gateIndex(i int, targets []int) int {
	g := 0
	for pos, q := range targets {
		g |= ((i >> q) & 1) << pos
	}
	return g
}

// spreadBits places the k bits of a gate-space index at the target-qubit
// positions of a full-space index.
func spreadBits(g int, targets []int) int {
	i := 0
	for pos, q := range targets {
		i |= ((g >> pos) & 1) << q
	}
	return i
}

// gateQubits returns the qubit count a square matrix spans, or an error if
// its size is not a power of two.
func gateQubits(m Matrix) (int, error) {
	r, c := m.Dims()
	if r != c || r == 0 || r&(r-1) != 0 {
		return 0, fmt.Errorf("matrix is %dx%d, want a square power-of-two size: %w", r, c, ErrDimensionMismatch)
	}
	return bits.TrailingZeros(uint(r)), nil
}
