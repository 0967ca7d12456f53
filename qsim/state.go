package qsim

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// traceTol bounds acceptable trace/norm drift after an operation;
	// larger drift is renormalized defensively and logged.
	traceTol = 1e-9
	// probFloor excludes vanishing probabilities from entropy sums.
	probFloor = 1e-10
	// purityTol bounds how far below 1 tr(ρ²) may fall for a density
	// matrix to still convert to a state vector.
	purityTol = 1e-9
)

// QuantumState is an n-qubit system holding exactly one of a pure state
// vector or a density matrix over the 2^n-dimensional space. The
// representation kind is fixed at construction and never silently
// switches; ToDensityMatrix and ToStateVector are the explicit
// conversions. Every matrix operation routes through the Backend attached
// at construction.
//
// A QuantumState owns its buffer exclusively and is not safe for
// concurrent mutation; give each shot worker its own Clone.
type QuantumState struct {
	numQubits int
	dim       int

	// Exactly one of vector/rho is non-nil.
	vector []complex128
	rho    Matrix

	backend Backend
	rng     *rand.Rand
}

func newState(numQubits int, b Backend) (*QuantumState, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("state needs at least one qubit, got %d: %w", numQubits, ErrInvalidParameter)
	}
	if b == nil {
		var err error
		if b, err = AutoBackend(numQubits); err != nil {
			return nil, err
		}
	}
	return &QuantumState{numQubits: numQubits, dim: 1 << numQubits, backend: b}, nil
}

// NewStateVector returns the pure all-zero basis state |0...0⟩.
// A nil backend selects one automatically for the system size.
func NewStateVector(numQubits int, b Backend) (*QuantumState, error) {
	s, err := newState(numQubits, b)
	if err != nil {
		return nil, err
	}
	s.vector = make([]complex128, s.dim)
	s.vector[0] = 1
	return s, nil
}

// NewStateVectorFrom returns a pure state with the given amplitudes,
// validated for dimension match and then normalized.
func NewStateVectorFrom(numQubits int, amplitudes []complex128, b Backend) (*QuantumState, error) {
	s, err := newState(numQubits, b)
	if err != nil {
		return nil, err
	}
	if len(amplitudes) != s.dim {
		return nil, fmt.Errorf("state vector length %d does not match 2^%d = %d: %w",
			len(amplitudes), numQubits, s.dim, ErrDimensionMismatch)
	}
	s.vector = append([]complex128(nil), amplitudes...)
	if norm2(s.vector) == 0 {
		return nil, fmt.Errorf("state vector has zero norm: %w", ErrInvalidParameter)
	}
	s.normalizeVector()
	return s, nil
}

// NewDensityMatrix returns the mixed-representation all-zero basis state
// |0...0⟩⟨0...0|.
func NewDensityMatrix(numQubits int, b Backend) (*QuantumState, error) {
	s, err := newState(numQubits, b)
	if err != nil {
		return nil, err
	}
	s.rho = s.backend.FromEntries(s.dim, s.dim, []Entry{{Row: 0, Col: 0, V: 1}})
	return s, nil
}

// NewDensityMatrixFrom returns a mixed-representation state initialized to
// the outer product |ψ⟩⟨ψ| of the given (normalized) amplitudes.
func NewDensityMatrixFrom(numQubits int, amplitudes []complex128, b Backend) (*QuantumState, error) {
	pure, err := NewStateVectorFrom(numQubits, amplitudes, b)
	if err != nil {
		return nil, err
	}
	return pure.ToDensityMatrix()
}

// NumQubits returns the system size.
func (s *QuantumState) NumQubits() int { return s.numQubits }

// Dim returns 2^NumQubits.
func (s *QuantumState) Dim() int { return s.dim }

// IsPure reports whether the state uses the vector representation.
func (s *QuantumState) IsPure() bool { return s.vector != nil }

// Backend returns the engine attached at construction.
func (s *QuantumState) Backend() Backend { return s.backend }

// Seed attaches a deterministic measurement RNG derived from the key's
// measurement subsystem.
func (s *QuantumState) Seed(seed int64) {
	s.rng = NewPartitionedRNG(NewSimulationKey(seed)).ForSubsystem(SubsystemMeasure)
}

// SetRand attaches an explicit RNG for measurement draws. Concurrent shot
// workers must each attach their own stream.
func (s *QuantumState) SetRand(rng *rand.Rand) { s.rng = rng }

// Clone deep-copies the state. The backend is shared (it is stateless);
// the measurement RNG is not carried over.
func (s *QuantumState) Clone() *QuantumState {
	out := &QuantumState{numQubits: s.numQubits, dim: s.dim, backend: s.backend}
	if s.IsPure() {
		out.vector = append([]complex128(nil), s.vector...)
	} else {
		out.rho = s.backend.FromDense(s.backend.ToDense(s.rho))
	}
	return out
}

// Amplitudes returns a copy of the pure state's amplitude vector.
func (s *QuantumState) Amplitudes() ([]complex128, error) {
	if !s.IsPure() {
		return nil, fmt.Errorf("amplitudes of a density-matrix state: %w", ErrUnsupported)
	}
	return append([]complex128(nil), s.vector...), nil
}

// DensityMatrix returns a copy of the mixed state's density matrix in the
// canonical dense form.
func (s *QuantumState) DensityMatrix() (Matrix, error) {
	if s.IsPure() {
		return nil, fmt.Errorf("density matrix of a state-vector state: %w", ErrUnsupported)
	}
	return s.backend.ToDense(s.rho), nil
}

// === Gate application ===

// ApplyGate expands the k-qubit unitary onto the target qubits and applies
// it: v ← Uv for the pure representation, ρ ← UρU† for the mixed one. The
// state is renormalized afterwards to guard against floating-point drift.
func (s *QuantumState) ApplyGate(gate Matrix, targets ...int) error {
	k, err := gateQubits(gate)
	if err != nil {
		return err
	}
	if k != len(targets) {
		return fmt.Errorf("gate spans %d qubits but %d targets given: %w", k, len(targets), ErrDimensionMismatch)
	}

	if s.IsPure() {
		if compiler, ok := s.backend.(GateCompiler); ok {
			kernel, err := compiler.CompileGate(gate, targets, s.numQubits)
			if err != nil {
				return err
			}
			kernel(s.vector)
			s.normalizeVector()
			return nil
		}
		full, err := ExpandOperator(s.backend, gate, targets, s.numQubits)
		if err != nil {
			return err
		}
		s.vector = s.backend.MulVec(full, s.vector)
		s.normalizeVector()
		return nil
	}

	full, err := ExpandOperator(s.backend, gate, targets, s.numQubits)
	if err != nil {
		return err
	}
	b := s.backend
	s.rho = b.MatMul(b.MatMul(full, s.rho), b.Dagger(full))
	s.renormalizeDensity()
	return nil
}

// Apply applies a bound Gate.
func (s *QuantumState) Apply(g Gate) error {
	if err := s.ApplyGate(g.Matrix(), g.Qubits()...); err != nil {
		return fmt.Errorf("applying %s: %w", g, err)
	}
	return nil
}

// ApplyNoise applies a noise channel to the given qubit subset. The state
// must use the density-matrix representation.
func (s *QuantumState) ApplyNoise(ch NoiseChannel, qubits ...int) error {
	if err := s.checkQubits(qubits); err != nil {
		return err
	}
	return ch.Apply(s, qubits...)
}

// applyKraus1Q applies a single-qubit operator-sum map ρ' = Σ KᵢρKᵢ†
// independently to each qubit in the subset, embedding each Kraus operator
// into the full space first.
func (s *QuantumState) applyKraus1Q(ops kraus1Q, qubits []int) error {
	if s.IsPure() {
		return fmt.Errorf("noise channels act on density matrices: %w", ErrMixedRequired)
	}
	if err := s.checkQubits(qubits); err != nil {
		return err
	}
	b := s.backend
	for _, q := range qubits {
		acc := b.Zeros(s.dim, s.dim)
		for _, k := range ops {
			full, err := ExpandOperator(b, k, []int{q}, s.numQubits)
			if err != nil {
				return err
			}
			acc = b.Add(acc, b.MatMul(b.MatMul(full, s.rho), b.Dagger(full)))
		}
		s.rho = acc
		s.renormalizeDensity()
	}
	return nil
}

func (s *QuantumState) checkQubits(qubits []int) error {
	if len(qubits) == 0 {
		return fmt.Errorf("no qubits given: %w", ErrInvalidParameter)
	}
	seen := make(map[int]bool, len(qubits))
	for _, q := range qubits {
		if q < 0 || q >= s.numQubits {
			return fmt.Errorf("qubit %d out of range [0,%d): %w", q, s.numQubits, ErrDimensionMismatch)
		}
		if seen[q] {
			return fmt.Errorf("duplicate qubit %d: %w", q, ErrInvalidParameter)
		}
		seen[q] = true
	}
	return nil
}

// === Normalization ===

func norm2(v []complex128) float64 {
	var sum float64
	for _, a := range v {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

func (s *QuantumState) normalizeVector() {
	norm := norm2(s.vector)
	if norm == 0 {
		return
	}
	if math.Abs(norm-1) > traceTol {
		logrus.Debugf("renormalizing state vector, norm drifted to %.12f", norm)
	}
	inv := complex(1/norm, 0)
	for i := range s.vector {
		s.vector[i] *= inv
	}
}

func (s *QuantumState) renormalizeDensity() {
	t := real(Trace(s.rho))
	if t == 0 {
		return
	}
	if math.Abs(t-1) > traceTol {
		logrus.Debugf("renormalizing density matrix, trace drifted to %.12f", t)
	}
	s.rho = s.backend.Scale(complex(1/t, 0), s.rho)
}

// === Measurement ===

func (s *QuantumState) rand01() float64 {
	if s.rng != nil {
		return s.rng.Float64()
	}
	return rand.Float64()
}

// probabilityZero sums the probability mass of all basis indices whose
// qubit-th bit is 0.
func (s *QuantumState) probabilityZero(qubit int) float64 {
	var p float64
	if s.IsPure() {
		for i, a := range s.vector {
			if (i>>qubit)&1 == 0 {
				p += real(a)*real(a) + imag(a)*imag(a)
			}
		}
		return p
	}
	for i := 0; i < s.dim; i++ {
		if (i>>qubit)&1 == 0 {
			p += real(s.rho.At(i, i))
		}
	}
	return p
}

// Measure measures one qubit: a single uniform draw against P(0), then
// collapse of all amplitudes (or density rows and columns) inconsistent
// with the outcome, then renormalization. Returns 0 or 1.
func (s *QuantumState) Measure(qubit int) (int, error) {
	if qubit < 0 || qubit >= s.numQubits {
		return 0, fmt.Errorf("qubit %d out of range [0,%d): %w", qubit, s.numQubits, ErrDimensionMismatch)
	}
	p0 := s.probabilityZero(qubit)
	outcome := 1
	if s.rand01() < p0 {
		outcome = 0
	}
	s.collapse(qubit, outcome)
	return outcome, nil
}

// MeasureAll measures every qubit in index order, qubit 0 first, each
// measurement collapsing the state before the next. Results are indexed by
// qubit.
func (s *QuantumState) MeasureAll() ([]int, error) {
	outcomes := make([]int, s.numQubits)
	for q := 0; q < s.numQubits; q++ {
		o, err := s.Measure(q)
		if err != nil {
			return nil, err
		}
		outcomes[q] = o
	}
	return outcomes, nil
}

func (s *QuantumState) collapse(qubit, outcome int) {
	if s.IsPure() {
		for i := range s.vector {
			if (i>>qubit)&1 != outcome {
				s.vector[i] = 0
			}
		}
		s.normalizeVector()
		return
	}
	var entries []Entry
	for i := 0; i < s.dim; i++ {
		if (i>>qubit)&1 != outcome {
			continue
		}
		for j := 0; j < s.dim; j++ {
			if (j>>qubit)&1 != outcome {
				continue
			}
			if v := s.rho.At(i, j); v != 0 {
				entries = append(entries, Entry{Row: i, Col: j, V: v})
			}
		}
	}
	s.rho = s.backend.FromEntries(s.dim, s.dim, entries)
	s.renormalizeDensity()
}

// === Derived quantities ===

// Probabilities returns the probability distribution over the 2^n basis
// states: squared amplitude magnitudes for the pure representation,
// diagonal populations for the mixed one.
func (s *QuantumState) Probabilities() []float64 {
	probs := make([]float64, s.dim)
	if s.IsPure() {
		for i, a := range s.vector {
			probs[i] = real(a)*real(a) + imag(a)*imag(a)
		}
		return probs
	}
	for i := 0; i < s.dim; i++ {
		probs[i] = real(s.rho.At(i, i))
	}
	return probs
}

// Fidelity returns the overlap between two states of equal qubit count:
// |⟨ψ|φ⟩|² for two pure states, ⟨ψ|ρ|ψ⟩ when one side is mixed. Fidelity
// between two mixed states is outside the engine's contract.
func (s *QuantumState) Fidelity(other *QuantumState) (float64, error) {
	if other == nil {
		return 0, fmt.Errorf("fidelity against nil state: %w", ErrInvalidParameter)
	}
	if s.numQubits != other.numQubits {
		return 0, fmt.Errorf("fidelity across %d and %d qubits: %w", s.numQubits, other.numQubits, ErrDimensionMismatch)
	}
	switch {
	case s.IsPure() && other.IsPure():
		var overlap complex128
		for i := range s.vector {
			overlap += cmplx.Conj(s.vector[i]) * other.vector[i]
		}
		a := cmplx.Abs(overlap)
		return a * a, nil
	case s.IsPure():
		return pureMixedFidelity(s.vector, other.rho), nil
	case other.IsPure():
		return pureMixedFidelity(other.vector, s.rho), nil
	default:
		return 0, fmt.Errorf("fidelity between two mixed states: %w", ErrUnsupported)
	}
}

// pureMixedFidelity computes ⟨ψ|ρ|ψ⟩.
func pureMixedFidelity(psi []complex128, rho Matrix) float64 {
	var f complex128
	for i := range psi {
		for j := range psi {
			f += cmplx.Conj(psi[i]) * rho.At(i, j) * psi[j]
		}
	}
	return real(f)
}

// Entropy returns the Shannon entropy (base 2) of the basis-state
// probability distribution, excluding probabilities below 1e-10 to avoid
// log(0). Zero for any basis state; NumQubits for the uniform
// distribution.
func (s *QuantumState) Entropy() float64 {
	var h float64
	for _, p := range s.Probabilities() {
		if p < probFloor {
			continue
		}
		h -= p * math.Log2(p)
	}
	return h
}

// PartialTrace reduces the state to the single-qubit density matrix of the
// kept qubit by summing out all other qubits.
func (s *QuantumState) PartialTrace(keep int) (Matrix, error) {
	if keep < 0 || keep >= s.numQubits {
		return nil, fmt.Errorf("qubit %d out of range [0,%d): %w", keep, s.numQubits, ErrDimensionMismatch)
	}
	var reduced [2][2]complex128
	mask := 1 << keep
	for i := 0; i < s.dim; i++ {
		ib := (i >> keep) & 1
		for j := 0; j < s.dim; j++ {
			if i&^mask != j&^mask {
				continue
			}
			jb := (j >> keep) & 1
			if s.IsPure() {
				reduced[ib][jb] += s.vector[i] * cmplx.Conj(s.vector[j])
			} else {
				reduced[ib][jb] += s.rho.At(i, j)
			}
		}
	}
	return s.backend.FromEntries(2, 2, []Entry{
		{Row: 0, Col: 0, V: reduced[0][0]},
		{Row: 0, Col: 1, V: reduced[0][1]},
		{Row: 1, Col: 0, V: reduced[1][0]},
		{Row: 1, Col: 1, V: reduced[1][1]},
	}), nil
}

// BlochVector projects the kept qubit's reduced density matrix onto the
// Pauli basis, giving coordinates (x, y, z) ∈ [-1,1]³ on or inside the
// Bloch sphere.
func (s *QuantumState) BlochVector(qubit int) (x, y, z float64, err error) {
	reduced, err := s.PartialTrace(qubit)
	if err != nil {
		return 0, 0, 0, err
	}
	r01, r10 := reduced.At(0, 1), reduced.At(1, 0)
	x = real(r01 + r10)
	y = real(1i * (r01 - r10))
	z = real(reduced.At(0, 0) - reduced.At(1, 1))
	return x, y, z, nil
}

// Entanglement is the result of an entanglement test. Certain is false
// when the engine could only give the conservative answer; callers must
// not treat an uncertain Entangled=true as ground truth.
type Entanglement struct {
	Entangled bool
	Certain   bool
}

// IsEntangled runs an exact Schmidt-rank test for pure 2-qubit states via
// the singular values of the reshaped 2×2 amplitude matrix. For larger
// systems, and for mixed states, no general polynomial-time test is
// applied and the conservative answer {Entangled: true, Certain: false}
// is returned.
func (s *QuantumState) IsEntangled() Entanglement {
	if s.numQubits != 2 || !s.IsPure() {
		return Entanglement{Entangled: true, Certain: false}
	}
	// Amplitude matrix M[b0][b1] = v[b0 + 2*b1]; the state is separable
	// exactly when M has rank 1, i.e. the second singular value vanishes.
	m00, m01 := s.vector[0], s.vector[2]
	m10, m11 := s.vector[1], s.vector[3]
	// Closed-form singular values of a 2×2 complex matrix from the
	// eigenvalues of M†M: s² = (T ± √(T²-4D))/2 with T = tr(M†M),
	// D = |det M|².
	t := absSq(m00) + absSq(m01) + absSq(m10) + absSq(m11)
	det := m00*m11 - m01*m10
	d := absSq(det)
	disc := math.Sqrt(math.Max(t*t-4*d, 0))
	sMin := math.Sqrt(math.Max((t-disc)/2, 0))
	return Entanglement{Entangled: sMin >= probFloor, Certain: true}
}

func absSq(v complex128) float64 {
	return real(v)*real(v) + imag(v)*imag(v)
}

// Purity returns tr(ρ²): 1 for any pure state, down to 1/2^n for the
// maximally mixed state.
func (s *QuantumState) Purity() float64 {
	if s.IsPure() {
		return 1
	}
	return real(Trace(s.backend.MatMul(s.rho, s.rho)))
}

// === Conversions ===

// ToDensityMatrix returns a new mixed-representation state: |ψ⟩⟨ψ| for a
// pure state, a deep copy for a state already mixed.
func (s *QuantumState) ToDensityMatrix() (*QuantumState, error) {
	if !s.IsPure() {
		return s.Clone(), nil
	}
	entries := make([]Entry, 0, s.dim)
	for i, a := range s.vector {
		if a == 0 {
			continue
		}
		for j, b := range s.vector {
			if b == 0 {
				continue
			}
			entries = append(entries, Entry{Row: i, Col: j, V: a * cmplx.Conj(b)})
		}
	}
	out := &QuantumState{numQubits: s.numQubits, dim: s.dim, backend: s.backend}
	out.rho = s.backend.FromEntries(s.dim, s.dim, entries)
	return out, nil
}

// ToStateVector returns a new pure-representation state. Defined only when
// the density matrix is pure within tolerance (tr(ρ²) ≥ 1-1e-9); otherwise
// ErrNotPure. The extracted vector carries an arbitrary global phase.
func (s *QuantumState) ToStateVector() (*QuantumState, error) {
	if s.IsPure() {
		return s.Clone(), nil
	}
	purity := s.Purity()
	if purity < 1-purityTol {
		return nil, fmt.Errorf("purity %.12f below 1: %w", purity, ErrNotPure)
	}
	// For pure ρ = |ψ⟩⟨ψ|, column j holds ψ·conj(ψ_j); the column with the
	// largest diagonal entry reconstructs ψ up to global phase.
	best, bestPop := 0, 0.0
	for j := 0; j < s.dim; j++ {
		if pop := real(s.rho.At(j, j)); pop > bestPop {
			best, bestPop = j, pop
		}
	}
	scale := complex(1/math.Sqrt(bestPop), 0)
	v := make([]complex128, s.dim)
	for i := 0; i < s.dim; i++ {
		v[i] = s.rho.At(i, best) * scale
	}
	return NewStateVectorFrom(s.numQubits, v, s.backend)
}

// String renders a pure state in ket notation, e.g.
// "0.707|00⟩ + 0.707|11⟩", and a mixed state as a purity summary.
func (s *QuantumState) String() string {
	if !s.IsPure() {
		return fmt.Sprintf("ρ(%d qubits, purity=%.4f)", s.numQubits, s.Purity())
	}
	var terms []string
	for i, a := range s.vector {
		if cmplx.Abs(a) <= probFloor {
			continue
		}
		var coef string
		switch {
		case math.Abs(imag(a)) < probFloor:
			coef = fmt.Sprintf("%.3f", real(a))
		case math.Abs(real(a)) < probFloor:
			coef = fmt.Sprintf("%.3fi", imag(a))
		default:
			coef = fmt.Sprintf("%.3f%+.3fi", real(a), imag(a))
		}
		terms = append(terms, fmt.Sprintf("%s|%0*b⟩", coef, s.numQubits, i))
	}
	if len(terms) == 0 {
		return "0"
	}
	return strings.Join(terms, " + ")
}
