// Package qsim provides the core quantum state and noise simulation engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - state.go: QuantumState (pure vector or density matrix), gate
//     application, measurement collapse, derived quantities
//   - expand.go: embedding a k-qubit operator into the full 2^n space
//   - noise.go: Kraus-operator noise channels and their composition
//
// # Architecture
//
// The qsim package defines the data model and the Backend capability
// contract; engine implementations live in sub-packages:
//   - qsim/backend/: dense (gonum), sparse, accel, and jit engines
//   - qsim/profile/: hardware noise profiles converted into channels
//   - qsim/circuit/: gate/noise sequence container and shot runner
//
// Sub-packages register their implementations via init() functions
// (RegisterBackend); importing qsim/backend for side effects makes all
// four engines available through NewBackend and AutoBackend.
//
// # Key Interfaces
//
// The extension points are small interfaces:
//   - Backend: matrix construction, multiply, Kronecker product,
//     conjugate transpose, dense conversion
//   - NoiseChannel: apply a trace-preserving map to a state on a qubit subset
//   - SparsityDetector, GateCompiler: optional engine capabilities
//     discovered by type assertion
//
// Qubit 0 is the least significant bit of a basis index throughout.
package qsim
