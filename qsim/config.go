package qsim

// EngineConfig groups backend selection parameters.
type EngineConfig struct {
	Backend string // engine name ("dense", "sparse", "accel", "jit"); "" or "auto" = heuristic
	Seed    int64  // master seed for measurement draws (0 = unseeded)
}

// ShotConfig groups repeated-execution parameters for the shot runner.
type ShotConfig struct {
	Shots        int     // number of prepare-and-measure repetitions (must be > 0)
	Workers      int     // concurrent shot workers (0 or 1 = sequential)
	ReadoutError float64 // per-qubit classical bit-flip probability applied to outcomes (default 0)
}
