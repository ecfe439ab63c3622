// Package config holds the solver's configuration record (spec.md §6) and
// its validation boundary (spec.md §7's ConfigurationError).
package config

import (
	"fmt"
	"time"

	"github.com/hartsat/xorsat/internal/sat"
)

// Config holds the solver options of spec.md §6's table that this solver
// acts on; the CNF simplification and probing toggles of that table have no
// field here. Zero-valued
// fields are not assumed safe defaults; call Defaults() for a runnable
// configuration.
type Config struct {
	PolarityMode       string // "true", "false", "rnd", "auto"
	RandomVarFreq      float64
	OrigSeed           int64
	RestrictPickBranch int

	RestartType RestartKind // "auto", "static", "dynamic"
	LubyBase    int
	DynThresh   float64
	MaxRestarts int64 // <0: unbounded

	MaxConflicts int64 // <0: unbounded
	Timeout      time.Duration

	ClauseDecay   float64
	VariableDecay float64
	MaxGlue       int // 0 disables the dynamic-mode discard policy

	MinimizeLearntMore    bool // doMinimLearntMore
	RecursiveMinimizeMore bool // doMinimLMoreRecur

	ReduceInitialTarget int
	ReduceGrowth        int

	SimplifyConflictBase int
	SimplifyGrowth       int

	NeedToDumpLearnts bool
	LearntsFilename   string
	MaxDumpLearntsSize int

	NeedToDumpOrig bool
	OrigFilename   string

	Gauss GaussConfig

	PortfolioWorkers int
}

// GaussConfig groups the `decision_until`/`maxMatrixRows`/... knobs of
// spec.md §6's Gaussian option group.
type GaussConfig struct {
	Enabled       bool
	DecisionUntil int
	SaveEveryNth  int
	MinMatrixRows int
	MaxMatrixRows int
	MaxNumMatrixes int
	NoMatrixFind  bool
}

// RestartKind is the fixRestartType enum of spec.md §6.
type RestartKind string

const (
	RestartAuto    RestartKind = "auto"
	RestartStatic  RestartKind = "static"
	RestartDynamic RestartKind = "dynamic"
)

// Defaults returns a Config with reasonable defaults, mirroring
// sat.DefaultOptions / sat.DefaultXOROptions.
func Defaults() Config {
	return Config{
		PolarityMode:          "auto",
		RandomVarFreq:         0,
		OrigSeed:              1,
		RestrictPickBranch:    0,
		RestartType:           RestartAuto,
		LubyBase:              100,
		DynThresh:             1.25,
		MaxRestarts:           -1,
		MaxConflicts:          -1,
		Timeout:               -1,
		ClauseDecay:           0.999,
		VariableDecay:         0.95,
		MaxGlue:               0,
		MinimizeLearntMore:    true,
		RecursiveMinimizeMore: false,
		ReduceInitialTarget:   2000,
		ReduceGrowth:          300,
		SimplifyConflictBase:  1000,
		SimplifyGrowth:        150,
		Gauss: GaussConfig{
			Enabled:        true,
			DecisionUntil:  0,
			SaveEveryNth:   5,
			MinMatrixRows:  3,
			MaxMatrixRows:  2000,
			MaxNumMatrixes: 20,
			NoMatrixFind:   false,
		},
		PortfolioWorkers: 1,
	}
}

// Error is the ConfigurationError kind of spec.md §7: an out-of-range
// numeric option or an unknown enum symbol, surfaced at the configuration
// boundary with no recovery.
type Error struct {
	Field string
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

// Validate reports the first ConfigurationError found, or nil if c is safe
// to run with.
func (c *Config) Validate() *Error {
	switch c.PolarityMode {
	case "true", "false", "rnd", "auto":
	default:
		return &Error{Field: "PolarityMode", Msg: fmt.Sprintf("unknown enum symbol %q", c.PolarityMode)}
	}
	if c.RandomVarFreq < 0 || c.RandomVarFreq > 1 {
		return &Error{Field: "RandomVarFreq", Msg: "must be in [0,1]"}
	}
	if c.RestrictPickBranch < 0 {
		return &Error{Field: "RestrictPickBranch", Msg: "must be >= 0"}
	}
	switch c.RestartType {
	case RestartAuto, RestartStatic, RestartDynamic:
	default:
		return &Error{Field: "RestartType", Msg: fmt.Sprintf("unknown enum symbol %q", c.RestartType)}
	}
	if c.LubyBase <= 0 {
		return &Error{Field: "LubyBase", Msg: "must be > 0"}
	}
	if c.DynThresh <= 0 {
		return &Error{Field: "DynThresh", Msg: "must be > 0"}
	}
	if c.ClauseDecay <= 0 || c.ClauseDecay > 1 {
		return &Error{Field: "ClauseDecay", Msg: "must be in (0,1]"}
	}
	if c.VariableDecay <= 0 || c.VariableDecay > 1 {
		return &Error{Field: "VariableDecay", Msg: "must be in (0,1]"}
	}
	if c.MaxGlue < 0 {
		return &Error{Field: "MaxGlue", Msg: "must be >= 0"}
	}
	if c.ReduceInitialTarget <= 0 {
		return &Error{Field: "ReduceInitialTarget", Msg: "must be > 0"}
	}
	if c.ReduceGrowth <= 0 {
		return &Error{Field: "ReduceGrowth", Msg: "must be > 0"}
	}
	if c.SimplifyConflictBase <= 0 {
		return &Error{Field: "SimplifyConflictBase", Msg: "must be > 0"}
	}
	if c.SimplifyGrowth <= 0 {
		return &Error{Field: "SimplifyGrowth", Msg: "must be > 0"}
	}
	if c.NeedToDumpLearnts && c.LearntsFilename == "" {
		return &Error{Field: "LearntsFilename", Msg: "required when NeedToDumpLearnts is set"}
	}
	if c.NeedToDumpOrig && c.OrigFilename == "" {
		return &Error{Field: "OrigFilename", Msg: "required when NeedToDumpOrig is set"}
	}
	if err := c.Gauss.validate(); err != nil {
		return err
	}
	if c.PortfolioWorkers <= 0 {
		return &Error{Field: "PortfolioWorkers", Msg: "must be > 0"}
	}
	return nil
}

func (g *GaussConfig) validate() *Error {
	if g.DecisionUntil < 0 {
		return &Error{Field: "Gauss.DecisionUntil", Msg: "must be >= 0"}
	}
	if g.SaveEveryNth <= 0 {
		return &Error{Field: "Gauss.SaveEveryNth", Msg: "must be > 0"}
	}
	if g.MinMatrixRows < 0 {
		return &Error{Field: "Gauss.MinMatrixRows", Msg: "must be >= 0"}
	}
	if g.MaxMatrixRows < g.MinMatrixRows {
		return &Error{Field: "Gauss.MaxMatrixRows", Msg: "must be >= Gauss.MinMatrixRows"}
	}
	if g.MaxNumMatrixes <= 0 {
		return &Error{Field: "Gauss.MaxNumMatrixes", Msg: "must be > 0"}
	}
	return nil
}

// SolverOptions translates the validated configuration into sat.Options.
func (c *Config) SolverOptions() sat.Options {
	opts := sat.DefaultOptions
	opts.ClauseDecay = c.ClauseDecay
	opts.VariableDecay = c.VariableDecay
	opts.PolarityMode = polarityMode(c.PolarityMode)
	opts.RandVarFreq = c.RandomVarFreq
	opts.RestrictK = c.RestrictPickBranch
	opts.Seed = c.OrigSeed
	opts.RestartMode = restartMode(c.RestartType)
	opts.LubyBase = c.LubyBase
	opts.DynamicThreshold = c.DynThresh
	opts.MaxConflicts = c.MaxConflicts
	opts.MaxRestarts = c.MaxRestarts
	opts.Timeout = c.Timeout
	opts.MaxGlue = c.MaxGlue
	opts.ReduceInitialTarget = c.ReduceInitialTarget
	opts.ReduceGrowth = c.ReduceGrowth
	opts.SimplifyConflictBase = c.SimplifyConflictBase
	opts.SimplifyGrowth = c.SimplifyGrowth
	opts.MinimizeLearnts = c.MinimizeLearntMore
	opts.RecursiveMinimize = c.RecursiveMinimizeMore
	opts.XOR = sat.XOROptions{
		Enabled:        c.Gauss.Enabled,
		DecisionUntil:  c.Gauss.DecisionUntil,
		SaveEveryNth:   c.Gauss.SaveEveryNth,
		MinMatrixRows:  c.Gauss.MinMatrixRows,
		MaxMatrixRows:  c.Gauss.MaxMatrixRows,
		MaxNumMatrixes: c.Gauss.MaxNumMatrixes,
		NoMatrixFind:   c.Gauss.NoMatrixFind,
	}
	return opts
}

func polarityMode(s string) sat.PolarityMode {
	switch s {
	case "true":
		return sat.PolarityTrue
	case "false":
		return sat.PolarityFalse
	case "rnd":
		return sat.PolarityRandom
	default:
		return sat.PolarityAuto
	}
}

func restartMode(k RestartKind) sat.RestartMode {
	switch k {
	case RestartStatic:
		return sat.RestartStatic
	case RestartDynamic:
		return sat.RestartDynamic
	default:
		return sat.RestartAuto
	}
}
