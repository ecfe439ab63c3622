package sat

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Solver is a CDCL search engine extended with XOR-Gaussian reasoning
// (spec.md §2-§4). One Solver instance runs single-threaded to completion
// per spec.md §5; a portfolio of Solvers is composed by internal/portfolio.
type Solver struct {
	// Clause database.
	constraints []*Clause
	learnts     []*Clause
	clauseInc   float64
	clauseDecay float64

	// Literal-level logs of every clause ever added, independent of how it
	// ended up represented internally (general arena vs. inlined
	// binary/ternary/unit); used only by dimacs.Dump for the round-trip of
	// spec.md §6/§8.
	originalClauseLog [][]Literal
	learntClauseLog   [][]Literal

	// Variable ordering.
	order *VarOrder

	// Propagation and watchers.
	watchers    [][]watchEntry
	tmpWatchers []watchEntry
	propQueue   *Queue[Literal]

	// Value assigned to each literal (indexed by Literal, i.e. 2*varID+sign).
	assigns []LBool

	// Trail.
	trail         []Literal
	trailLim      []int
	assignReasons []reasonRef
	assignLevels  []int

	// Whether the problem has reached a top-level conflict.
	unsat bool

	// XOR-Gaussian reasoning layer.
	xor *xorEngine

	// Restart, reduce and simplify-episode policy.
	restart  *restartController
	reduce   *reduceController
	simplify *simplifyController

	// Conflict-analysis scratch state.
	seenVar           *ResetSet
	tmpLearnts        []Literal
	tmpExplain        []Literal
	analyzedVars      []int
	minimizeLearnts   bool
	recursiveMinimize bool

	// Cooperative cancellation (spec.md §5/§9).
	interrupt *InterruptHandle

	// Search statistics.
	TotalConflicts  int64
	TotalRestarts   int64
	TotalDecisions  int64
	TotalIterations int64
	startTime       time.Time

	// Stop conditions.
	maxConflict    int64
	hasMaxConflict bool
	maxRestarts    int64
	hasMaxRestarts bool
	timeout        time.Duration
	hasTimeout     bool

	// Models found so far, accumulated by Solve/SolveN.
	Models [][]bool

	// decisionVars records, per model, the literals chosen as decisions —
	// used by SolveN to synthesize blocking clauses over decision variables
	// only, per spec.md §4.7's enumeration note.
	decisionVars []Literal

	log *zap.SugaredLogger
}

// Options configures a Solver. Zero or negative LubyBase, DynamicThreshold,
// ReduceInitialTarget, ReduceGrowth, SimplifyConflictBase and SimplifyGrowth
// fall back to built-in defaults; every other field is used as given.
type Options struct {
	ClauseDecay   float64
	VariableDecay float64

	PolarityMode PolarityMode
	RandVarFreq  float64
	RestrictK    int
	Seed         int64

	RestartMode      RestartMode
	LubyBase         int
	DynamicThreshold float64

	MaxConflicts int64 // < 0: unbounded
	MaxRestarts  int64 // < 0: unbounded
	Timeout      time.Duration

	MaxGlue            int
	ReduceInitialTarget int
	ReduceGrowth        int

	SimplifyConflictBase int
	SimplifyGrowth       int

	MinimizeLearnts   bool
	RecursiveMinimize bool

	XOR XOROptions

	Logger *zap.SugaredLogger
}

var DefaultOptions = Options{
	ClauseDecay:         0.999,
	VariableDecay:       0.95,
	PolarityMode:        PolarityAuto,
	RandVarFreq:         0,
	RestrictK:           0,
	Seed:                1,
	RestartMode:         RestartAuto,
	LubyBase:            100,
	DynamicThreshold:    1.25,
	MaxConflicts:        -1,
	MaxRestarts:         -1,
	Timeout:             -1,
	MaxGlue:             0,
	ReduceInitialTarget: 2000,
	ReduceGrowth:        300,
	SimplifyConflictBase: 1000,
	SimplifyGrowth:        150,
	MinimizeLearnts:     true,
	RecursiveMinimize:   false,
	XOR:                 DefaultXOROptions,
}

// NewDefaultSolver returns a solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions)
}

// NewSolver returns a new, empty Solver.
func NewSolver(ops Options) *Solver {
	logger := ops.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	s := &Solver{
		clauseDecay:       ops.ClauseDecay,
		clauseInc:         1,
		propQueue:         NewQueue[Literal](128),
		seenVar:           &ResetSet{},
		order:             NewVarOrder(ops.VariableDecay, ops.PolarityMode, ops.RandVarFreq, ops.RestrictK, ops.Seed),
		restart:           newRestartController(ops.RestartMode, ops.LubyBase, ops.DynamicThreshold),
		reduce:            newReduceController(ops.ReduceInitialTarget, ops.ReduceGrowth, ops.MaxGlue),
		simplify:          newSimplifyController(ops.SimplifyConflictBase, ops.SimplifyGrowth),
		xor:               newXOREngine(ops.XOR),
		interrupt:         NewInterruptHandle(),
		minimizeLearnts:   ops.MinimizeLearnts,
		recursiveMinimize: ops.RecursiveMinimize,
		log:               logger,
	}

	if ops.MaxConflicts >= 0 {
		s.hasMaxConflict = true
		s.maxConflict = ops.MaxConflicts
	}
	if ops.MaxRestarts >= 0 {
		s.hasMaxRestarts = true
		s.maxRestarts = ops.MaxRestarts
	}
	if ops.Timeout >= 0 {
		s.hasTimeout = true
		s.timeout = ops.Timeout
	}

	return s
}

// Interrupt returns the handle a caller can Set to request a clean,
// best-effort-prompt stop (spec.md §5/§9).
func (s *Solver) Interrupt() *InterruptHandle {
	return s.interrupt
}

func (s *Solver) shouldStop() bool {
	if s.interrupt.Requested() {
		return true
	}
	if s.hasMaxConflict && s.TotalConflicts >= s.maxConflict {
		return true
	}
	if s.hasMaxRestarts && s.TotalRestarts >= s.maxRestarts {
		return true
	}
	if s.hasTimeout && time.Since(s.startTime) >= s.timeout {
		return true
	}
	return false
}

func (s *Solver) NumVariables() int     { return len(s.assigns) / 2 }
func (s *Solver) NumAssigns() int       { return len(s.trail) }
func (s *Solver) NumConstraints() int   { return len(s.constraints) }
func (s *Solver) NumLearnts() int       { return len(s.learnts) }
func (s *Solver) VarValue(x int) LBool  { return s.assigns[PositiveLiteral(x)] }
func (s *Solver) LitValue(l Literal) LBool { return s.assigns[l] }
func (s *Solver) decisionLevel() int    { return len(s.trailLim) }

// AddVariable adds a new variable and returns its ID.
func (s *Solver) AddVariable() int {
	index := s.NumVariables()
	s.watchers = append(s.watchers, nil, nil)
	s.assigns = append(s.assigns, Unknown, Unknown)
	s.assignLevels = append(s.assignLevels, -1)
	s.assignReasons = append(s.assignReasons, reasonRef{})
	s.seenVar.Expand()
	s.order.AddVar()
	return index
}

// AddXOR adds an XOR clause over vars with the given parity bit (spec.md
// §3, §4.6). Per §8's boundary behaviors: zero variables with rhs=false is
// a no-op, with rhs=true it is an immediate contradiction.
func (s *Solver) AddXOR(vars []int, rhs bool) error {
	if s.decisionLevel() != 0 {
		return fmt.Errorf("sat: AddXOR called above the root level")
	}
	if len(vars) == 0 {
		if rhs {
			s.unsat = true
		}
		return nil
	}
	s.xor.AddXOR(vars, rhs)
	return nil
}

// BuildXORMatrices finalizes the XOR store into Gaussian-reasoning matrices.
// Must be called once after every AddXOR and before the first Solve/Search.
func (s *Solver) BuildXORMatrices() {
	s.xor.Build()
}

// AddClause adds an ordinary (non-learnt) clause, per spec.md §3's
// lifecycle note: original clauses are never deleted during search.
func (s *Solver) AddClause(clause []Literal) error {
	if s.decisionLevel() != 0 {
		return fmt.Errorf("sat: AddClause called above the root level")
	}
	s.originalClauseLog = append(s.originalClauseLog, append([]Literal(nil), clause...))

	c, ok := NewClause(s, clause, false)
	if c != nil {
		s.constraints = append(s.constraints, c)
	}
	if !ok {
		s.unsat = true
	}
	return nil
}

// OriginalClauses returns every non-learnt clause as submitted via
// AddClause, for use by dimacs.Dump (spec.md §6's needToDumpOrig). Clauses
// are returned as submitted rather than post-simplification, since the
// in-processing simplifiers that would rewrite them are out of scope
// (spec.md §1); the dumped set remains equisatisfiable with the live one.
func (s *Solver) OriginalClauses() [][]Literal {
	return s.originalClauseLog
}

// LearntClauses returns every learnt clause recorded so far, including the
// binary/unit ones permanently absorbed into the watch lists or the trail
// rather than kept in the general arena (spec.md §3's lifecycle note).
func (s *Solver) LearntClauses() [][]Literal {
	return s.learntClauseLog
}

// XORClauses returns the XOR store as added via AddXOR.
func (s *Solver) XORClauses() []XORClauseView {
	out := make([]XORClauseView, 0, len(s.xor.clauses))
	for _, c := range s.xor.clauses {
		out = append(out, XORClauseView{Vars: c.vars, RHS: c.rhs})
	}
	return out
}

// XORClauseView is a read-only view of one stored XOR clause.
type XORClauseView struct {
	Vars []int
	RHS  bool
}

// Simplify removes root-level-satisfied clauses from both databases and
// re-propagates any root-level units, per spec.md §9's simplifier contract.
func (s *Solver) Simplify() bool {
	if s.decisionLevel() != 0 {
		panic("sat: Simplify called above the root level")
	}
	if s.propQueue.Size() != 0 {
		panic("sat: Simplify called with a non-empty propagation queue")
	}
	if s.unsat {
		return false
	}
	if _, conflict := s.Propagate(); conflict {
		s.unsat = true
		return false
	}

	s.simplifyClauseSet(&s.learnts)
	s.simplifyClauseSet(&s.constraints)
	return true
}

func (s *Solver) simplifyClauseSet(clausesPtr *[]*Clause) {
	clauses := *clausesPtr
	j := 0
	for i := range clauses {
		if clauses[i].Simplify(s) {
			clauses[i].Remove(s)
		} else {
			clauses[j] = clauses[i]
			j++
		}
	}
	*clausesPtr = clauses[:j]
}

// enqueue assigns l true with the given reason. It reports alreadyTrue if l
// was already assigned true, conflicting if l's opposite was already true,
// or enqueued on success.
func (s *Solver) enqueue(l Literal, from reasonRef) enqueueResult {
	switch s.LitValue(l) {
	case True:
		return alreadyTrue
	case False:
		return conflicting
	default:
		varID := l.VarID()
		s.assigns[l] = True
		s.assigns[l.Opposite()] = False
		s.assignLevels[varID] = s.decisionLevel()
		s.assignReasons[varID] = from
		s.trail = append(s.trail, l)
		s.propQueue.Push(l)
		return enqueued
	}
}

func (s *Solver) undoOne() {
	l := s.trail[len(s.trail)-1]
	v := l.VarID()

	s.order.Reinsert(v, s.assigns[l])
	s.assigns[l] = Unknown
	s.assigns[l.Opposite()] = Unknown
	s.assignReasons[v] = reasonRef{}
	s.assignLevels[v] = -1

	s.trail = s.trail[:len(s.trail)-1]
}

func (s *Solver) assume(l Literal) enqueueResult {
	s.trailLim = append(s.trailLim, len(s.trail))
	s.TotalDecisions++
	return s.enqueue(l, decisionReason())
}

func (s *Solver) cancel() {
	target := s.trailLim[len(s.trailLim)-1]
	for len(s.trail) > target {
		s.undoOne()
	}
	s.trailLim = s.trailLim[:len(s.trailLim)-1]
}

// cancelUntil backtracks to level, preserving level-0 assignments (spec.md
// §3 invariant I4, §8 P7).
func (s *Solver) cancelUntil(level int) {
	for s.decisionLevel() > level {
		s.cancel()
	}
	s.propQueue.Clear()
}

func (s *Solver) record(learnt []Literal, glue int) {
	s.learntClauseLog = append(s.learntClauseLog, append([]Literal(nil), learnt...))

	c, _ := NewClause(s, learnt, true)
	if c != nil {
		c.glue = glue
		s.learnts = append(s.learnts, c)
		s.enqueue(learnt[0], clauseReason(c))
	} else if len(learnt) <= 2 {
		// unit or binary: NewClause already installed the unit enqueue or
		// the inlined binary watches; the asserting literal still needs to
		// be enqueued at the backjumped level for size 2.
		if len(learnt) == 2 {
			s.enqueue(learnt[0], binaryReason(learnt[1]))
		}
	} else {
		s.enqueue(learnt[0], decisionReason())
	}
}

func (s *Solver) saveModel() {
	model := make([]bool, s.NumVariables())
	for i := range model {
		lb := s.VarValue(i)
		if lb == Unknown {
			panic("sat: saveModel called with an incomplete assignment")
		}
		model[i] = lb == True
	}
	s.Models = append(s.Models, model)
}

// Search runs one episode of the SEARCH state of spec.md §4.7's driver: it
// returns True/False when a model or a root conflict settles the instance,
// or Unknown when the episode ends on a restart, a scheduled return to
// SIMPLIFY, or a resource bound.
func (s *Solver) Search() LBool {
	if s.unsat {
		return False
	}

	for {
		if s.shouldStop() {
			return Unknown
		}

		conflict, isConflict := s.Propagate()
		if !isConflict {
			units, xconflict := s.xor.RunAtLevel(s, s.decisionLevel())
			if xconflict != nil {
				conflict, isConflict = xorReasonRef(xconflict), true
			} else if len(units) > 0 {
				for _, u := range units {
					if s.enqueue(u.lit, xorReasonRef(u.reason)) == conflicting {
						conflict, isConflict = xorReasonRef(u.reason), true
						break
					}
				}
				if !isConflict {
					continue // re-propagate the freshly enqueued units first
				}
			}
		}

		if isConflict {
			s.TotalConflicts++

			if s.decisionLevel() == 0 {
				s.unsat = true
				return False
			}

			learnt, backjumpLevel, glue := s.analyze(conflict)
			s.cancelUntil(backjumpLevel)
			s.discardOverGlueLearnts(backjumpLevel)
			s.record(learnt, glue)

			s.decayClauseActivity()
			s.order.DecayScores()
			for _, v := range s.analyzedVars {
				s.order.BumpScore(v)
			}

			s.restart.onConflict(s.TotalConflicts, glue)
			if s.restart.shouldRestart(s.TotalConflicts) {
				s.restart.reset(s.TotalConflicts)
				s.TotalRestarts++
				s.cancelUntil(0)
				return Unknown
			}
			if s.reduce.shouldReduce(len(s.learnts)) {
				s.reduceDB()
				s.reduce.advance()
			}
			if s.simplify.shouldSimplify(s.TotalConflicts) {
				s.simplify.advance()
				s.cancelUntil(0)
				return Unknown
			}
			continue
		}

		// No conflict.
		if s.decisionLevel() == 0 {
			s.Simplify()
		}

		if s.NumAssigns() == s.NumVariables() {
			s.recordDecisionVars()
			s.saveModel()
			return True
		}

		l := s.order.NextDecision(s)
		s.assume(l)
	}
}

// recordDecisionVars snapshots the literals assigned at decision points
// (trail positions named by trailLim) for the current model, used by SolveN
// to synthesize a blocking clause restricted to decision variables per
// spec.md §4.7's enumeration note.
func (s *Solver) recordDecisionVars() {
	s.decisionVars = s.decisionVars[:0]
	for _, idx := range s.trailLim {
		s.decisionVars = append(s.decisionVars, s.trail[idx])
	}
}

// Solve drives SEARCH→SIMPLIFY episodes until a definitive result or a
// resource bound, per spec.md §4.7.
func (s *Solver) Solve() LBool {
	s.startTime = time.Now()
	status := Unknown

	for status == Unknown {
		status = s.Search()
		if status != Unknown {
			break
		}
		if s.shouldStop() {
			break
		}
	}

	s.cancelUntil(0)
	return status
}

// SolveN solves repeatedly, yielding up to n distinct models by adding a
// blocking clause over decision variables after each SAT result and
// re-solving, per spec.md §4.7 and §8 P9/P10. yield's return value of false
// stops enumeration early.
func (s *Solver) SolveN(n int, yield func(model []bool) bool) LBool {
	last := Unknown
	for i := 0; i < n; i++ {
		last = s.Solve()
		if last != True {
			return last
		}
		model := s.Models[len(s.Models)-1]
		if !yield(model) {
			return last
		}
		if err := s.blockLastModel(); err != nil {
			// A model with no decision variables is forced entirely at the
			// root, so no other model exists.
			s.unsat = true
		}
	}
	return last
}

func (s *Solver) blockLastModel() error {
	blocking := make([]Literal, 0, len(s.decisionVars))
	for _, l := range s.decisionVars {
		blocking = append(blocking, l.Opposite())
	}
	if len(blocking) == 0 {
		return fmt.Errorf("sat: cannot block a model with no decision variables")
	}
	return s.AddClause(blocking)
}
