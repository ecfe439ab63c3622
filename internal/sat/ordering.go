package sat

import (
	"math/rand"

	"github.com/rhartert/yagh"
)

// PolarityMode selects how a freshly decided variable's sign is chosen
// (spec.md §4.3's polarity_mode option).
type PolarityMode uint8

const (
	PolarityTrue PolarityMode = iota
	PolarityFalse
	PolarityRandom
	PolarityAuto
)

// VarOrder maintains the activity-ordered set of candidate decision
// variables (spec.md §4.3). It wraps a yagh binary heap exactly as the
// teacher's internal/sat/ordering.go does, generalized with phase modes, a
// random-decision frequency, and restricted top-K branching.
type VarOrder struct {
	order      *yagh.IntMap[float64]
	scores     []float64 // in [0, 1e100)
	scoreInc   float64   // in (0, 1e100)
	scoreDecay float64   // in (0, 1]

	phases      []LBool
	phaseSaving bool
	polarity    PolarityMode
	jwPositive  []float64
	jwNegative  []float64

	rng         *rand.Rand
	randVarFreq float64
	restrictK   int
	restrictBuf []int // scratch, reused by pickRestricted
}

// NewVarOrder returns a new initialized VarOrder.
func NewVarOrder(decay float64, mode PolarityMode, randVarFreq float64, restrictK int, seed int64) *VarOrder {
	return &VarOrder{
		order:       yagh.New[float64](0),
		scoreInc:    1,
		scoreDecay:  decay,
		phases:      make([]LBool, 0),
		polarity:    mode,
		rng:         rand.New(rand.NewSource(seed)),
		randVarFreq: randVarFreq,
		restrictK:   restrictK,
	}
}

// SetPhaseSaving enables or disables phase saving (reusing the last assigned
// value of a variable as its next preferred polarity).
func (vo *VarOrder) SetPhaseSaving(enabled bool) {
	vo.phaseSaving = enabled
}

// AddVar adds a new variable with zero initial score.
func (vo *VarOrder) AddVar() {
	varID := len(vo.phases)
	vo.scores = append(vo.scores, 0)
	vo.phases = append(vo.phases, Unknown)
	vo.jwPositive = append(vo.jwPositive, 0)
	vo.jwNegative = append(vo.jwNegative, 0)
	vo.order.GrowBy(1)
	vo.order.Put(varID, 0)
}

// AccumulateJeroslowWang adds literal l's contribution (2^-size) to the
// Jeroslow-Wang estimate consulted by InitAutoPhases.
func (vo *VarOrder) AccumulateJeroslowWang(l Literal, size int) {
	w := jwWeight(size)
	if l.IsPositive() {
		vo.jwPositive[l.VarID()] += w
	} else {
		vo.jwNegative[l.VarID()] += w
	}
}

func jwWeight(size int) float64 {
	if size <= 0 {
		return 1
	}
	w := 1.0
	for i := 0; i < size; i++ {
		w /= 2
	}
	return w
}

// InitAutoPhases sets every variable's initial phase from its accumulated
// Jeroslow-Wang weights. Only consulted in PolarityAuto mode, before phase
// saving has recorded any real assignment.
func (vo *VarOrder) InitAutoPhases() {
	for v := range vo.phases {
		if vo.jwPositive[v] >= vo.jwNegative[v] {
			vo.phases[v] = True
		} else {
			vo.phases[v] = False
		}
	}
}

// Reinsert adds variable v back to the set of candidates to be selected.
// Called by the solver when v is unassigned (e.g. on backtrack), where val
// is the value v held just before being unassigned.
func (vo *VarOrder) Reinsert(v int, val LBool) {
	if vo.phaseSaving {
		vo.phases[v] = val
	}
	vo.order.Put(v, -vo.scores[v])
}

// DecayScores slightly decreases the scores of the variables relative to
// future bumps, by bumping the shared increment instead of rescaling every
// individual score.
func (vo *VarOrder) DecayScores() {
	vo.scoreInc /= vo.scoreDecay
	if vo.scoreInc > 1e100 {
		vo.rescale()
	}
}

// BumpScore increases the score of the given variable, rescaling every score
// (conserving relative order) if v's score grows too large.
func (vo *VarOrder) BumpScore(v int) {
	vo.scores[v] += vo.scoreInc
	if vo.order.Contains(v) {
		vo.order.Put(v, -vo.scores[v])
	}
	if vo.scores[v] > 1e100 {
		vo.rescale()
	}
}

func (vo *VarOrder) rescale() {
	vo.scoreInc *= 1e-100
	for v, sc := range vo.scores {
		newScore := sc * 1e-100
		vo.scores[v] = newScore
		if vo.order.Contains(v) {
			vo.order.Put(v, -newScore)
		}
	}
}

// NextDecision returns the next literal to branch on: the decision itself
// still has to be applied by the caller via assume/enqueue.
func (vo *VarOrder) NextDecision(s *Solver) Literal {
	if vo.randVarFreq > 0 && vo.rng.Float64() < vo.randVarFreq {
		if v, ok := vo.randomUnassigned(s); ok {
			return vo.withPolarity(v)
		}
	}
	if vo.restrictK > 1 {
		if v, ok := vo.pickRestricted(s); ok {
			return vo.withPolarity(v)
		}
	}
	for {
		next, ok := vo.order.Pop()
		if !ok {
			panic("sat: NextDecision called with no unassigned variables")
		}
		if s.VarValue(next.Elem) != Unknown {
			continue // stale entry, already assigned
		}
		return vo.withPolarity(next.Elem)
	}
}

// randomUnassigned returns a uniformly random unassigned variable by
// rejection sampling. The variable is left in the heap; it will be silently
// discarded as a stale entry once the caller assigns it.
func (vo *VarOrder) randomUnassigned(s *Solver) (int, bool) {
	n := len(vo.phases)
	if n == 0 {
		return 0, false
	}
	for attempt := 0; attempt < n; attempt++ {
		v := vo.rng.Intn(n)
		if s.VarValue(v) == Unknown {
			return v, true
		}
	}
	return 0, false
}

// pickRestricted pops up to restrictK unassigned candidates from the heap,
// chooses uniformly among them, and reinserts the ones not chosen.
func (vo *VarOrder) pickRestricted(s *Solver) (int, bool) {
	vo.restrictBuf = vo.restrictBuf[:0]
	for len(vo.restrictBuf) < vo.restrictK {
		next, ok := vo.order.Pop()
		if !ok {
			break
		}
		if s.VarValue(next.Elem) != Unknown {
			continue // stale, discard
		}
		vo.restrictBuf = append(vo.restrictBuf, next.Elem)
	}
	if len(vo.restrictBuf) == 0 {
		return 0, false
	}
	chosen := vo.rng.Intn(len(vo.restrictBuf))
	for i, v := range vo.restrictBuf {
		if i == chosen {
			continue
		}
		vo.order.Put(v, -vo.scores[v])
	}
	return vo.restrictBuf[chosen], true
}

func (vo *VarOrder) withPolarity(v int) Literal {
	switch vo.polarity {
	case PolarityTrue:
		return PositiveLiteral(v)
	case PolarityFalse:
		return NegativeLiteral(v)
	case PolarityRandom:
		if vo.rng.Intn(2) == 0 {
			return PositiveLiteral(v)
		}
		return NegativeLiteral(v)
	default: // PolarityAuto: the phase recorded for v, positive when none is.
		// Phases are recorded only by phase saving (SetPhaseSaving) or
		// InitAutoPhases; Solver enables neither, so every auto decision a
		// Solver makes is positive.
		switch vo.phases[v] {
		case True:
			return PositiveLiteral(v)
		case False:
			return NegativeLiteral(v)
		default:
			return PositiveLiteral(v)
		}
	}
}
