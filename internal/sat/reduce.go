package sat

import "sort"

// reduceController schedules learnt-clause database reduction episodes
// (spec.md §4.5) and tracks the maxGlue discard policy used in dynamic
// restart mode.
type reduceController struct {
	nextTarget int
	growth     int
	maxGlue    int // 0 disables the on-backjump discard policy
}

func newReduceController(initialTarget, growth, maxGlue int) *reduceController {
	if initialTarget <= 0 {
		initialTarget = 2000
	}
	if growth <= 0 {
		growth = 300
	}
	return &reduceController{nextTarget: initialTarget, growth: growth, maxGlue: maxGlue}
}

// shouldReduce reports whether the learnt DB has grown past the next
// scheduled target.
func (rc *reduceController) shouldReduce(numLearnts int) bool {
	return numLearnts >= rc.nextTarget
}

// advance is called right after a reduceDB episode runs, scheduling the next
// one further out (a growing cadence, per spec.md §9's note that this
// cadence is a tunable rather than a fixed constant).
func (rc *reduceController) advance() {
	rc.nextTarget += rc.growth
}

// reduceDB sorts learnts by (glue, activity) and discards the worse half,
// keeping locked clauses (currently a reason) and glue<=2 clauses
// (protected) regardless of rank, per spec.md §4.5.
func (s *Solver) reduceDB() {
	learnts := s.learnts
	sort.SliceStable(learnts, func(i, j int) bool {
		a, b := learnts[i], learnts[j]
		if a.glue != b.glue {
			return a.glue < b.glue
		}
		return a.activity > b.activity
	})

	keepByRank := len(learnts) - len(learnts)/2

	j := 0
	for i, c := range learnts {
		if c.locked(s) || c.glue <= 2 || i < keepByRank {
			learnts[j] = c
			j++
			continue
		}
		c.Remove(s)
	}
	s.learnts = learnts[:j]
}

// discardOverGlueLearnts removes learnts created above level whose glue
// exceeded maxGlue, called after a backjump lands at level (spec.md §4.5).
// A maxGlue of 0 disables this policy, which only applies while the restart
// controller's effective mode is dynamic (including auto mode before it
// commits, or once it commits to dynamic), per spec.md §6's option table.
func (s *Solver) discardOverGlueLearnts(level int) {
	if s.reduce.maxGlue <= 0 || s.restart.effectiveMode() != RestartDynamic {
		return
	}
	learnts := s.learnts
	j := 0
	for _, c := range learnts {
		if c.createdAt > level && c.glue > s.reduce.maxGlue && !c.locked(s) {
			c.Remove(s)
			continue
		}
		learnts[j] = c
		j++
	}
	s.learnts = learnts[:j]
}

func (s *Solver) bumpClauseActivity(c *Clause) {
	c.activity += s.clauseInc
	if c.activity > 1e100 {
		s.clauseInc *= 1e-100
		for _, l := range s.learnts {
			l.activity *= 1e-100
		}
	}
}

func (s *Solver) decayClauseActivity() {
	s.clauseInc *= s.clauseDecay
}
