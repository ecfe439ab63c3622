package sat

// analyze performs first-UIP conflict analysis (spec.md §4.2) starting from
// confl, the reason describing why the current state is conflicting. It
// returns the learnt clause (asserting literal first), the backjump level,
// and the clause's glue (LBD).
func (s *Solver) analyze(confl reasonRef) ([]Literal, int, int) {
	nImplicationPoints := 0
	currentLevel := s.decisionLevel()

	s.tmpLearnts = s.tmpLearnts[:0]
	s.tmpLearnts = append(s.tmpLearnts, Literal(-1)) // reserved for the FUIP

	nextTrailIdx := len(s.trail) - 1
	l := Literal(-1)
	s.seenVar.Clear()
	s.analyzedVars = s.analyzedVars[:0]
	backjumpLevel := 0

	for {
		if confl.kind == reasonClause {
			s.bumpClauseActivity(confl.clause)
		}

		s.tmpExplain = s.tmpExplain[:0]
		if l == -1 {
			s.tmpExplain = confl.explainConflict(s.tmpExplain)
		} else {
			s.tmpExplain = confl.explainAssign(s.tmpExplain, l)
		}

		for _, ante := range s.tmpExplain {
			v := ante.VarID()
			if s.seenVar.Contains(v) {
				continue
			}
			s.seenVar.Add(v)
			s.analyzedVars = append(s.analyzedVars, v)

			if s.assignLevels[v] == currentLevel {
				nImplicationPoints++
				continue
			}

			s.tmpLearnts = append(s.tmpLearnts, ante.Opposite())
			if lvl := s.assignLevels[v]; lvl > backjumpLevel {
				backjumpLevel = lvl
			}
		}

		for {
			l = s.trail[nextTrailIdx]
			nextTrailIdx--
			v := l.VarID()
			confl = s.assignReasons[v]
			if s.seenVar.Contains(v) {
				break
			}
		}

		nImplicationPoints--
		if nImplicationPoints <= 0 {
			break
		}
	}

	s.tmpLearnts[0] = l.Opposite()

	if s.minimizeLearnts {
		s.minimizeLearnt(s.recursiveMinimize)
	}

	glue := s.computeGlue(s.tmpLearnts)
	return s.tmpLearnts, backjumpLevel, glue
}

// minimizeLearnt drops literals from s.tmpLearnts (after index 0) whose
// reason is already subsumed by the rest of the clause, per spec.md §4.2
// step 5. Marks left by analyze's seenVar pass are reused as the "already
// accounted for" set.
func (s *Solver) minimizeLearnt(recursive bool) {
	out := s.tmpLearnts[:1]
	for _, lit := range s.tmpLearnts[1:] {
		if !s.litRedundant(lit, recursive) {
			out = append(out, lit)
		}
	}
	s.tmpLearnts = out
}

// litRedundant reports whether the clause literal lit (false under the
// current assignment) can be dropped from the learnt clause because every
// antecedent of its assignment is already accounted for — either marked
// seen by the main analyze pass, already proven redundant, or fixed at
// level 0. A literal whose own variable is fixed at level 0 is always
// redundant. When recursive is false, only directly-subsumed literals are
// removed ("local" minimization); when true, antecedents not yet seen are
// explored transitively ("recursive" minimization).
func (s *Solver) litRedundant(lit Literal, recursive bool) bool {
	v := lit.VarID()
	if s.assignLevels[v] == 0 {
		return true
	}
	r := s.assignReasons[v]
	if r.isNone() {
		return false
	}

	trailLit := lit.Opposite()
	s.tmpExplain = s.tmpExplain[:0]
	s.tmpExplain = r.explainAssign(s.tmpExplain, trailLit)

	for _, ante := range s.tmpExplain {
		av := ante.VarID()
		if s.seenVar.Contains(av) || s.assignLevels[av] == 0 {
			continue
		}
		if !recursive {
			return false
		}
		if !s.litRedundant(ante.Opposite(), true) {
			return false
		}
	}

	s.seenVar.Add(v)
	return true
}

// computeGlue counts the distinct decision levels represented in lits
// (spec.md §4.2 step 6 / glossary "Glue / LBD").
func (s *Solver) computeGlue(lits []Literal) int {
	levels := map[int]struct{}{}
	for _, l := range lits {
		levels[s.assignLevels[l.VarID()]] = struct{}{}
	}
	return len(levels)
}
