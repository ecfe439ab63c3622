package sat

import "strings"

// Clause is a general (arena-backed) clause of four or more literals.
// Shorter clauses never reach this type: size-1 clauses are enqueued as
// units, size-2 clauses are inlined as binary watch entries, and size-3
// original clauses are inlined as ternary watch entries (see watch.go). The
// first two literal positions are the watched positions; Propagate
// maintains that invariant. Learnt clauses of size 3 also use this type,
// since they need activity/glue/locked bookkeeping that the inlined forms
// don't carry.
type Clause struct {
	literals []Literal

	// Learnt-clause bookkeeping. Zero-valued for original clauses.
	learnt    bool
	activity  float64
	glue      int
	protected bool
	createdAt int // decision level at installation, used by maxGlue discard

	// prevPos resumes the search for a new watched literal from where the
	// previous search left off, avoiding rescanning literals known false.
	prevPos int

	// sliceRef is the pooled backing array literals was allocated from,
	// non-nil only when built with the clausepool tag (see
	// clause_allocpool.go). It lets Remove return the backing array to its
	// size-banded pool instead of leaving it for the garbage collector.
	sliceRef *[]Literal
}

// NewClause builds a clause from lits and registers it with the solver. ok
// is false only when the clause is empty and unsatisfiable at the root; a
// nil clause with ok true means the clause was absorbed (as a unit, a
// tautology, an inlined binary/ternary entry, or an already-satisfied root
// clause) and no arena object was needed.
func NewClause(s *Solver, lits []Literal, learnt bool) (*Clause, bool) {
	size := len(lits)

	if !learnt {
		seen := map[Literal]struct{}{}
		for i := size - 1; i >= 0; i-- {
			if _, ok := seen[lits[i].Opposite()]; ok {
				return nil, true // tautology, drop silently
			}
			if _, ok := seen[lits[i]]; ok {
				size--
				lits[i], lits[size] = lits[size], lits[i]
				continue
			}
			seen[lits[i]] = struct{}{}

			switch s.LitValue(lits[i]) {
			case True:
				return nil, true // already satisfied at the root
			case False:
				size--
				lits[i], lits[size] = lits[size], lits[i]
			}
		}
		lits = lits[:size]
	}

	switch size {
	case 0:
		return nil, false
	case 1:
		return nil, s.enqueue(lits[0], decisionReason()) != conflicting
	case 2:
		s.watchBinary(lits[0], lits[1])
		s.watchBinary(lits[1], lits[0])
		return nil, true
	case 3:
		if !learnt {
			s.watchTernary(lits[0], lits[1], lits[2])
			s.watchTernary(lits[1], lits[0], lits[2])
			s.watchTernary(lits[2], lits[0], lits[1])
			return nil, true
		}
	}

	litsCopy, ref := allocClauseLiterals(lits)
	c := &Clause{
		literals:  litsCopy,
		sliceRef:  ref,
		learnt:    learnt,
		prevPos:   2,
		createdAt: s.decisionLevel(),
	}

	if learnt {
		maxLevel := -1
		wl := -1
		for i, l := range c.literals {
			if lvl := s.assignLevels[l.VarID()]; lvl > maxLevel {
				maxLevel = lvl
				wl = i
			}
		}
		c.literals[wl], c.literals[1] = c.literals[1], c.literals[wl]
	}

	s.watchLong(c, c.literals[0].Opposite(), c.literals[1])
	s.watchLong(c, c.literals[1].Opposite(), c.literals[0])

	return c, true
}

func (c *Clause) locked(s *Solver) bool {
	r := s.assignReasons[c.literals[0].VarID()]
	return r.kind == reasonClause && r.clause == c
}

// Remove unregisters the clause's watches. The clause must not be referenced
// afterwards.
func (c *Clause) Remove(s *Solver) {
	s.unwatchLong(c, c.literals[0].Opposite())
	s.unwatchLong(c, c.literals[1].Opposite())
	releaseClauseLiterals(c)
	c.literals = nil
}

// Simplify drops root-level falsified literals and reports whether the
// clause is now satisfied at the root (in which case it should be removed).
func (c *Clause) Simplify(s *Solver) bool {
	k := 0
	for _, l := range c.literals {
		switch s.LitValue(l) {
		case True:
			return true
		case False:
			// drop
		default:
			c.literals[k] = l
			k++
		}
	}
	c.literals = c.literals[:k]
	return false
}

// Propagate is invoked when l's opposite was one of the clause's two watched
// literals and l has just been assigned true (i.e. that watched literal just
// became false). It restores the watch invariant, possibly moving a watch to
// a new literal, and reports whether the clause remains non-conflicting.
func (c *Clause) Propagate(s *Solver, l Literal) bool {
	opp := l.Opposite()
	if c.literals[0] == opp {
		c.literals[0], c.literals[1] = c.literals[1], c.literals[0]
	}

	if s.LitValue(c.literals[0]) == True {
		s.watchLong(c, l, c.literals[0])
		return true
	}

	if c.prevPos >= len(c.literals) {
		c.prevPos = 2
	}
	for i := c.prevPos; i < len(c.literals); i++ {
		if s.LitValue(c.literals[i]) != False {
			c.prevPos = i
			c.literals[1], c.literals[i] = c.literals[i], opp
			s.watchLong(c, c.literals[1].Opposite(), c.literals[0])
			return true
		}
	}
	for i := 2; i < c.prevPos; i++ {
		if s.LitValue(c.literals[i]) != False {
			c.prevPos = i
			c.literals[1], c.literals[i] = c.literals[i], opp
			s.watchLong(c, c.literals[1].Opposite(), c.literals[0])
			return true
		}
	}

	s.watchLong(c, l, c.literals[0])
	return s.enqueue(c.literals[0], clauseReason(c)) != conflicting
}

func (c *Clause) explainConflict(out []Literal) []Literal {
	for _, l := range c.literals {
		out = append(out, l.Opposite())
	}
	return out
}

func (c *Clause) explainAssign(out []Literal) []Literal {
	for _, l := range c.literals[1:] {
		out = append(out, l.Opposite())
	}
	return out
}

func (c *Clause) String() string {
	if len(c.literals) == 0 {
		return "Clause[]"
	}
	sb := strings.Builder{}
	sb.WriteString("Clause[")
	sb.WriteString(c.literals[0].String())
	for _, l := range c.literals[1:] {
		sb.WriteByte(' ')
		sb.WriteString(l.String())
	}
	sb.WriteByte(']')
	return sb.String()
}
