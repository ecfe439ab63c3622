package sat

// watchKind tags the payload of a watchEntry.
type watchKind uint8

const (
	watchKindBinary watchKind = iota
	watchKindTernary
	watchKindLong
)

// watchEntry is one entry of a literal's watch list. Binary and ternary
// clauses are represented inline (no clause indirection, per spec.md
// §4.1/§3); general clauses carry a pointer plus a blocking literal that
// lets Propagate skip loading the clause entirely when the blocker is
// already satisfied.
type watchEntry struct {
	kind    watchKind
	a, b    Literal // binary: a = other literal. ternary: a, b = other two literals.
	clause  *Clause // valid when kind == watchKindLong
	blocker Literal // valid when kind == watchKindLong
}

// watchBinary registers clause (watched ∨ other) to fire when watched
// becomes false (i.e. when watched.Opposite() is assigned true).
func (s *Solver) watchBinary(watched, other Literal) {
	key := watched.Opposite()
	s.watchers[key] = append(s.watchers[key], watchEntry{kind: watchKindBinary, a: other})
}

// watchTernary registers clause (watched ∨ a ∨ b) to fire when watched
// becomes false.
func (s *Solver) watchTernary(watched, a, b Literal) {
	key := watched.Opposite()
	s.watchers[key] = append(s.watchers[key], watchEntry{kind: watchKindTernary, a: a, b: b})
}

// watchLong registers a general clause to fire when watched is assigned true
// (i.e. when the clause literal watched.Opposite() becomes false), with
// blocker as the short-circuit literal.
func (s *Solver) watchLong(c *Clause, watched, blocker Literal) {
	s.watchers[watched] = append(s.watchers[watched], watchEntry{
		kind:    watchKindLong,
		clause:  c,
		blocker: blocker,
	})
}

// unwatchLong removes c from the watch list of watched. Binary and ternary
// entries never need to be unregistered since they are never deleted
// individually (see spec.md §3's clause lifecycle note).
func (s *Solver) unwatchLong(c *Clause, watched Literal) {
	list := s.watchers[watched]
	j := 0
	for i := 0; i < len(list); i++ {
		if list[i].kind == watchKindLong && list[i].clause == c {
			continue
		}
		list[j] = list[i]
		j++
	}
	s.watchers[watched] = list[:j]
}

type enqueueResult uint8

const (
	alreadyTrue enqueueResult = iota
	enqueued
	conflicting
)

// Propagate drains the propagation queue, returning the reason descriptor of
// the first conflict encountered, or the zero reasonRef with ok=false if the
// queue drained cleanly.
func (s *Solver) Propagate() (reasonRef, bool) {
	for s.propQueue.Size() > 0 {
		l := s.propQueue.Pop()

		s.tmpWatchers = s.tmpWatchers[:0]
		s.tmpWatchers = append(s.tmpWatchers, s.watchers[l]...)
		s.watchers[l] = s.watchers[l][:0]

		for i := 0; i < len(s.tmpWatchers); i++ {
			w := s.tmpWatchers[i]

			switch w.kind {
			case watchKindBinary:
				// Binary watches are permanent: the entry always stays
				// registered at l regardless of outcome.
				s.watchers[l] = append(s.watchers[l], w)
				switch s.LitValue(w.a) {
				case True:
					// already satisfied
				case False:
					s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
					s.propQueue.Clear()
					return binaryReason(l.Opposite(), w.a), true
				default:
					if s.enqueue(w.a, binaryReason(l.Opposite(), w.a)) == conflicting {
						s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
						s.propQueue.Clear()
						return binaryReason(l.Opposite(), w.a), true
					}
				}

			case watchKindTernary:
				// Ternary watches are permanent too: all three literals stay
				// watched for the clause's lifetime.
				p := l.Opposite()
				s.watchers[l] = append(s.watchers[l], w)
				va, vb := s.LitValue(w.a), s.LitValue(w.b)
				if va == True || vb == True {
					continue
				}
				if va == Unknown && vb == Unknown {
					continue
				}
				var target Literal
				switch {
				case va == Unknown: // vb == False
					target = w.a
				case vb == Unknown: // va == False
					target = w.b
				default: // both false: conflict
					s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
					s.propQueue.Clear()
					return ternaryReason(p, w.a, w.b), true
				}
				if s.enqueue(target, ternaryReason(p, w.a, w.b)) == conflicting {
					s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
					s.propQueue.Clear()
					return ternaryReason(p, w.a, w.b), true
				}

			case watchKindLong:
				if s.LitValue(w.blocker) == True {
					s.watchers[l] = append(s.watchers[l], w)
					continue
				}
				if w.clause.Propagate(s, l) {
					continue
				}
				s.watchers[l] = append(s.watchers[l], s.tmpWatchers[i+1:]...)
				s.propQueue.Clear()
				return clauseReason(w.clause), true
			}
		}
	}

	return reasonRef{}, false
}
