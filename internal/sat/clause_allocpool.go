//go:build clausepool

package sat

// allocClauseLiterals draws a backing array from the size-banded pools of
// clauses_alloc.go instead of allocating, returning the pool reference so
// Remove (via releaseClauseLiterals) can give it back.
func allocClauseLiterals(lits []Literal) ([]Literal, *[]Literal) {
	ref := allocSlice(len(lits))
	s := (*ref)[:0]
	s = append(s, lits...)
	return s, ref
}

func releaseClauseLiterals(c *Clause) {
	if c.sliceRef == nil {
		return
	}
	*c.sliceRef = c.literals
	freeSlice(c.sliceRef)
	c.sliceRef = nil
}
