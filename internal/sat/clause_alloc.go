//go:build !clausepool

package sat

// allocClauseLiterals copies lits into a freshly allocated slice. The
// second return value is always nil in this build; it exists so that
// clause.go's call site is identical under both the clausepool and
// !clausepool tags.
func allocClauseLiterals(lits []Literal) ([]Literal, *[]Literal) {
	out := make([]Literal, len(lits))
	copy(out, lits)
	return out, nil
}

func releaseClauseLiterals(c *Clause) {}
