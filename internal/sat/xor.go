package sat

// xorReason is the synthesized antecedent record for a literal propagated
// (or a conflict raised) by a gaussMatrix row, per spec.md §4.6: the blamed
// literals are the trail assignments substituted along that row.
type xorReason struct {
	support []Literal
}

func (x *xorReason) explainAssign(out []Literal, l Literal) []Literal {
	for _, lit := range x.support {
		if lit != l {
			out = append(out, lit.Opposite())
		}
	}
	return out
}

func (x *xorReason) explainConflict(out []Literal) []Literal {
	for _, lit := range x.support {
		out = append(out, lit.Opposite())
	}
	return out
}

// xorClauseRecord is an XOR clause as added to the engine, before matrix
// construction groups it with others sharing variables.
type xorClauseRecord struct {
	vars []int
	rhs  bool
}

// matrixSnapshot is a point-in-time copy of a gaussMatrix's working rows,
// taken every saveEveryNth decision levels (spec.md §4.6's save/rollback).
type matrixSnapshot struct {
	level    int
	trailLen int
	rows     []xorRow
}

// gaussMatrix holds one connected component of XOR clauses (by shared
// variables), or the entire XOR store when noMatrixFind is set.
type gaussMatrix struct {
	cols  []int       // column index -> variable ID
	colOf map[int]int // variable ID -> column index

	origRows []xorRow // pristine rows, substitution-free
	rows     []xorRow // current working rows

	appliedTrailLen int
	snapshots       []matrixSnapshot

	active bool // false if excluded by size bounds (spec.md §4.6)
}

func newGaussMatrix(cols []int, clauses []xorClauseRecord) *gaussMatrix {
	m := &gaussMatrix{
		cols:  cols,
		colOf: make(map[int]int, len(cols)),
	}
	for i, v := range cols {
		m.colOf[v] = i
	}
	m.origRows = make([]xorRow, len(clauses))
	for i, c := range clauses {
		row := newXORRow(len(cols))
		row.rhs = c.rhs
		for _, v := range c.vars {
			row.setCol(m.colOf[v])
		}
		m.origRows[i] = row
	}
	m.resetToOrig()
	return m
}

func (m *gaussMatrix) resetToOrig() {
	m.rows = make([]xorRow, len(m.origRows))
	for i := range m.origRows {
		m.rows[i] = m.origRows[i].clone()
	}
	m.appliedTrailLen = 0
	m.snapshots = nil
}

// rollbackIfNeeded restores the nearest snapshot at or before the current
// trail length, used when the trail has shrunk since the matrix was last
// reduced (i.e. the driver backtracked).
func (m *gaussMatrix) rollbackIfNeeded(trailLen int) {
	if trailLen >= m.appliedTrailLen {
		return
	}
	best := -1
	for i, snap := range m.snapshots {
		if snap.trailLen <= trailLen && (best == -1 || snap.trailLen > m.snapshots[best].trailLen) {
			best = i
		}
	}
	if best == -1 {
		m.resetToOrig()
		return
	}
	snap := m.snapshots[best]
	m.rows = make([]xorRow, len(snap.rows))
	for i := range snap.rows {
		m.rows[i] = snap.rows[i].clone()
	}
	m.appliedTrailLen = snap.trailLen
	kept := m.snapshots[:0]
	for _, s := range m.snapshots {
		if s.trailLen <= snap.trailLen {
			kept = append(kept, s)
		}
	}
	m.snapshots = kept
}

func (m *gaussMatrix) saveSnapshot(level, trailLen int) {
	rows := make([]xorRow, len(m.rows))
	for i := range m.rows {
		rows[i] = m.rows[i].clone()
	}
	m.snapshots = append(m.snapshots, matrixSnapshot{level: level, trailLen: trailLen, rows: rows})
}

// xorUnitResult is one forced assignment produced by a matrix reduction.
type xorUnitResult struct {
	lit    Literal
	reason *xorReason
}

// reduceAtLevel substitutes newly-assigned trail literals since the matrix
// was last reduced, brings the matrix to echelon form, and reports any
// conflict row or unit rows found. Units are returned even if some of them
// would be redundant with each other; the caller's enqueue is idempotent.
func (m *gaussMatrix) reduceAtLevel(s *Solver, level, saveEveryNth int) (units []xorUnitResult, conflict *xorReason) {
	m.rollbackIfNeeded(len(s.trail))

	for i := m.appliedTrailLen; i < len(s.trail); i++ {
		lit := s.trail[i]
		col, ok := m.colOf[lit.VarID()]
		if !ok {
			continue
		}
		for r := range m.rows {
			m.rows[r].applySubstitution(col, lit, lit.IsPositive())
		}
	}
	m.appliedTrailLen = len(s.trail)

	rowEchelon(m.rows, len(m.cols))

	for i := range m.rows {
		row := &m.rows[i]
		if row.isZero() {
			if row.rhs {
				reason := &xorReason{support: append([]Literal(nil), row.support...)}
				return nil, reason
			}
			continue
		}
		if col := row.singleSetBit(); col != -1 {
			varID := m.cols[col]
			if s.VarValue(varID) != Unknown {
				continue
			}
			var lit Literal
			if row.rhs {
				lit = PositiveLiteral(varID)
			} else {
				lit = NegativeLiteral(varID)
			}
			units = append(units, xorUnitResult{
				lit:    lit,
				reason: &xorReason{support: append([]Literal(nil), row.support...)},
			})
		}
	}

	if saveEveryNth > 0 && level%saveEveryNth == 0 {
		m.saveSnapshot(level, len(s.trail))
	}
	return units, nil
}

// XOROptions configures the XOR-reasoning layer (spec.md §6's Gaussian
// option group).
type XOROptions struct {
	// DecisionUntil caps the decision level at which Gaussian reduction
	// still runs; 0 means unbounded. Deep decision levels rarely justify
	// the matrix-reduction cost.
	DecisionUntil int
	SaveEveryNth  int
	MinMatrixRows int
	MaxMatrixRows int
	MaxNumMatrixes int
	NoMatrixFind  bool
	Enabled       bool
}

var DefaultXOROptions = XOROptions{
	DecisionUntil:  0,
	SaveEveryNth:   5,
	MinMatrixRows:  3,
	MaxMatrixRows:  2000,
	MaxNumMatrixes: 20,
	NoMatrixFind:   false,
	Enabled:        true,
}

// xorEngine owns the XOR clause store and the set of matrices built from it.
type xorEngine struct {
	opts     XOROptions
	clauses  []xorClauseRecord
	matrices []*gaussMatrix
	built    bool
}

func newXOREngine(opts XOROptions) *xorEngine {
	return &xorEngine{opts: opts}
}

// AddXOR adds an XOR clause (vars, rhs) to the store. Zero-variable XORs are
// handled by the caller per spec.md §8's boundary behaviors before reaching
// here; a zero-variable call here is ignored whatever rhs is.
func (e *xorEngine) AddXOR(vars []int, rhs bool) {
	if len(vars) == 0 {
		return
	}
	e.clauses = append(e.clauses, xorClauseRecord{vars: append([]int(nil), vars...), rhs: rhs})
	e.built = false
}

// Build groups the XOR store into connected components (unless NoMatrixFind
// is set, in which case everything goes into a single matrix) and excludes
// matrices outside the configured row-count bounds from reasoning.
func (e *xorEngine) Build() {
	e.matrices = nil
	e.built = true
	if len(e.clauses) == 0 {
		return
	}

	if e.opts.NoMatrixFind {
		e.matrices = append(e.matrices, e.buildMatrixFrom(e.clauses))
	} else {
		for _, group := range groupByConnectedVariables(e.clauses) {
			e.matrices = append(e.matrices, e.buildMatrixFrom(group))
			if len(e.matrices) >= e.opts.MaxNumMatrixes {
				break
			}
		}
	}

	for _, m := range e.matrices {
		rows := len(m.origRows)
		m.active = rows >= e.opts.MinMatrixRows && rows <= e.opts.MaxMatrixRows
	}
}

func (e *xorEngine) buildMatrixFrom(group []xorClauseRecord) *gaussMatrix {
	seen := map[int]bool{}
	var cols []int
	for _, c := range group {
		for _, v := range c.vars {
			if !seen[v] {
				seen[v] = true
				cols = append(cols, v)
			}
		}
	}
	return newGaussMatrix(cols, group)
}

// groupByConnectedVariables partitions XOR clauses into connected components
// over shared variables using union-find.
func groupByConnectedVariables(clauses []xorClauseRecord) [][]xorClauseRecord {
	parent := map[int]int{}
	var find func(int) int
	find = func(v int) int {
		p, ok := parent[v]
		if !ok {
			parent[v] = v
			return v
		}
		if p != v {
			parent[v] = find(p)
		}
		return parent[v]
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for _, c := range clauses {
		for i := 1; i < len(c.vars); i++ {
			union(c.vars[0], c.vars[i])
		}
		if len(c.vars) == 1 {
			find(c.vars[0])
		}
	}

	byRoot := map[int][]xorClauseRecord{}
	var order []int
	for _, c := range clauses {
		root := find(c.vars[0])
		if _, ok := byRoot[root]; !ok {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], c)
	}

	groups := make([][]xorClauseRecord, 0, len(order))
	for _, root := range order {
		groups = append(groups, byRoot[root])
	}
	return groups
}

// RunAtLevel runs Gaussian reduction on every active matrix at the given
// decision level, per spec.md §4.6 and the search driver pseudocode of
// §4.7. It returns either a conflict reason or a batch of forced units.
func (e *xorEngine) RunAtLevel(s *Solver, level int) (units []xorUnitResult, conflict *xorReason) {
	if !e.opts.Enabled || !e.built {
		return nil, nil
	}
	if e.opts.DecisionUntil > 0 && level > e.opts.DecisionUntil {
		return nil, nil
	}
	for _, m := range e.matrices {
		if !m.active {
			continue
		}
		u, c := m.reduceAtLevel(s, level, e.opts.SaveEveryNth)
		if c != nil {
			return nil, c
		}
		units = append(units, u...)
	}
	return units, nil
}
