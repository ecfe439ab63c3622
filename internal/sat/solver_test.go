package sat

import "testing"

func newTestSolver(vars int) *Solver {
	s := NewDefaultSolver()
	for i := 0; i < vars; i++ {
		s.AddVariable()
	}
	return s
}

func mustAddClause(t *testing.T, s *Solver, lits ...Literal) {
	t.Helper()
	if err := s.AddClause(lits); err != nil {
		t.Fatalf("AddClause(%v): %s", lits, err)
	}
}

func TestSolve_SingleUnit(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s, PositiveLiteral(0))

	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
	if !s.Models[0][0] {
		t.Errorf("model[0] = false, want true")
	}
}

func TestSolve_ImmediateContradiction(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s, PositiveLiteral(0))
	mustAddClause(t, s, NegativeLiteral(0))

	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want False", got)
	}
}

// php32 builds the 6-variable, 9-clause pigeonhole instance placing 3
// pigeons into 2 holes (spec.md §8 scenario 3): variable 2p+h is true when
// pigeon p occupies hole h.
func php32(t *testing.T) *Solver {
	t.Helper()
	s := newTestSolver(6)
	v := func(p, h int) Literal { return PositiveLiteral(2*p + h) }

	for p := 0; p < 3; p++ {
		mustAddClause(t, s, v(p, 0), v(p, 1))
	}
	for h := 0; h < 2; h++ {
		for p1 := 0; p1 < 3; p1++ {
			for p2 := p1 + 1; p2 < 3; p2++ {
				mustAddClause(t, s, v(p1, h).Opposite(), v(p2, h).Opposite())
			}
		}
	}
	return s
}

func TestSolve_PigeonholePHP32(t *testing.T) {
	s := php32(t)
	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want False", got)
	}
}

func TestSolve_XORChain_Unsat(t *testing.T) {
	s := newTestSolver(3)
	s.BuildXORMatrices() // no XORs yet; rebuilt again below once all are added

	if err := s.AddXOR([]int{0, 1}, false); err != nil {
		t.Fatal(err)
	}
	if err := s.AddXOR([]int{1, 2}, false); err != nil {
		t.Fatal(err)
	}
	if err := s.AddXOR([]int{0, 2}, true); err != nil {
		t.Fatal(err)
	}
	s.BuildXORMatrices()

	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want False", got)
	}
}

func TestSolve_XORChain_Sat(t *testing.T) {
	s := newTestSolver(3)
	if err := s.AddXOR([]int{0, 1}, false); err != nil {
		t.Fatal(err)
	}
	if err := s.AddXOR([]int{1, 2}, false); err != nil {
		t.Fatal(err)
	}
	if err := s.AddXOR([]int{0, 2}, false); err != nil {
		t.Fatal(err)
	}
	s.BuildXORMatrices()

	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
	m := s.Models[0]
	if (m[0] != m[1]) || (m[1] != m[2]) {
		t.Errorf("model %v does not satisfy the parity chain", m)
	}
}

func TestAddXOR_ZeroVarsFalse_NoOp(t *testing.T) {
	s := newTestSolver(1)
	if err := s.AddXOR(nil, false); err != nil {
		t.Fatal(err)
	}
	s.BuildXORMatrices()
	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
}

func TestAddXOR_ZeroVarsTrue_Unsat(t *testing.T) {
	s := newTestSolver(1)
	if err := s.AddXOR(nil, true); err != nil {
		t.Fatal(err)
	}
	s.BuildXORMatrices()
	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want False", got)
	}
}

func TestAddClause_EmptyClause_Unsat(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s)
	if got := s.Solve(); got != False {
		t.Fatalf("Solve() = %s, want False", got)
	}
}

func TestAddClause_Tautology_Dropped(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s, PositiveLiteral(0), NegativeLiteral(0))
	if s.NumConstraints() != 0 {
		t.Errorf("NumConstraints() = %d, want 0 (tautology should be dropped)", s.NumConstraints())
	}
	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
}

func TestAddClause_DuplicateLiterals_Deduplicated(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s, PositiveLiteral(0), PositiveLiteral(0))
	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
}

func TestSolveN_EnumerationDistinctness(t *testing.T) {
	s := newTestSolver(2)

	seen := map[[2]bool]bool{}
	status := s.SolveN(4, func(model []bool) bool {
		key := [2]bool{model[0], model[1]}
		if seen[key] {
			t.Errorf("model %v enumerated twice", model)
		}
		seen[key] = true
		return true
	})

	if status != True {
		t.Fatalf("SolveN() = %s, want True", status)
	}
	if len(seen) != 4 {
		t.Errorf("enumerated %d distinct models, want 4", len(seen))
	}
}

func TestSolveN_FifthAttemptExhausted(t *testing.T) {
	s := newTestSolver(2)
	status := s.SolveN(5, func(model []bool) bool { return true })
	if status != False {
		t.Fatalf("SolveN() on the 5th attempt = %s, want False (only 4 models exist)", status)
	}
}

func TestSolve_RestartBudget_Undetermined(t *testing.T) {
	s := php32(t)
	s.maxRestarts = 0
	s.hasMaxRestarts = true
	s.restart = newRestartController(RestartStatic, 1, 1.25)

	got := s.Solve()
	if got != Unknown {
		t.Fatalf("Solve() with maxRestarts=0 = %s, want Unknown (UNDETERMINED)", got)
	}
}

func TestCancelUntil_PreservesLevelZero(t *testing.T) {
	s := newTestSolver(2)
	mustAddClause(t, s, PositiveLiteral(0))
	s.Propagate()

	if s.VarValue(0) != True {
		t.Fatalf("VarValue(0) = %s, want True", s.VarValue(0))
	}

	s.assume(PositiveLiteral(1))
	s.cancelUntil(0)

	if s.VarValue(0) != True {
		t.Errorf("VarValue(0) after cancelUntil(0) = %s, want True (level-0 must survive)", s.VarValue(0))
	}
	if s.VarValue(1) != Unknown {
		t.Errorf("VarValue(1) after cancelUntil(0) = %s, want Unknown", s.VarValue(1))
	}
}

func TestBlockLastModel_NoDecisionVars_Errors(t *testing.T) {
	s := newTestSolver(1)
	mustAddClause(t, s, PositiveLiteral(0))
	if got := s.Solve(); got != True {
		t.Fatalf("Solve() = %s, want True", got)
	}
	if err := s.blockLastModel(); err == nil {
		t.Errorf("blockLastModel() with no decision variables: want error, got nil")
	}
}

func TestOriginalClauses_RoundTrip(t *testing.T) {
	s := newTestSolver(2)
	mustAddClause(t, s, PositiveLiteral(0), NegativeLiteral(1))
	mustAddClause(t, s, NegativeLiteral(0), PositiveLiteral(1))

	got := s.OriginalClauses()
	if len(got) != 2 {
		t.Fatalf("OriginalClauses() returned %d clauses, want 2", len(got))
	}
	if got[0][0] != PositiveLiteral(0) || got[0][1] != NegativeLiteral(1) {
		t.Errorf("OriginalClauses()[0] = %v, want [0 !1]", got[0])
	}
}
