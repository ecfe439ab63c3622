package dimacs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hartsat/xorsat/internal/sat"
)

type instance struct {
	Variables int
	Clauses   [][]sat.Literal
	XORs      []xorRecord
}

type xorRecord struct {
	Vars []int
	RHS  bool
}

func (i *instance) AddVariable() int {
	i.Variables++
	return i.Variables - 1
}

func (i *instance) AddClause(tmpClause []sat.Literal) error {
	clause := make([]sat.Literal, len(tmpClause))
	copy(clause, tmpClause)
	i.Clauses = append(i.Clauses, clause)
	return nil
}

func (i *instance) AddXOR(vars []int, rhs bool) error {
	cp := make([]int, len(vars))
	copy(cp, vars)
	i.XORs = append(i.XORs, xorRecord{Vars: cp, RHS: rhs})
	return nil
}

var want = instance{
	Variables: 3,
	Clauses: [][]sat.Literal{
		{0, 2, 4},
		{0, 2, 5},
		{0, 3, 4},
		{1, 2, 4},
		{1, 3, 4},
		{1, 2, 5},
		{0, 3, 5},
		{1, 3, 5},
	},
}

func TestLoadDIMACS_cnf(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", false, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (+want, -got):\n%s", diff)
	}
}

func TestLoadDIMACS_gzip(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf.gz", true, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("LoadDIMACS(): mismatch (+want, -got):\n%s", diff)
	}
}

func TestLoadDIMACS_noFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("", false, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_gzip_notGzipFile(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance.cnf", true, &got)

	if gotErr == nil {
		t.Errorf("LoadDIMACS(): want error, got none")
	}
}

func TestLoadDIMACS_xorLines(t *testing.T) {
	got := instance{}
	gotErr := LoadDIMACS("testdata/test_instance_xor.cnf", false, &got)

	if gotErr != nil {
		t.Errorf("LoadDIMACS(): want no error, got %s", gotErr)
	}

	wantXORs := []xorRecord{{Vars: []int{0, 1}, RHS: false}}
	if diff := cmp.Diff(wantXORs, got.XORs); diff != "" {
		t.Errorf("LoadDIMACS(): XOR mismatch (+want, -got):\n%s", diff)
	}
	if len(got.Clauses) != 1 {
		t.Errorf("LoadDIMACS(): want 1 ordinary clause, got %d", len(got.Clauses))
	}
}

func TestLoadDIMACS_debugMarkers(t *testing.T) {
	var newVarCalls, solveCalls int
	got := instance{}
	hooks := &DebugHooks{
		OnNewVar: func() { newVarCalls++ },
		OnSolve:  func() { solveCalls++ },
	}
	gotErr := LoadDIMACSWithHooks("testdata/test_instance_markers.cnf", false, &got, hooks)

	if gotErr != nil {
		t.Fatalf("LoadDIMACSWithHooks(): want no error, got %s", gotErr)
	}
	if newVarCalls != 1 {
		t.Errorf("newVarCalls = %d, want 1", newVarCalls)
	}
	if solveCalls != 1 {
		t.Errorf("solveCalls = %d, want 1", solveCalls)
	}
}
