package dimacs

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/hartsat/xorsat/internal/sat"
)

// Dump writes clauses as DIMACS CNF to w, with nVars variables declared in
// the header. XOR clauses follow the ordinary clauses as `x`-prefixed lines, per spec.md
// §6's persisted-state layout: the result is re-readable by LoadDIMACS.
func Dump(w io.Writer, nVars int, clauses [][]sat.Literal, xors []sat.XORClauseView) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "p cnf %d %d\n", nVars, len(clauses)+len(xors))
	for _, c := range clauses {
		if err := writeClauseLine(bw, c); err != nil {
			return err
		}
	}
	for _, x := range xors {
		if err := writeXORLine(bw, x); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// DumpToFile is Dump against a freshly created file at filename, the shape
// needed by needToDumpLearnts/needToDumpOrig (spec.md §6).
func DumpToFile(filename string, nVars int, clauses [][]sat.Literal, xors []sat.XORClauseView) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return Dump(f, nVars, clauses, xors)
}

func writeClauseLine(w *bufio.Writer, clause []sat.Literal) error {
	for _, l := range clause {
		n := l.VarID() + 1
		if !l.IsPositive() {
			n = -n
		}
		if _, err := fmt.Fprintf(w, "%d ", n); err != nil {
			return err
		}
	}
	_, err := w.WriteString("0\n")
	return err
}

func writeXORLine(w *bufio.Writer, x sat.XORClauseView) error {
	if _, err := w.WriteString("x"); err != nil {
		return err
	}
	rhs := x.RHS
	for i, v := range x.Vars {
		n := v + 1
		// Fold the parity bit into the sign of the first literal, matching
		// LoadDIMACS's convention of flipping rhs on every negative literal.
		if i == 0 && rhs {
			n = -n
		}
		if _, err := fmt.Fprintf(w, " %d", n); err != nil {
			return err
		}
	}
	_, err := w.WriteString(" 0\n")
	return err
}
