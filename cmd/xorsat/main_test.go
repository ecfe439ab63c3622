package main

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hartsat/xorsat/internal/config"
	"github.com/hartsat/xorsat/internal/sat"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func solveTestdata(t *testing.T, path string) sat.LBool {
	t.Helper()
	inst, err := loadInstance(path, false, testLogger())
	require.NoError(t, err)

	opts := config.Defaults().SolverOptions()
	f := &flags{maxSolutions: 1}
	status, _, err := runSingle(inst, f, opts)
	require.NoError(t, err)
	return status
}

func TestEndToEnd_SingleUnit(t *testing.T) {
	require.Equal(t, sat.True, solveTestdata(t, "testdata/single_unit.cnf"))
}

func TestEndToEnd_ImmediateContradiction(t *testing.T) {
	require.Equal(t, sat.False, solveTestdata(t, "testdata/contradiction.cnf"))
}

func TestEndToEnd_PigeonholePHP32(t *testing.T) {
	require.Equal(t, sat.False, solveTestdata(t, "testdata/php_3_2.cnf"))
}

func TestEndToEnd_XORChainUnsat(t *testing.T) {
	require.Equal(t, sat.False, solveTestdata(t, "testdata/xor_chain_unsat.cnf"))
}

func TestEndToEnd_XORChainSat(t *testing.T) {
	require.Equal(t, sat.True, solveTestdata(t, "testdata/xor_chain_sat.cnf"))
}

func TestEndToEnd_ModelEnumeration(t *testing.T) {
	inst, err := loadInstance("testdata/no_clauses_2var.cnf", false, testLogger())
	require.NoError(t, err)

	opts := config.Defaults().SolverOptions()
	f := &flags{maxSolutions: 4}
	status, models, err := runSingle(inst, f, opts)
	require.NoError(t, err)
	require.Equal(t, sat.True, status)
	require.Len(t, models, 4)

	seen := map[string]bool{}
	for _, m := range models {
		key := ""
		for _, v := range m {
			if v {
				key += "1"
			} else {
				key += "0"
			}
		}
		require.False(t, seen[key], "model %s enumerated twice", key)
		seen[key] = true
	}
}
