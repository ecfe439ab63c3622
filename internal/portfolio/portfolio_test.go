package portfolio

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hartsat/xorsat/internal/sat"
)

func contradiction() Instance {
	return Instance{
		NumVars: 1,
		Clauses: [][]sat.Literal{
			{sat.PositiveLiteral(0)},
			{sat.NegativeLiteral(0)},
		},
	}
}

func satisfiable() Instance {
	return Instance{
		NumVars: 1,
		Clauses: [][]sat.Literal{{sat.PositiveLiteral(0)}},
	}
}

func twoWorkers(seedBase int64) []WorkerConfig {
	o1 := sat.DefaultOptions
	o1.Seed = seedBase
	o2 := sat.DefaultOptions
	o2.Seed = seedBase + 1
	return []WorkerConfig{{Options: o1}, {Options: o2}}
}

func TestRun_UnsatInstance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := Run(ctx, contradiction(), twoWorkers(1), nil)
	require.NoError(t, err)
	require.Equal(t, sat.False, r.Status)
}

func TestRun_SatInstance(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	r, err := Run(ctx, satisfiable(), twoWorkers(7), nil)
	require.NoError(t, err)
	require.Equal(t, sat.True, r.Status)
	require.Len(t, r.Model, 1)
	require.True(t, r.Model[0])
}

func TestRun_NoWorkers(t *testing.T) {
	r, err := Run(context.Background(), satisfiable(), nil, nil)
	require.NoError(t, err)
	require.Equal(t, sat.Unknown, r.Status)
}

// php instance builds an unsatisfiable pigeonhole instance of pigeons
// holes+1, large enough that a worker spends real time searching rather
// than returning on the first propagation.
func php(holes int) Instance {
	pigeons := holes + 1
	v := func(p, h int) sat.Literal { return sat.PositiveLiteral(p*holes + h) }
	var clauses [][]sat.Literal
	for p := 0; p < pigeons; p++ {
		row := make([]sat.Literal, holes)
		for h := 0; h < holes; h++ {
			row[h] = v(p, h)
		}
		clauses = append(clauses, row)
	}
	for h := 0; h < holes; h++ {
		for p1 := 0; p1 < pigeons; p1++ {
			for p2 := p1 + 1; p2 < pigeons; p2++ {
				clauses = append(clauses, []sat.Literal{v(p1, h).Opposite(), v(p2, h).Opposite()})
			}
		}
	}
	return Instance{NumVars: pigeons * holes, Clauses: clauses}
}

// TestRun_DrainsAllWorkersBeforeReturning guards against the bug where Run
// returned as soon as the first non-Unknown result arrived, leaving sibling
// worker goroutines (and their interrupt/drain work) still in flight.
func TestRun_DrainsAllWorkersBeforeReturning(t *testing.T) {
	before := runtime.NumGoroutine()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	workers := append(twoWorkers(1), twoWorkers(3)...)
	_, err := Run(ctx, php(6), workers, nil)
	require.NoError(t, err)

	// Give any leftover goroutines a moment to actually exit, then confirm
	// Run's return did not leave a pile of still-running worker goroutines
	// behind it.
	time.Sleep(50 * time.Millisecond)
	after := runtime.NumGoroutine()
	require.LessOrEqual(t, after, before+2)
}
