// Package portfolio runs several independently-seeded solver instances
// against the same parsed instance and takes the first definitive result,
// resolving spec.md §9's open question about multiThreadSolve explicitly:
// first-to-finish-wins, with every other worker asked to stop cooperatively
// rather than killed (spec.md §5).
package portfolio

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hartsat/xorsat/internal/sat"
)

// Instance is the read-only input broadcast to every worker (spec.md §5's
// "only shared data is read-only input").
type Instance struct {
	NumVars int
	Clauses [][]sat.Literal
	XORs    []sat.XORClauseView
}

// WorkerConfig diversifies one worker's seed, restart mode, and simplify
// cadence relative to its siblings.
type WorkerConfig struct {
	Options sat.Options
}

// Result is one worker's outcome, tagged with its index for diagnostics.
type Result struct {
	WorkerIndex int
	Status      sat.LBool
	Model       []bool
}

// Run builds len(workers) solvers from inst, races them via errgroup, and
// returns the first non-Unknown result. When ctx is cancelled or every
// worker returns Unknown (resource bound reached with no settled result), it
// returns status Unknown.
func Run(ctx context.Context, inst Instance, workers []WorkerConfig, log *zap.SugaredLogger) (Result, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if len(workers) == 0 {
		return Result{Status: sat.Unknown}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, len(workers))
	g, ctx := errgroup.WithContext(ctx)

	for i, wc := range workers {
		i, wc := i, wc
		g.Go(func() error {
			s := buildSolver(inst, wc)

			done := make(chan sat.LBool, 1)
			go func() { done <- s.Solve() }()

			select {
			case <-ctx.Done():
				s.Interrupt().Set()
				<-done
				return nil
			case status := <-done:
				r := Result{WorkerIndex: i, Status: status}
				if status == sat.True && len(s.Models) > 0 {
					r.Model = s.Models[len(s.Models)-1]
				}
				select {
				case results <- r:
					if status != sat.Unknown {
						cancel()
					}
				case <-ctx.Done():
				}
				return nil
			}
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	best := Result{Status: sat.Unknown}
	won := false
	for r := range results {
		log.Debugw("portfolio worker finished", "worker", r.WorkerIndex, "status", r.Status)
		if won {
			continue
		}
		best = r
		if r.Status != sat.Unknown {
			won = true
		}
	}
	// results is only closed once every worker goroutine above has returned,
	// so by the time the range loop exits every sibling has already observed
	// the interrupt and drained (spec.md §5/§9).
	if err := g.Wait(); err != nil {
		return best, err
	}
	return best, nil
}

func buildSolver(inst Instance, wc WorkerConfig) *sat.Solver {
	s := sat.NewSolver(wc.Options)
	for i := 0; i < inst.NumVars; i++ {
		s.AddVariable()
	}
	for _, c := range inst.Clauses {
		if err := s.AddClause(c); err != nil {
			break
		}
	}
	for _, x := range inst.XORs {
		if err := s.AddXOR(x.Vars, x.RHS); err != nil {
			break
		}
	}
	s.BuildXORMatrices()
	return s
}
