// Command xorsat reads a DIMACS CNF (optionally extended with XOR clauses
// and gzip-compressed) and reports SATISFIABLE, UNSATISFIABLE, or
// UNDETERMINED per spec.md §6's output contract.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hartsat/xorsat/internal/config"
	"github.com/hartsat/xorsat/internal/dimacs"
	"github.com/hartsat/xorsat/internal/portfolio"
	"github.com/hartsat/xorsat/internal/sat"
)

// exit codes, spec.md §6.
const (
	exitSAT           = 10
	exitUNSAT         = 20
	exitUndetermined  = 15
	exitArgumentError = 1
	exitIOError       = 2
)

type flags struct {
	cfg config.Config

	gzipped      bool
	resultFile   string
	maxSolutions int

	cpuProfile bool
	memProfile bool

	exitCode int
}

func newRootCmd() (*cobra.Command, *flags) {
	f := &flags{cfg: config.Defaults()}

	cmd := &cobra.Command{
		Use:   "xorsat <instance.cnf>",
		Short: "XOR-aware CDCL SAT solver",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(args[0], f)
		},
		SilenceUsage: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&f.cfg.PolarityMode, "polarity_mode", f.cfg.PolarityMode, "initial polarity selection: true, false, rnd, auto")
	fs.Float64Var(&f.cfg.RandomVarFreq, "random_var_freq", f.cfg.RandomVarFreq, "probability of a random branch at each decision")
	fs.Int64Var(&f.cfg.OrigSeed, "origSeed", f.cfg.OrigSeed, "seed for the decision RNG")
	fs.IntVar(&f.cfg.RestrictPickBranch, "restrictPickBranch", f.cfg.RestrictPickBranch, "random pick among top-K active variables (0 disables)")
	fs.StringVar((*string)(&f.cfg.RestartType), "fixRestartType", string(f.cfg.RestartType), "restart policy: auto, static, dynamic")
	fs.Int64Var(&f.cfg.MaxRestarts, "maxRestarts", f.cfg.MaxRestarts, "cap on restart count, <0 for unbounded")
	fs.Int64Var(&f.cfg.MaxConflicts, "maxConflicts", f.cfg.MaxConflicts, "cap on conflict count, <0 for unbounded")
	fs.DurationVar(&f.cfg.Timeout, "timeout", f.cfg.Timeout, "wall-clock budget, <0 for unbounded")
	fs.IntVar(&f.cfg.MaxGlue, "maxGlue", f.cfg.MaxGlue, "discard learnts with glue above this on backjump (dynamic mode); 0 disables")

	fs.BoolVar(&f.cfg.NeedToDumpLearnts, "needToDumpLearnts", false, "dump learnt clauses on exit")
	fs.StringVar(&f.cfg.LearntsFilename, "learntsFilename", "", "file to dump learnt clauses to")
	fs.IntVar(&f.cfg.MaxDumpLearntsSize, "maxDumpLearntsSize", 0, "skip dumping learnts larger than this size, 0 for unbounded")
	fs.BoolVar(&f.cfg.NeedToDumpOrig, "needToDumpOrig", false, "dump original clauses on exit")
	fs.StringVar(&f.cfg.OrigFilename, "origFilename", "", "file to dump original clauses to")

	fs.BoolVar(&f.cfg.Gauss.Enabled, "doFindXors", f.cfg.Gauss.Enabled, "enable XOR-Gaussian reasoning")
	fs.IntVar(&f.cfg.Gauss.DecisionUntil, "decision_until", f.cfg.Gauss.DecisionUntil, "deepest decision level at which Gaussian reduction runs, 0 for unbounded")
	fs.IntVar(&f.cfg.Gauss.SaveEveryNth, "only_nth_gauss_save", f.cfg.Gauss.SaveEveryNth, "snapshot matrices every Nth decision level")
	fs.IntVar(&f.cfg.Gauss.MinMatrixRows, "minMatrixRows", f.cfg.Gauss.MinMatrixRows, "matrices with fewer rows are excluded from reasoning")
	fs.IntVar(&f.cfg.Gauss.MaxMatrixRows, "maxMatrixRows", f.cfg.Gauss.MaxMatrixRows, "matrices with more rows are excluded from reasoning")
	fs.IntVar(&f.cfg.Gauss.MaxNumMatrixes, "maxNumMatrixes", f.cfg.Gauss.MaxNumMatrixes, "cap on the number of matrices built")
	fs.BoolVar(&f.cfg.Gauss.NoMatrixFind, "noMatrixFind", f.cfg.Gauss.NoMatrixFind, "put every XOR clause into a single matrix instead of by connected component")

	fs.IntVar(&f.cfg.PortfolioWorkers, "threads", f.cfg.PortfolioWorkers, "number of independent portfolio workers")

	fs.BoolVar(&f.gzipped, "gzip", false, "treat the instance file as gzip-compressed")
	fs.StringVar(&f.resultFile, "result", "", "write the result to this file instead of stdout")
	fs.IntVar(&f.maxSolutions, "maxsolutions", 1, "enumerate up to this many distinct models")

	fs.BoolVar(&f.cpuProfile, "cpuprof", false, "save pprof CPU profile to cpuprof")
	fs.BoolVar(&f.memProfile, "memprof", false, "save pprof memory profile to memprof")

	return cmd, f
}

func runMain(instanceFile string, f *flags) error {
	if cerr := f.cfg.Validate(); cerr != nil {
		return fmt.Errorf("invalid configuration: %w", cerr)
	}

	log := newLogger()
	defer log.Sync()

	if f.cpuProfile {
		pf, err := os.Create("cpuprof")
		if err != nil {
			return fmt.Errorf("could not create cpuprof: %w", err)
		}
		defer pf.Close()
		pprof.StartCPUProfile(pf)
		defer pprof.StopCPUProfile()
	}

	inst, err := loadInstance(instanceFile, f.gzipped, log)
	if err != nil {
		return fmt.Errorf("could not parse instance: %w", err)
	}

	fmt.Printf("c variables: %d\n", inst.NumVars)
	fmt.Printf("c clauses:   %d\n", len(inst.Clauses))
	fmt.Printf("c xors:      %d\n", len(inst.XORs))

	opts := f.cfg.SolverOptions()
	opts.Logger = log

	start := time.Now()
	var status sat.LBool
	var models [][]bool

	if f.cfg.PortfolioWorkers > 1 {
		status, models, err = runPortfolio(inst, f, opts, log)
	} else {
		status, models, err = runSingle(inst, f, opts)
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c status:     %s\n", status.String())

	code, werr := writeResult(f.resultFile, status, models)
	if werr != nil {
		fmt.Fprintf(os.Stderr, "could not write result: %s\n", werr)
		f.exitCode = exitIOError
		return nil
	}

	if f.memProfile {
		mf, err := os.Create("memprof")
		if err == nil {
			pprof.WriteHeapProfile(mf)
			mf.Close()
		}
	}

	f.exitCode = code
	return nil
}

func newLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	return logger.Sugar()
}

type loadedInstance struct {
	NumVars int
	Clauses [][]sat.Literal
	XORs    []sat.XORClauseView
}

func loadInstance(filename string, gzipped bool, log *zap.SugaredLogger) (*loadedInstance, error) {
	collector := &clauseCollector{}
	hooks := &dimacs.DebugHooks{
		OnNewVar: func() { log.Debugw("embedded newVar() marker") },
		OnSolve:  func() { log.Debugw("embedded solve() marker") },
	}
	if err := dimacs.LoadDIMACSWithHooks(filename, gzipped, collector, hooks); err != nil {
		return nil, err
	}
	return &loadedInstance{
		NumVars: collector.numVars,
		Clauses: collector.clauses,
		XORs:    collector.xors,
	}, nil
}

// clauseCollector implements dimacs.Writer, buffering the parsed instance so
// it can be handed to either a single solver or a portfolio of them.
type clauseCollector struct {
	numVars int
	clauses [][]sat.Literal
	xors    []sat.XORClauseView
}

func (c *clauseCollector) AddVariable() int {
	c.numVars++
	return c.numVars - 1
}

func (c *clauseCollector) AddClause(clause []sat.Literal) error {
	c.clauses = append(c.clauses, append([]sat.Literal(nil), clause...))
	return nil
}

func (c *clauseCollector) AddXOR(vars []int, rhs bool) error {
	c.xors = append(c.xors, sat.XORClauseView{Vars: append([]int(nil), vars...), RHS: rhs})
	return nil
}

func runSingle(inst *loadedInstance, f *flags, opts sat.Options) (sat.LBool, [][]bool, error) {
	s := sat.NewSolver(opts)
	for i := 0; i < inst.NumVars; i++ {
		s.AddVariable()
	}
	for _, c := range inst.Clauses {
		if err := s.AddClause(c); err != nil {
			return sat.Unknown, nil, err
		}
	}
	for _, x := range inst.XORs {
		if err := s.AddXOR(x.Vars, x.RHS); err != nil {
			return sat.Unknown, nil, err
		}
	}
	s.BuildXORMatrices()

	n := f.maxSolutions
	if n <= 0 {
		n = 1
	}
	status := s.SolveN(n, func(model []bool) bool { return true })

	dumpIfRequested(s, &f.cfg, inst.NumVars)
	return status, s.Models, nil
}

func runPortfolio(inst *loadedInstance, f *flags, opts sat.Options, log *zap.SugaredLogger) (sat.LBool, [][]bool, error) {
	workers := make([]portfolio.WorkerConfig, f.cfg.PortfolioWorkers)
	for i := range workers {
		wOpts := opts
		wOpts.Seed = opts.Seed + int64(i)
		workers[i] = portfolio.WorkerConfig{Options: wOpts}
	}

	pinst := portfolio.Instance{NumVars: inst.NumVars, Clauses: inst.Clauses, XORs: inst.XORs}
	r, err := portfolio.Run(context.Background(), pinst, workers, log)
	if err != nil {
		return sat.Unknown, nil, err
	}
	if r.Status == sat.True {
		return r.Status, [][]bool{r.Model}, nil
	}
	return r.Status, nil, nil
}

// dumpIfRequested writes the original/learnt clause dumps requested via
// config, per spec.md §6's needToDumpLearnts/needToDumpOrig.
func dumpIfRequested(s *sat.Solver, cfg *config.Config, numVars int) {
	if cfg.NeedToDumpOrig {
		if err := dimacs.DumpToFile(cfg.OrigFilename, numVars, s.OriginalClauses(), s.XORClauses()); err != nil {
			fmt.Fprintf(os.Stderr, "could not dump original clauses: %s\n", err)
		}
	}
	if cfg.NeedToDumpLearnts {
		learnts := s.LearntClauses()
		if cfg.MaxDumpLearntsSize > 0 {
			filtered := learnts[:0]
			for _, l := range learnts {
				if len(l) <= cfg.MaxDumpLearntsSize {
					filtered = append(filtered, l)
				}
			}
			learnts = filtered
		}
		if err := dimacs.DumpToFile(cfg.LearntsFilename, numVars, learnts, nil); err != nil {
			fmt.Fprintf(os.Stderr, "could not dump learnt clauses: %s\n", err)
		}
	}
}

// writeResult prints spec.md §6's output contract and returns the process
// exit code. If resultFile is non-empty, the file-based contract is used
// instead of the stdout one.
func writeResult(resultFile string, status sat.LBool, models [][]bool) (int, error) {
	var w *os.File
	if resultFile != "" {
		f, err := os.Create(resultFile)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		w = f
	}

	switch status {
	case sat.True:
		if w != nil {
			fmt.Fprintln(w, "SAT")
			writeModel(w, models[len(models)-1])
		} else {
			fmt.Println("s SATISFIABLE")
			fmt.Print("v ")
			writeModel(os.Stdout, models[len(models)-1])
		}
		return exitSAT, nil
	case sat.False:
		if w != nil {
			fmt.Fprintln(w, "UNSAT")
		} else {
			fmt.Println("s UNSATISFIABLE")
		}
		return exitUNSAT, nil
	default:
		if w != nil {
			fmt.Fprintln(w, "INCONCLUSIVE")
		} else {
			fmt.Println("c status UNDETERMINED")
		}
		return exitUndetermined, nil
	}
}

func writeModel(w *os.File, model []bool) {
	for i, v := range model {
		if v {
			fmt.Fprintf(w, "%d ", i+1)
		} else {
			fmt.Fprintf(w, "-%d ", i+1)
		}
	}
	fmt.Fprintln(w, "0")
}

func main() {
	cmd, f := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitArgumentError)
	}
	os.Exit(f.exitCode)
}
