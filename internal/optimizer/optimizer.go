// Package optimizer turns an optimization input into a charge schedule:
// normalize, formulate the MILP, solve, extract and verify the result.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"charge-optimizer/internal/backtest"
	"charge-optimizer/internal/metrics"
	"charge-optimizer/internal/model"
	"charge-optimizer/internal/solver"
)

// DefaultTolerance is the largest replay residual (Wh) accepted for an
// optimal result.
const DefaultTolerance = 1e-2

type Config struct {
	Formulation Options
	Validation  model.ValidationOptions
	// Tolerance bounds the power balance and dynamics residuals of a replay.
	Tolerance float64
}

func DefaultConfig() Config {
	return Config{
		Formulation: DefaultOptions(),
		Tolerance:   DefaultTolerance,
	}
}

// Optimizer is safe for concurrent use; every call builds its own problem.
type Optimizer struct {
	solver solver.Solver
	cfg    Config
	replay *backtest.Engine
	logger *slog.Logger
}

func New(s solver.Solver, cfg Config, logger *slog.Logger) *Optimizer {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Optimizer{
		solver: s,
		cfg:    cfg,
		replay: backtest.New(),
		logger: logger.With("module", "optimizer"),
	}
}

// Run is a finished optimization with everything derived along the way.
type Run struct {
	Input  *model.Input
	Result *model.Result
	// Replay is nil unless the result is optimal.
	Replay *backtest.Result
	Vars   int
	Rows   int

	// SolveTime is the engine's own runtime as reported by the solver.
	SolveTime time.Duration
}

// Optimize returns the schedule for in. Validation failures are
// *model.ValidationError; solver failures are *solver.ExecutionError.
// Non-optimal MILP outcomes are results, not errors.
func (o *Optimizer) Optimize(ctx context.Context, in model.Input) (*model.Result, error) {
	run, err := o.Run(ctx, in)
	if err != nil {
		return nil, err
	}
	return run.Result, nil
}

func (o *Optimizer) Run(ctx context.Context, in model.Input) (*Run, error) {
	norm, err := model.Normalize(in, o.cfg.Validation)
	if err != nil {
		return nil, err
	}

	f, err := Formulate(norm, o.cfg.Formulation)
	if err != nil {
		return nil, fmt.Errorf("formulate: %w", err)
	}

	done := metrics.TrackSolve()
	start := time.Now()
	sol, err := o.solver.Solve(ctx, f.Problem)
	done()
	if err != nil {
		metrics.ObserveSolve("error", time.Since(start))
		o.logger.Error("solve failed", "steps", norm.Steps(), "batteries", len(norm.Batteries), "error", err)
		return nil, err
	}
	metrics.ObserveSolve(string(sol.Status), time.Since(start))

	res, err := Extract(f, sol)
	if err != nil {
		return nil, err
	}
	run := &Run{
		Input:  norm,
		Result: res,
		Vars:   len(f.Problem.Vars),
		Rows:   len(f.Problem.Constraints),

		SolveTime: sol.Runtime,
	}
	o.logger.Info("optimization finished",
		"status", res.Status,
		"steps", norm.Steps(),
		"batteries", len(norm.Batteries),
		"vars", run.Vars,
		"rows", run.Rows,
		"solve_time", run.SolveTime,
		"elapsed", time.Since(start),
	)
	if !res.IsOptimal() {
		return run, nil
	}

	replay, err := o.replay.Replay(norm, res)
	if err != nil {
		return nil, &solver.ExecutionError{Op: "extract", Err: err}
	}
	if err := replay.Check(o.cfg.Tolerance); err != nil {
		return nil, &solver.ExecutionError{Op: "extract", Err: err}
	}
	run.Replay = replay
	return run, nil
}
