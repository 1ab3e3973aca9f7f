package solver

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"
	"golang.org/x/sync/semaphore"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
)

// HiGHS solves problems with the HiGHS engine through cgo.
type HiGHS struct {
	opts   Options
	sem    *semaphore.Weighted
	logger *slog.Logger
}

func NewHiGHS(opts Options, logger *slog.Logger) *HiGHS {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HiGHS{
		opts:   opts,
		sem:    semaphore.NewWeighted(opts.MaxConcurrent),
		logger: logger.With("module", "solver"),
	}
}

type outcome struct {
	sol *highs.Solution
	err error
}

// Solve builds a fresh engine instance for p and runs it. The call returns
// as soon as ctx is done; the native solve is abandoned and releases its
// instance when it stops on its own time limit.
func (h *HiGHS) Solve(ctx context.Context, p *milp.Problem) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ExecutionError{Op: "solve", Err: err}
	}
	if err := p.Validate(); err != nil {
		return nil, &ExecutionError{Op: "build", Err: err}
	}

	timeLimit, err := h.timeLimit(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, &ExecutionError{Op: "acquire", Err: err}
	}

	m := buildModel(p)
	opts := []highs.SolveOption{
		highs.WithOutput(h.opts.Output),
		highs.WithTimeLimit(timeLimit.Seconds()),
	}
	if h.opts.MIPRelGap > 0 {
		opts = append(opts, highs.WithMIPRelGap(h.opts.MIPRelGap))
	}
	if h.opts.Threads > 0 {
		opts = append(opts, highs.WithThreads(h.opts.Threads))
	}

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		defer h.sem.Release(1)
		sol, err := m.Solve(opts...)
		done <- outcome{sol: sol, err: err}
	}()

	select {
	case <-ctx.Done():
		h.logger.Warn("solve abandoned", "problem", p.Name, "error", ctx.Err())
		return nil, &ExecutionError{Op: "solve", Err: ctx.Err()}
	case out := <-done:
		elapsed := time.Since(start)
		if out.err != nil {
			var herr *highs.Error
			if errors.As(out.err, &herr) {
				return nil, &ExecutionError{Op: herr.Op, Err: herr}
			}
			return nil, &ExecutionError{Op: "solve", Err: out.err}
		}
		status, err := mapStatus(out.sol.Status)
		if err != nil {
			h.logger.Warn("solve failed", "problem", p.Name, "engine_status", out.sol.Status.String(), "elapsed", elapsed)
			return nil, err
		}
		h.logger.Debug("solve finished",
			"problem", p.Name,
			"vars", len(p.Vars),
			"rows", len(p.Constraints),
			"status", status,
			"elapsed", elapsed,
		)
		res := &Solution{Status: status, Runtime: elapsed}
		if status == model.StatusOptimal {
			res.Objective = out.sol.Objective
			res.Values = out.sol.ColValues
		}
		return res, nil
	}
}

// timeLimit is the configured limit, shortened to the context deadline.
func (h *HiGHS) timeLimit(ctx context.Context) (time.Duration, error) {
	limit := h.opts.TimeLimit
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, &ExecutionError{Op: "solve", Err: context.DeadlineExceeded}
		}
		if limit <= 0 || remaining < limit {
			limit = remaining
		}
	}
	if limit <= 0 {
		limit = DefaultOptions().TimeLimit
	}
	return limit, nil
}

// buildModel converts p to the engine's column/row form. Repeated columns
// within a row are summed because the engine keeps only the last entry.
func buildModel(p *milp.Problem) *highs.Model {
	n := len(p.Vars)
	m := &highs.Model{
		Maximize: p.Maximize,
		ColCosts: make([]float64, n),
		ColLower: make([]float64, n),
		ColUpper: make([]float64, n),
		VarTypes: make([]highs.VariableType, n),
	}
	for j, v := range p.Vars {
		m.ColCosts[j] = v.Cost
		m.ColLower[j] = v.Lower
		m.ColUpper[j] = v.Upper
		if v.Kind == milp.Binary {
			m.VarTypes[j] = highs.Integer
		}
	}

	for _, c := range p.Constraints {
		cols := make([]int, 0, len(c.Terms))
		vals := make([]float64, 0, len(c.Terms))
		pos := make(map[int]int, len(c.Terms))
		for _, t := range c.Terms {
			if k, ok := pos[t.Var]; ok {
				vals[k] += t.Coef
				continue
			}
			pos[t.Var] = len(cols)
			cols = append(cols, t.Var)
			vals = append(vals, t.Coef)
		}
		m.AddSparseRow(c.Lower, cols, vals, c.Upper)
	}
	return m
}
