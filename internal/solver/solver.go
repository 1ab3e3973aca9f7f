// Package solver runs milp.Problem instances on a MILP engine and reports
// the outcome as a model.Status plus the variable assignment.
package solver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
)

// Solver solves one problem. Implementations must be safe for concurrent use;
// each call owns its own engine instance.
type Solver interface {
	Solve(ctx context.Context, p *milp.Problem) (*Solution, error)
}

// Solution is the engine outcome. Values and Objective are only meaningful
// when Status is model.StatusOptimal.
type Solution struct {
	Status    model.Status
	Objective float64
	Values    []float64
	Runtime   time.Duration
}

// ExecutionError reports that the engine could not produce a MILP status:
// timeouts, cancellation, engine crashes or a malformed problem.
type ExecutionError struct {
	Op  string
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("solver %s: %v", e.Op, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// ErrTimeLimit is wrapped when the engine stops on its time limit.
var ErrTimeLimit = errors.New("time limit reached")

// IsExecutionError reports whether err is or wraps an *ExecutionError.
func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}

// Options configures an engine.
type Options struct {
	// TimeLimit caps a single solve. A context deadline that is sooner wins.
	TimeLimit time.Duration
	MIPRelGap float64
	Threads   int
	Output    bool
	// MaxConcurrent bounds the number of engine instances alive at once.
	MaxConcurrent int64
}

func DefaultOptions() Options {
	return Options{
		TimeLimit:     30 * time.Second,
		MIPRelGap:     1e-7,
		Threads:       1,
		MaxConcurrent: 4,
	}
}
