package solver

import (
	"fmt"

	"github.com/bartolsthoorn/gohighs/highs"

	"charge-optimizer/internal/model"
)

// mapStatus folds the HiGHS model status into the closed model.Status set.
// Statuses that mean the engine itself failed become execution errors.
func mapStatus(s highs.ModelStatus) (model.Status, error) {
	switch s {
	case highs.ModelStatusOptimal:
		return model.StatusOptimal, nil
	case highs.ModelStatusInfeasible, highs.ModelStatusUnboundedOrInfeasible:
		return model.StatusInfeasible, nil
	case highs.ModelStatusUnbounded:
		return model.StatusUnbounded, nil
	case highs.ModelStatusNotSet:
		return model.StatusNotSolved, nil
	case highs.ModelStatusTimeLimit:
		return "", &ExecutionError{Op: "solve", Err: ErrTimeLimit}
	case highs.ModelStatusLoadError,
		highs.ModelStatusModelError,
		highs.ModelStatusPresolveError,
		highs.ModelStatusSolveError,
		highs.ModelStatusPostsolveError:
		return "", &ExecutionError{Op: "solve", Err: fmt.Errorf("engine reported %s", s)}
	default:
		return model.StatusUndefined, nil
	}
}
