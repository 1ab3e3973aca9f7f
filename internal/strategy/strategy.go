// Package strategy holds secondary charging preferences. A strategy adds
// small objective terms that only decide between schedules of (almost)
// equal cost; it never changes the feasible set.
package strategy

import (
	"fmt"

	"github.com/samber/lo"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
)

// Context is what a strategy sees of one formulation.
type Context struct {
	Input   *model.Input
	Problem *milp.Problem

	// Charge returns the variable index of c for battery i at step t.
	Charge func(i, t int) int
	// SOC returns the variable index of the state of charge after step t.
	SOC func(i, t int) int
}

type Strategy interface {
	Name() model.ChargingStrategy
	Apply(ctx Context)
}

// For returns the strategy registered under name.
func For(name model.ChargingStrategy) (Strategy, error) {
	switch name {
	case "", model.StrategyNone:
		return None{}, nil
	case model.StrategyChargeBeforeExport:
		return ChargeBeforeExport{}, nil
	case model.StrategyAttenuateGridPeaks:
		return AttenuateGridPeaks{}, nil
	default:
		return nil, fmt.Errorf("unknown charging strategy %q", name)
	}
}

// None leaves the objective untouched.
type None struct{}

func (None) Name() model.ChargingStrategy { return model.StrategyNone }
func (None) Apply(Context)                {}

// minImportPrice scales the tie-breakers to the cheapest import price so
// they stay far below any real cash flow.
func minImportPrice(in *model.Input) float64 {
	return lo.Min(in.TimeSeries.PN)
}
