package analysis

import (
	"math"
	"sort"

	"github.com/samber/lo"

	"charge-optimizer/internal/backtest"
	"charge-optimizer/internal/model"
)

// Summary compares an optimized schedule with running the same horizon
// without batteries. Money is in the currency of the price series, energy
// in Wh.
type Summary struct {
	Steps     int
	Batteries int

	// BaselinePNL is export revenue minus import cost with no storage.
	BaselinePNL float64
	// OptimizedPNL is export revenue minus import cost of the schedule.
	OptimizedPNL float64
	// StorageValueChange is the change in stored energy valued at p_a.
	StorageValueChange float64
	// Benefit is OptimizedPNL + StorageValueChange - BaselinePNL.
	Benefit float64

	GridImport float64
	GridExport float64
	Charged    float64
	Discharged float64

	PeakImport float64
	PeakExport float64

	// SelfConsumption is the share of generation not exported.
	SelfConsumption float64

	MinImportPrice float64
	MaxImportPrice float64
	P05ImportPrice float64
	P95ImportPrice float64
}

// Summarize builds the summary from the input and the replay of an optimal
// result.
func Summarize(in *model.Input, replay *backtest.Result) Summary {
	s := Summary{
		Steps:     in.Steps(),
		Batteries: len(in.Batteries),
	}
	if s.Steps == 0 || replay == nil {
		return s
	}
	ts := in.TimeSeries

	for t := range ts.Gt {
		net := ts.Gt[t] - ts.Ft[t]
		if net > 0 {
			s.BaselinePNL -= net * ts.PN[t]
		} else {
			s.BaselinePNL += -net * ts.PE[t]
		}
	}

	s.OptimizedPNL = replay.TotalPNL
	initialValue := lo.SumBy(in.Batteries, func(b model.Battery) float64 { return b.SInitial * b.PA })
	s.StorageValueChange = replay.TerminalValue - initialValue
	s.Benefit = s.OptimizedPNL + s.StorageValueChange - s.BaselinePNL

	s.GridImport = lo.SumBy(replay.Ledger, func(r backtest.LedgerRow) float64 { return r.GridImport })
	s.GridExport = lo.SumBy(replay.Ledger, func(r backtest.LedgerRow) float64 { return r.GridExport })
	s.Charged = lo.SumBy(replay.Ledger, func(r backtest.LedgerRow) float64 { return r.Charge })
	s.Discharged = lo.SumBy(replay.Ledger, func(r backtest.LedgerRow) float64 { return r.Discharge })
	s.PeakImport = lo.Max(lo.Map(replay.Ledger, func(r backtest.LedgerRow, _ int) float64 { return r.GridImport }))
	s.PeakExport = lo.Max(lo.Map(replay.Ledger, func(r backtest.LedgerRow, _ int) float64 { return r.GridExport }))

	if gen := lo.Sum(ts.Ft); gen > 0 {
		s.SelfConsumption = math.Max(0, 1-s.GridExport/gen)
	}

	prices := append([]float64(nil), ts.PN...)
	sort.Float64s(prices)
	s.MinImportPrice = prices[0]
	s.MaxImportPrice = prices[len(prices)-1]
	s.P05ImportPrice = percentileSorted(prices, 0.05)
	s.P95ImportPrice = percentileSorted(prices, 0.95)
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if below == above {
		return sorted[below]
	}
	frac := pos - float64(below)
	return sorted[below]*(1-frac) + sorted[above]*frac
}
