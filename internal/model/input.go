package model

import (
	"math"

	"github.com/samber/lo"
)

// DefaultEfficiency applies to eta_c and eta_d when the input omits them.
const DefaultEfficiency = 0.95

// ChargingStrategy selects secondary preferences that break ties between
// schedules of equal cost.
type ChargingStrategy string

const (
	StrategyNone               ChargingStrategy = "none"
	StrategyChargeBeforeExport ChargingStrategy = "charge_before_export"
	StrategyAttenuateGridPeaks ChargingStrategy = "attenuate_grid_peaks"
)

func (s ChargingStrategy) IsValid() bool {
	switch s {
	case StrategyNone, StrategyChargeBeforeExport, StrategyAttenuateGridPeaks:
		return true
	default:
		return false
	}
}

// TimeSeries holds the per-step series of a horizon. All five share one length.
type TimeSeries struct {
	Dt []float64 // step length [s]
	Gt []float64 // household load [Wh]
	Ft []float64 // generation forecast [Wh]
	PN []float64 // import price [currency/Wh]
	PE []float64 // export price [currency/Wh]
}

// Len is the number of time steps T.
func (ts TimeSeries) Len() int {
	return len(ts.Gt)
}

// Input is everything one optimization run needs.
type Input struct {
	Batteries  []Battery
	TimeSeries TimeSeries

	// EtaC and EtaD are nil when omitted; Normalize fills in DefaultEfficiency.
	EtaC *float64
	EtaD *float64

	Strategy ChargingStrategy
}

// ChargeEfficiency returns eta_c, or the default when unset.
func (in *Input) ChargeEfficiency() float64 {
	if in.EtaC == nil {
		return DefaultEfficiency
	}
	return *in.EtaC
}

// DischargeEfficiency returns eta_d, or the default when unset.
func (in *Input) DischargeEfficiency() float64 {
	if in.EtaD == nil {
		return DefaultEfficiency
	}
	return *in.EtaD
}

// Steps is the horizon length T.
func (in *Input) Steps() int {
	return in.TimeSeries.Len()
}

// ValidationOptions tunes checks that have more than one reasonable reading.
type ValidationOptions struct {
	// StrictInitialSOC rejects s_initial outside [s_min, s_max]. When false,
	// such inputs reach the solver, which reports them as infeasible unless
	// the battery can move back into bounds within the first step.
	StrictInitialSOC bool
}

// Normalize validates in and returns a copy with defaults applied.
// On failure it returns a *ValidationError and no model.
func Normalize(in Input, opts ValidationOptions) (*Input, error) {
	if len(in.Batteries) == 0 {
		return nil, validationErrorf("At least one battery is required")
	}

	ts := in.TimeSeries
	series := []namedSeries{
		{"dt", ts.Dt},
		{"gt", ts.Gt},
		{"ft", ts.Ft},
		{"p_N", ts.PN},
		{"p_E", ts.PE},
	}
	steps := lo.Max(lo.Map(series, func(s namedSeries, _ int) int { return len(s.vals) }))
	if steps == 0 {
		return nil, validationErrorf("Time series must contain at least one time step")
	}
	if !lo.EveryBy(series, func(s namedSeries) bool { return len(s.vals) == steps }) {
		return nil, validationErrorf("All time series must have the same length")
	}
	for _, s := range series {
		if err := validateSeries("time_series."+s.name, s.vals, steps); err != nil {
			return nil, err
		}
	}

	for _, eta := range []struct {
		name string
		val  *float64
	}{{"eta_c", in.EtaC}, {"eta_d", in.EtaD}} {
		if eta.val == nil {
			continue
		}
		if math.IsNaN(*eta.val) || *eta.val <= 0 || *eta.val > 1 {
			return nil, validationErrorf("%s must be in (0, 1]", eta.name)
		}
	}

	strat := in.Strategy
	if strat == "" {
		strat = StrategyNone
	}
	if !strat.IsValid() {
		return nil, validationErrorf("Unknown charging strategy %q", string(in.Strategy))
	}

	out := &Input{
		Batteries: make([]Battery, len(in.Batteries)),
		TimeSeries: TimeSeries{
			Dt: cloneSeries(ts.Dt),
			Gt: cloneSeries(ts.Gt),
			Ft: cloneSeries(ts.Ft),
			PN: cloneSeries(ts.PN),
			PE: cloneSeries(ts.PE),
		},
		Strategy: strat,
	}
	etaC, etaD := in.ChargeEfficiency(), in.DischargeEfficiency()
	out.EtaC, out.EtaD = &etaC, &etaD

	for i, b := range in.Batteries {
		if err := b.Validate(i, steps, opts.StrictInitialSOC); err != nil {
			return nil, err
		}
		nb := b
		nb.SGoal = cloneSeries(b.SGoal)
		nb.PDemand = cloneSeries(b.PDemand)
		if !nb.HasGoal() {
			nb.SGoal = nil
		}
		if !nb.HasDemand() {
			nb.PDemand = nil
		}
		out.Batteries[i] = nb
	}

	return out, nil
}

type namedSeries struct {
	name string
	vals []float64
}

func cloneSeries(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
