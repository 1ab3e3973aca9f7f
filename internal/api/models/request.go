package models

import (
	"charge-optimizer/internal/model"
)

// OptimizationInput is the request body of POST /optimize/charge-schedule.
// Required numbers are pointers so that a missing field can be told apart
// from an explicit zero.
type OptimizationInput struct {
	Batteries  []BatteryConfig       `json:"batteries" yaml:"batteries"`
	TimeSeries *TimeSeries           `json:"time_series" yaml:"time_series"`
	EtaC       *float64              `json:"eta_c,omitempty" yaml:"eta_c,omitempty"`
	EtaD       *float64              `json:"eta_d,omitempty" yaml:"eta_d,omitempty"`
	Strategy   *OptimizationStrategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

type BatteryConfig struct {
	ChargeFromGrid  *bool `json:"charge_from_grid,omitempty" yaml:"charge_from_grid,omitempty"`
	DischargeToGrid *bool `json:"discharge_to_grid,omitempty" yaml:"discharge_to_grid,omitempty"`

	SMin     *float64 `json:"s_min" yaml:"s_min"`
	SMax     *float64 `json:"s_max" yaml:"s_max"`
	SInitial *float64 `json:"s_initial" yaml:"s_initial"`
	CMin     *float64 `json:"c_min,omitempty" yaml:"c_min,omitempty"`
	CMax     *float64 `json:"c_max" yaml:"c_max"`
	DMax     *float64 `json:"d_max" yaml:"d_max"`
	PA       *float64 `json:"p_a" yaml:"p_a"`

	PDemand []float64 `json:"p_demand,omitempty" yaml:"p_demand,omitempty"`
	SGoal   []float64 `json:"s_goal,omitempty" yaml:"s_goal,omitempty"`
}

type TimeSeries struct {
	Dt []float64 `json:"dt" yaml:"dt"`
	Gt []float64 `json:"gt" yaml:"gt"`
	Ft []float64 `json:"ft" yaml:"ft"`
	PN []float64 `json:"p_N" yaml:"p_N"`
	PE []float64 `json:"p_E" yaml:"p_E"`
}

type OptimizationStrategy struct {
	ChargingStrategy string `json:"charging_strategy" yaml:"charging_strategy"`
}

// ToInput converts the request into the domain input. Missing required
// fields are reported as *model.ValidationError; range checks are left to
// model.Normalize.
func (r *OptimizationInput) ToInput() (model.Input, error) {
	if len(r.Batteries) == 0 {
		return model.Input{}, model.NewValidationError("At least one battery is required")
	}
	if r.TimeSeries == nil {
		return model.Input{}, model.NewValidationError("time_series is required")
	}
	ts := r.TimeSeries
	for _, s := range []struct {
		name string
		vals []float64
	}{{"dt", ts.Dt}, {"gt", ts.Gt}, {"ft", ts.Ft}, {"p_N", ts.PN}, {"p_E", ts.PE}} {
		if s.vals == nil {
			return model.Input{}, model.NewValidationError("time_series.%s is required", s.name)
		}
	}

	in := model.Input{
		Batteries: make([]model.Battery, len(r.Batteries)),
		TimeSeries: model.TimeSeries{
			Dt: ts.Dt,
			Gt: ts.Gt,
			Ft: ts.Ft,
			PN: ts.PN,
			PE: ts.PE,
		},
		EtaC: r.EtaC,
		EtaD: r.EtaD,
	}
	if r.Strategy != nil {
		in.Strategy = model.ChargingStrategy(r.Strategy.ChargingStrategy)
	}
	for i, b := range r.Batteries {
		mb, err := b.toBattery(i)
		if err != nil {
			return model.Input{}, err
		}
		in.Batteries[i] = mb
	}
	return in, nil
}

func (b BatteryConfig) toBattery(idx int) (model.Battery, error) {
	required := []struct {
		name string
		val  *float64
	}{
		{"s_min", b.SMin},
		{"s_max", b.SMax},
		{"s_initial", b.SInitial},
		{"c_max", b.CMax},
		{"d_max", b.DMax},
		{"p_a", b.PA},
	}
	for _, f := range required {
		if f.val == nil {
			return model.Battery{}, model.NewValidationError("Battery %d: %s is required", idx, f.name)
		}
	}
	return model.Battery{
		ChargeFromGrid:  boolOr(b.ChargeFromGrid, true),
		DischargeToGrid: boolOr(b.DischargeToGrid, true),
		SMin:            *b.SMin,
		SMax:            *b.SMax,
		SInitial:        *b.SInitial,
		CMin:            floatOr(b.CMin, 0),
		CMax:            *b.CMax,
		DMax:            *b.DMax,
		PA:              *b.PA,
		PDemand:         b.PDemand,
		SGoal:           b.SGoal,
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
