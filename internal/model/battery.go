package model

import (
	"fmt"
	"math"
)

// Battery defines the physical and economic parameters of one storage unit.
// Units:
// - SMin, SMax, SInitial, SGoal, PDemand: Wh
// - CMin, CMax, DMax: W (per-step energy bounds are power * dt / 3600)
// - PA: currency/Wh of energy left in storage at the end of the horizon
type Battery struct {
	// ChargeFromGrid allows charging in steps that import from the grid.
	ChargeFromGrid bool
	// DischargeToGrid allows discharging in steps that export to the grid.
	DischargeToGrid bool

	SMin     float64
	SMax     float64
	SInitial float64

	CMin float64
	CMax float64
	DMax float64

	PA float64

	// PDemand is an optional per-step minimum charge energy. nil means none.
	PDemand []float64
	// SGoal is an optional per-step minimum state of charge. nil means none.
	SGoal []float64
}

// HasGoal reports whether any goal entry is set.
func (b Battery) HasGoal() bool {
	for _, g := range b.SGoal {
		if g > 0 {
			return true
		}
	}
	return false
}

// HasDemand reports whether any charge demand entry is set.
func (b Battery) HasDemand() bool {
	for _, p := range b.PDemand {
		if p > 0 {
			return true
		}
	}
	return false
}

// MaxChargeEnergy is the charge energy limit (Wh) for a step of dt seconds.
func (b Battery) MaxChargeEnergy(dt float64) float64 {
	return b.CMax * dt / 3600.
}

// MinChargeEnergy is the charge energy floor (Wh) while charging is active.
func (b Battery) MinChargeEnergy(dt float64) float64 {
	return b.CMin * dt / 3600.
}

// MaxDischargeEnergy is the discharge energy limit (Wh) for a step of dt seconds.
func (b Battery) MaxDischargeEnergy(dt float64) float64 {
	return b.DMax * dt / 3600.
}

// Validate checks the battery against a horizon of steps time steps.
// idx only feeds the error message.
func (b Battery) Validate(idx, steps int, strictInitialSOC bool) error {
	fields := []struct {
		name string
		val  float64
	}{
		{"s_min", b.SMin},
		{"s_max", b.SMax},
		{"s_initial", b.SInitial},
		{"c_min", b.CMin},
		{"c_max", b.CMax},
		{"d_max", b.DMax},
		{"p_a", b.PA},
	}
	for _, f := range fields {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) {
			return validationErrorf("Battery %d: %s must be a finite number", idx, f.name)
		}
		if f.val < 0 {
			return validationErrorf("Battery %d: %s must be >= 0", idx, f.name)
		}
	}
	if b.SMin > b.SMax {
		return validationErrorf("Battery %d: s_min must not exceed s_max", idx)
	}
	if strictInitialSOC && (b.SInitial < b.SMin || b.SInitial > b.SMax) {
		return validationErrorf("Battery %d: s_initial must be within [s_min, s_max]", idx)
	}
	if b.CMin > b.CMax {
		return validationErrorf("Battery %d: c_min must not exceed c_max", idx)
	}
	if err := validateSeries(fmt.Sprintf("Battery %d: s_goal", idx), b.SGoal, steps); err != nil {
		return err
	}
	if err := validateSeries(fmt.Sprintf("Battery %d: p_demand", idx), b.PDemand, steps); err != nil {
		return err
	}
	return nil
}

// validateSeries accepts an absent or empty series; otherwise it must have
// steps non-negative finite entries.
func validateSeries(name string, s []float64, steps int) error {
	if len(s) == 0 {
		return nil
	}
	if len(s) != steps {
		return validationErrorf("%s must have the same length as the time series (%d), got %d", name, steps, len(s))
	}
	for t, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return validationErrorf("%s[%d] must be a non-negative number", name, t)
		}
	}
	return nil
}
