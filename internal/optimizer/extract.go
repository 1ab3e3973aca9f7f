package optimizer

import (
	"fmt"
	"math"

	"charge-optimizer/internal/model"
	"charge-optimizer/internal/solver"
)

// snapTolerance is the magnitude below which solver noise is reported as 0.
const snapTolerance = 1e-9

// Extract maps a solver outcome back onto the result shape. Values are only
// read when the status is optimal; an optimal assignment that does not
// cover every column is an *solver.ExecutionError.
func Extract(f *Formulation, sol *solver.Solution) (*model.Result, error) {
	if sol == nil || sol.Status != model.StatusOptimal {
		status := model.StatusNotSolved
		if sol != nil {
			status = sol.Status
		}
		return model.EmptyResult(status), nil
	}

	l := f.Layout
	x := sol.Values
	if len(x) != len(f.Problem.Vars) {
		return nil, &solver.ExecutionError{
			Op:  "extract",
			Err: fmt.Errorf("assignment has %d values, problem has %d columns", len(x), len(f.Problem.Vars)),
		}
	}
	val := func(j int) float64 { return snap(x[j]) }

	res := &model.Result{
		Status:        model.StatusOptimal,
		Batteries:     make([]model.BatteryResult, l.Batteries),
		GridImport:    make([]float64, l.Steps),
		GridExport:    make([]float64, l.Steps),
		FlowDirection: make([]model.FlowDirection, l.Steps),
	}
	obj := sol.Objective
	res.ObjectiveValue = &obj

	for i := range res.Batteries {
		br := model.BatteryResult{
			ChargingPower:    make([]float64, l.Steps),
			DischargingPower: make([]float64, l.Steps),
			StateOfCharge:    make([]float64, l.Steps),
		}
		for t := 0; t < l.Steps; t++ {
			br.ChargingPower[t] = val(l.C(i, t))
			br.DischargingPower[t] = val(l.D(i, t))
			br.StateOfCharge[t] = val(l.S(i, t))
		}
		res.Batteries[i] = br
	}
	for t := 0; t < l.Steps; t++ {
		n, e := val(l.N(t)), val(l.E(t))
		// A binary inside the engine's integrality tolerance lets the gated
		// side move by up to M times that tolerance. Only the net flow is
		// reported, on the side the rounded direction allows.
		if math.Round(x[l.B(t)]) >= 1 {
			res.FlowDirection[t] = model.FlowExport
			n, e = 0, snap(math.Max(e-n, 0))
		} else {
			n, e = snap(math.Max(n-e, 0)), 0
		}
		res.GridImport[t] = n
		res.GridExport[t] = e
	}
	return res, nil
}

func snap(v float64) float64 {
	if math.Abs(v) < snapTolerance {
		return 0
	}
	return v
}
