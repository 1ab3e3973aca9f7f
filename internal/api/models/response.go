package models

import "charge-optimizer/internal/model"

// OptimizationResult is the response body of a solve. ObjectiveValue is
// null and the arrays are empty unless Status is "Optimal".
type OptimizationResult struct {
	Status         string          `json:"status"`
	ObjectiveValue *float64        `json:"objective_value"`
	Batteries      []BatteryResult `json:"batteries"`
	GridImport     []float64       `json:"grid_import"`
	GridExport     []float64       `json:"grid_export"`
	FlowDirection  []int           `json:"flow_direction"`
}

type BatteryResult struct {
	ChargingPower    []float64 `json:"charging_power"`
	DischargingPower []float64 `json:"discharging_power"`
	StateOfCharge    []float64 `json:"state_of_charge"`
}

func FromResult(r *model.Result) OptimizationResult {
	out := OptimizationResult{
		Status:         string(r.Status),
		ObjectiveValue: r.ObjectiveValue,
		Batteries:      make([]BatteryResult, 0, len(r.Batteries)),
		GridImport:     nonNil(r.GridImport),
		GridExport:     nonNil(r.GridExport),
		FlowDirection:  make([]int, len(r.FlowDirection)),
	}
	for _, b := range r.Batteries {
		out.Batteries = append(out.Batteries, BatteryResult{
			ChargingPower:    nonNil(b.ChargingPower),
			DischargingPower: nonNil(b.DischargingPower),
			StateOfCharge:    nonNil(b.StateOfCharge),
		})
	}
	for t, d := range r.FlowDirection {
		out.FlowDirection[t] = int(d)
	}
	return out
}

func nonNil(s []float64) []float64 {
	if s == nil {
		return []float64{}
	}
	return s
}

// ErrorResponse is the body of every 4xx/5xx answer.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse is the body of GET /optimize/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
