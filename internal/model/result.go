package model

// Status is the termination status of one solve. Callers only ever see
// the values declared here.
type Status string

const (
	StatusOptimal    Status = "Optimal"
	StatusInfeasible Status = "Infeasible"
	StatusUnbounded  Status = "Unbounded"
	StatusUndefined  Status = "Undefined"
	StatusNotSolved  Status = "Not Solved"
)

// FlowDirection tells whether a step imports from or exports to the grid.
// Keep these values stable; they are part of the JSON contract.
type FlowDirection int

const (
	FlowImport FlowDirection = 0
	FlowExport FlowDirection = 1
)

func (f FlowDirection) String() string {
	if f == FlowExport {
		return "export"
	}
	return "import"
}

// BatteryResult is the schedule of one battery. All slices have length T;
// StateOfCharge[t] is the stored energy after step t.
type BatteryResult struct {
	ChargingPower    []float64
	DischargingPower []float64
	StateOfCharge    []float64
}

// Result is the outcome of one optimization run. ObjectiveValue is nil
// unless Status is StatusOptimal, and the schedule slices are empty then.
type Result struct {
	Status         Status
	ObjectiveValue *float64

	Batteries     []BatteryResult
	GridImport    []float64
	GridExport    []float64
	FlowDirection []FlowDirection
}

// IsOptimal reports whether the schedule fields can be trusted.
func (r *Result) IsOptimal() bool {
	return r != nil && r.Status == StatusOptimal
}

// EmptyResult is the shape returned for every non-optimal status.
func EmptyResult(status Status) *Result {
	return &Result{
		Status:        status,
		Batteries:     []BatteryResult{},
		GridImport:    []float64{},
		GridExport:    []float64{},
		FlowDirection: []FlowDirection{},
	}
}
