package backtest

import "charge-optimizer/internal/model"

// LedgerRow is one step of a replayed schedule. Energies are Wh; battery
// columns are summed over all batteries.
type LedgerRow struct {
	Index int

	DtSeconds  float64
	Load       float64
	Generation float64

	ImportPrice float64
	ExportPrice float64

	FlowDirection model.FlowDirection
	GridImport    float64
	GridExport    float64

	Charge    float64
	Discharge float64

	SOCStart float64
	SOCEnd   float64

	// BalanceResidual is supply minus demand; zero for a consistent schedule.
	BalanceResidual float64
	// DynamicsResidual is the largest per-battery state mismatch at this step.
	DynamicsResidual float64

	ImportCost    float64
	ExportRevenue float64
	PNL           float64
	CumPNL        float64
}

type Result struct {
	Ledger []LedgerRow

	// TotalPNL is export revenue minus import cost over the horizon.
	TotalPNL float64
	// TerminalValue is the stored energy at the end valued at p_a.
	TerminalValue float64

	MaxBalanceResidual  float64
	MaxDynamicsResidual float64
}

// Objective is the economic objective without strategy tie-breakers.
func (r *Result) Objective() float64 {
	return r.TotalPNL + r.TerminalValue
}
