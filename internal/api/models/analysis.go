package models

import (
	"charge-optimizer/internal/analysis"
	"charge-optimizer/internal/backtest"
)

// AnalysisResponse is the body of POST /optimize/charge-schedule/analysis.
type AnalysisResponse struct {
	Result  OptimizationResult `json:"result"`
	Summary *Summary           `json:"summary,omitempty"`
	Ledger  []LedgerRow        `json:"ledger,omitempty"`
}

type Summary struct {
	BaselinePNL        float64 `json:"baseline_pnl"`
	OptimizedPNL       float64 `json:"optimized_pnl"`
	StorageValueChange float64 `json:"storage_value_change"`
	Benefit            float64 `json:"benefit"`
	GridImportWh       float64 `json:"grid_import_wh"`
	GridExportWh       float64 `json:"grid_export_wh"`
	ChargedWh          float64 `json:"charged_wh"`
	DischargedWh       float64 `json:"discharged_wh"`
	PeakImportWh       float64 `json:"peak_import_wh"`
	PeakExportWh       float64 `json:"peak_export_wh"`
	SelfConsumption    float64 `json:"self_consumption"`
}

type LedgerRow struct {
	Index           int     `json:"index"`
	FlowDirection   string  `json:"flow_direction"`
	LoadWh          float64 `json:"load_wh"`
	GenerationWh    float64 `json:"generation_wh"`
	GridImportWh    float64 `json:"grid_import_wh"`
	GridExportWh    float64 `json:"grid_export_wh"`
	ChargeWh        float64 `json:"charge_wh"`
	DischargeWh     float64 `json:"discharge_wh"`
	SOCEndWh        float64 `json:"soc_end_wh"`
	BalanceResidual float64 `json:"balance_residual"`
	PNL             float64 `json:"pnl"`
	CumPNL          float64 `json:"cum_pnl"`
}

func FromSummary(s analysis.Summary) *Summary {
	return &Summary{
		BaselinePNL:        s.BaselinePNL,
		OptimizedPNL:       s.OptimizedPNL,
		StorageValueChange: s.StorageValueChange,
		Benefit:            s.Benefit,
		GridImportWh:       s.GridImport,
		GridExportWh:       s.GridExport,
		ChargedWh:          s.Charged,
		DischargedWh:       s.Discharged,
		PeakImportWh:       s.PeakImport,
		PeakExportWh:       s.PeakExport,
		SelfConsumption:    s.SelfConsumption,
	}
}

func FromLedger(ledger []backtest.LedgerRow) []LedgerRow {
	out := make([]LedgerRow, 0, len(ledger))
	for _, r := range ledger {
		out = append(out, LedgerRow{
			Index:           r.Index,
			FlowDirection:   r.FlowDirection.String(),
			LoadWh:          r.Load,
			GenerationWh:    r.Generation,
			GridImportWh:    r.GridImport,
			GridExportWh:    r.GridExport,
			ChargeWh:        r.Charge,
			DischargeWh:     r.Discharge,
			SOCEndWh:        r.SOCEnd,
			BalanceResidual: r.BalanceResidual,
			PNL:             r.PNL,
			CumPNL:          r.CumPNL,
		})
	}
	return out
}

// StrategyInfo describes one charging strategy.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
