package backtest

import (
	"fmt"
	"math"

	"charge-optimizer/internal/model"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Replay recomputes the power balance, battery dynamics and cash flows of an
// optimal result against its input.
func (e *Engine) Replay(in *model.Input, res *model.Result) (*Result, error) {
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}
	if !res.IsOptimal() {
		return nil, fmt.Errorf("result is not optimal")
	}
	steps := in.Steps()
	if len(res.Batteries) != len(in.Batteries) {
		return nil, fmt.Errorf("result has %d batteries, input has %d", len(res.Batteries), len(in.Batteries))
	}
	if len(res.GridImport) != steps || len(res.GridExport) != steps || len(res.FlowDirection) != steps {
		return nil, fmt.Errorf("grid series do not have %d steps", steps)
	}
	for i, br := range res.Batteries {
		if len(br.ChargingPower) != steps || len(br.DischargingPower) != steps || len(br.StateOfCharge) != steps {
			return nil, fmt.Errorf("battery %d series do not have %d steps", i, steps)
		}
	}

	etaC, etaD := in.ChargeEfficiency(), in.DischargeEfficiency()
	ts := in.TimeSeries
	out := &Result{Ledger: make([]LedgerRow, 0, steps)}
	cum := 0.0

	for t := 0; t < steps; t++ {
		row := LedgerRow{
			Index:         t,
			DtSeconds:     ts.Dt[t],
			Load:          ts.Gt[t],
			Generation:    ts.Ft[t],
			ImportPrice:   ts.PN[t],
			ExportPrice:   ts.PE[t],
			FlowDirection: res.FlowDirection[t],
			GridImport:    res.GridImport[t],
			GridExport:    res.GridExport[t],
		}
		for i, b := range in.Batteries {
			br := res.Batteries[i]
			prev := b.SInitial
			if t > 0 {
				prev = br.StateOfCharge[t-1]
			}
			c, d, s := br.ChargingPower[t], br.DischargingPower[t], br.StateOfCharge[t]
			row.Charge += c
			row.Discharge += d
			row.SOCStart += prev
			row.SOCEnd += s

			resid := math.Abs(s - prev - etaC*c + d/etaD)
			row.DynamicsResidual = math.Max(row.DynamicsResidual, resid)
		}
		row.BalanceResidual = row.Generation + row.GridImport + row.Discharge - row.Load - row.GridExport - row.Charge

		row.ImportCost = row.GridImport * row.ImportPrice
		row.ExportRevenue = row.GridExport * row.ExportPrice
		row.PNL = row.ExportRevenue - row.ImportCost
		cum += row.PNL
		row.CumPNL = cum

		out.MaxBalanceResidual = math.Max(out.MaxBalanceResidual, math.Abs(row.BalanceResidual))
		out.MaxDynamicsResidual = math.Max(out.MaxDynamicsResidual, row.DynamicsResidual)
		out.Ledger = append(out.Ledger, row)
	}

	out.TotalPNL = cum
	for i, b := range in.Batteries {
		out.TerminalValue += res.Batteries[i].StateOfCharge[steps-1] * b.PA
	}
	return out, nil
}

// ResidualError reports a replay that does not reproduce the schedule.
type ResidualError struct {
	Step     int
	Kind     string
	Residual float64
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("%s residual %g at step %d exceeds tolerance", e.Kind, e.Residual, e.Step)
}

// Check returns a *ResidualError for the first step whose balance or
// dynamics residual exceeds tol.
func (r *Result) Check(tol float64) error {
	for _, row := range r.Ledger {
		if math.Abs(row.BalanceResidual) > tol {
			return &ResidualError{Step: row.Index, Kind: "power balance", Residual: row.BalanceResidual}
		}
		if row.DynamicsResidual > tol {
			return &ResidualError{Step: row.Index, Kind: "dynamics", Residual: row.DynamicsResidual}
		}
	}
	return nil
}
