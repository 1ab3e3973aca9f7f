package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
)

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := WriteLedger(f, ledger); err != nil {
		return err
	}
	return f.Close()
}

// WriteLedger writes the ledger as CSV with a header row.
func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)

	header := []string{
		"index",
		"dt_s",
		"load_wh",
		"generation_wh",
		"import_price",
		"export_price",
		"flow_direction",
		"grid_import_wh",
		"grid_export_wh",
		"charge_wh",
		"discharge_wh",
		"soc_start_wh",
		"soc_end_wh",
		"balance_residual",
		"dynamics_residual",
		"import_cost",
		"export_revenue",
		"pnl",
		"cum_pnl",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtFloat(r.DtSeconds),
			fmtFloat(r.Load),
			fmtFloat(r.Generation),
			fmtFloat(r.ImportPrice),
			fmtFloat(r.ExportPrice),
			r.FlowDirection.String(),
			fmtFloat(r.GridImport),
			fmtFloat(r.GridExport),
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.SOCStart),
			fmtFloat(r.SOCEnd),
			fmtFloat(r.BalanceResidual),
			fmtFloat(r.DynamicsResidual),
			fmtFloat(r.ImportCost),
			fmtFloat(r.ExportRevenue),
			fmtFloat(r.PNL),
			fmtFloat(r.CumPNL),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
