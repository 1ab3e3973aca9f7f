package strategy

import "charge-optimizer/internal/model"

const chargeBeforeExportWeight = 5e-5

// ChargeBeforeExport rewards stored energy early in the horizon, so surplus
// fills the batteries before it is sold.
type ChargeBeforeExport struct{}

func (ChargeBeforeExport) Name() model.ChargingStrategy { return model.StrategyChargeBeforeExport }

func (ChargeBeforeExport) Apply(ctx Context) {
	in := ctx.Input
	steps := in.Steps()
	w := minImportPrice(in) * chargeBeforeExportWeight
	for i := range in.Batteries {
		for t := 0; t < steps; t++ {
			ctx.Problem.Vars[ctx.SOC(i, t)].Cost += w * float64(steps-t)
		}
	}
}
