package strategy

import "charge-optimizer/internal/model"

const attenuateGridPeaksWeight = 1e-6

// AttenuateGridPeaks prefers charging in steps with high generation, which
// flattens the export peak.
type AttenuateGridPeaks struct{}

func (AttenuateGridPeaks) Name() model.ChargingStrategy { return model.StrategyAttenuateGridPeaks }

func (AttenuateGridPeaks) Apply(ctx Context) {
	in := ctx.Input
	w := minImportPrice(in) * attenuateGridPeaksWeight
	for i := range in.Batteries {
		for t, f := range in.TimeSeries.Ft {
			ctx.Problem.Vars[ctx.Charge(i, t)].Cost += w * f
		}
	}
}
