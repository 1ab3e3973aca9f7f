package optimizer

import "charge-optimizer/internal/model"

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func concat(parts ...[]float64) []float64 {
	var out []float64
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// fixedColumns is the column count before any z columns: c, d, s per
// battery and n, e, b per step.
func fixedColumns(l *Layout) int { return 3*l.Batteries*l.Steps + 3*l.Steps }

// scenarioA is a single battery that soaks up a morning surplus and then
// fills from cheap grid energy.
func scenarioA() model.Input {
	return model.Input{
		Batteries: []model.Battery{{
			ChargeFromGrid:  true,
			DischargeToGrid: true,
			SMin:            5000,
			SMax:            50000,
			SInitial:        15000,
			CMax:            11000,
			DMax:            0,
			PA:              0.25,
		}},
		TimeSeries: model.TimeSeries{
			Dt: repeat(3600, 6),
			Gt: concat([]float64{1000}, repeat(500, 5)),
			Ft: concat([]float64{8000}, repeat(0, 5)),
			PN: concat([]float64{0.001}, repeat(0.0002, 5)),
			PE: repeat(0.0001, 6),
		},
	}
}

// scenarioAObjective is 50000*0.25 minus the cost of importing the load of
// steps 1..5 plus the charge needed to fill the battery after step 0.
const scenarioAObjective = 12500 - 0.0002*(2500+28350/0.95)

// mixedInput has two batteries with grid gating, a charge floor, a charge
// demand, a half-hour step and export prices above import prices.
func mixedInput() model.Input {
	return model.Input{
		Batteries: []model.Battery{
			{
				ChargeFromGrid:  false,
				DischargeToGrid: true,
				SMin:            1000,
				SMax:            20000,
				SInitial:        5000,
				CMin:            1000,
				CMax:            4000,
				DMax:            4000,
				PA:              0.2,
			},
			{
				ChargeFromGrid:  true,
				DischargeToGrid: false,
				SMin:            0,
				SMax:            10000,
				SInitial:        8000,
				CMax:            3000,
				DMax:            3000,
				PA:              0.15,
				PDemand:         []float64{0, 0, 2000, 0},
			},
		},
		TimeSeries: model.TimeSeries{
			Dt: []float64{3600, 1800, 3600, 3600},
			Gt: []float64{2000, 3000, 1000, 4000},
			Ft: []float64{5000, 0, 6000, 0},
			PN: []float64{0.3, 0.35, 0.1, 0.4},
			PE: []float64{0.4, 0.05, 0.05, 0.1},
		},
	}
}

func normalized(in model.Input) *model.Input {
	norm, err := model.Normalize(in, model.ValidationOptions{})
	if err != nil {
		panic(err)
	}
	return norm
}
