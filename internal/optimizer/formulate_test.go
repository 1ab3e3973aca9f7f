package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
)

func termCoef(c milp.Constraint, v int) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		if t.Var == v {
			sum += t.Coef
		}
	}
	return sum
}

func TestFormulateScenarioAShape(t *testing.T) {
	f, err := Formulate(normalized(scenarioA()), DefaultOptions())
	require.NoError(t, err)
	p := f.Problem
	require.NoError(t, p.Validate())

	assert.True(t, p.Maximize)
	assert.Len(t, p.Vars, fixedColumns(f.Layout))
	assert.Len(t, p.Vars, 6*6)
	assert.Equal(t, 6, p.NumIntegers())

	for _, g := range []milp.Group{GroupPowerBalance, GroupDynamics, GroupGridImport, GroupGridExport} {
		assert.Len(t, p.Group(g), 6, g)
	}
	for _, g := range []milp.Group{GroupChargeFloor, GroupChargeActive, GroupGoal, GroupDemand, GroupGridCharge, GroupGridDischarge} {
		assert.Empty(t, p.Group(g), g)
	}

	l := f.Layout
	assert.Equal(t, 11000.0, p.Vars[l.C(0, 0)].Upper)
	assert.Equal(t, 0.0, p.Vars[l.D(0, 0)].Upper)
	assert.Equal(t, 5000.0, p.Vars[l.S(0, 3)].Lower)
	assert.Equal(t, 50000.0, p.Vars[l.S(0, 3)].Upper)

	// objective: -n p_N + e p_E + s_T p_a
	assert.Equal(t, -0.001, p.Vars[l.N(0)].Cost)
	assert.Equal(t, 0.0001, p.Vars[l.E(4)].Cost)
	assert.Equal(t, 0.25, p.Vars[l.S(0, 5)].Cost)
	assert.Zero(t, p.Vars[l.S(0, 4)].Cost)
	assert.Zero(t, p.Vars[l.C(0, 1)].Cost)
}

func TestFormulateRows(t *testing.T) {
	f, err := Formulate(normalized(scenarioA()), DefaultOptions())
	require.NoError(t, err)
	l := f.Layout

	balance := f.Problem.Group(GroupPowerBalance)[0]
	assert.Equal(t, 7000.0, balance.Lower)
	assert.Equal(t, 7000.0, balance.Upper)
	assert.Equal(t, 1.0, termCoef(balance, l.C(0, 0)))
	assert.Equal(t, -1.0, termCoef(balance, l.D(0, 0)))
	assert.Equal(t, 1.0, termCoef(balance, l.E(0)))
	assert.Equal(t, -1.0, termCoef(balance, l.N(0)))

	dyn := f.Problem.Group(GroupDynamics)
	assert.Equal(t, 15000.0, dyn[0].Lower)
	assert.Equal(t, -0.95, termCoef(dyn[0], l.C(0, 0)))
	assert.InDelta(t, 1/0.95, termCoef(dyn[0], l.D(0, 0)), 1e-12)
	assert.Equal(t, 0.0, dyn[2].Lower)
	assert.Equal(t, 1.0, termCoef(dyn[2], l.S(0, 2)))
	assert.Equal(t, -1.0, termCoef(dyn[2], l.S(0, 1)))

	imp := f.Problem.Group(GroupGridImport)[3]
	assert.Equal(t, f.BigM, imp.Upper)
	assert.Equal(t, f.BigM, termCoef(imp, l.B(3)))
	exp := f.Problem.Group(GroupGridExport)[3]
	assert.Equal(t, 0.0, exp.Upper)
	assert.Equal(t, -f.BigM, termCoef(exp, l.B(3)))
}

func TestBigM(t *testing.T) {
	in := normalized(scenarioA())
	// step 0: 1000 + 8000 + 11000
	assert.Equal(t, 40000.0, BigM(in, 2))
	assert.Equal(t, 20000.0, BigM(in, 1))

	in.TimeSeries = model.TimeSeries{Dt: []float64{0}, Gt: []float64{0}, Ft: []float64{0}, PN: []float64{0}, PE: []float64{0}}
	assert.Equal(t, 1.0, BigM(in, 2))
}

func TestFormulateMixedGroups(t *testing.T) {
	in := normalized(mixedInput())
	f, err := Formulate(in, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, f.Problem.Validate())
	l := f.Layout

	// battery 0 has a floor at every step
	z, ok := l.Z(0, 2)
	require.True(t, ok)
	_, ok = l.Z(1, 0)
	assert.False(t, ok)
	assert.Equal(t, milp.Binary, f.Problem.Vars[z].Kind)
	assert.Len(t, f.Problem.Vars, fixedColumns(l)+4)

	floors := f.Problem.Group(GroupChargeFloor)
	require.Len(t, floors, 4)
	assert.Equal(t, -500.0, termCoef(floors[1], mustZ(t, l, 0, 1)), "half-hour step halves c_min energy")
	active := f.Problem.Group(GroupChargeActive)
	require.Len(t, active, 4)
	assert.Equal(t, -2000.0, termCoef(active[1], mustZ(t, l, 0, 1)))

	demand := f.Problem.Group(GroupDemand)
	require.Len(t, demand, 1)
	assert.Equal(t, milp.Tag{Group: GroupDemand, Battery: 1, Step: 2}, demand[0].Tag)
	assert.Equal(t, 2000.0, demand[0].Lower)

	charge := f.Problem.Group(GroupGridCharge)
	require.Len(t, charge, 4)
	assert.Equal(t, 0, charge[0].Tag.Battery)
	assert.Equal(t, -4000.0, termCoef(charge[0], l.B(0)))
	assert.Equal(t, -2000.0, termCoef(charge[1], l.B(1)))

	discharge := f.Problem.Group(GroupGridDischarge)
	require.Len(t, discharge, 4)
	assert.Equal(t, 1, discharge[0].Tag.Battery)
	assert.Equal(t, 3000.0, discharge[0].Upper)
	assert.Equal(t, 3000.0, termCoef(discharge[0], l.B(0)))
}

func mustZ(t *testing.T, l *Layout, i, step int) int {
	t.Helper()
	z, ok := l.Z(i, step)
	require.True(t, ok)
	return z
}

func TestFormulateDemandClipsToChargeLimit(t *testing.T) {
	in := mixedInput()
	in.Batteries[1].PDemand = []float64{5000, 5000, 0, 0}
	f, err := Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)

	demand := f.Problem.Group(GroupDemand)
	require.Len(t, demand, 1, "first step carries no demand")
	assert.Equal(t, 1, demand[0].Tag.Step)
	assert.InDelta(t, 1500*0.999, demand[0].Lower, 1e-9)
}

func TestFormulateDemandReplacesFloor(t *testing.T) {
	in := mixedInput()
	in.Batteries[0].PDemand = []float64{0, 0, 0, 1500}
	f, err := Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)

	for _, c := range f.Problem.Group(GroupChargeFloor) {
		assert.NotEqual(t, 3, c.Tag.Step)
	}
	assert.Len(t, f.Problem.Group(GroupChargeFloor), 3)
	assert.Len(t, f.Problem.Group(GroupDemand), 2)
}

func TestFormulateChargeFloorIgnore(t *testing.T) {
	opts := DefaultOptions()
	opts.ChargeFloor = ChargeFloorIgnore
	f, err := Formulate(normalized(mixedInput()), opts)
	require.NoError(t, err)

	assert.Empty(t, f.Problem.Group(GroupChargeFloor))
	assert.Empty(t, f.Problem.Group(GroupChargeActive))
	_, ok := f.Layout.Z(0, 0)
	assert.False(t, ok)
	assert.Len(t, f.Problem.Vars, fixedColumns(f.Layout))
}

func TestFormulateGoals(t *testing.T) {
	in := scenarioA()
	in.Batteries[0].SGoal = []float64{30000, 0, 40000, 0, 0, 45000}

	f, err := Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)
	goals := f.Problem.Group(GroupGoal)
	require.Len(t, goals, 2, "index 0 and zero entries impose nothing")
	assert.Equal(t, 2, goals[0].Tag.Step)
	assert.Equal(t, 40000.0, goals[0].Lower)
	assert.Equal(t, 1.0, termCoef(goals[0], f.Layout.S(0, 2)))
	assert.Greater(t, goals[0].Upper, 1e300)

	opts := DefaultOptions()
	opts.GoalMode = GoalExact
	f, err = Formulate(normalized(in), opts)
	require.NoError(t, err)
	goals = f.Problem.Group(GroupGoal)
	require.Len(t, goals, 2)
	assert.Equal(t, 45000.0, goals[1].Lower)
	assert.Equal(t, 45000.0, goals[1].Upper)
}

func TestFormulateStrategyTerms(t *testing.T) {
	in := scenarioA()
	in.Strategy = model.StrategyChargeBeforeExport
	f, err := Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)
	l := f.Layout

	assert.InDelta(t, 0.0002*5e-5*6, f.Problem.Vars[l.S(0, 0)].Cost, 1e-18)
	assert.InDelta(t, 0.25+0.0002*5e-5, f.Problem.Vars[l.S(0, 5)].Cost, 1e-15)

	in.Strategy = model.StrategyAttenuateGridPeaks
	f, err = Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 0.0002*1e-6*8000, f.Problem.Vars[l.C(0, 0)].Cost, 1e-18)
	assert.Zero(t, f.Problem.Vars[l.C(0, 1)].Cost)
}

func TestFormulateIsDeterministic(t *testing.T) {
	in := normalized(mixedInput())
	a, err := Formulate(in, DefaultOptions())
	require.NoError(t, err)
	b, err := Formulate(in, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, a.Problem, b.Problem)
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())

	opts := DefaultOptions()
	opts.ChargeFloor = "sometimes"
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.GoalMode = "maximum"
	assert.Error(t, opts.Validate())

	opts = DefaultOptions()
	opts.BigMFactor = 0.5
	assert.Error(t, opts.Validate())

	_, err := Formulate(normalized(scenarioA()), opts)
	assert.Error(t, err)
}

// Charging draws energy like a load and discharging supplies it like
// generation: f + n + sum(d) = g + e + sum(c).
func TestPowerBalanceSigns(t *testing.T) {
	in := model.Input{
		Batteries: []model.Battery{{ChargeFromGrid: true, DischargeToGrid: true, SMax: 5000, SInitial: 2000, CMax: 1000, DMax: 1000}},
		TimeSeries: model.TimeSeries{
			Dt: []float64{3600},
			Gt: []float64{0},
			Ft: []float64{0},
			PN: []float64{0.1},
			PE: []float64{0.05},
		},
	}
	f, err := Formulate(normalized(in), DefaultOptions())
	require.NoError(t, err)
	l := f.Layout
	balance := f.Problem.Group(GroupPowerBalance)[0]

	assert.Equal(t, 1.0, termCoef(balance, l.C(0, 0)), "charge draws")
	assert.Equal(t, -1.0, termCoef(balance, l.D(0, 0)), "discharge supplies")
	assert.Equal(t, -1.0, termCoef(balance, l.N(0)), "import supplies")
	assert.Equal(t, 1.0, termCoef(balance, l.E(0)), "export draws")

	x := make([]float64, len(f.Problem.Vars))
	x[l.C(0, 0)], x[l.N(0)] = 1000, 1000
	assert.Zero(t, balance.Violation(x), "charging from grid import")

	x = make([]float64, len(f.Problem.Vars))
	x[l.D(0, 0)], x[l.E(0)], x[l.B(0)] = 1000, 1000, 1
	assert.Zero(t, balance.Violation(x), "discharging into grid export")

	x = make([]float64, len(f.Problem.Vars))
	x[l.C(0, 0)], x[l.E(0)] = 1000, 1000
	assert.Equal(t, 2000.0, balance.Violation(x), "charging cannot create export")
}
