package optimizer

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
	"charge-optimizer/internal/strategy"
)

// Constraint groups.
const (
	GroupPowerBalance  milp.Group = "power_balance"
	GroupDynamics      milp.Group = "dynamics"
	GroupGridImport    milp.Group = "grid_import"
	GroupGridExport    milp.Group = "grid_export"
	GroupChargeFloor   milp.Group = "charge_floor"
	GroupChargeActive  milp.Group = "charge_active"
	GroupGoal          milp.Group = "goal"
	GroupDemand        milp.Group = "demand"
	GroupGridCharge    milp.Group = "grid_charge"
	GroupGridDischarge milp.Group = "grid_discharge"
)

// ChargeFloor selects how c_min is treated.
type ChargeFloor string

const (
	// ChargeFloorSemiContinuous makes charging either off or at least c_min.
	ChargeFloorSemiContinuous ChargeFloor = "semicontinuous"
	// ChargeFloorIgnore leaves c_min unused.
	ChargeFloorIgnore ChargeFloor = "ignore"
)

// GoalMode selects how non-zero s_goal entries bind.
type GoalMode string

const (
	GoalMinimum GoalMode = "minimum"
	GoalExact   GoalMode = "exact"
)

// demandHeadroom keeps a clipped charge demand strictly below the step's
// charge limit.
const demandHeadroom = 0.999

// Options tunes the formulation.
type Options struct {
	ChargeFloor ChargeFloor
	GoalMode    GoalMode
	// BigMFactor scales the largest energy that can cross the grid
	// connection in one step.
	BigMFactor float64
}

func DefaultOptions() Options {
	return Options{
		ChargeFloor: ChargeFloorSemiContinuous,
		GoalMode:    GoalMinimum,
		BigMFactor:  2,
	}
}

func (o Options) Validate() error {
	switch o.ChargeFloor {
	case ChargeFloorSemiContinuous, ChargeFloorIgnore:
	default:
		return fmt.Errorf("unknown charge floor mode %q", o.ChargeFloor)
	}
	switch o.GoalMode {
	case GoalMinimum, GoalExact:
	default:
		return fmt.Errorf("unknown goal mode %q", o.GoalMode)
	}
	if !(o.BigMFactor >= 1) || math.IsInf(o.BigMFactor, 0) {
		return fmt.Errorf("big-M factor must be >= 1, got %g", o.BigMFactor)
	}
	return nil
}

// Formulation is a built problem plus the column layout needed to read a
// solution back.
type Formulation struct {
	Problem *milp.Problem
	Layout  *Layout
	BigM    float64
}

// BigM derives the flow-direction constant from the input: the largest
// energy that can pass the grid connection in any step, times factor.
func BigM(in *model.Input, factor float64) float64 {
	ts := in.TimeSeries
	peak := lo.Max(lo.Map(ts.Gt, func(g float64, t int) float64 {
		sum := g + ts.Ft[t]
		for _, b := range in.Batteries {
			sum += math.Max(b.MaxChargeEnergy(ts.Dt[t]), b.MaxDischargeEnergy(ts.Dt[t]))
		}
		return sum
	}))
	return math.Max(1, factor*peak)
}

// Formulate builds the MILP for a normalized input. It is deterministic and
// does not fail for input accepted by model.Normalize.
func Formulate(in *model.Input, opts Options) (*Formulation, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.For(in.Strategy)
	if err != nil {
		return nil, err
	}

	f := &formulator{
		in:     in,
		opts:   opts,
		layout: newLayout(len(in.Batteries), in.Steps()),
		p:      &milp.Problem{Name: "charge_schedule", Maximize: true},
		bigM:   BigM(in, opts.BigMFactor),
		etaC:   in.ChargeEfficiency(),
		etaD:   in.DischargeEfficiency(),
	}
	f.addVariables()
	f.addPowerBalance()
	f.addGridDirection()
	for i := range in.Batteries {
		f.addDynamics(i)
		f.addChargeLimits(i)
		f.addGoals(i)
		f.addGridGating(i)
	}

	strat.Apply(strategy.Context{
		Input:   in,
		Problem: f.p,
		Charge:  f.layout.C,
		SOC:     f.layout.S,
	})

	return &Formulation{Problem: f.p, Layout: f.layout, BigM: f.bigM}, nil
}

type formulator struct {
	in     *model.Input
	opts   Options
	layout *Layout
	p      *milp.Problem
	bigM   float64
	etaC   float64
	etaD   float64
}

func (f *formulator) steps() int { return f.layout.Steps }

func (f *formulator) dt(t int) float64 { return f.in.TimeSeries.Dt[t] }

// hasFloor reports whether battery i gets charge-active binaries.
func (f *formulator) hasFloor(b model.Battery) bool {
	return f.opts.ChargeFloor == ChargeFloorSemiContinuous && b.CMin > 0
}

func (f *formulator) addVariables() {
	T := f.steps()
	ts := f.in.TimeSeries
	for i, b := range f.in.Batteries {
		for t := 0; t < T; t++ {
			f.p.AddVar(milp.Var{Name: fmt.Sprintf("c_%d_%d", i, t), Upper: b.MaxChargeEnergy(f.dt(t))})
		}
		for t := 0; t < T; t++ {
			f.p.AddVar(milp.Var{Name: fmt.Sprintf("d_%d_%d", i, t), Upper: b.MaxDischargeEnergy(f.dt(t))})
		}
		for t := 0; t < T; t++ {
			v := milp.Var{Name: fmt.Sprintf("s_%d_%d", i, t), Lower: b.SMin, Upper: b.SMax}
			if t == T-1 {
				v.Cost = b.PA
			}
			f.p.AddVar(v)
		}
	}
	for t := 0; t < T; t++ {
		f.p.AddVar(milp.Var{Name: fmt.Sprintf("n_%d", t), Upper: f.bigM, Cost: -ts.PN[t]})
	}
	for t := 0; t < T; t++ {
		f.p.AddVar(milp.Var{Name: fmt.Sprintf("e_%d", t), Upper: f.bigM, Cost: ts.PE[t]})
	}
	for t := 0; t < T; t++ {
		f.p.AddVar(milp.Var{Name: fmt.Sprintf("b_%d", t), Upper: 1, Kind: milp.Binary})
	}
	for i, b := range f.in.Batteries {
		if !f.hasFloor(b) {
			continue
		}
		f.layout.zBase[i] = len(f.p.Vars)
		for t := 0; t < T; t++ {
			f.p.AddVar(milp.Var{Name: fmt.Sprintf("z_%d_%d", i, t), Upper: 1, Kind: milp.Binary})
		}
	}
}

// addPowerBalance: sum_i(c - d) + e - n = f - g.
func (f *formulator) addPowerBalance() {
	ts := f.in.TimeSeries
	l := f.layout
	for t := 0; t < f.steps(); t++ {
		terms := make([]milp.Term, 0, 2*l.Batteries+2)
		for i := 0; i < l.Batteries; i++ {
			terms = append(terms, milp.Term{Var: l.C(i, t), Coef: 1}, milp.Term{Var: l.D(i, t), Coef: -1})
		}
		terms = append(terms, milp.Term{Var: l.E(t), Coef: 1}, milp.Term{Var: l.N(t), Coef: -1})
		f.p.AddEq(milp.Tag{Group: GroupPowerBalance, Battery: -1, Step: t}, ts.Ft[t]-ts.Gt[t], terms...)
	}
}

// addGridDirection: n <= M(1-b), e <= M b.
func (f *formulator) addGridDirection() {
	l := f.layout
	for t := 0; t < f.steps(); t++ {
		f.p.AddLe(milp.Tag{Group: GroupGridImport, Battery: -1, Step: t}, f.bigM,
			milp.Term{Var: l.N(t), Coef: 1}, milp.Term{Var: l.B(t), Coef: f.bigM})
		f.p.AddLe(milp.Tag{Group: GroupGridExport, Battery: -1, Step: t}, 0,
			milp.Term{Var: l.E(t), Coef: 1}, milp.Term{Var: l.B(t), Coef: -f.bigM})
	}
}

// addDynamics: s[t] - s[t-1] - etaC c[t] + d[t]/etaD = 0, s[-1] = s_initial.
func (f *formulator) addDynamics(i int) {
	b := f.in.Batteries[i]
	l := f.layout
	for t := 0; t < f.steps(); t++ {
		terms := []milp.Term{
			{Var: l.S(i, t), Coef: 1},
			{Var: l.C(i, t), Coef: -f.etaC},
			{Var: l.D(i, t), Coef: 1 / f.etaD},
		}
		rhs := 0.0
		if t == 0 {
			rhs = b.SInitial
		} else {
			terms = append(terms, milp.Term{Var: l.S(i, t-1), Coef: -1})
		}
		f.p.AddEq(milp.Tag{Group: GroupDynamics, Battery: i, Step: t}, rhs, terms...)
	}
}

// addChargeLimits adds the charge demand rows and, at steps without a
// demand, the semi-continuous charge floor. The first step carries no
// demand because it is already under way.
func (f *formulator) addChargeLimits(i int) {
	b := f.in.Batteries[i]
	l := f.layout
	for t := 0; t < f.steps(); t++ {
		cmax := b.MaxChargeEnergy(f.dt(t))
		if t > 0 && b.PDemand != nil && b.PDemand[t] > 0 {
			demand := b.PDemand[t]
			if demand >= cmax {
				demand = cmax * demandHeadroom
			}
			f.p.AddGe(milp.Tag{Group: GroupDemand, Battery: i, Step: t}, demand,
				milp.Term{Var: l.C(i, t), Coef: 1})
			continue
		}
		z, ok := l.Z(i, t)
		if !ok {
			continue
		}
		f.p.AddGe(milp.Tag{Group: GroupChargeFloor, Battery: i, Step: t}, 0,
			milp.Term{Var: l.C(i, t), Coef: 1}, milp.Term{Var: z, Coef: -b.MinChargeEnergy(f.dt(t))})
		f.p.AddLe(milp.Tag{Group: GroupChargeActive, Battery: i, Step: t}, 0,
			milp.Term{Var: l.C(i, t), Coef: 1}, milp.Term{Var: z, Coef: -cmax})
	}
}

// addGoals binds non-zero goal entries from the second step on.
func (f *formulator) addGoals(i int) {
	b := f.in.Batteries[i]
	if b.SGoal == nil {
		return
	}
	for t := 1; t < f.steps(); t++ {
		goal := b.SGoal[t]
		if goal <= 0 {
			continue
		}
		tag := milp.Tag{Group: GroupGoal, Battery: i, Step: t}
		term := milp.Term{Var: f.layout.S(i, t), Coef: 1}
		if f.opts.GoalMode == GoalExact {
			f.p.AddEq(tag, goal, term)
		} else {
			f.p.AddGe(tag, goal, term)
		}
	}
}

// addGridGating keeps charging off grid import (c <= C b) and discharging
// off grid export (d <= D (1-b)) as configured per battery. Steps with a
// zero limit need no row; the column bound already pins the variable.
func (f *formulator) addGridGating(i int) {
	b := f.in.Batteries[i]
	l := f.layout
	for t := 0; t < f.steps(); t++ {
		if !b.ChargeFromGrid {
			if cmax := b.MaxChargeEnergy(f.dt(t)); cmax > 0 {
				f.p.AddLe(milp.Tag{Group: GroupGridCharge, Battery: i, Step: t}, 0,
					milp.Term{Var: l.C(i, t), Coef: 1}, milp.Term{Var: l.B(t), Coef: -cmax})
			}
		}
		if !b.DischargeToGrid {
			if dmax := b.MaxDischargeEnergy(f.dt(t)); dmax > 0 {
				f.p.AddLe(milp.Tag{Group: GroupGridDischarge, Battery: i, Step: t}, dmax,
					milp.Term{Var: l.D(i, t), Coef: 1}, milp.Term{Var: l.B(t), Coef: dmax})
			}
		}
	}
}
