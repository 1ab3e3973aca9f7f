package solver

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/bartolsthoorn/gohighs/highs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"charge-optimizer/internal/milp"
	"charge-optimizer/internal/model"
)

func TestMapStatus(t *testing.T) {
	cases := []struct {
		in      highs.ModelStatus
		want    model.Status
		wantErr bool
	}{
		{highs.ModelStatusOptimal, model.StatusOptimal, false},
		{highs.ModelStatusInfeasible, model.StatusInfeasible, false},
		{highs.ModelStatusUnboundedOrInfeasible, model.StatusInfeasible, false},
		{highs.ModelStatusUnbounded, model.StatusUnbounded, false},
		{highs.ModelStatusNotSet, model.StatusNotSolved, false},
		{highs.ModelStatusModelEmpty, model.StatusUndefined, false},
		{highs.ModelStatusObjectiveBound, model.StatusUndefined, false},
		{highs.ModelStatusObjectiveTarget, model.StatusUndefined, false},
		{highs.ModelStatusIterationLimit, model.StatusUndefined, false},
		{highs.ModelStatusUnknown, model.StatusUndefined, false},
		{highs.ModelStatusTimeLimit, "", true},
		{highs.ModelStatusLoadError, "", true},
		{highs.ModelStatusModelError, "", true},
		{highs.ModelStatusPresolveError, "", true},
		{highs.ModelStatusSolveError, "", true},
		{highs.ModelStatusPostsolveError, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.in.String(), func(t *testing.T) {
			got, err := mapStatus(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, IsExecutionError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := mapStatus(highs.ModelStatusTimeLimit)
	assert.True(t, errors.Is(err, ErrTimeLimit))
}

func TestBuildModelMergesRepeatedColumns(t *testing.T) {
	p := &milp.Problem{Maximize: true}
	x := p.AddVar(milp.Var{Name: "x", Upper: 4, Cost: 1})
	b := p.AddVar(milp.Var{Name: "b", Upper: 1, Kind: milp.Binary})
	p.AddLe(milp.Tag{Group: "row", Battery: -1}, 3, milp.Term{Var: x, Coef: 1}, milp.Term{Var: x, Coef: 1}, milp.Term{Var: b, Coef: -2})

	m := buildModel(p)
	assert.True(t, m.Maximize)
	assert.Equal(t, []highs.VariableType{highs.Continuous, highs.Integer}, m.VarTypes)
	require.Len(t, m.RowLower, 1)
	assert.True(t, math.IsInf(m.RowLower[0], -1))
	assert.Equal(t, 3.0, m.RowUpper[0])
	assert.ElementsMatch(t, []highs.Nonzero{{Row: 0, Col: x, Val: 2}, {Row: 0, Col: b, Val: -2}}, m.ConstMatrix)
}

// knapsack: max 5a + 4b + 3c, 2a + 3b + c <= 4, binaries -> a=1, c=1.
func knapsack() *milp.Problem {
	p := &milp.Problem{Name: "knapsack", Maximize: true}
	a := p.AddVar(milp.Var{Name: "a", Upper: 1, Kind: milp.Binary, Cost: 5})
	b := p.AddVar(milp.Var{Name: "b", Upper: 1, Kind: milp.Binary, Cost: 4})
	c := p.AddVar(milp.Var{Name: "c", Upper: 1, Kind: milp.Binary, Cost: 3})
	p.AddLe(milp.Tag{Group: "weight", Battery: -1}, 4,
		milp.Term{Var: a, Coef: 2}, milp.Term{Var: b, Coef: 3}, milp.Term{Var: c, Coef: 1})
	return p
}

func TestHiGHSSolvesKnapsack(t *testing.T) {
	s := NewHiGHS(DefaultOptions(), nil)
	sol, err := s.Solve(context.Background(), knapsack())
	require.NoError(t, err)
	assert.Equal(t, model.StatusOptimal, sol.Status)
	assert.InDelta(t, 8.0, sol.Objective, 1e-6)
	require.Len(t, sol.Values, 3)
	assert.InDelta(t, 1.0, sol.Values[0], 1e-6)
	assert.InDelta(t, 0.0, sol.Values[1], 1e-6)
	assert.InDelta(t, 1.0, sol.Values[2], 1e-6)
}

func TestHiGHSReportsInfeasible(t *testing.T) {
	p := &milp.Problem{Name: "infeasible"}
	x := p.AddVar(milp.Var{Name: "x", Upper: 1})
	p.AddGe(milp.Tag{Group: "low", Battery: -1}, 2, milp.Term{Var: x, Coef: 1})

	sol, err := NewHiGHS(DefaultOptions(), nil).Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInfeasible, sol.Status)
	assert.Nil(t, sol.Values)
}

func TestHiGHSCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHiGHS(DefaultOptions(), nil).Solve(ctx, knapsack())
	require.Error(t, err)
	assert.True(t, IsExecutionError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHiGHSExpiredDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, err := NewHiGHS(DefaultOptions(), nil).Solve(ctx, knapsack())
	assert.True(t, IsExecutionError(err))
}

func TestHiGHSRejectsMalformedProblem(t *testing.T) {
	p := knapsack()
	p.Constraints = append(p.Constraints, milp.Constraint{Tag: milp.Tag{Group: "empty", Battery: -1}})

	_, err := NewHiGHS(DefaultOptions(), nil).Solve(context.Background(), p)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "build", execErr.Op)
}

func TestTimeLimitUsesSoonerDeadline(t *testing.T) {
	h := NewHiGHS(Options{TimeLimit: time.Minute}, nil)

	limit, err := h.timeLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Minute, limit)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	limit, err = h.timeLimit(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, limit, 5*time.Second)
	assert.Greater(t, limit, time.Duration(0))
}
