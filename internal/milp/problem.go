// Package milp describes mixed integer linear programs independently of any
// solver: variables with bounds and objective coefficients, constraint rows
// tagged by the group they belong to, and the optimization sense.
package milp

import (
	"fmt"
	"math"
)

// VarKind is the domain of a variable.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

func (k VarKind) String() string {
	if k == Binary {
		return "binary"
	}
	return "continuous"
}

// Var is one decision variable.
type Var struct {
	Name  string
	Lower float64
	Upper float64
	Kind  VarKind
	// Cost is the objective coefficient.
	Cost float64
}

// Term is coef * x[Var].
type Term struct {
	Var  int
	Coef float64
}

// Group names a family of constraints built from the same rule.
type Group string

// Tag identifies the rule, battery and time step a row was built for.
// Battery is -1 for system-wide rows.
type Tag struct {
	Group   Group
	Battery int
	Step    int
}

func (t Tag) String() string {
	if t.Battery < 0 {
		return fmt.Sprintf("%s[t=%d]", t.Group, t.Step)
	}
	return fmt.Sprintf("%s[i=%d,t=%d]", t.Group, t.Battery, t.Step)
}

// Constraint is Lower <= sum(Terms) <= Upper. Use math.Inf for open sides.
type Constraint struct {
	Tag   Tag
	Terms []Term
	Lower float64
	Upper float64
}

// Problem is a complete MILP.
type Problem struct {
	Name        string
	Maximize    bool
	Vars        []Var
	Constraints []Constraint
}

// AddVar appends a variable and returns its index.
func (p *Problem) AddVar(v Var) int {
	p.Vars = append(p.Vars, v)
	return len(p.Vars) - 1
}

// AddEq adds sum(terms) == rhs.
func (p *Problem) AddEq(tag Tag, rhs float64, terms ...Term) {
	p.add(tag, rhs, rhs, terms)
}

// AddLe adds sum(terms) <= rhs.
func (p *Problem) AddLe(tag Tag, rhs float64, terms ...Term) {
	p.add(tag, math.Inf(-1), rhs, terms)
}

// AddGe adds sum(terms) >= rhs.
func (p *Problem) AddGe(tag Tag, rhs float64, terms ...Term) {
	p.add(tag, rhs, math.Inf(1), terms)
}

func (p *Problem) add(tag Tag, lower, upper float64, terms []Term) {
	p.Constraints = append(p.Constraints, Constraint{
		Tag:   tag,
		Terms: terms,
		Lower: lower,
		Upper: upper,
	})
}

// NumIntegers counts binary variables.
func (p *Problem) NumIntegers() int {
	n := 0
	for _, v := range p.Vars {
		if v.Kind == Binary {
			n++
		}
	}
	return n
}

// Group returns the constraints of one group in insertion order.
func (p *Problem) Group(g Group) []Constraint {
	var out []Constraint
	for _, c := range p.Constraints {
		if c.Tag.Group == g {
			out = append(out, c)
		}
	}
	return out
}

// Objective evaluates the objective at x.
func (p *Problem) Objective(x []float64) float64 {
	sum := 0.0
	for j, v := range p.Vars {
		sum += v.Cost * x[j]
	}
	return sum
}

// Activity evaluates the row sum of c at x.
func (c Constraint) Activity(x []float64) float64 {
	sum := 0.0
	for _, t := range c.Terms {
		sum += t.Coef * x[t.Var]
	}
	return sum
}

func (c Constraint) hasNonzero() bool {
	for _, t := range c.Terms {
		if t.Coef != 0 {
			return true
		}
	}
	return false
}

// Violation is how far x lies outside the row bounds (0 when satisfied).
func (c Constraint) Violation(x []float64) float64 {
	a := c.Activity(x)
	switch {
	case a < c.Lower:
		return c.Lower - a
	case a > c.Upper:
		return a - c.Upper
	default:
		return 0
	}
}

// Check verifies x against variable bounds, integrality and every row,
// within tol. It returns the first violation found.
func (p *Problem) Check(x []float64, tol float64) error {
	if len(x) != len(p.Vars) {
		return fmt.Errorf("assignment has %d values, problem has %d variables", len(x), len(p.Vars))
	}
	for j, v := range p.Vars {
		if x[j] < v.Lower-tol || x[j] > v.Upper+tol {
			return fmt.Errorf("variable %s = %g outside [%g, %g]", v.Name, x[j], v.Lower, v.Upper)
		}
		if v.Kind == Binary && math.Abs(x[j]-math.Round(x[j])) > tol {
			return fmt.Errorf("variable %s = %g is not integral", v.Name, x[j])
		}
	}
	for _, c := range p.Constraints {
		if viol := c.Violation(x); viol > tol {
			return fmt.Errorf("constraint %s violated by %g", c.Tag, viol)
		}
	}
	return nil
}

// Validate checks the problem is well formed: finite coefficients, ordered
// bounds, no empty rows and term indices in range.
func (p *Problem) Validate() error {
	for j, v := range p.Vars {
		if math.IsNaN(v.Lower) || math.IsNaN(v.Upper) || v.Lower > v.Upper {
			return fmt.Errorf("variable %d (%s) has invalid bounds [%g, %g]", j, v.Name, v.Lower, v.Upper)
		}
		if math.IsNaN(v.Cost) || math.IsInf(v.Cost, 0) {
			return fmt.Errorf("variable %d (%s) has non-finite cost", j, v.Name)
		}
	}
	for _, c := range p.Constraints {
		if !c.hasNonzero() {
			return fmt.Errorf("constraint %s has no terms", c.Tag)
		}
		if math.IsNaN(c.Lower) || math.IsNaN(c.Upper) || c.Lower > c.Upper {
			return fmt.Errorf("constraint %s has invalid bounds [%g, %g]", c.Tag, c.Lower, c.Upper)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Vars) {
				return fmt.Errorf("constraint %s references variable %d out of range", c.Tag, t.Var)
			}
			if math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
				return fmt.Errorf("constraint %s has non-finite coefficient", c.Tag)
			}
		}
	}
	return nil
}
