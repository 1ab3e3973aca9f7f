package optimizer

// Layout maps (battery, step) pairs to column indices. Per battery the
// columns are c[0..T), d[0..T), s[0..T), followed by the system columns
// n[0..T), e[0..T), b[0..T), followed by the charge-active binaries of
// every battery that has a charge floor.
//
// s[t] is the state of charge after step t; the state before step 0 is the
// constant s_initial and has no column.
type Layout struct {
	Steps     int
	Batteries int

	// zBase[i] is the first z column of battery i, or -1.
	zBase []int
}

func newLayout(batteries, steps int) *Layout {
	zBase := make([]int, batteries)
	for i := range zBase {
		zBase[i] = -1
	}
	return &Layout{Steps: steps, Batteries: batteries, zBase: zBase}
}

func (l *Layout) C(i, t int) int { return 3*i*l.Steps + t }
func (l *Layout) D(i, t int) int { return 3*i*l.Steps + l.Steps + t }
func (l *Layout) S(i, t int) int { return 3*i*l.Steps + 2*l.Steps + t }

func (l *Layout) gridBase() int { return 3 * l.Batteries * l.Steps }

func (l *Layout) N(t int) int { return l.gridBase() + t }
func (l *Layout) E(t int) int { return l.gridBase() + l.Steps + t }

// B is the flow direction binary: 0 import, 1 export.
func (l *Layout) B(t int) int { return l.gridBase() + 2*l.Steps + t }

// Z returns the charge-active binary of battery i at step t.
func (l *Layout) Z(i, t int) (int, bool) {
	if l.zBase[i] < 0 {
		return 0, false
	}
	return l.zBase[i] + t, true
}
