package inout

// Regime is the binary portfolio state.
type Regime int

const (
	Out Regime = 0
	In  Regime = 1
)

func (r Regime) String() string {
	if r == In {
		return "in"
	}
	return "out"
}

// Transition records which edges fired during one evaluation.
type Transition struct {
	OutFired bool
	InFired  bool
}

// RegimeMachine is a two-state hysteresis machine over the density series.
// Rising stress moves OUT; stress undercutting its trailing minimum moves IN.
// Both edges are checked every day, OUT first, so IN wins when both fire.
type RegimeMachine struct {
	trailing int
	history  []Regime
}

// NewRegimeMachine starts IN. trailing is how many of the latest density
// values form the minimum window, the two newest excluded.
func NewRegimeMachine(trailing int) *RegimeMachine {
	return &RegimeMachine{trailing: trailing, history: []Regime{In}}
}

// Evaluate reads the density series and appends any fired transition.
func (m *RegimeMachine) Evaluate(d *DensitySeries) Transition {
	var t Transition
	vals := d.Values()
	n := len(vals)
	if n < 2 {
		return t
	}
	last := vals[n-1]

	if last > vals[n-2] {
		t.OutFired = true
		m.history = append(m.history, Out)
	}

	// a series shorter than trailing compares against every value before the last two
	start := n - m.trailing
	if start < 0 {
		start = 0
	}
	window := vals[start : n-2]
	if len(window) == 0 {
		return t
	}
	lo := window[0]
	for _, v := range window[1:] {
		if v < lo {
			lo = v
		}
	}
	if last < lo {
		t.InFired = true
		m.history = append(m.history, In)
	}
	return t
}

// Current is the effective regime.
func (m *RegimeMachine) Current() Regime { return m.history[len(m.history)-1] }

// History returns every recorded flag, oldest first.
func (m *RegimeMachine) History() []Regime { return append([]Regime(nil), m.history...) }

// Len is the number of recorded flags.
func (m *RegimeMachine) Len() int { return len(m.history) }
