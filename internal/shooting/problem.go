// Package shooting holds the multiple-shooting optimal control problem:
// an initial state, N running models and a terminal model.
package shooting

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// Trajectory is a state sequence of length N+1 and a control sequence of
// length N.
type Trajectory struct {
	Xs []dynamo.State
	Us []dynamo.Control
}

// Clone deep-copies the trajectory.
func (t *Trajectory) Clone() *Trajectory {
	c := &Trajectory{Xs: make([]dynamo.State, len(t.Xs)), Us: make([]dynamo.Control, len(t.Us))}
	for i, x := range t.Xs {
		c.Xs[i] = x.Clone()
	}
	for i, u := range t.Us {
		c.Us[i] = u.Clone()
	}
	return c
}

// CopyFrom overwrites t with o without allocating. Both trajectories must
// come from the same problem.
func (t *Trajectory) CopyFrom(o *Trajectory) {
	for i := range t.Xs {
		copy(t.Xs[i], o.Xs[i])
	}
	for i := range t.Us {
		copy(t.Us[i], o.Us[i])
	}
}

// Problem is immutable after New; evaluation buffers live in the per-node
// data created once by New.
type Problem struct {
	X0       dynamo.State
	Running  []dynamo.ActionModel
	Terminal dynamo.ActionModel

	runningData  []*dynamo.ActionData
	terminalData *dynamo.ActionData
	terminalU    dynamo.Control
}

func New(x0 dynamo.State, running []dynamo.ActionModel, terminal dynamo.ActionModel) (*Problem, error) {
	if terminal == nil {
		return nil, fmt.Errorf("shooting: terminal model is required")
	}
	nx := terminal.State().Nx()
	if len(x0) != nx {
		return nil, &dynamo.DimensionError{What: "initial state", Got: len(x0), Want: nx}
	}
	p := &Problem{
		X0:          x0.Clone(),
		Running:     running,
		Terminal:    terminal,
		runningData: make([]*dynamo.ActionData, len(running)),
	}
	for i, m := range running {
		if m.State().Nx() != nx {
			return nil, fmt.Errorf("node %d: %w", i, &dynamo.DimensionError{What: "running state", Got: m.State().Nx(), Want: nx})
		}
		p.runningData[i] = m.CreateData()
	}
	p.terminalData = terminal.CreateData()
	p.terminalU = make(dynamo.Control, terminal.ControlDim())
	return p, nil
}

// Repeat builds a problem whose N running nodes all share one model.
func Repeat(x0 dynamo.State, model dynamo.ActionModel, terminal dynamo.ActionModel, n int) (*Problem, error) {
	running := make([]dynamo.ActionModel, n)
	for i := range running {
		running[i] = model
	}
	return New(x0, running, terminal)
}

func (p *Problem) Horizon() int { return len(p.Running) }

func (p *Problem) RunningData(i int) *dynamo.ActionData { return p.runningData[i] }
func (p *Problem) TerminalData() *dynamo.ActionData     { return p.terminalData }

// NewTrajectory allocates a trajectory with every state equal to x0 and
// zero controls.
func (p *Problem) NewTrajectory() *Trajectory {
	t := &Trajectory{
		Xs: make([]dynamo.State, len(p.Running)+1),
		Us: make([]dynamo.Control, len(p.Running)),
	}
	for i := range t.Xs {
		t.Xs[i] = p.X0.Clone()
	}
	for i, m := range p.Running {
		t.Us[i] = make(dynamo.Control, m.ControlDim())
	}
	return t
}

func (p *Problem) check(xs []dynamo.State, us []dynamo.Control) error {
	if len(us) != len(p.Running) {
		return &dynamo.DimensionError{What: "controls", Got: len(us), Want: len(p.Running)}
	}
	if len(xs) != len(p.Running)+1 {
		return &dynamo.DimensionError{What: "states", Got: len(xs), Want: len(p.Running) + 1}
	}
	return nil
}

// Calc evaluates every node and returns the total cost.
func (p *Problem) Calc(xs []dynamo.State, us []dynamo.Control) (float64, error) {
	if err := p.check(xs, us); err != nil {
		return 0, err
	}
	total := 0.0
	for i, m := range p.Running {
		d := p.runningData[i]
		if err := m.Calc(d, xs[i], us[i]); err != nil {
			return 0, fmt.Errorf("node %d: %w", i, err)
		}
		total += d.Cost
	}
	if err := p.Terminal.Calc(p.terminalData, xs[len(xs)-1], p.terminalU); err != nil {
		return 0, fmt.Errorf("terminal: %w", err)
	}
	return total + p.terminalData.Cost, nil
}

// CalcDiff evaluates every node and its derivatives. The returned total
// cost matches Calc.
func (p *Problem) CalcDiff(xs []dynamo.State, us []dynamo.Control) (float64, error) {
	total, err := p.Calc(xs, us)
	if err != nil {
		return 0, err
	}
	for i, m := range p.Running {
		if err := m.CalcDiff(p.runningData[i], xs[i], us[i]); err != nil {
			return 0, fmt.Errorf("node %d: %w", i, err)
		}
	}
	if err := p.Terminal.CalcDiff(p.terminalData, xs[len(xs)-1], p.terminalU); err != nil {
		return 0, fmt.Errorf("terminal: %w", err)
	}
	return total, nil
}

// Rollout integrates us forward from x0 into xs and returns the total cost.
func (p *Problem) Rollout(us []dynamo.Control, xs []dynamo.State) (float64, error) {
	if err := p.check(xs, us); err != nil {
		return 0, err
	}
	copy(xs[0], p.X0)
	total := 0.0
	for i, m := range p.Running {
		d := p.runningData[i]
		if err := m.Calc(d, xs[i], us[i]); err != nil {
			return 0, fmt.Errorf("node %d: %w", i, err)
		}
		total += d.Cost
		copy(xs[i+1], d.Xnext)
	}
	if err := p.Terminal.Calc(p.terminalData, xs[len(xs)-1], p.terminalU); err != nil {
		return 0, fmt.Errorf("terminal: %w", err)
	}
	return total + p.terminalData.Cost, nil
}
