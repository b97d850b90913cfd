package integrators

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// StateLPF augments a base state x with the filtered joint torques tau.
// The tangent space is the base tangent space followed by nu flat
// coordinates.
type StateLPF struct {
	Base dynamo.Manifold
	NU   int
}

var _ dynamo.Manifold = StateLPF{}

func (s StateLPF) Nx() int  { return s.Base.Nx() + s.NU }
func (s StateLPF) Ndx() int { return s.Base.Ndx() + s.NU }

func (s StateLPF) Zero() dynamo.State {
	y := make(dynamo.State, s.Nx())
	copy(y, s.Base.Zero())
	return y
}

func (s StateLPF) Rand(rng *rand.Rand) dynamo.State {
	y := make(dynamo.State, s.Nx())
	copy(y, s.Base.Rand(rng))
	for i := s.Base.Nx(); i < len(y); i++ {
		y[i] = 2*rng.Float64() - 1
	}
	return y
}

func (s StateLPF) Integrate(y dynamo.State, dy []float64, out dynamo.State) {
	nx, ndx := s.Base.Nx(), s.Base.Ndx()
	s.Base.Integrate(y[:nx], dy[:ndx], out[:nx])
	for i := 0; i < s.NU; i++ {
		out[nx+i] = y[nx+i] + dy[ndx+i]
	}
}

func (s StateLPF) Diff(y0, y1 dynamo.State, out []float64) {
	nx, ndx := s.Base.Nx(), s.Base.Ndx()
	s.Base.Diff(y0[:nx], y1[:nx], out[:ndx])
	for i := 0; i < s.NU; i++ {
		out[ndx+i] = y1[nx+i] - y0[nx+i]
	}
}

// LPF integrates a differential model whose torques pass through a
// first-order low-pass filter. The state is y = (q, v, tau) and the control
// is the unfiltered torque w:
//
//	tau+ = alpha tau + (1 - alpha) w
//	(q+, v+) = euler(q, v, a(q, v, tau+))
//
// The running cost is dt * l(q, v, tau+). As with [Euler], a zero step
// disables integration: y is carried over and the cost is undiscounted.
type LPF struct {
	Model dynamo.DifferentialModel
	Dt    float64
	// Alpha is the filter memory in [0, 1]; zero passes w straight through.
	Alpha float64
	state StateLPF
}

var _ dynamo.ActionModel = (*LPF)(nil)

func NewLPF(model dynamo.DifferentialModel, dt, alpha float64) (*LPF, error) {
	if err := checkStep(model, dt); err != nil {
		return nil, err
	}
	l := &LPF{
		Model: model,
		Dt:    dt,
		state: StateLPF{Base: model.State(), NU: model.ControlDim()},
	}
	if err := l.SetAlpha(alpha); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *LPF) SetAlpha(alpha float64) error {
	if !(alpha >= 0 && alpha <= 1) {
		return fmt.Errorf("integrators: filter alpha must be in [0, 1], got %g", alpha)
	}
	l.Alpha = alpha
	return nil
}

// SetCutoff derives alpha from a cut-off frequency in Hz. A non-positive
// frequency or a disabled step turns the filter off.
func (l *LPF) SetCutoff(hz float64) {
	if hz <= 0 || l.Dt == 0 {
		l.Alpha = 0
		return
	}
	omega := 1 / (2 * math.Pi * l.Dt * hz)
	l.Alpha = omega / (omega + 1)
}

func (l *LPF) State() dynamo.Manifold { return l.state }
func (l *LPF) ControlDim() int        { return l.state.NU }

type lpfData struct {
	diff *dynamo.DifferentialData
	u    dynamo.Control
}

func (l *LPF) CreateData() *dynamo.ActionData {
	d := dynamo.NewActionData(l.state, l.state.NU)
	d.Scratch = &lpfData{
		diff: l.Model.CreateData(),
		u:    make(dynamo.Control, l.state.NU),
	}
	return d
}

// filter splits y and writes tau+ into s.u.
func (l *LPF) filter(s *lpfData, y dynamo.State, w dynamo.Control) (dynamo.State, []float64) {
	nx := l.state.Base.Nx()
	x, tau := y[:nx], y[nx:]
	for i := range s.u {
		s.u[i] = l.Alpha*tau[i] + (1-l.Alpha)*w[i]
	}
	return x, tau
}

func (l *LPF) Calc(d *dynamo.ActionData, y dynamo.State, w dynamo.Control) error {
	if err := dynamo.CheckDims(l.state, l.state.NU, y, w); err != nil {
		return err
	}
	s := d.Scratch.(*lpfData)
	x, tau := l.filter(s, y, w)
	if err := l.Model.Calc(s.diff, x, s.u); err != nil {
		return err
	}

	nx := len(x)
	step(l.Model.OutputDim(), l.Dt, x, s.diff.Xout, d.Xnext)
	if l.Dt == 0 {
		copy(d.Xnext[nx:], tau)
	} else {
		copy(d.Xnext[nx:], s.u)
	}
	d.Cost = discount(l.Dt, s.diff.Cost)
	return nil
}

func (l *LPF) CalcDiff(d *dynamo.ActionData, y dynamo.State, w dynamo.Control) error {
	if err := dynamo.CheckDims(l.state, l.state.NU, y, w); err != nil {
		return err
	}
	s := d.Scratch.(*lpfData)
	x, _ := l.filter(s, y, w)
	dd := s.diff
	if err := l.Model.CalcDiff(dd, x, s.u); err != nil {
		return err
	}

	nv, nx, nu := l.Model.OutputDim(), len(x), l.state.NU
	alpha, beta := l.Alpha, 1-l.Alpha
	d.Fx.Zero()
	d.Fu.Zero()

	// (q+, v+) rows: tau+ enters the dynamics as alpha tau + beta w.
	stepRows(nv, l.Dt, 1, dd.Fx, d.Fx, 0)
	addStepIdentity(nv, l.Dt, d.Fx)
	stepRows(nv, l.Dt, alpha, dd.Fu, d.Fx, nx)
	stepRows(nv, l.Dt, beta, dd.Fu, d.Fu, 0)

	// tau+ rows.
	for i := 0; i < nu; i++ {
		if l.Dt == 0 {
			d.Fx.Set(nx+i, nx+i, 1)
			continue
		}
		d.Fx.Set(nx+i, nx+i, alpha)
		d.Fu.Set(nx+i, i, beta)
	}

	c := discount(l.Dt, 1)
	for k, v := range dd.Lx {
		d.Lx[k] = c * v
	}
	for i, v := range dd.Lu {
		d.Lx[nx+i] = c * alpha * v
		d.Lu[i] = c * beta * v
	}
	return nil
}
