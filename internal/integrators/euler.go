package integrators

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// Euler discretises a differential model with a semi-implicit Euler step:
//
//	v+ = v + a dt
//	q+ = q + v+ dt
//
// The running cost is integrated as dt * l(x, u). A zero step disables
// integration: the state is carried over and the cost is not discounted.
type Euler struct {
	Model dynamo.DifferentialModel
	Dt    float64
}

var _ dynamo.ActionModel = (*Euler)(nil)

func NewEuler(model dynamo.DifferentialModel, dt float64) (*Euler, error) {
	if err := checkStep(model, dt); err != nil {
		return nil, err
	}
	return &Euler{Model: model, Dt: dt}, nil
}

func checkStep(model dynamo.DifferentialModel, dt float64) error {
	if dt < 0 {
		return fmt.Errorf("integrators: time step must not be negative, got %g", dt)
	}
	state, nv := model.State(), model.OutputDim()
	if state.Nx() != 2*nv || state.Ndx() != state.Nx() {
		return fmt.Errorf("%w: integrator needs a flat (q, v) state with %d velocities, got nx=%d ndx=%d",
			dynamo.ErrInvalidDimension, nv, state.Nx(), state.Ndx())
	}
	return nil
}

func (e *Euler) State() dynamo.Manifold { return e.Model.State() }
func (e *Euler) ControlDim() int        { return e.Model.ControlDim() }

func (e *Euler) CreateData() *dynamo.ActionData {
	d := dynamo.NewActionData(e.Model.State(), e.Model.ControlDim())
	d.Scratch = e.Model.CreateData()
	return d
}

func (e *Euler) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	dd := d.Scratch.(*dynamo.DifferentialData)
	if err := e.Model.Calc(dd, x, u); err != nil {
		return err
	}
	step(e.Model.OutputDim(), e.Dt, x, dd.Xout, d.Xnext)
	d.Cost = discount(e.Dt, dd.Cost)
	return nil
}

func (e *Euler) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	dd := d.Scratch.(*dynamo.DifferentialData)
	if err := e.Model.CalcDiff(dd, x, u); err != nil {
		return err
	}
	d.Fx.Zero()
	d.Fu.Zero()
	nv := e.Model.OutputDim()
	stepRows(nv, e.Dt, 1, dd.Fx, d.Fx, 0)
	addStepIdentity(nv, e.Dt, d.Fx)
	stepRows(nv, e.Dt, 1, dd.Fu, d.Fu, 0)

	w := discount(e.Dt, 1)
	for k, v := range dd.Lx {
		d.Lx[k] = w * v
	}
	for k, v := range dd.Lu {
		d.Lu[k] = w * v
	}
	return nil
}

// step writes the semi-implicit Euler update of x = (q, v) under the
// acceleration a into out. With dt == 0 it copies x.
func step(nv int, dt float64, x dynamo.State, a []float64, out []float64) {
	if dt == 0 {
		copy(out[:2*nv], x[:2*nv])
		return
	}
	for i := 0; i < nv; i++ {
		vNext := x[nv+i] + a[i]*dt
		out[nv+i] = vNext
		out[i] = x[i] + vNext*dt
	}
}

// stepRows writes s times the (q+, v+) rows of the step Jacobian with
// respect to one input block, starting at column col of out. da is the
// acceleration Jacobian with respect to that block.
func stepRows(nv int, dt, s float64, da, out *dynamo.Matrix, col int) {
	if dt == 0 {
		return
	}
	dt2 := dt * dt
	for i := 0; i < nv; i++ {
		qrow, vrow := out.Row(i)[col:], out.Row(nv+i)[col:]
		for c, a := range da.Row(i) {
			qrow[c] = s * dt2 * a
			vrow[c] = s * dt * a
		}
	}
}

// addStepIdentity adds the (q, v) -> (q+, v+) pass-through terms.
func addStepIdentity(nv int, dt float64, fx *dynamo.Matrix) {
	for i := 0; i < nv; i++ {
		fx.AddAt(i, i, 1)
		fx.AddAt(i, nv+i, dt)
		fx.AddAt(nv+i, nv+i, 1)
	}
}

func discount(dt, cost float64) float64 {
	if dt == 0 {
		return cost
	}
	return dt * cost
}
