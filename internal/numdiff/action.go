package numdiff

import (
	"github.com/san-kum/shootbench/internal/dynamo"
)

// ActionModel wraps a dynamo.ActionModel and estimates its derivatives.
type ActionModel struct {
	model dynamo.ActionModel
	cfg   Config
}

type actionScratch struct {
	inner *dynamo.ActionData
	ws    *workspace
}

var _ dynamo.ActionModel = (*ActionModel)(nil)

// NewAction returns the finite-difference counterpart of model.
func NewAction(model dynamo.ActionModel, cfg Config) (*ActionModel, error) {
	if err := checkModel(model.State(), cfg); err != nil {
		return nil, err
	}
	return &ActionModel{model: model, cfg: cfg}, nil
}

func (m *ActionModel) Model() dynamo.ActionModel { return m.model }
func (m *ActionModel) Config() Config            { return m.cfg }
func (m *ActionModel) Disturbance() float64      { return m.cfg.Disturbance }

func (m *ActionModel) State() dynamo.Manifold { return m.model.State() }
func (m *ActionModel) ControlDim() int        { return m.model.ControlDim() }

func (m *ActionModel) CreateData() *dynamo.ActionData {
	state := m.model.State()
	d := dynamo.NewActionData(state, m.model.ControlDim())
	d.Scratch = &actionScratch{
		inner: m.model.CreateData(),
		ws:    newWorkspace(state, state.Nx(), state.Ndx(), m.model.ControlDim()),
	}
	return d
}

// Calc forwards to the wrapped model and copies its output unchanged.
func (m *ActionModel) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	s := d.Scratch.(*actionScratch)
	if err := m.model.Calc(s.inner, x, u); err != nil {
		return err
	}
	copy(d.Xnext, s.inner.Xnext)
	d.Cost = s.inner.Cost
	return nil
}

func (m *ActionModel) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.model.State(), m.model.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*actionScratch)
	state := m.model.State()

	eval := func(x dynamo.State, u dynamo.Control, out []float64) (float64, error) {
		if err := m.model.Calc(s.inner, x, u); err != nil {
			return 0, err
		}
		copy(out, s.inner.Xnext)
		return s.inner.Cost, nil
	}
	// Next states are compared on the manifold, so the columns of Fx and Fu
	// live in the tangent space of x'.
	diffOut := func(a, b []float64, out []float64) {
		state.Diff(a, b, out)
	}
	return estimate(m.cfg, state, eval, diffOut, s.ws, &d.Derivatives, x, u)
}
