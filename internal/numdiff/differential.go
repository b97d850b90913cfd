package numdiff

import (
	"github.com/san-kum/shootbench/internal/dynamo"
)

// DifferentialModel wraps a dynamo.DifferentialModel and estimates the
// derivatives of its acceleration output and cost.
type DifferentialModel struct {
	model dynamo.DifferentialModel
	cfg   Config
}

type differentialScratch struct {
	inner *dynamo.DifferentialData
	ws    *workspace
}

var _ dynamo.DifferentialModel = (*DifferentialModel)(nil)

func NewDifferential(model dynamo.DifferentialModel, cfg Config) (*DifferentialModel, error) {
	if err := checkModel(model.State(), cfg); err != nil {
		return nil, err
	}
	return &DifferentialModel{model: model, cfg: cfg}, nil
}

func (m *DifferentialModel) Model() dynamo.DifferentialModel { return m.model }
func (m *DifferentialModel) Config() Config                  { return m.cfg }
func (m *DifferentialModel) Disturbance() float64            { return m.cfg.Disturbance }

func (m *DifferentialModel) State() dynamo.Manifold { return m.model.State() }
func (m *DifferentialModel) ControlDim() int        { return m.model.ControlDim() }
func (m *DifferentialModel) OutputDim() int         { return m.model.OutputDim() }

func (m *DifferentialModel) CreateData() *dynamo.DifferentialData {
	state := m.model.State()
	d := dynamo.NewDifferentialData(state, m.model.OutputDim(), m.model.ControlDim())
	d.Scratch = &differentialScratch{
		inner: m.model.CreateData(),
		ws:    newWorkspace(state, m.model.OutputDim(), m.model.OutputDim(), m.model.ControlDim()),
	}
	return d
}

func (m *DifferentialModel) Calc(d *dynamo.DifferentialData, x dynamo.State, u dynamo.Control) error {
	s := d.Scratch.(*differentialScratch)
	if err := m.model.Calc(s.inner, x, u); err != nil {
		return err
	}
	copy(d.Xout, s.inner.Xout)
	d.Cost = s.inner.Cost
	return nil
}

func (m *DifferentialModel) CalcDiff(d *dynamo.DifferentialData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.model.State(), m.model.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*differentialScratch)

	eval := func(x dynamo.State, u dynamo.Control, out []float64) (float64, error) {
		if err := m.model.Calc(s.inner, x, u); err != nil {
			return 0, err
		}
		copy(out, s.inner.Xout)
		return s.inner.Cost, nil
	}
	return estimate(m.cfg, m.model.State(), eval, vectorDiff, s.ws, &d.Derivatives, x, u)
}
