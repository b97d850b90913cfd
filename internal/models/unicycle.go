package models

import (
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
)

const (
	DefaultUnicycleDt = 0.1
	DefaultStateCost  = 10.0
	DefaultInputCost  = 1.0
)

// Unicycle is a kinematic unicycle with state (x, y, theta) and control
// (v, w), driven to the origin by a quadratic state and control cost.
type Unicycle struct {
	Dt          float64
	CostWeights [2]float64
	state       dynamo.Euclidean
}

func NewUnicycle() *Unicycle {
	return &Unicycle{
		Dt:          DefaultUnicycleDt,
		CostWeights: [2]float64{DefaultStateCost, DefaultInputCost},
		state:       dynamo.NewEuclidean(3),
	}
}

func (m *Unicycle) State() dynamo.Manifold { return m.state }
func (m *Unicycle) ControlDim() int        { return 2 }

func (m *Unicycle) CreateData() *dynamo.ActionData {
	return dynamo.NewActionData(m.state, 2)
}

func (m *Unicycle) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, 2, x, u); err != nil {
		return err
	}
	sin, cos := math.Sincos(x[2])
	d.Xnext[0] = x[0] + cos*u[0]*m.Dt
	d.Xnext[1] = x[1] + sin*u[0]*m.Dt
	d.Xnext[2] = x[2] + u[1]*m.Dt

	wx, wu := m.CostWeights[0], m.CostWeights[1]
	sx := x[0]*x[0] + x[1]*x[1] + x[2]*x[2]
	su := u[0]*u[0] + u[1]*u[1]
	d.Cost = 0.5 * (wx*wx*sx + wu*wu*su)
	return nil
}

func (m *Unicycle) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, 2, x, u); err != nil {
		return err
	}
	sin, cos := math.Sincos(x[2])
	wx2 := m.CostWeights[0] * m.CostWeights[0]
	wu2 := m.CostWeights[1] * m.CostWeights[1]

	for i := 0; i < 3; i++ {
		d.Lx[i] = wx2 * x[i]
	}
	d.Lu[0] = wu2 * u[0]
	d.Lu[1] = wu2 * u[1]

	fx := d.Fx
	fx.Zero()
	fx.Set(0, 0, 1)
	fx.Set(1, 1, 1)
	fx.Set(2, 2, 1)
	fx.Set(0, 2, -sin*u[0]*m.Dt)
	fx.Set(1, 2, cos*u[0]*m.Dt)

	fu := d.Fu
	fu.Zero()
	fu.Set(0, 0, cos*m.Dt)
	fu.Set(1, 0, sin*m.Dt)
	fu.Set(2, 1, m.Dt)
	return nil
}
