package models

import (
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// UnicycleDerived has the same semantics as Unicycle but is written the
// way a user-level model usually is: it builds a residual vector with
// closures and allocates fresh slices on every call. It is the slow
// baseline of the benchmark.
type UnicycleDerived struct {
	Dt          float64
	CostWeights []float64
	state       dynamo.Euclidean
	dynamics    func(x, u []float64, dt float64) []float64
	residual    func(x, u, w []float64) []float64
}

func NewUnicycleDerived() *UnicycleDerived {
	return &UnicycleDerived{
		Dt:          DefaultUnicycleDt,
		CostWeights: []float64{DefaultStateCost, DefaultInputCost},
		state:       dynamo.NewEuclidean(3),
		dynamics: func(x, u []float64, dt float64) []float64 {
			return []float64{
				x[0] + math.Cos(x[2])*u[0]*dt,
				x[1] + math.Sin(x[2])*u[0]*dt,
				x[2] + u[1]*dt,
			}
		},
		residual: func(x, u, w []float64) []float64 {
			r := make([]float64, 0, len(x)+len(u))
			for _, v := range x {
				r = append(r, w[0]*v)
			}
			for _, v := range u {
				r = append(r, w[1]*v)
			}
			return r
		},
	}
}

func (m *UnicycleDerived) State() dynamo.Manifold { return m.state }
func (m *UnicycleDerived) ControlDim() int        { return 2 }

func (m *UnicycleDerived) CreateData() *dynamo.ActionData {
	return dynamo.NewActionData(m.state, 2)
}

func (m *UnicycleDerived) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, 2, x, u); err != nil {
		return err
	}
	copy(d.Xnext, m.dynamics(x, u, m.Dt))

	r := m.residual(x, u, m.CostWeights)
	cost := 0.0
	for _, v := range r {
		cost += v * v
	}
	d.Cost = 0.5 * cost
	return nil
}

func (m *UnicycleDerived) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, 2, x, u); err != nil {
		return err
	}
	c, s := math.Cos(x[2]), math.Sin(x[2])
	v := u[0]

	fx := [][]float64{
		{1, 0, -s * v * m.Dt},
		{0, 1, c * v * m.Dt},
		{0, 0, 1},
	}
	fu := [][]float64{
		{c * m.Dt, 0},
		{s * m.Dt, 0},
		{0, m.Dt},
	}
	for i := range fx {
		for j := range fx[i] {
			d.Fx.Set(i, j, fx[i][j])
		}
		for j := range fu[i] {
			d.Fu.Set(i, j, fu[i][j])
		}
	}

	// Lx = Rx^T r with Rx = w0 I, and likewise for Lu.
	r := m.residual(x, u, m.CostWeights)
	for i := 0; i < 3; i++ {
		d.Lx[i] = m.CostWeights[0] * r[i]
	}
	for j := 0; j < 2; j++ {
		d.Lu[j] = m.CostWeights[1] * r[3+j]
	}
	return nil
}
