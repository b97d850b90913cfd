package multibody

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/costs"
	"github.com/san-kum/shootbench/internal/dynamo"
)

// ImpulseFwdDynamics resolves an instantaneous contact impulse:
//
//	Lambda = -(1 + e) K^-1 J v
//	v+     = v + M^-1 J^T Lambda
//	q+     = q
//
// It is an action model with no controls.
type ImpulseFwdDynamics struct {
	Body        *Body
	Impulses    *ContactSet
	Costs       *costs.Sum
	Restitution float64
	Damping     float64
	kkt         *schur
	// dLambda/dv is constant.
	dldv *dynamo.Matrix
	// M^-1 J^T dLambda/dv
	dvdv *dynamo.Matrix
}

var _ dynamo.ActionModel = (*ImpulseFwdDynamics)(nil)

func NewImpulseFwdDynamics(body *Body, impulses *ContactSet, sum *costs.Sum, restitution, damping float64) (*ImpulseFwdDynamics, error) {
	nv := body.NV()
	if impulses.NV() != nv {
		return nil, &dynamo.DimensionError{What: "impulse columns", Got: impulses.NV(), Want: nv}
	}
	if sum.Ndx != 2*nv || sum.Nu != 0 {
		return nil, fmt.Errorf("%w: cost sum is over (%d, %d), model is (%d, 0)",
			dynamo.ErrInvalidDimension, sum.Ndx, sum.Nu, 2*nv)
	}
	kkt, err := newSchur(body, impulses.Jacobian(), damping)
	if err != nil {
		return nil, fmt.Errorf("impulse dynamics: %w", err)
	}

	nc := impulses.Dim()
	dldv := dynamo.NewMatrix(nc, nv)
	if err := kkt.chol.SolveMatrix(kkt.j, dldv); err != nil {
		return nil, fmt.Errorf("impulse dynamics: %w", err)
	}
	dldv.Scale(-(1 + restitution))

	dvdv := dynamo.NewMatrix(nv, nv)
	dynamo.Mul(kkt.jt, dldv, dvdv)
	for i := 0; i < nv; i++ {
		row := dvdv.Row(i)
		for c := range row {
			row[c] /= body.Mass[i]
		}
	}

	return &ImpulseFwdDynamics{
		Body:        body,
		Impulses:    impulses,
		Costs:       sum,
		Restitution: restitution,
		Damping:     damping,
		kkt:         kkt,
		dldv:        dldv,
		dvdv:        dvdv,
	}, nil
}

func (m *ImpulseFwdDynamics) State() dynamo.Manifold { return m.Body.State() }
func (m *ImpulseFwdDynamics) ControlDim() int        { return 0 }

type impulseData struct {
	jv, lambda []float64
	dv         []float64
	dldx, dldu *dynamo.Matrix
	ctx        *costs.Context
	sums       *costs.SumData
}

func (m *ImpulseFwdDynamics) CreateData() *dynamo.ActionData {
	nv, nc := m.Body.NV(), m.Impulses.Dim()
	d := dynamo.NewActionData(m.State(), 0)
	s := &impulseData{
		jv:     make([]float64, nc),
		lambda: make([]float64, nc),
		dv:     make([]float64, nv),
		dldx:   dynamo.NewMatrix(nc, 2*nv),
		dldu:   dynamo.NewMatrix(nc, 0),
		ctx:    costs.NewContext(),
		sums:   m.Costs.CreateData(),
	}
	// The impulse only depends on v.
	for r := 0; r < nc; r++ {
		copy(s.dldx.Row(r)[nv:], m.dldv.Row(r))
	}
	bindForces(s.ctx, m.Impulses, s.lambda, s.dldx, s.dldu)
	d.Scratch = s
	return d
}

func (m *ImpulseFwdDynamics) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.State(), 0, x, u); err != nil {
		return err
	}
	s := d.Scratch.(*impulseData)
	q, v := m.Body.Split(x)
	nv := m.Body.NV()

	m.kkt.j.MulVec(v, s.jv)
	if err := m.kkt.chol.Solve(s.jv, s.lambda); err != nil {
		return fmt.Errorf("impulse: %w", err)
	}
	scale := -(1 + m.Restitution)
	for i := range s.lambda {
		s.lambda[i] *= scale
	}
	m.kkt.jt.MulVec(s.lambda, s.dv)

	copy(d.Xnext[:nv], q)
	for i := 0; i < nv; i++ {
		d.Xnext[nv+i] = v[i] + s.dv[i]/m.Body.Mass[i]
	}

	s.ctx.X, s.ctx.U = x, u
	cost, err := m.Costs.Calc(s.sums, s.ctx)
	if err != nil {
		return err
	}
	d.Cost = cost
	return nil
}

func (m *ImpulseFwdDynamics) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := m.Calc(d, x, u); err != nil {
		return err
	}
	s := d.Scratch.(*impulseData)
	nv := m.Body.NV()

	d.Fx.Zero()
	for i := 0; i < 2*nv; i++ {
		d.Fx.Set(i, i, 1)
	}
	for i := 0; i < nv; i++ {
		row := d.Fx.Row(nv + i)[nv:]
		for c, w := range m.dvdv.Row(i) {
			row[c] += w
		}
	}
	return m.Costs.CalcDiff(s.sums, s.ctx, d.Lx, d.Lu)
}
