package multibody

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/costs"
	"github.com/san-kum/shootbench/internal/dynamo"
)

// ContactFwdDynamics is a differential model whose output is the
// constrained acceleration of the body.
type ContactFwdDynamics struct {
	Body      *Body
	Actuation Actuation
	Contacts  *ContactSet
	Costs     *costs.Sum
	Damping   float64
	kkt       *schur
}

var _ dynamo.DifferentialModel = (*ContactFwdDynamics)(nil)

func NewContactFwdDynamics(body *Body, act Actuation, contacts *ContactSet, sum *costs.Sum, damping float64) (*ContactFwdDynamics, error) {
	nv := body.NV()
	if act.Matrix().Rows != nv {
		return nil, &dynamo.DimensionError{What: "actuation rows", Got: act.Matrix().Rows, Want: nv}
	}
	if contacts.NV() != nv {
		return nil, &dynamo.DimensionError{What: "contact columns", Got: contacts.NV(), Want: nv}
	}
	if sum.Ndx != 2*nv || sum.Nu != act.NU() {
		return nil, fmt.Errorf("%w: cost sum is over (%d, %d), model is (%d, %d)",
			dynamo.ErrInvalidDimension, sum.Ndx, sum.Nu, 2*nv, act.NU())
	}
	kkt, err := newSchur(body, contacts.Jacobian(), damping)
	if err != nil {
		return nil, fmt.Errorf("contact dynamics: %w", err)
	}
	return &ContactFwdDynamics{
		Body:      body,
		Actuation: act,
		Contacts:  contacts,
		Costs:     sum,
		Damping:   damping,
		kkt:       kkt,
	}, nil
}

func (m *ContactFwdDynamics) State() dynamo.Manifold { return m.Body.State() }
func (m *ContactFwdDynamics) ControlDim() int        { return m.Actuation.NU() }
func (m *ContactFwdDynamics) OutputDim() int         { return m.Body.NV() }

type contactData struct {
	tau, bias, acc []float64
	gamma, rhs     []float64
	lambda         []float64
	dbq, dbv       []float64

	drdx, drdu   *dynamo.Matrix
	dgdx         *dynamo.Matrix
	dldx, dldu   *dynamo.Matrix
	tx, tu       *dynamo.Matrix
	jtdx, jtdu   *dynamo.Matrix
	gravity, gdq []float64

	ctx  *costs.Context
	sums *costs.SumData
}

func (m *ContactFwdDynamics) CreateData() *dynamo.DifferentialData {
	nv, nu, nc := m.Body.NV(), m.ControlDim(), m.Contacts.Dim()
	ndx := 2 * nv
	d := dynamo.NewDifferentialData(m.State(), nv, nu)
	s := &contactData{
		tau:     make([]float64, nv),
		bias:    make([]float64, nv),
		acc:     make([]float64, nv),
		gamma:   make([]float64, nc),
		rhs:     make([]float64, nc),
		lambda:  make([]float64, nc),
		dbq:     make([]float64, nv),
		dbv:     make([]float64, nv),
		drdx:    dynamo.NewMatrix(nv, ndx),
		drdu:    dynamo.NewMatrix(nv, nu),
		dgdx:    dynamo.NewMatrix(nc, ndx),
		dldx:    dynamo.NewMatrix(nc, ndx),
		dldu:    dynamo.NewMatrix(nc, nu),
		tx:      dynamo.NewMatrix(nc, ndx),
		tu:      dynamo.NewMatrix(nc, nu),
		jtdx:    dynamo.NewMatrix(nv, ndx),
		jtdu:    dynamo.NewMatrix(nv, nu),
		gravity: make([]float64, nv),
		gdq:     make([]float64, nv),
		ctx:     costs.NewContext(),
		sums:    m.Costs.CreateData(),
	}
	s.ctx.Gravity = make([]float64, nu)
	s.ctx.GravityDx = dynamo.NewMatrix(nu, ndx)
	bindForces(s.ctx, m.Contacts, s.lambda, s.dldx, s.dldu)
	d.Scratch = s
	return d
}

// forward solves for the contact forces and the constrained acceleration.
func (m *ContactFwdDynamics) forward(s *contactData, q, v []float64, u dynamo.Control) error {
	m.Actuation.Apply(u, s.tau)
	m.Body.Bias(q, v, s.bias)
	for i := range s.tau {
		s.tau[i] -= s.bias[i]
	}

	m.Contacts.Drift(q, v, s.gamma)
	m.kkt.jminv.MulVec(s.tau, s.rhs)
	for i := range s.rhs {
		s.rhs[i] += s.gamma[i]
	}
	if err := m.kkt.chol.Solve(s.rhs, s.lambda); err != nil {
		return fmt.Errorf("contact forces: %w", err)
	}
	for i := range s.lambda {
		s.lambda[i] = -s.lambda[i]
	}

	m.kkt.jt.MulVec(s.lambda, s.acc)
	for i := range s.acc {
		s.acc[i] = (s.tau[i] + s.acc[i]) / m.Body.Mass[i]
	}
	return nil
}

func (m *ContactFwdDynamics) Calc(d *dynamo.DifferentialData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.State(), m.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*contactData)
	q, v := m.Body.Split(x)

	if err := m.forward(s, q, v, u); err != nil {
		return err
	}
	copy(d.Xout, s.acc)

	s.ctx.X, s.ctx.U = x, u
	m.Body.GravityTorque(q, s.gravity)
	m.Actuation.Select(s.gravity, s.ctx.Gravity)
	cost, err := m.Costs.Calc(s.sums, s.ctx)
	if err != nil {
		return err
	}
	d.Cost = cost
	return nil
}

func (m *ContactFwdDynamics) CalcDiff(d *dynamo.DifferentialData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.State(), m.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*contactData)
	q, v := m.Body.Split(x)
	nv := m.Body.NV()
	if err := m.forward(s, q, v, u); err != nil {
		return err
	}

	// r = S u - b(q, v)
	m.Body.BiasDerivatives(q, v, s.dbq, s.dbv)
	s.drdx.Zero()
	for i := 0; i < nv; i++ {
		s.drdx.Set(i, i, -s.dbq[i])
		s.drdx.Set(i, nv+i, -s.dbv[i])
	}
	s.drdu.CopyFrom(m.Actuation.Matrix())

	// lambda = -K^-1 (gamma + J M^-1 r)
	m.Contacts.DriftDerivative(s.dgdx)
	dynamo.Mul(m.kkt.jminv, s.drdx, s.tx)
	for k, g := range s.dgdx.Data {
		s.tx.Data[k] += g
	}
	if err := m.kkt.chol.SolveMatrix(s.tx, s.dldx); err != nil {
		return fmt.Errorf("contact force derivatives: %w", err)
	}
	s.dldx.Scale(-1)
	dynamo.Mul(m.kkt.jminv, s.drdu, s.tu)
	if err := m.kkt.chol.SolveMatrix(s.tu, s.dldu); err != nil {
		return fmt.Errorf("contact force derivatives: %w", err)
	}
	s.dldu.Scale(-1)

	// a = M^-1 (r + J^T lambda)
	dynamo.Mul(m.kkt.jt, s.dldx, s.jtdx)
	dynamo.Mul(m.kkt.jt, s.dldu, s.jtdu)
	for i := 0; i < nv; i++ {
		inv := 1 / m.Body.Mass[i]
		fx, drx, jx := d.Fx.Row(i), s.drdx.Row(i), s.jtdx.Row(i)
		for c := range fx {
			fx[c] = inv * (drx[c] + jx[c])
		}
		fu, dru, ju := d.Fu.Row(i), s.drdu.Row(i), s.jtdu.Row(i)
		for c := range fu {
			fu[c] = inv * (dru[c] + ju[c])
		}
	}

	s.ctx.X, s.ctx.U = x, u
	m.Body.GravityTorque(q, s.gravity)
	m.Actuation.Select(s.gravity, s.ctx.Gravity)
	m.Body.GravityDerivative(q, s.gdq)
	m.actuatedGravityDerivative(s.gdq, s.ctx.GravityDx)
	return m.Costs.CalcDiff(s.sums, s.ctx, d.Lx, d.Lu)
}

// actuatedGravityDerivative writes S^T [diag(gdq) 0] into out.
func (m *ContactFwdDynamics) actuatedGravityDerivative(gdq []float64, out *dynamo.Matrix) {
	out.Zero()
	sel := m.Actuation.Matrix()
	for i := 0; i < sel.Rows; i++ {
		for j := 0; j < sel.Cols; j++ {
			if w := sel.At(i, j); w != 0 {
				out.AddAt(j, i, w*gdq[i])
			}
		}
	}
}

// Forces returns the stacked contact forces from the last evaluation.
func (m *ContactFwdDynamics) Forces(d *dynamo.DifferentialData) []float64 {
	return d.Scratch.(*contactData).lambda
}
