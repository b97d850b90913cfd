package models

import (
	"math/rand"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// LQR is a linear-quadratic action model:
//
//	x' = A x + B u + f
//	l  = 0.5 x'Qx + 0.5 u'Ru + x'Nu + q'x + r'u
type LQR struct {
	A, B, Q, R, N *dynamo.Matrix
	F, Qv, Rv     []float64
	DriftFree     bool
	state         dynamo.Euclidean
}

type lqrScratch struct {
	tx, tu []float64
}

// NewLQR builds the identity-based LQR with unit drift and unit linear
// cost terms. A drift-free model has f = 0.
func NewLQR(nx, nu int, driftFree bool) *LQR {
	m := &LQR{
		A:         dynamo.Identity(nx),
		B:         dynamo.NewMatrix(nx, nu),
		Q:         dynamo.Identity(nx),
		R:         dynamo.Identity(nu),
		N:         dynamo.NewMatrix(nx, nu),
		F:         make([]float64, nx),
		Qv:        make([]float64, nx),
		Rv:        make([]float64, nu),
		DriftFree: driftFree,
		state:     dynamo.NewEuclidean(nx),
	}
	for i := 0; i < nx && i < nu; i++ {
		m.B.Set(i, i, 1)
		m.N.Set(i, i, 1)
	}
	for i := range m.Qv {
		m.Qv[i] = 1
		if !driftFree {
			m.F[i] = 1
		}
	}
	for i := range m.Rv {
		m.Rv[i] = 1
	}
	return m
}

// NewRandomLQR perturbs every block of NewLQR with seeded noise. The
// quadratic blocks stay symmetric.
func NewRandomLQR(nx, nu int, driftFree bool, seed int64) *LQR {
	m := NewLQR(nx, nu, driftFree)
	rng := rand.New(rand.NewSource(seed))
	noise := func(mat *dynamo.Matrix, scale float64) {
		for i := range mat.Data {
			mat.Data[i] += scale * (2*rng.Float64() - 1)
		}
	}
	symmetric := func(mat *dynamo.Matrix, scale float64) {
		for i := 0; i < mat.Rows; i++ {
			for j := i + 1; j < mat.Cols; j++ {
				v := scale * (2*rng.Float64() - 1)
				mat.AddAt(i, j, v)
				mat.AddAt(j, i, v)
			}
		}
	}
	noise(m.A, 0.1)
	noise(m.B, 0.1)
	noise(m.N, 0.1)
	symmetric(m.Q, 0.05)
	symmetric(m.R, 0.05)
	if !driftFree {
		for i := range m.F {
			m.F[i] += 2*rng.Float64() - 1
		}
	}
	return m
}

func (m *LQR) State() dynamo.Manifold { return m.state }
func (m *LQR) ControlDim() int        { return m.R.Rows }

func (m *LQR) CreateData() *dynamo.ActionData {
	d := dynamo.NewActionData(m.state, m.ControlDim())
	d.Scratch = &lqrScratch{
		tx: make([]float64, m.state.N),
		tu: make([]float64, m.ControlDim()),
	}
	return d
}

func (m *LQR) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, m.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*lqrScratch)

	m.A.MulVec(x, d.Xnext)
	m.B.MulVec(u, s.tx)
	for i := range d.Xnext {
		d.Xnext[i] += s.tx[i]
		if !m.DriftFree {
			d.Xnext[i] += m.F[i]
		}
	}

	cost := 0.0
	m.Q.MulVec(x, s.tx)
	cost += 0.5 * dot(x, s.tx)
	m.R.MulVec(u, s.tu)
	cost += 0.5 * dot(u, s.tu)
	m.N.MulVec(u, s.tx)
	cost += dot(x, s.tx)
	cost += dot(m.Qv, x) + dot(m.Rv, u)
	d.Cost = cost
	return nil
}

func (m *LQR) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	if err := dynamo.CheckDims(m.state, m.ControlDim(), x, u); err != nil {
		return err
	}
	s := d.Scratch.(*lqrScratch)

	d.Fx.CopyFrom(m.A)
	d.Fu.CopyFrom(m.B)

	m.Q.MulVec(x, d.Lx)
	m.N.MulVec(u, s.tx)
	for i := range d.Lx {
		d.Lx[i] += s.tx[i] + m.Qv[i]
	}

	m.R.MulVec(u, d.Lu)
	m.N.MulTVec(x, s.tu)
	for j := range d.Lu {
		d.Lu[j] += s.tu[j] + m.Rv[j]
	}
	return nil
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
