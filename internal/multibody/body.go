package multibody

import (
	"math"
	"math/rand"

	"github.com/san-kum/shootbench/internal/dynamo"
)

const DefaultGravity = 9.81

// Body is a chain of n independent generalized coordinates coupled only
// through contacts.
type Body struct {
	Mass    []float64
	Damping []float64
	Drag    []float64
	Gravity float64
	state   dynamo.Euclidean
}

// NewBody returns a body with unit masses and no dissipation.
func NewBody(n int) *Body {
	b := &Body{
		Mass:    make([]float64, n),
		Damping: make([]float64, n),
		Drag:    make([]float64, n),
		Gravity: DefaultGravity,
		state:   dynamo.NewEuclidean(2 * n),
	}
	for i := range b.Mass {
		b.Mass[i] = 1
	}
	return b
}

// RandomBody draws masses in [1, 2] and dissipation in [0, 0.5).
func RandomBody(n int, rng *rand.Rand) *Body {
	b := NewBody(n)
	for i := 0; i < n; i++ {
		b.Mass[i] = 1 + rng.Float64()
		b.Damping[i] = 0.5 * rng.Float64()
		b.Drag[i] = 0.5 * rng.Float64()
	}
	return b
}

func (b *Body) NV() int                { return len(b.Mass) }
func (b *Body) State() dynamo.Manifold { return b.state }

// Split returns views of the configuration and velocity parts of x.
func (b *Body) Split(x dynamo.State) (q, v []float64) {
	n := b.NV()
	return x[:n], x[n:]
}

// Bias writes b(q, v) into out.
func (b *Body) Bias(q, v, out []float64) {
	b.GravityTorque(q, out)
	for i := range out {
		out[i] += b.Damping[i]*v[i] + b.Drag[i]*v[i]*v[i]
	}
}

// BiasDerivatives writes the diagonals of db/dq and db/dv.
func (b *Body) BiasDerivatives(q, v, dq, dv []float64) {
	b.GravityDerivative(q, dq)
	for i := range dv {
		dv[i] = b.Damping[i] + 2*b.Drag[i]*v[i]
	}
}

// GravityTorque writes the generalized gravity g sin(q) into out.
func (b *Body) GravityTorque(q, out []float64) {
	for i, qi := range q {
		out[i] = b.Gravity * math.Sin(qi)
	}
}

// GravityDerivative writes the diagonal of d(g sin q)/dq into out.
func (b *Body) GravityDerivative(q, out []float64) {
	for i, qi := range q {
		out[i] = b.Gravity * math.Cos(qi)
	}
}

// MinvMul writes M^-1 v into out.
func (b *Body) MinvMul(v, out []float64) {
	for i := range out {
		out[i] = v[i] / b.Mass[i]
	}
}
