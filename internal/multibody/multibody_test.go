package multibody

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/costs"
	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/numdiff"
	"github.com/san-kum/shootbench/internal/verify"
)

func copSum(t *testing.T, ndx, nu int, names ...string) *costs.Sum {
	t.Helper()
	inf := math.Inf(1)
	barrier, err := costs.NewQuadraticBarrier(make([]float64, 4), []float64{inf, inf, inf, inf})
	require.NoError(t, err)
	sum := costs.NewSum(ndx, nu)
	for _, name := range names {
		require.NoError(t, sum.Add(name+"_cop", costs.NewCoP(name, 0.01, 0.01), barrier, 1))
	}
	return sum
}

func randomControl(rng *rand.Rand, nu int) dynamo.Control {
	u := make(dynamo.Control, nu)
	for i := range u {
		u[i] = rng.Float64()
	}
	return u
}

func TestFloatingBaseActuation(t *testing.T) {
	act, err := NewFloatingBase(8)
	require.NoError(t, err)
	require.Equal(t, 2, act.NU())

	tau := make([]float64, 8)
	act.Apply([]float64{3, 4}, tau)
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0, 3, 4}, tau, "base coordinates should be unactuated")

	_, err = NewFloatingBase(5)
	assert.ErrorIs(t, err, dynamo.ErrInvalidDimension)
}

func TestContactSetRejectsDuplicates(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	set := NewContactSet(12)
	jac := FootJacobian(12, [6]int{6, 7, 8, 9, 10, 11}, rng)

	c, err := NewContact6D("foot", jac, make([]float64, 12), [2]float64{1, 1})
	require.NoError(t, err)
	require.NoError(t, set.Add(c))
	assert.Error(t, set.Add(c), "duplicate contact")
	assert.Equal(t, 6, set.Dim())
	assert.Equal(t, 6, set.Jacobian().Rows)

	_, err = NewContact6D("bad", jac, make([]float64, 3), [2]float64{})
	assert.ErrorIs(t, err, dynamo.ErrInvalidDimension)
}

func TestContactDynamicsSatisfiesConstraint(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	b, err := NewBiped(rng)
	require.NoError(t, err)
	model, err := NewContactFwdDynamics(b.Body, b.Actuation, b.Contacts, costs.NewSum(2*BipedDofs, b.Actuation.NU()), 0)
	require.NoError(t, err)

	d := model.CreateData()
	x := model.State().Rand(rng)
	u := randomControl(rng, model.ControlDim())
	require.NoError(t, model.Calc(d, x, u))

	// Without damping the solution satisfies J a + gamma = 0.
	q, v := b.Body.Split(x)
	gamma := make([]float64, b.Contacts.Dim())
	b.Contacts.Drift(q, v, gamma)
	ja := make([]float64, b.Contacts.Dim())
	b.Contacts.Jacobian().MulVec(d.Xout, ja)
	for i := range ja {
		assert.InDelta(t, 0, ja[i]+gamma[i], 1e-9, "constraint row %d", i)
	}
}

func TestDampedContactForces(t *testing.T) {
	rng := rand.New(rand.NewSource(6))
	b, err := NewBiped(rng)
	require.NoError(t, err)
	const damping = 1e-2
	model, err := NewContactFwdDynamics(b.Body, b.Actuation, b.Contacts, costs.NewSum(2*BipedDofs, b.Actuation.NU()), damping)
	require.NoError(t, err)

	d := model.CreateData()
	x := model.State().Rand(rng)
	require.NoError(t, model.Calc(d, x, randomControl(rng, model.ControlDim())))

	// With damping the forces satisfy J a + gamma = -damping * lambda.
	s := d.Scratch.(*contactData)
	q, v := b.Body.Split(x)
	gamma := make([]float64, b.Contacts.Dim())
	b.Contacts.Drift(q, v, gamma)
	ja := make([]float64, b.Contacts.Dim())
	b.Contacts.Jacobian().MulVec(d.Xout, ja)
	for i := range ja {
		assert.InDelta(t, -damping*s.lambda[i], ja[i]+gamma[i], 1e-8, "row %d", i)
	}

	report, err := verify.New(numdiff.DefaultConfig().Scaled(10), verify.DefaultTolerance(), nil).
		Differential(model, x, randomControl(rng, model.ControlDim()))
	require.NoError(t, err)
	assert.NoError(t, report.Err())
}

func TestContactCoPDerivatives(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	b, err := NewBiped(rng)
	require.NoError(t, err)
	sum := copSum(t, 2*BipedDofs, b.Actuation.NU(), RightSole, LeftSole)
	require.NoError(t, sum.Add("gravity", costs.NewControlGravity(b.Actuation.NU()), nil, 1e-2))
	model, err := NewContactFwdDynamics(b.Body, b.Actuation, b.Contacts, sum, 0)
	require.NoError(t, err)

	v := verify.New(numdiff.DefaultConfig().Scaled(10), verify.DefaultTolerance(), nil)
	for trial := 0; trial < 3; trial++ {
		report, err := v.Differential(model, model.State().Rand(rng), randomControl(rng, model.ControlDim()))
		require.NoError(t, err)
		assert.NoError(t, report.Err(), "trial %d", trial)
	}
}

func TestImpulseDerivatives(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	b, err := NewBiped(rng)
	require.NoError(t, err)
	model, err := NewImpulseFwdDynamics(b.Body, b.Contacts, copSum(t, 2*BipedDofs, 0, RightSole, LeftSole), 0, 0)
	require.NoError(t, err)
	require.Zero(t, model.ControlDim(), "impulse model should have no controls")

	v := verify.New(numdiff.DefaultConfig().Scaled(10), verify.DefaultTolerance(), nil)
	report, err := v.Action(model, model.State().Rand(rng), dynamo.Control{})
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.Zero(t, report.Matrices[1].Cols, "expected an empty Fu")
}

func TestImpulseStopsContactVelocity(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	b, err := NewBiped(rng)
	require.NoError(t, err)
	model, err := NewImpulseFwdDynamics(b.Body, b.Contacts, costs.NewSum(2*BipedDofs, 0), 0, 0)
	require.NoError(t, err)

	d := model.CreateData()
	x := model.State().Rand(rng)
	require.NoError(t, model.Calc(d, x, dynamo.Control{}))

	_, vPlus := b.Body.Split(d.Xnext)
	jv := make([]float64, b.Contacts.Dim())
	b.Contacts.Jacobian().MulVec(vPlus, jv)
	for i, val := range jv {
		assert.InDelta(t, 0, val, 1e-9, "contact velocity %d after a plastic impulse", i)
	}
	assert.Equal(t, []float64(x[:BipedDofs]), []float64(d.Xnext[:BipedDofs]), "impulse changed the configuration")
}
