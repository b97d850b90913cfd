package numdiff_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/models"
	"github.com/san-kum/shootbench/internal/numdiff"
)

// stateless is an action model with an empty state, used to exercise the
// tangent-dimension check.
type stateless struct{}

func (stateless) State() dynamo.Manifold         { return dynamo.NewEuclidean(0) }
func (stateless) ControlDim() int                { return 1 }
func (stateless) CreateData() *dynamo.ActionData { return dynamo.NewActionData(dynamo.NewEuclidean(0), 1) }
func (stateless) Calc(*dynamo.ActionData, dynamo.State, dynamo.Control) error {
	return nil
}
func (stateless) CalcDiff(*dynamo.ActionData, dynamo.State, dynamo.Control) error {
	return nil
}

// drift is x' = 2x with cost 0.5|x|^2 and no control.
type drift struct{ state dynamo.Euclidean }

func (m drift) State() dynamo.Manifold         { return m.state }
func (m drift) ControlDim() int                { return 0 }
func (m drift) CreateData() *dynamo.ActionData { return dynamo.NewActionData(m.state, 0) }
func (m drift) Calc(d *dynamo.ActionData, x dynamo.State, _ dynamo.Control) error {
	d.Cost = 0
	for i := range x {
		d.Xnext[i] = 2 * x[i]
		d.Cost += 0.5 * x[i] * x[i]
	}
	return nil
}
func (m drift) CalcDiff(*dynamo.ActionData, dynamo.State, dynamo.Control) error { return nil }

func maxDelta(a, b *dynamo.Matrix) float64 {
	worst := 0.0
	for i := range a.Data {
		worst = math.Max(worst, math.Abs(a.Data[i]-b.Data[i]))
	}
	return worst
}

func TestDefaultConfig(t *testing.T) {
	cfg := numdiff.DefaultConfig()
	assert.InDelta(t, 2.1073424255447017e-08, cfg.Disturbance, 1e-20)
	assert.Equal(t, numdiff.Forward, cfg.Scheme)
	assert.NoError(t, cfg.Validate())
}

func TestConfigScaled(t *testing.T) {
	cfg := numdiff.DefaultConfig()
	scaled := cfg.Scaled(10)
	assert.InDelta(t, 10*cfg.Disturbance, scaled.Disturbance, 1e-20)
	assert.Equal(t, numdiff.DefaultDisturbance, cfg.Disturbance, "Scaled must not modify the receiver")
}

func TestConfigRejectsBadDisturbance(t *testing.T) {
	for name, eps := range map[string]float64{
		"zero":     0,
		"negative": -1e-6,
		"NaN":      math.NaN(),
		"infinite": math.Inf(1),
	} {
		t.Run(name, func(t *testing.T) {
			cfg := numdiff.Config{Disturbance: eps}
			assert.ErrorIs(t, cfg.Validate(), dynamo.ErrInvalidDimension)
			_, err := numdiff.NewAction(models.NewUnicycle(), cfg)
			assert.ErrorIs(t, err, dynamo.ErrInvalidDimension)
		})
	}
}

func TestParseScheme(t *testing.T) {
	s, err := numdiff.ParseScheme("central")
	require.NoError(t, err)
	assert.Equal(t, numdiff.Central, s)
	assert.Equal(t, "central", s.String())

	_, err = numdiff.ParseScheme("backward")
	assert.Error(t, err)
}

func TestActionRejectsEmptyTangent(t *testing.T) {
	_, err := numdiff.NewAction(stateless{}, numdiff.DefaultConfig())
	assert.ErrorIs(t, err, dynamo.ErrInvalidDimension)
}

func TestActionCalcMatchesWrappedModel(t *testing.T) {
	model := models.NewUnicycle()
	rng := rand.New(rand.NewSource(1))
	nd, err := numdiff.NewAction(model, numdiff.DefaultConfig())
	require.NoError(t, err)

	d := model.CreateData()
	dn := nd.CreateData()
	for trial := 0; trial < 10; trial++ {
		x := model.State().Rand(rng)
		u := dynamo.Control{rng.Float64(), rng.Float64()}
		require.NoError(t, model.Calc(d, x, u))
		require.NoError(t, nd.Calc(dn, x, u))
		assert.Equal(t, d.Xnext, dn.Xnext)
		assert.Equal(t, d.Cost, dn.Cost)
	}
}

func TestActionApproximatesAnalyticDerivatives(t *testing.T) {
	tests := []struct {
		name   string
		scheme numdiff.Scheme
		eps    float64
		tol    float64
	}{
		{"forward", numdiff.Forward, 1e-6, 1e-3},
		{"central", numdiff.Central, 1e-5, 1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := models.NewUnicycle()
			rng := rand.New(rand.NewSource(1))
			nd, err := numdiff.NewAction(model, numdiff.Config{Disturbance: tt.eps, Scheme: tt.scheme})
			require.NoError(t, err)

			d := model.CreateData()
			dn := nd.CreateData()
			x := model.State().Rand(rng)
			u := dynamo.Control{2*rng.Float64() - 1, 2*rng.Float64() - 1}

			require.NoError(t, model.CalcDiff(d, x, u))
			require.NoError(t, nd.CalcDiff(dn, x, u))

			am, nm := d.Matrices(), dn.Matrices()
			for i := range am {
				assert.Less(t, maxDelta(am[i].Matrix, nm[i].Matrix), tt.tol, am[i].Name)
			}
		})
	}
}

func TestActionWithoutControls(t *testing.T) {
	m := drift{state: dynamo.NewEuclidean(3)}
	nd, err := numdiff.NewAction(m, numdiff.DefaultConfig().Scaled(10))
	require.NoError(t, err)

	dn := nd.CreateData()
	require.NoError(t, nd.CalcDiff(dn, dynamo.State{1, -1, 0.5}, dynamo.Control{}))
	assert.Zero(t, dn.Fu.Cols)
	assert.Empty(t, dn.Lu)
	assert.InDelta(t, 2, dn.Fx.At(1, 1), 1e-5)
	assert.InDelta(t, 1, dn.Lx[0], 1e-5)
}

func TestActionRejectsWrongSize(t *testing.T) {
	nd, err := numdiff.NewAction(models.NewUnicycle(), numdiff.DefaultConfig())
	require.NoError(t, err)
	dn := nd.CreateData()
	assert.ErrorIs(t, nd.CalcDiff(dn, dynamo.State{0, 0}, dynamo.Control{0, 0}), dynamo.ErrInvalidDimension)
}

func TestActionLQRJacobians(t *testing.T) {
	lqr := models.NewRandomLQR(6, 3, false, 3)
	rng := rand.New(rand.NewSource(1))
	nd, err := numdiff.NewAction(lqr, numdiff.Config{Disturbance: 1e-6, Scheme: numdiff.Central})
	require.NoError(t, err)

	d, dn := lqr.CreateData(), nd.CreateData()
	x := lqr.State().Rand(rng)
	u := dynamo.Control{0.1, -0.2, 0.3}
	require.NoError(t, lqr.CalcDiff(d, x, u))
	require.NoError(t, nd.CalcDiff(dn, x, u))
	assert.Less(t, maxDelta(d.Fx, dn.Fx), 1e-8)
	assert.Less(t, maxDelta(d.Fu, dn.Fu), 1e-8)
}
