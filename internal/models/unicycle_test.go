package models

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
)

func TestUnicycleDimensions(t *testing.T) {
	m := NewUnicycle()
	assert.Equal(t, 3, m.State().Nx())
	assert.Equal(t, 2, m.ControlDim())
}

func TestUnicycleStraightLine(t *testing.T) {
	m := NewUnicycle()
	d := m.CreateData()

	require.NoError(t, m.Calc(d, dynamo.State{0, 0, 0}, dynamo.Control{1, 0}))

	assert.InDelta(t, m.Dt, d.Xnext[0], 1e-12)
	assert.InDelta(t, 0, d.Xnext[1], 1e-12, "lateral motion")
	assert.InDelta(t, 0, d.Xnext[2], 1e-12, "heading change")
	assert.InDelta(t, 0.5*m.CostWeights[1]*m.CostWeights[1], d.Cost, 1e-12)
}

func TestUnicycleRejectsBadDimensions(t *testing.T) {
	m := NewUnicycle()
	d := m.CreateData()

	assert.ErrorIs(t, m.Calc(d, dynamo.State{0, 0}, dynamo.Control{0, 0}), dynamo.ErrInvalidDimension)
	assert.ErrorIs(t, m.CalcDiff(d, dynamo.State{0, 0, 0}, dynamo.Control{0}), dynamo.ErrInvalidDimension)
}

func TestUnicycleImplementationsAgree(t *testing.T) {
	impls := map[string]dynamo.ActionModel{
		"derived": NewUnicycleDerived(),
		"boxed":   NewBoxed(NewUnicycle()),
	}
	native := NewUnicycle()
	nd := native.CreateData()
	rng := rand.New(rand.NewSource(7))

	for name, impl := range impls {
		t.Run(name, func(t *testing.T) {
			d := impl.CreateData()
			for trial := 0; trial < 20; trial++ {
				x := native.State().Rand(rng)
				u := dynamo.Control{2*rng.Float64() - 1, 2*rng.Float64() - 1}

				require.NoError(t, native.Calc(nd, x, u))
				require.NoError(t, native.CalcDiff(nd, x, u))
				require.NoError(t, impl.Calc(d, x, u))
				require.NoError(t, impl.CalcDiff(d, x, u))

				assert.InDelta(t, nd.Cost, d.Cost, 1e-12)
				assert.InDeltaSlice(t, []float64(nd.Xnext), []float64(d.Xnext), 1e-12)
				assert.InDeltaSlice(t, nd.Fx.Data, d.Fx.Data, 1e-12)
				assert.InDeltaSlice(t, nd.Fu.Data, d.Fu.Data, 1e-12)
				assert.InDeltaSlice(t, nd.Lx, d.Lx, 1e-12)
				assert.InDeltaSlice(t, nd.Lu, d.Lu, 1e-12)
			}
		})
	}
}

func TestUnicycleHeadingJacobian(t *testing.T) {
	m := NewUnicycle()
	d := m.CreateData()

	require.NoError(t, m.CalcDiff(d, dynamo.State{0, 0, math.Pi / 2}, dynamo.Control{2, 0}))

	// Turning the heading of a unit moving along +y pushes it along -x.
	assert.InDelta(t, -2*m.Dt, d.Fx.At(0, 2), 1e-12)
	assert.InDelta(t, m.Dt, d.Fu.At(1, 0), 1e-12)
}

func BenchmarkUnicycleCalc(b *testing.B) {
	m := NewUnicycle()
	d := m.CreateData()
	x := dynamo.State{1, 0, 0}
	u := dynamo.Control{0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Calc(d, x, u)
	}
}

func BenchmarkUnicycleDerivedCalc(b *testing.B) {
	m := NewUnicycleDerived()
	d := m.CreateData()
	x := dynamo.State{1, 0, 0}
	u := dynamo.Control{0, 0}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Calc(d, x, u)
	}
}
