package costs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
)

func TestQuadActivations(t *testing.T) {
	r := []float64{1, -2, 3}
	grad := make([]float64, 3)

	assert.Equal(t, 7.0, Quad{}.Calc(r))
	Quad{}.CalcDiff(r, grad)
	assert.Equal(t, []float64{1, -2, 3}, grad)

	w := WeightedQuad{Weights: []float64{2, 0, 1}}
	assert.Equal(t, 0.5*(2+9), w.Calc(r))
	w.CalcDiff(r, grad)
	assert.Equal(t, []float64{2, 0, 3}, grad)
}

func TestQuadraticBarrier(t *testing.T) {
	tests := []struct {
		name string
		r    float64
		cost float64
		grad float64
	}{
		{"inside", 0.5, 0, 0},
		{"on bound", 0, 0, 0},
		{"below", -2, 2, -2},
		{"above", 3, 0.5, 1},
	}

	a, err := NewQuadraticBarrier([]float64{0}, []float64{2})
	require.NoError(t, err)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grad := make([]float64, 1)
			assert.Equal(t, tt.cost, a.Calc([]float64{tt.r}))
			a.CalcDiff([]float64{tt.r}, grad)
			assert.Equal(t, tt.grad, grad[0])
		})
	}

	open, err := NewQuadraticBarrier([]float64{0}, []float64{math.Inf(1)})
	require.NoError(t, err)
	assert.Zero(t, open.Calc([]float64{1e9}), "unbounded side should never activate")
}

func TestQuadraticBarrierRejectsBadBounds(t *testing.T) {
	_, err := NewQuadraticBarrier([]float64{0, 0}, []float64{1})
	assert.ErrorIs(t, err, dynamo.ErrInvalidDimension)

	_, err = NewQuadraticBarrier([]float64{1}, []float64{0})
	assert.Error(t, err, "empty interval")
}
