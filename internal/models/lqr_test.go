package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
)

func TestLQRDrift(t *testing.T) {
	tests := []struct {
		name      string
		driftFree bool
		expected  float64
	}{
		{"with drift", false, 1},
		{"drift free", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewLQR(4, 2, tt.driftFree)
			d := m.CreateData()
			require.NoError(t, m.Calc(d, make(dynamo.State, 4), make(dynamo.Control, 2)))
			for i, v := range d.Xnext {
				assert.Equal(t, tt.expected, v, "xnext[%d]", i)
			}
			assert.Zero(t, d.Cost, "cost at the origin")
		})
	}
}

func TestLQRGradientAtPoint(t *testing.T) {
	m := NewLQR(3, 2, false)
	d := m.CreateData()
	x := dynamo.State{1, 2, 3}
	u := dynamo.Control{-1, 0.5}

	require.NoError(t, m.CalcDiff(d, x, u))

	// Q = I, N = [I 0]^T, q = 1: Lx = x + N u + 1.
	assert.InDeltaSlice(t, []float64{1 - 1 + 1, 2 + 0.5 + 1, 3 + 1}, d.Lx, 1e-12)
	assert.InDeltaSlice(t, []float64{-1 + 1 + 1, 0.5 + 2 + 1}, d.Lu, 1e-12)
	assert.Equal(t, 1.0, d.Fx.At(0, 0))
	assert.Equal(t, 1.0, d.Fu.At(1, 1))
}

func TestRandomLQRIsSeeded(t *testing.T) {
	a := NewRandomLQR(5, 3, false, 11)
	b := NewRandomLQR(5, 3, false, 11)
	require.Equal(t, a.A.Data, b.A.Data, "same seed produced different A")
	for i := 0; i < 5; i++ {
		for j := 0; j < 5; j++ {
			assert.Equal(t, a.Q.At(j, i), a.Q.At(i, j), "Q not symmetric at (%d,%d)", i, j)
		}
	}
}
