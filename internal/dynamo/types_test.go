package dynamo

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateClone(t *testing.T) {
	x := State{1, 2, 3}
	c := x.Clone()
	c[0] = 10
	assert.Equal(t, 1.0, x[0], "clone must not share storage")

	u := Control{4}
	cu := u.Clone()
	cu[0] = 0
	assert.Equal(t, 4.0, u[0])
}

func TestEuclidean_IntegrateDiff(t *testing.T) {
	m := NewEuclidean(3)
	rng := rand.New(rand.NewSource(1))
	x := m.Rand(rng)
	dx := []float64{0.1, -0.2, 0.3}

	out := m.Zero()
	m.Integrate(x, dx, out)

	back := make([]float64, 3)
	m.Diff(x, out, back)
	assert.InDeltaSlice(t, dx, back, 1e-12)

	for _, v := range x {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestCheckDims(t *testing.T) {
	m := NewEuclidean(3)

	require.NoError(t, CheckDims(m, 2, State{1, 2, 3}, Control{0, 0}))

	err := CheckDims(m, 2, State{1, 2}, Control{0, 0})
	require.ErrorIs(t, err, ErrInvalidDimension)
	var de *DimensionError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "state", de.What)
	assert.Equal(t, 2, de.Got)
	assert.Equal(t, 3, de.Want)

	assert.NoError(t, CheckDims(m, 0, State{1, 2, 3}, nil), "zero-control model rejected empty control")
}

func TestDerivatives_Matrices(t *testing.T) {
	d := NewDerivatives(3, 3, 0)
	d.Lx[1] = 2

	mats := d.Matrices()
	names := []string{"Fx", "Fu", "Lx", "Lu"}
	require.Len(t, mats, len(names))
	for i, nm := range mats {
		assert.Equal(t, names[i], nm.Name)
	}
	assert.Zero(t, mats[1].Matrix.Cols, "expected an empty Fu block")
	assert.Zero(t, mats[3].Matrix.Rows, "expected an empty Lu block")
	assert.Equal(t, 2.0, mats[2].Matrix.At(1, 0), "Lx column view does not share storage")

	d.Zero()
	assert.Zero(t, d.Lx[1])
}
