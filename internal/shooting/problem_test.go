package shooting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/models"
)

func unicycleProblem(t *testing.T, n int) *Problem {
	t.Helper()
	m := models.NewUnicycle()
	p, err := Repeat(dynamo.State{1, 0, 0}, m, m, n)
	require.NoError(t, err)
	return p
}

func TestNewTrajectory(t *testing.T) {
	p := unicycleProblem(t, 5)
	traj := p.NewTrajectory()

	require.Len(t, traj.Xs, 6)
	require.Len(t, traj.Us, 5)
	for _, x := range traj.Xs {
		assert.Equal(t, 1.0, x[0], "states start at x0")
	}
	traj.Xs[0][0] = 5
	assert.Equal(t, 1.0, p.X0[0], "trajectory must not alias x0")
}

func TestCalcWithZeroControls(t *testing.T) {
	p := unicycleProblem(t, 10)
	traj := p.NewTrajectory()

	cost, err := p.Calc(traj.Xs, traj.Us)
	require.NoError(t, err)
	// Each of the 11 nodes pays 0.5 * 10^2 * |x0|^2.
	assert.InDelta(t, 11*0.5*100, cost, 1e-9)

	diffCost, err := p.CalcDiff(traj.Xs, traj.Us)
	require.NoError(t, err)
	assert.Equal(t, cost, diffCost, "CalcDiff cost differs from Calc")
	assert.Equal(t, 100.0, p.TerminalData().Lx[0])
}

func TestRolloutFollowsDynamics(t *testing.T) {
	p := unicycleProblem(t, 3)
	traj := p.NewTrajectory()
	for _, u := range traj.Us {
		u[0] = 1
	}

	_, err := p.Rollout(traj.Us, traj.Xs)
	require.NoError(t, err)
	assert.InDelta(t, 1.3, traj.Xs[3][0], 1e-12)
}

func TestDimensionMismatch(t *testing.T) {
	p := unicycleProblem(t, 4)
	traj := p.NewTrajectory()

	_, err := p.Calc(traj.Xs[:4], traj.Us)
	var dimErr *dynamo.DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "states", dimErr.What)
	assert.Equal(t, 5, dimErr.Want)

	_, err = p.Rollout(traj.Us[:3], traj.Xs)
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, "controls", dimErr.What)

	_, err = New(dynamo.State{0, 0}, nil, models.NewUnicycle())
	assert.ErrorIs(t, err, dynamo.ErrInvalidDimension, "short x0")

	_, err = New(dynamo.State{0, 0, 0}, nil, nil)
	assert.Error(t, err, "missing terminal model")
}

func TestTrajectoryCopy(t *testing.T) {
	p := unicycleProblem(t, 2)
	a := p.NewTrajectory()
	a.Us[1][1] = 3

	b := a.Clone()
	a.Us[1][1] = 4
	assert.Equal(t, 3.0, b.Us[1][1], "clone shares storage")

	b.CopyFrom(a)
	assert.Equal(t, 4.0, b.Us[1][1], "copy did not overwrite")
}
