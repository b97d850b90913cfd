package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/models"
	"github.com/san-kum/shootbench/internal/shooting"
)

func unicycleProblem(t *testing.T, n int) *shooting.Problem {
	t.Helper()
	m := models.NewUnicycle()
	p, err := shooting.Repeat(dynamo.State{1, 0, 0}, m, m, n)
	require.NoError(t, err)
	return p
}

func TestGradientDecreasesCost(t *testing.T) {
	p := unicycleProblem(t, 20)
	traj := p.NewTrajectory()
	initial, err := p.Calc(traj.Xs, traj.Us)
	require.NoError(t, err)

	s := NewGradient(p)
	_, err = s.Solve(traj.Xs, traj.Us, 10)
	require.NoError(t, err)
	require.NotZero(t, s.Iterations, "expected at least one accepted step")
	assert.Less(t, s.Cost, initial)

	// The trajectory is left consistent with the controls.
	rolled := traj.Clone()
	cost, err := p.Rollout(rolled.Us, rolled.Xs)
	require.NoError(t, err)
	assert.InDelta(t, s.Cost, cost, 1e-9)
}

func TestGradientMatchesFiniteDifferences(t *testing.T) {
	p := unicycleProblem(t, 5)
	traj := p.NewTrajectory()
	for k, u := range traj.Us {
		u[0], u[1] = 0.1*float64(k), -0.2
	}

	s := NewGradient(p)
	_, err := p.Rollout(traj.Us, traj.Xs)
	require.NoError(t, err)
	_, err = p.CalcDiff(traj.Xs, traj.Us)
	require.NoError(t, err)
	s.backward()

	const eps = 1e-6
	for k := range traj.Us {
		for j := range traj.Us[k] {
			plus, minus := traj.Clone(), traj.Clone()
			plus.Us[k][j] += eps
			minus.Us[k][j] -= eps
			cp, err := p.Rollout(plus.Us, plus.Xs)
			require.NoError(t, err)
			cm, err := p.Rollout(minus.Us, minus.Xs)
			require.NoError(t, err)
			num := (cp - cm) / (2 * eps)
			assert.InDelta(t, num, s.grad[k][j], 1e-4*math.Max(1, math.Abs(num)), "grad[%d][%d]", k, j)
		}
	}
}

func TestGradientConvergesOnLQR(t *testing.T) {
	m := models.NewLQR(2, 2, true)
	m.Qv[0], m.Qv[1] = 0, 0
	m.Rv[0], m.Rv[1] = 0, 0
	m.N.Zero()
	p, err := shooting.Repeat(dynamo.State{0, 0}, m, m, 3)
	require.NoError(t, err)
	traj := p.NewTrajectory()

	// Zero state, zero controls is already optimal.
	converged, err := NewGradient(p).Solve(traj.Xs, traj.Us, 1)
	require.NoError(t, err)
	assert.True(t, converged, "expected immediate convergence at the optimum")
}

func TestZeroIterationsOnlyRollsOut(t *testing.T) {
	p := unicycleProblem(t, 4)
	traj := p.NewTrajectory()
	traj.Xs[2][0] = 42

	converged, err := NewGradient(p).Solve(traj.Xs, traj.Us, 0)
	require.NoError(t, err)
	assert.False(t, converged, "zero iterations cannot converge")
	assert.Equal(t, 1.0, traj.Xs[2][0], "rollout should reset the states")
}
