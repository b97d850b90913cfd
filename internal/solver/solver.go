// Package solver contains trajectory optimisation solvers for shooting
// problems.
package solver

import (
	"fmt"
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/shooting"
)

// Solver optimises a trajectory in place and reports convergence.
type Solver interface {
	Solve(xs []dynamo.State, us []dynamo.Control, maxIter int) (bool, error)
}

const (
	DefaultTolerance = 1e-9
	DefaultMinStep   = 1e-8
)

// Gradient is a single-shooting steepest-descent solver. Each iteration
// rolls the controls out, back-propagates the cost gradient through the
// dynamics Jacobians with the adjoint recursion
//
//	lambda_N = Lx_N
//	g_k      = Lu_k + Fu_k^T lambda_k+1
//	lambda_k = Lx_k + Fx_k^T lambda_k+1
//
// and takes an Armijo backtracking step along -g.
type Gradient struct {
	Problem *shooting.Problem
	// Tolerance on the squared gradient norm.
	Tolerance float64
	StepInit  float64
	Shrink    float64
	MinStep   float64
	Armijo    float64

	// Results of the last Solve.
	Cost       float64
	Iterations int
	Step       float64

	lambda [][]float64
	grad   [][]float64
	tmp    []float64
	trial  *shooting.Trajectory
}

var _ Solver = (*Gradient)(nil)

func NewGradient(p *shooting.Problem) *Gradient {
	g := &Gradient{
		Problem:   p,
		Tolerance: DefaultTolerance,
		StepInit:  1,
		Shrink:    0.5,
		MinStep:   DefaultMinStep,
		Armijo:    1e-4,
		lambda:    make([][]float64, p.Horizon()+1),
		grad:      make([][]float64, p.Horizon()),
		trial:     p.NewTrajectory(),
	}
	ndx := p.Terminal.State().Ndx()
	for i := range g.lambda {
		g.lambda[i] = make([]float64, ndx)
	}
	for i, m := range p.Running {
		g.grad[i] = make([]float64, m.ControlDim())
	}
	g.tmp = make([]float64, ndx)
	return g
}

// Solve runs at most maxIter descent iterations. It returns true once the
// gradient norm falls below Tolerance; a line search that cannot make
// progress ends the solve without convergence.
func (g *Gradient) Solve(xs []dynamo.State, us []dynamo.Control, maxIter int) (bool, error) {
	if maxIter < 0 {
		return false, fmt.Errorf("solver: negative iteration limit %d", maxIter)
	}
	p := g.Problem
	cost, err := p.Rollout(us, xs)
	if err != nil {
		return false, err
	}
	g.Cost, g.Iterations, g.Step = cost, 0, 0

	for iter := 0; iter < maxIter; iter++ {
		if _, err := p.CalcDiff(xs, us); err != nil {
			return false, err
		}
		norm2 := g.backward()
		if norm2 <= g.Tolerance {
			return true, nil
		}

		accepted := false
		for step := g.StepInit; step >= g.MinStep; step *= g.Shrink {
			for k, u := range us {
				tu := g.trial.Us[k]
				for j := range u {
					tu[j] = u[j] - step*g.grad[k][j]
				}
			}
			trialCost, err := p.Rollout(g.trial.Us, g.trial.Xs)
			if err != nil {
				return false, err
			}
			if !math.IsNaN(trialCost) && trialCost <= cost-g.Armijo*step*norm2 {
				cost, g.Step, accepted = trialCost, step, true
				break
			}
		}
		if !accepted {
			return false, nil
		}

		for k := range us {
			copy(us[k], g.trial.Us[k])
		}
		for k := range xs {
			copy(xs[k], g.trial.Xs[k])
		}
		g.Cost = cost
		g.Iterations = iter + 1
	}
	return false, nil
}

// backward fills the adjoints and control gradients from the problem data
// and returns the squared gradient norm.
func (g *Gradient) backward() float64 {
	p := g.Problem
	n := p.Horizon()
	copy(g.lambda[n], p.TerminalData().Lx)

	norm2 := 0.0
	for k := n - 1; k >= 0; k-- {
		d := p.RunningData(k)
		next := g.lambda[k+1]

		d.Fu.MulTVec(next, g.grad[k])
		for j := range g.grad[k] {
			g.grad[k][j] += d.Lu[j]
			norm2 += g.grad[k][j] * g.grad[k][j]
		}

		d.Fx.MulTVec(next, g.tmp)
		for i := range g.lambda[k] {
			g.lambda[k][i] = d.Lx[i] + g.tmp[i]
		}
	}
	return norm2
}
