// Package numdiff estimates model derivatives by finite differences.
//
// The wrappers evaluate the wrapped model exactly as it is for Calc and only
// replace CalcDiff, so they can serve as an oracle for analytic derivatives.
package numdiff

import (
	"fmt"
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
)

type Scheme int

const (
	Forward Scheme = iota
	Central
)

func (s Scheme) String() string {
	switch s {
	case Forward:
		return "forward"
	case Central:
		return "central"
	default:
		return fmt.Sprintf("scheme(%d)", int(s))
	}
}

// ParseScheme maps "forward" and "central" to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "", "forward":
		return Forward, nil
	case "central":
		return Central, nil
	default:
		return Forward, fmt.Errorf("unknown finite-difference scheme: %s", name)
	}
}

// DefaultDisturbance is sqrt(2 * machine epsilon).
var DefaultDisturbance = math.Sqrt(2 * 2.220446049250313e-16)

// Config is an immutable finite-difference setting.
type Config struct {
	Disturbance float64
	Scheme      Scheme
}

func DefaultConfig() Config {
	return Config{Disturbance: DefaultDisturbance, Scheme: Forward}
}

// Scaled returns a copy with the disturbance multiplied by factor.
func (c Config) Scaled(factor float64) Config {
	c.Disturbance *= factor
	return c
}

func (c Config) Validate() error {
	if !(c.Disturbance > 0) || math.IsInf(c.Disturbance, 0) {
		return fmt.Errorf("%w: disturbance must be positive and finite, got %g", dynamo.ErrInvalidDimension, c.Disturbance)
	}
	if c.Scheme != Forward && c.Scheme != Central {
		return fmt.Errorf("unknown finite-difference scheme: %v", c.Scheme)
	}
	return nil
}

// evaluator abstracts the forward evaluation shared by action and
// differential models: it writes the model output and returns the cost.
type evaluator func(x dynamo.State, u dynamo.Control, out []float64) (float64, error)

// workspace holds everything CalcDiff needs so repeated calls do not allocate.
type workspace struct {
	out0, outP, outM []float64
	dx, col          []float64
	xp, xm           dynamo.State
	up, um           dynamo.Control
}

// newWorkspace sizes buffers for outputs of length nout whose differences
// have ncol entries.
func newWorkspace(state dynamo.Manifold, nout, ncol, nu int) *workspace {
	return &workspace{
		out0: make([]float64, nout),
		outP: make([]float64, nout),
		outM: make([]float64, nout),
		dx:   make([]float64, state.Ndx()),
		col:  make([]float64, ncol),
		xp:   state.Zero(),
		xm:   state.Zero(),
		up:   make(dynamo.Control, nu),
		um:   make(dynamo.Control, nu),
	}
}

// estimate fills d with finite-difference derivatives of eval at (x, u).
// diffOut computes b (-) a for two outputs.
func estimate(
	cfg Config,
	state dynamo.Manifold,
	eval evaluator,
	diffOut func(a, b []float64, out []float64),
	ws *workspace,
	d *dynamo.Derivatives,
	x dynamo.State,
	u dynamo.Control,
) error {
	eps := cfg.Disturbance
	c0, err := eval(x, u, ws.out0)
	if err != nil {
		return err
	}

	for i := range ws.dx {
		clear(ws.dx)
		ws.dx[i] = eps
		state.Integrate(x, ws.dx, ws.xp)
		cp, err := eval(ws.xp, u, ws.outP)
		if err != nil {
			return err
		}

		if cfg.Scheme == Central {
			ws.dx[i] = -eps
			state.Integrate(x, ws.dx, ws.xm)
			cm, err := eval(ws.xm, u, ws.outM)
			if err != nil {
				return err
			}
			diffOut(ws.outM, ws.outP, ws.col)
			scaleInto(ws.col, 1/(2*eps))
			d.Lx[i] = (cp - cm) / (2 * eps)
		} else {
			diffOut(ws.out0, ws.outP, ws.col)
			scaleInto(ws.col, 1/eps)
			d.Lx[i] = (cp - c0) / eps
		}
		d.Fx.SetCol(i, ws.col)
	}

	for j := range ws.up {
		copy(ws.up, u)
		ws.up[j] += eps
		cp, err := eval(x, ws.up, ws.outP)
		if err != nil {
			return err
		}

		if cfg.Scheme == Central {
			copy(ws.um, u)
			ws.um[j] -= eps
			cm, err := eval(x, ws.um, ws.outM)
			if err != nil {
				return err
			}
			diffOut(ws.outM, ws.outP, ws.col)
			scaleInto(ws.col, 1/(2*eps))
			d.Lu[j] = (cp - cm) / (2 * eps)
		} else {
			diffOut(ws.out0, ws.outP, ws.col)
			scaleInto(ws.col, 1/eps)
			d.Lu[j] = (cp - c0) / eps
		}
		d.Fu.SetCol(j, ws.col)
	}

	return nil
}

func scaleInto(v []float64, f float64) {
	for i := range v {
		v[i] *= f
	}
}

func vectorDiff(a, b []float64, out []float64) {
	for i := range out {
		out[i] = b[i] - a[i]
	}
}

func checkModel(state dynamo.Manifold, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if state.Ndx() == 0 {
		return fmt.Errorf("%w: model has an empty state tangent space", dynamo.ErrInvalidDimension)
	}
	return nil
}
