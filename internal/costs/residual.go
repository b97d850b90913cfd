package costs

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// Residual is a vector function of the evaluation context.
type Residual interface {
	Dim() int
	Calc(ctx *Context, r []float64) error
	// CalcDiff fills dr/dx and dr/du. Both matrices are zeroed beforehand.
	CalcDiff(ctx *Context, rx, ru *dynamo.Matrix) error
}

// State is x - ref on a flat state space.
type State struct {
	Ref dynamo.State
}

func NewState(ref dynamo.State) *State {
	return &State{Ref: ref}
}

func (s *State) Dim() int { return len(s.Ref) }

func (s *State) Calc(ctx *Context, r []float64) error {
	if len(ctx.X) != len(s.Ref) {
		return &dynamo.DimensionError{What: "state reference", Got: len(ctx.X), Want: len(s.Ref)}
	}
	for i := range s.Ref {
		r[i] = ctx.X[i] - s.Ref[i]
	}
	return nil
}

func (s *State) CalcDiff(ctx *Context, rx, ru *dynamo.Matrix) error {
	for i := range s.Ref {
		rx.Set(i, i, 1)
	}
	return nil
}

// Control is u - ref.
type Control struct {
	Ref dynamo.Control
}

func NewControl(ref dynamo.Control) *Control {
	return &Control{Ref: ref}
}

func (c *Control) Dim() int { return len(c.Ref) }

func (c *Control) Calc(ctx *Context, r []float64) error {
	if len(ctx.U) != len(c.Ref) {
		return &dynamo.DimensionError{What: "control reference", Got: len(ctx.U), Want: len(c.Ref)}
	}
	for i := range c.Ref {
		r[i] = ctx.U[i] - c.Ref[i]
	}
	return nil
}

func (c *Control) CalcDiff(ctx *Context, rx, ru *dynamo.Matrix) error {
	for i := range c.Ref {
		ru.Set(i, i, 1)
	}
	return nil
}

// ControlGravity is u - g(q), penalising controls that do more than hold the
// robot against gravity.
type ControlGravity struct {
	Nu int
}

func NewControlGravity(nu int) *ControlGravity {
	return &ControlGravity{Nu: nu}
}

func (c *ControlGravity) Dim() int { return c.Nu }

func (c *ControlGravity) Calc(ctx *Context, r []float64) error {
	if len(ctx.U) != c.Nu {
		return &dynamo.DimensionError{What: "control", Got: len(ctx.U), Want: c.Nu}
	}
	if len(ctx.Gravity) != c.Nu {
		return &dynamo.DimensionError{What: "actuated gravity", Got: len(ctx.Gravity), Want: c.Nu}
	}
	for i := 0; i < c.Nu; i++ {
		r[i] = ctx.U[i] - ctx.Gravity[i]
	}
	return nil
}

func (c *ControlGravity) CalcDiff(ctx *Context, rx, ru *dynamo.Matrix) error {
	if ctx.GravityDx == nil || !rx.SameShape(ctx.GravityDx) {
		return fmt.Errorf("%w: gravity derivative missing or misshaped", dynamo.ErrInvalidDimension)
	}
	for k, v := range ctx.GravityDx.Data {
		rx.Data[k] = -v
	}
	for i := 0; i < c.Nu; i++ {
		ru.Set(i, i, 1)
	}
	return nil
}

// CoP keeps the centre of pressure of a 6D contact inside a rectangular
// support of size Lx by Ly. The residual is A f; every entry is
// non-negative exactly when the CoP lies inside the support, so it is
// usually paired with a QuadraticBarrier on [0, inf).
type CoP struct {
	Contact string
	Lx, Ly  float64
	a       *dynamo.Matrix
}

func NewCoP(contact string, lx, ly float64) *CoP {
	a := &dynamo.Matrix{Rows: 4, Cols: 6, Data: []float64{
		0, 0, lx / 2, 0, -1, 0,
		0, 0, lx / 2, 0, 1, 0,
		0, 0, ly / 2, 1, 0, 0,
		0, 0, ly / 2, -1, 0, 0,
	}}
	return &CoP{Contact: contact, Lx: lx, Ly: ly, a: a}
}

// Support returns the 4 x 6 inequality matrix.
func (c *CoP) Support() *dynamo.Matrix { return c.a }

func (c *CoP) Dim() int { return 4 }

func (c *CoP) force(ctx *Context) (*Force, error) {
	f, ok := ctx.Forces[c.Contact]
	if !ok {
		return nil, fmt.Errorf("costs: no contact force named %q", c.Contact)
	}
	if len(f.Wrench) != 6 {
		return nil, &dynamo.DimensionError{What: "wrench " + c.Contact, Got: len(f.Wrench), Want: 6}
	}
	return f, nil
}

func (c *CoP) Calc(ctx *Context, r []float64) error {
	f, err := c.force(ctx)
	if err != nil {
		return err
	}
	c.a.MulVec(f.Wrench, r)
	return nil
}

func (c *CoP) CalcDiff(ctx *Context, rx, ru *dynamo.Matrix) error {
	f, err := c.force(ctx)
	if err != nil {
		return err
	}
	if f.Dx == nil || f.Dx.Cols != rx.Cols {
		return fmt.Errorf("%w: wrench %s has no state derivative of width %d", dynamo.ErrInvalidDimension, c.Contact, rx.Cols)
	}
	dynamo.Mul(c.a, f.Dx, rx)
	if ru.Cols > 0 {
		if f.Du == nil || f.Du.Cols != ru.Cols {
			return fmt.Errorf("%w: wrench %s has no control derivative of width %d", dynamo.ErrInvalidDimension, c.Contact, ru.Cols)
		}
		dynamo.Mul(c.a, f.Du, ru)
	}
	return nil
}
