package costs

import (
	"github.com/san-kum/shootbench/internal/dynamo"
)

// Force is a contact wrench (fx, fy, fz, tx, ty, tz) with its derivatives.
type Force struct {
	Wrench []float64
	Dx     *dynamo.Matrix
	Du     *dynamo.Matrix
}

// Context is what a residual can see at one evaluation. Dynamics models fill
// it before calling Sum.Calc; derivative fields are only read by CalcDiff.
type Context struct {
	X dynamo.State
	U dynamo.Control

	Forces map[string]*Force

	// Gravity is the actuated part of the generalized gravity, one entry per
	// control, and GravityDx its derivative with respect to the state.
	Gravity   []float64
	GravityDx *dynamo.Matrix
}

func NewContext() *Context {
	return &Context{Forces: make(map[string]*Force)}
}

// SetForce registers a wrench under name, replacing any previous one.
func (c *Context) SetForce(name string, f *Force) {
	c.Forces[name] = f
}
