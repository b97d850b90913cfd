package models

import (
	"github.com/san-kum/shootbench/internal/dynamo"
)

// Boxed wraps a model behind a marshalling boundary: every call copies its
// inputs into fresh buffers, evaluates the inner model on its own data and
// copies the outputs back. It reproduces the per-call overhead of calling a
// native model through a language binding.
type Boxed struct {
	inner dynamo.ActionModel
}

func NewBoxed(inner dynamo.ActionModel) *Boxed {
	return &Boxed{inner: inner}
}

func (b *Boxed) State() dynamo.Manifold { return b.inner.State() }
func (b *Boxed) ControlDim() int        { return b.inner.ControlDim() }

func (b *Boxed) CreateData() *dynamo.ActionData {
	d := dynamo.NewActionData(b.inner.State(), b.inner.ControlDim())
	d.Scratch = b.inner.CreateData()
	return d
}

func (b *Boxed) Calc(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	inner := d.Scratch.(*dynamo.ActionData)
	if err := b.inner.Calc(inner, x.Clone(), u.Clone()); err != nil {
		return err
	}
	copy(d.Xnext, inner.Xnext.Clone())
	d.Cost = inner.Cost
	return nil
}

func (b *Boxed) CalcDiff(d *dynamo.ActionData, x dynamo.State, u dynamo.Control) error {
	inner := d.Scratch.(*dynamo.ActionData)
	if err := b.inner.CalcDiff(inner, x.Clone(), u.Clone()); err != nil {
		return err
	}
	d.Fx.CopyFrom(inner.Fx.Clone())
	d.Fu.CopyFrom(inner.Fu.Clone())
	copy(d.Lx, append([]float64(nil), inner.Lx...))
	copy(d.Lu, append([]float64(nil), inner.Lu...))
	return nil
}
