package multibody

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// Actuation maps controls to generalized forces through a selection
// matrix S (nv x nu).
type Actuation interface {
	NU() int
	// Apply writes S u into tau.
	Apply(u, tau []float64)
	// Select writes S^T v into out.
	Select(v, out []float64)
	Matrix() *dynamo.Matrix
}

// FloatingBase leaves the first six coordinates unactuated.
type FloatingBase struct {
	nv int
	s  *dynamo.Matrix
}

func NewFloatingBase(nv int) (*FloatingBase, error) {
	if nv < 6 {
		return nil, fmt.Errorf("%w: floating base needs at least 6 coordinates, got %d", dynamo.ErrInvalidDimension, nv)
	}
	s := dynamo.NewMatrix(nv, nv-6)
	for j := 0; j < nv-6; j++ {
		s.Set(6+j, j, 1)
	}
	return &FloatingBase{nv: nv, s: s}, nil
}

func (a *FloatingBase) NU() int                { return a.nv - 6 }
func (a *FloatingBase) Matrix() *dynamo.Matrix { return a.s }

func (a *FloatingBase) Apply(u, tau []float64) {
	clear(tau[:6])
	copy(tau[6:], u)
}

func (a *FloatingBase) Select(v, out []float64) {
	copy(out, v[6:])
}
