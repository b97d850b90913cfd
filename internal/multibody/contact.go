package multibody

import (
	"fmt"
	"math/rand"

	"github.com/san-kum/shootbench/internal/dynamo"
)

// Contact6D pins a frame of the body in all six directions. The frame
// velocity is J v; the constraint acceleration is stabilised as
//
//	gamma = J (alpha (q - ref) + beta v)
type Contact6D struct {
	Name  string
	J     *dynamo.Matrix
	Ref   []float64
	Gains [2]float64
}

func NewContact6D(name string, jac *dynamo.Matrix, ref []float64, gains [2]float64) (*Contact6D, error) {
	if jac.Rows != 6 {
		return nil, &dynamo.DimensionError{What: "contact jacobian rows", Got: jac.Rows, Want: 6}
	}
	if len(ref) != jac.Cols {
		return nil, &dynamo.DimensionError{What: "contact reference", Got: len(ref), Want: jac.Cols}
	}
	return &Contact6D{Name: name, J: jac, Ref: ref, Gains: gains}, nil
}

// FootJacobian builds the Jacobian of a foot hanging off a floating base:
// identity on the six base coordinates and a perturbed identity on the six
// leg joints listed in legs.
func FootJacobian(nv int, legs [6]int, rng *rand.Rand) *dynamo.Matrix {
	j := dynamo.NewMatrix(6, nv)
	for i := 0; i < 6; i++ {
		j.Set(i, i, 1)
		for c, joint := range legs {
			v := 0.3 * rng.Float64()
			if c == i {
				v += 1
			}
			j.Set(i, joint, v)
		}
	}
	return j
}

// ContactSet stacks contacts into a single constraint of dimension 6k.
type ContactSet struct {
	nv       int
	contacts []*Contact6D
	j        *dynamo.Matrix
}

func NewContactSet(nv int) *ContactSet {
	return &ContactSet{nv: nv, j: dynamo.NewMatrix(0, nv)}
}

func (s *ContactSet) Add(c *Contact6D) error {
	if c.J.Cols != s.nv {
		return &dynamo.DimensionError{What: "contact " + c.Name + " columns", Got: c.J.Cols, Want: s.nv}
	}
	for _, other := range s.contacts {
		if other.Name == c.Name {
			return fmt.Errorf("multibody: duplicate contact %q", c.Name)
		}
	}
	s.contacts = append(s.contacts, c)

	j := dynamo.NewMatrix(6*len(s.contacts), s.nv)
	copy(j.Data, s.j.Data)
	copy(j.Data[len(s.j.Data):], c.J.Data)
	s.j = j
	return nil
}

func (s *ContactSet) Dim() int                 { return 6 * len(s.contacts) }
func (s *ContactSet) NV() int                  { return s.nv }
func (s *ContactSet) Contacts() []*Contact6D   { return s.contacts }
func (s *ContactSet) Jacobian() *dynamo.Matrix { return s.j }

// Drift writes the stacked gamma into out.
func (s *ContactSet) Drift(q, v, out []float64) {
	tmp := make([]float64, s.nv)
	for k, c := range s.contacts {
		alpha, beta := c.Gains[0], c.Gains[1]
		for i := range tmp {
			tmp[i] = alpha*(q[i]-c.Ref[i]) + beta*v[i]
		}
		c.J.MulVec(tmp, out[6*k:6*k+6])
	}
}

// DriftDerivative writes d gamma / dx = [alpha J, beta J] into out.
func (s *ContactSet) DriftDerivative(out *dynamo.Matrix) {
	n := s.nv
	for k, c := range s.contacts {
		alpha, beta := c.Gains[0], c.Gains[1]
		for r := 0; r < 6; r++ {
			row := out.Row(6*k + r)
			jrow := c.J.Row(r)
			for i, v := range jrow {
				row[i] = alpha * v
				row[n+i] = beta * v
			}
		}
	}
}
