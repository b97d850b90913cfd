package multibody

import (
	"fmt"
	"math/rand"
)

const (
	BipedDofs = 18
	RightSole = "r_sole"
	LeftSole  = "l_sole"
)

// Biped is a floating base with two six-joint legs, each ending in a sole.
type Biped struct {
	Body      *Body
	Actuation *FloatingBase
	Contacts  *ContactSet
}

// NewBiped draws a biped and places both soles in 6D contact around a
// random reference configuration. Baumgarte gains are drawn in [0, 1).
func NewBiped(rng *rand.Rand) (*Biped, error) {
	body := RandomBody(BipedDofs, rng)
	act, err := NewFloatingBase(BipedDofs)
	if err != nil {
		return nil, err
	}

	set := NewContactSet(BipedDofs)
	legs := map[string][6]int{
		RightSole: {6, 7, 8, 9, 10, 11},
		LeftSole:  {12, 13, 14, 15, 16, 17},
	}
	for _, name := range []string{RightSole, LeftSole} {
		ref := body.State().Rand(rng)[:BipedDofs]
		gains := [2]float64{rng.Float64(), rng.Float64()}
		c, err := NewContact6D(name, FootJacobian(BipedDofs, legs[name], rng), ref, gains)
		if err != nil {
			return nil, err
		}
		if err := set.Add(c); err != nil {
			return nil, fmt.Errorf("biped: %w", err)
		}
	}
	return &Biped{Body: body, Actuation: act, Contacts: set}, nil
}
