// Package robots loads robot descriptions from a declarative spec.
//
// URDF/SRDF parsing sits behind the Builder and ParamReader interfaces;
// the loader resolves files and post-processes the built model.
package robots

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownRobot  = errors.New("unknown robot")
	ErrModelNotFound = errors.New("robot description not found")
	ErrArmature      = errors.New("non-zero free-flyer armature")
)

// FreeFlyerNQ and FreeFlyerNV are the configuration and velocity sizes of
// a floating base: position plus unit quaternion, and a spatial velocity.
const (
	FreeFlyerNQ = 7
	FreeFlyerNV = 6
)

// Joint is one joint of a kinematic tree. IDs start at 1; 0 is the
// universe.
type Joint struct {
	ID   int
	Name string
	NQ   int
	NV   int
}

type Model struct {
	Joints     []Joint
	Lower      []float64
	Upper      []float64
	Armature   []float64
	References map[string][]float64
}

func (m *Model) NQ() int {
	n := 0
	for _, j := range m.Joints {
		n += j.NQ
	}
	return n
}

func (m *Model) NV() int {
	n := 0
	for _, j := range m.Joints {
		n += j.NV
	}
	return n
}

// Neutral is the zero configuration, with an identity free-flyer
// orientation when the first joint is floating.
func (m *Model) Neutral() []float64 {
	q := make([]float64, m.NQ())
	if len(m.Joints) > 0 && m.Joints[0].NQ == FreeFlyerNQ {
		q[6] = 1
	}
	return q
}

func (m *Model) check() error {
	nq, nv := m.NQ(), m.NV()
	if len(m.Lower) != nq || len(m.Upper) != nq {
		return fmt.Errorf("limits have %d/%d entries for %d coordinates", len(m.Lower), len(m.Upper), nq)
	}
	if len(m.Armature) != nv {
		return fmt.Errorf("armature has %d entries for %d velocities", len(m.Armature), nv)
	}
	return nil
}

// Builder builds a model from a URDF file. searchDirs resolve mesh and
// package references; freeFlyer prepends a floating base.
type Builder interface {
	Build(urdf string, searchDirs []string, freeFlyer bool) (*Model, error)
}

// ParamReader reads SRDF parameters into a built model. It returns the
// default configuration, or nil to keep the neutral one.
type ParamReader interface {
	ReadParams(m *Model, srdf string) ([]float64, error)
}

type Robot struct {
	Spec  Spec
	Dir   string
	Model *Model
	Q0    []float64
}
