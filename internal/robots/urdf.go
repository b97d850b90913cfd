package robots

import (
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// DefaultReference is the SRDF group state used as the default
// configuration.
const DefaultReference = "half_sitting"

type urdfLimit struct {
	Lower float64 `xml:"lower,attr"`
	Upper float64 `xml:"upper,attr"`
}

type urdfJoint struct {
	Name   string     `xml:"name,attr"`
	Type   string     `xml:"type,attr"`
	Parent urdfLink   `xml:"parent"`
	Child  urdfLink   `xml:"child"`
	Limit  *urdfLimit `xml:"limit"`
}

type urdfLink struct {
	Link string `xml:"link,attr"`
}

type urdfRobot struct {
	Name   string      `xml:"name,attr"`
	Joints []urdfJoint `xml:"joint"`
}

// URDFBuilder reads the joint tree and position limits of a URDF file.
// Fixed joints are dropped; joints are numbered depth first from the root
// link.
type URDFBuilder struct{}

func (URDFBuilder) Build(urdf string, _ []string, freeFlyer bool) (*Model, error) {
	f, err := os.Open(urdf)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc urdfRobot
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", urdf, err)
	}
	return buildModel(doc, freeFlyer)
}

func buildModel(doc urdfRobot, freeFlyer bool) (*Model, error) {
	m := &Model{References: make(map[string][]float64)}
	if freeFlyer {
		m.add(Joint{Name: "root_joint", NQ: FreeFlyerNQ, NV: FreeFlyerNV}, nil)
	}

	children := make(map[string][]int)
	isChild := make(map[string]bool)
	for i, j := range doc.Joints {
		children[j.Parent.Link] = append(children[j.Parent.Link], i)
		isChild[j.Child.Link] = true
	}

	var roots []string
	for _, j := range doc.Joints {
		if !isChild[j.Parent.Link] && !contains(roots, j.Parent.Link) {
			roots = append(roots, j.Parent.Link)
		}
	}
	if len(doc.Joints) > 0 && len(roots) != 1 {
		return nil, fmt.Errorf("robot %s: expected one root link, found %d", doc.Name, len(roots))
	}

	visited := make(map[string]bool)
	var walk func(link string) error
	walk = func(link string) error {
		if visited[link] {
			return fmt.Errorf("robot %s: link %s reached twice", doc.Name, link)
		}
		visited[link] = true
		for _, i := range children[link] {
			j := doc.Joints[i]
			if err := m.addURDF(j); err != nil {
				return fmt.Errorf("robot %s: %w", doc.Name, err)
			}
			if err := walk(j.Child.Link); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range roots {
		if err := walk(root); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Model) add(j Joint, limit *urdfLimit) {
	j.ID = len(m.Joints) + 1
	m.Joints = append(m.Joints, j)
	for i := 0; i < j.NQ; i++ {
		switch {
		case limit != nil:
			m.Lower = append(m.Lower, limit.Lower)
			m.Upper = append(m.Upper, limit.Upper)
		case j.NQ == 2:
			m.Lower = append(m.Lower, -1)
			m.Upper = append(m.Upper, 1)
		default:
			m.Lower = append(m.Lower, -math.MaxFloat64)
			m.Upper = append(m.Upper, math.MaxFloat64)
		}
	}
	m.Armature = append(m.Armature, make([]float64, j.NV)...)
}

func (m *Model) addURDF(j urdfJoint) error {
	switch j.Type {
	case "fixed":
		return nil
	case "revolute", "prismatic":
		m.add(Joint{Name: j.Name, NQ: 1, NV: 1}, j.Limit)
	case "continuous":
		// Unbounded revolute joints are stored as (cos, sin).
		m.add(Joint{Name: j.Name, NQ: 2, NV: 1}, nil)
	case "floating":
		m.add(Joint{Name: j.Name, NQ: FreeFlyerNQ, NV: FreeFlyerNV}, nil)
	case "planar":
		m.add(Joint{Name: j.Name, NQ: 4, NV: 3}, nil)
	default:
		return fmt.Errorf("joint %s: unsupported type %q", j.Name, j.Type)
	}
	return nil
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

type srdfJointValue struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type srdfGroupState struct {
	Name   string           `xml:"name,attr"`
	Joints []srdfJointValue `xml:"joint"`
}

type srdfRobot struct {
	States []srdfGroupState `xml:"group_state"`
}

// SRDFReader stores every SRDF group state as a reference configuration
// and returns the DefaultReference one as default configuration.
type SRDFReader struct{}

func (SRDFReader) ReadParams(m *Model, srdf string) ([]float64, error) {
	f, err := os.Open(srdf)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var doc srdfRobot
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", srdf, err)
	}
	return readStates(m, doc)
}

func readStates(m *Model, doc srdfRobot) ([]float64, error) {
	joints := make(map[string]Joint, len(m.Joints))
	idx := make(map[string]int, len(m.Joints))
	iq := 0
	for _, j := range m.Joints {
		joints[j.Name] = j
		idx[j.Name] = iq
		iq += j.NQ
	}

	if m.References == nil {
		m.References = make(map[string][]float64)
	}
	for _, gs := range doc.States {
		q := m.Neutral()
		for _, jv := range gs.Joints {
			j, ok := joints[jv.Name]
			if !ok {
				// Joints outside a reduced model are ignored.
				continue
			}
			fields := strings.Fields(jv.Value)
			if len(fields) != j.NQ {
				return nil, fmt.Errorf("group state %s: joint %s has %d values, want %d", gs.Name, jv.Name, len(fields), j.NQ)
			}
			for k, s := range fields {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, fmt.Errorf("group state %s: joint %s: %w", gs.Name, jv.Name, err)
				}
				q[idx[jv.Name]+k] = v
			}
		}
		m.References[gs.Name] = q
	}

	if q, ok := m.References[DefaultReference]; ok {
		return append([]float64(nil), q...), nil
	}
	return nil, nil
}
