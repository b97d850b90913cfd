package robots

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Spec describes how to load one robot. Paths are relative to the model
// directory.
type Spec struct {
	Name      string `yaml:"name"`
	Family    string `yaml:"family"`
	URDF      string `yaml:"urdf"`
	SRDF      string `yaml:"srdf,omitempty"`
	FreeFlyer bool   `yaml:"free_flyer"`
	// MaxJointID keeps joints with a smaller ID; 0 keeps all.
	MaxJointID     int  `yaml:"max_joint_id,omitempty"`
	ClampFreeFlyer bool `yaml:"clamp_free_flyer,omitempty"`
	CheckArmature  bool `yaml:"check_armature,omitempty"`
	// Q0 overrides entries of the default configuration by index.
	Q0 map[int]float64 `yaml:"q0,omitempty"`
	// Reference stores the final default configuration under this name.
	Reference string `yaml:"reference,omitempty"`
}

func (s Spec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("robot spec without a name")
	}
	if s.URDF == "" {
		return fmt.Errorf("robot %s: no urdf", s.Name)
	}
	if s.MaxJointID < 0 {
		return fmt.Errorf("robot %s: negative max_joint_id", s.Name)
	}
	return nil
}

func hyqStance() map[int]float64 {
	q0 := map[int]float64{2: 0.57750958}
	legs := []float64{-0.2, 0.75, -1.5, -0.2, -0.75, 1.5, -0.2, 0.75, -1.5, -0.2, -0.75, 1.5}
	for i, v := range legs {
		q0[FreeFlyerNQ+i] = v
	}
	return q0
}

// Builtins returns the stock robot specs keyed by name.
func Builtins() map[string]Spec {
	const (
		talosSRDF    = "talos_data/srdf/talos.srdf"
		talosReduced = "talos_data/robots/talos_reduced.urdf"
	)
	specs := []Spec{
		{
			Name: "talos_arm", Family: "arm",
			URDF: "talos_data/robots/talos_left_arm.urdf", SRDF: talosSRDF,
			ClampFreeFlyer: true, CheckArmature: true,
		},
		{
			Name: "talos", Family: "biped",
			URDF: talosReduced, SRDF: talosSRDF,
			FreeFlyer: true, CheckArmature: true,
		},
		{
			Name: "talos_legs", Family: "legs",
			URDF: talosReduced, SRDF: talosSRDF,
			FreeFlyer: true, MaxJointID: 14, ClampFreeFlyer: true, CheckArmature: true,
		},
		{
			Name: "hyq", Family: "quadruped",
			URDF:      "hyq_description/robots/hyq_no_sensors.urdf",
			FreeFlyer: true,
			Q0:        hyqStance(),
			Reference: "half_sitting",
		},
		{
			Name: "icub", Family: "humanoid",
			URDF: "icub_description/robots/icub_reduced.urdf", SRDF: "icub_description/srdf/icub.srdf",
			FreeFlyer: true,
		},
	}

	out := make(map[string]Spec, len(specs))
	for _, s := range specs {
		out[s.Name] = s
	}
	return out
}

// LoadSpecs reads a YAML list of robot specs.
func LoadSpecs(path string) ([]Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var specs []Spec
	if err := yaml.Unmarshal(data, &specs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return specs, nil
}

func sortedNames(specs map[string]Spec) []string {
	names := make([]string, 0, len(specs))
	for name := range specs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
