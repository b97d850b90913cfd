package robots

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// ModelPathEnv lists extra model directories, separated like PATH.
const ModelPathEnv = "SHOOTBENCH_MODEL_PATH"

// DefaultSearchDirs are tried after ModelPathEnv.
var DefaultSearchDirs = []string{
	"/opt/openrobots/share/example-robot-data/robots",
	"/usr/local/share/example-robot-data/robots",
	"/usr/share/example-robot-data/robots",
}

type Loader struct {
	specs   map[string]Spec
	builder Builder
	params  ParamReader
	logger  *slog.Logger
}

// NewLoader starts from the builtin specs. params may be nil when no spec
// carries an SRDF.
func NewLoader(builder Builder, params ParamReader, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		specs:   Builtins(),
		builder: builder,
		params:  params,
		logger:  logger,
	}
}

// Register adds or replaces specs.
func (l *Loader) Register(specs ...Spec) error {
	for _, s := range specs {
		if err := s.validate(); err != nil {
			return err
		}
		l.specs[s.Name] = s
	}
	return nil
}

func (l *Loader) List() []string {
	return sortedNames(l.specs)
}

func (l *Loader) Spec(name string) (Spec, error) {
	s, ok := l.specs[name]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %s", ErrUnknownRobot, name)
	}
	return s, nil
}

// SearchDirs returns the directories Resolve tries, in order.
func SearchDirs() []string {
	var dirs []string
	for _, d := range filepath.SplitList(os.Getenv(ModelPathEnv)) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return append(dirs, DefaultSearchDirs...)
}

// Resolve returns the model directory holding the spec's URDF. A non-empty
// override is the only directory tried.
func (l *Loader) Resolve(spec Spec, override string) (string, error) {
	dirs := SearchDirs()
	if override != "" {
		dirs = []string{override}
	}
	for _, dir := range dirs {
		_, err := os.Stat(filepath.Join(dir, spec.URDF))
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s (%s) in %v", ErrModelNotFound, spec.Name, spec.URDF, dirs)
}

func (l *Loader) Load(name, override string) (*Robot, error) {
	spec, err := l.Spec(name)
	if err != nil {
		return nil, err
	}
	return l.LoadSpec(spec, override)
}

func (l *Loader) LoadSpec(spec Spec, override string) (*Robot, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}
	dir, err := l.Resolve(spec, override)
	if err != nil {
		return nil, err
	}

	m, err := l.builder.Build(filepath.Join(dir, spec.URDF), []string{dir}, spec.FreeFlyer)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", spec.Name, err)
	}
	if err := m.check(); err != nil {
		return nil, fmt.Errorf("build %s: %w", spec.Name, err)
	}
	if spec.MaxJointID > 0 {
		m = keepJoints(m, spec.MaxJointID)
	}
	if m.References == nil {
		m.References = make(map[string][]float64)
	}

	q0 := m.Neutral()
	if spec.SRDF != "" && l.params != nil {
		q, err := l.params.ReadParams(m, filepath.Join(dir, spec.SRDF))
		if err != nil {
			return nil, fmt.Errorf("read params %s: %w", spec.Name, err)
		}
		if q != nil {
			if len(q) != len(q0) {
				return nil, fmt.Errorf("read params %s: default configuration has %d entries, want %d", spec.Name, len(q), len(q0))
			}
			q0 = q
		}
	}

	if spec.FreeFlyer && spec.CheckArmature {
		for i := 0; i < FreeFlyerNV && i < len(m.Armature); i++ {
			if m.Armature[i] != 0 {
				return nil, fmt.Errorf("%w: %s armature[%d] = %g", ErrArmature, spec.Name, i, m.Armature[i])
			}
		}
	}
	if spec.FreeFlyer && spec.ClampFreeFlyer {
		for i := 0; i < FreeFlyerNQ && i < len(m.Lower); i++ {
			m.Lower[i] = -1
			m.Upper[i] = 1
		}
	}

	for i, v := range spec.Q0 {
		if i < 0 || i >= len(q0) {
			return nil, fmt.Errorf("robot %s: q0 index %d out of range [0, %d)", spec.Name, i, len(q0))
		}
		q0[i] = v
	}
	if spec.Reference != "" {
		m.References[spec.Reference] = append([]float64(nil), q0...)
	}

	l.logger.Debug("loaded robot",
		slog.String("robot", spec.Name),
		slog.String("dir", dir),
		slog.Int("nq", m.NQ()),
		slog.Int("nv", m.NV()))

	return &Robot{Spec: spec, Dir: dir, Model: m, Q0: q0}, nil
}

// keepJoints returns the subtree of joints with ID below maxID. Limits,
// armature and references are cut to the kept coordinates.
func keepJoints(m *Model, maxID int) *Model {
	out := &Model{References: make(map[string][]float64, len(m.References))}
	iq, iv := 0, 0
	for _, j := range m.Joints {
		if j.ID < maxID {
			out.Joints = append(out.Joints, j)
			out.Lower = append(out.Lower, m.Lower[iq:iq+j.NQ]...)
			out.Upper = append(out.Upper, m.Upper[iq:iq+j.NQ]...)
			out.Armature = append(out.Armature, m.Armature[iv:iv+j.NV]...)
		}
		iq += j.NQ
		iv += j.NV
	}

	nq := out.NQ()
	for name, q := range m.References {
		if len(q) >= nq {
			out.References[name] = append([]float64(nil), q[:nq]...)
		}
	}
	return out
}
