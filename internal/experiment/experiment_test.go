package experiment

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/integrators"
	"github.com/san-kum/shootbench/internal/numdiff"
	"github.com/san-kum/shootbench/internal/verify"
)

func checkConfig() Config {
	cfg := DefaultConfig()
	cfg.Scale = 10
	cfg.Seed = 42
	return cfg
}

func TestRegistryImplementations(t *testing.T) {
	r := NewRegistry()

	for _, name := range DefaultImplementations {
		impl, err := r.GetImplementation(name)
		require.NoError(t, err, name)
		assert.Equal(t, 3, impl.Model.State().Nx(), name)
		assert.Equal(t, 2, impl.Model.ControlDim(), name)
	}

	_, err := r.GetImplementation("fortran")
	assert.Error(t, err)
}

func TestAllScenariosPass(t *testing.T) {
	r := NewRegistry()
	e, err := New(checkConfig(), r, nil)
	require.NoError(t, err)

	outcomes, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, len(r.ListScenarios()))
	for _, o := range outcomes {
		assert.NoError(t, o.Report.Err(), o.Scenario)
	}
}

func TestLPFScenario(t *testing.T) {
	s, err := NewRegistry().GetScenario("contact-cop-lpf", rand.New(rand.NewSource(5)))
	require.NoError(t, err)
	l, ok := s.Action.(*integrators.LPF)
	require.True(t, ok, "expected a filtered-torque action model, got %T", s.Action)
	assert.Greater(t, l.Alpha, 0.0)
	assert.Less(t, l.Alpha, 1.0)
	assert.Equal(t, l.State().Nx(), len(s.X))

	e, err := New(Config{Scenarios: []string{"contact-cop-lpf"}, Scale: 10, Modifier: verify.DefaultModifier, Seed: 5}, NewRegistry(), nil)
	require.NoError(t, err)
	outcomes, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Report.Err())
}

func TestConfigNumDiff(t *testing.T) {
	cfg := Config{Scale: 10}
	assert.InDelta(t, numdiff.DefaultDisturbance*10, cfg.NumDiff().Disturbance, 1e-18)

	cfg = Config{Disturbance: 1e-6, Scale: 10, Scheme: numdiff.Central}
	nd := cfg.NumDiff()
	assert.InDelta(t, 1e-5, nd.Disturbance, 1e-18)
	assert.Equal(t, numdiff.Central, nd.Scheme)
}

func TestUnknownScenario(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scenarios = []string{"nope"}
	e, err := New(cfg, NewRegistry(), nil)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	assert.Error(t, err)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"negative disturbance": func(c *Config) { c.Disturbance = -1 },
		"zero scale":           func(c *Config) { c.Scale = 0 },
		"negative scale":       func(c *Config) { c.Scale = -10 },
		"zero modifier":        func(c *Config) { c.Modifier = 0 },
		"negative modifier":    func(c *Config) { c.Modifier = -1e4 },
		"negative workers":     func(c *Config) { c.Workers = -1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			_, err := New(cfg, NewRegistry(), nil)
			assert.Error(t, err)
		})
	}
}

func TestScenarioSeedIndependentOfSelection(t *testing.T) {
	r := NewRegistry()
	all, err := New(checkConfig(), r, nil)
	require.NoError(t, err)
	full, err := all.Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"impulse-cop", "lqr"} {
		cfg := checkConfig()
		cfg.Scenarios = []string{name}
		one, err := New(cfg, r, nil)
		require.NoError(t, err)
		alone, err := one.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, alone, 1)

		var inFull *Outcome
		for i := range full {
			if full[i].Scenario == name {
				inFull = &full[i]
			}
		}
		require.NotNil(t, inFull, name)
		for j, m := range alone[0].Report.Matrices {
			assert.Equal(t, inFull.Report.Matrices[j].MaxDelta, m.MaxDelta, "%s %s", name, m.Name)
		}
	}
	assert.NotEqual(t, scenarioSeed(42, "lqr"), scenarioSeed(42, "unicycle"))
}

func TestParallelMatchesSequential(t *testing.T) {
	r := NewRegistry()
	seq, err := New(checkConfig(), r, nil)
	require.NoError(t, err)
	parCfg := checkConfig()
	parCfg.Workers = 4
	par, err := New(parCfg, r, nil)
	require.NoError(t, err)

	a, err := seq.Run(context.Background())
	require.NoError(t, err)
	b, err := par.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].Scenario, b[i].Scenario, "order differs at %d", i)
		for j := range a[i].Report.Matrices {
			assert.Equal(t, a[i].Report.Matrices[j].MaxDelta, b[i].Report.Matrices[j].MaxDelta,
				"%s: %s differs between runs", a[i].Scenario, a[i].Report.Matrices[j].Name)
		}
	}
}

func TestCanceledRun(t *testing.T) {
	e, err := New(DefaultConfig(), NewRegistry(), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
