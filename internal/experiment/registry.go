package experiment

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/san-kum/shootbench/internal/bench"
	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/models"
)

type implementation struct {
	label string
	build func() dynamo.ActionModel
}

type Registry struct {
	implementations map[string]implementation
	scenarios       map[string]func(rng *rand.Rand) (*Scenario, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		implementations: make(map[string]implementation),
		scenarios:       make(map[string]func(rng *rand.Rand) (*Scenario, error)),
	}

	r.implementations["native"] = implementation{"Native", func() dynamo.ActionModel { return models.NewUnicycle() }}
	r.implementations["boxed"] = implementation{"Boxed", func() dynamo.ActionModel { return models.NewBoxed(models.NewUnicycle()) }}
	r.implementations["derived"] = implementation{"Derived", func() dynamo.ActionModel { return models.NewUnicycleDerived() }}
	r.implementations["lqr"] = implementation{"LQR", func() dynamo.ActionModel { return models.NewLQR(3, 2, false) }}

	r.scenarios["unicycle"] = func(rng *rand.Rand) (*Scenario, error) {
		return actionScenario("unicycle", models.NewUnicycle(), rng), nil
	}
	r.scenarios["unicycle-derived"] = func(rng *rand.Rand) (*Scenario, error) {
		return actionScenario("unicycle-derived", models.NewUnicycleDerived(), rng), nil
	}
	r.scenarios["lqr"] = func(rng *rand.Rand) (*Scenario, error) {
		return actionScenario("lqr", models.NewRandomLQR(8, 4, false, rng.Int63()), rng), nil
	}
	r.scenarios["lqr-driftfree"] = func(rng *rand.Rand) (*Scenario, error) {
		return actionScenario("lqr-driftfree", models.NewRandomLQR(8, 4, true, rng.Int63()), rng), nil
	}
	r.scenarios["contact-cop"] = contactCoP
	r.scenarios["contact-cop-euler"] = contactCoPEuler
	r.scenarios["contact-cop-lpf"] = contactCoPLPF
	r.scenarios["impulse-cop"] = impulseCoP
	r.scenarios["contact-gravity"] = contactGravity

	return r
}

// DefaultImplementations is the benchmark order of the unicycle protocol.
var DefaultImplementations = []string{"native", "boxed", "derived"}

func (r *Registry) GetImplementation(name string) (bench.Implementation, error) {
	impl, ok := r.implementations[name]
	if !ok {
		return bench.Implementation{}, fmt.Errorf("unknown implementation: %s", name)
	}
	return bench.Implementation{Name: name, Label: impl.label, Model: impl.build()}, nil
}

func (r *Registry) GetScenario(name string, rng *rand.Rand) (*Scenario, error) {
	fn, ok := r.scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario: %s", name)
	}
	s, err := fn(rng)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", name, err)
	}
	return s, nil
}

func (r *Registry) ListImplementations() []string {
	return sortedKeys(r.implementations)
}

func (r *Registry) ListScenarios() []string {
	return sortedKeys(r.scenarios)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
