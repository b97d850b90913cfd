package experiment

import (
	"math"
	"math/rand"

	"github.com/san-kum/shootbench/internal/costs"
	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/integrators"
	"github.com/san-kum/shootbench/internal/multibody"
)

const (
	// CoPSupport is the side of the square support region under each sole.
	CoPSupport = 0.01
	// ContactEulerDt is the step of the integrated contact scenarios.
	ContactEulerDt = 1e-3
	// TorqueCutoff is the low-pass cut-off frequency, in Hz, of the
	// filtered-torque scenario.
	TorqueCutoff = 50.0
)

// Scenario is a model with the point its derivatives are checked at.
// Exactly one of Action and Differential is set.
type Scenario struct {
	Name         string
	Action       dynamo.ActionModel
	Differential dynamo.DifferentialModel
	X            dynamo.State
	U            dynamo.Control
}

func randomControl(rng *rand.Rand, nu int) dynamo.Control {
	u := make(dynamo.Control, nu)
	for i := range u {
		u[i] = 2*rng.Float64() - 1
	}
	return u
}

func actionScenario(name string, m dynamo.ActionModel, rng *rand.Rand) *Scenario {
	return &Scenario{
		Name:   name,
		Action: m,
		X:      m.State().Rand(rng),
		U:      randomControl(rng, m.ControlDim()),
	}
}

// copCosts adds a CoP barrier for each sole to sum.
func copCosts(sum *costs.Sum) error {
	inf := math.Inf(1)
	for _, sole := range []string{multibody.RightSole, multibody.LeftSole} {
		barrier, err := costs.NewQuadraticBarrier(make([]float64, 4), []float64{inf, inf, inf, inf})
		if err != nil {
			return err
		}
		if err := sum.Add(sole+"_cop", costs.NewCoP(sole, CoPSupport, CoPSupport), barrier, 1); err != nil {
			return err
		}
	}
	return nil
}

func contactModel(rng *rand.Rand, extra func(sum *costs.Sum, nu int) error) (*multibody.ContactFwdDynamics, error) {
	b, err := multibody.NewBiped(rng)
	if err != nil {
		return nil, err
	}
	nu := b.Actuation.NU()
	sum := costs.NewSum(2*multibody.BipedDofs, nu)
	if err := extra(sum, nu); err != nil {
		return nil, err
	}
	return multibody.NewContactFwdDynamics(b.Body, b.Actuation, b.Contacts, sum, 0)
}

func contactCoP(rng *rand.Rand) (*Scenario, error) {
	m, err := contactModel(rng, func(sum *costs.Sum, _ int) error { return copCosts(sum) })
	if err != nil {
		return nil, err
	}
	return &Scenario{
		Name:         "contact-cop",
		Differential: m,
		X:            m.State().Rand(rng),
		U:            randomControl(rng, m.ControlDim()),
	}, nil
}

func contactCoPEuler(rng *rand.Rand) (*Scenario, error) {
	m, err := contactModel(rng, func(sum *costs.Sum, _ int) error { return copCosts(sum) })
	if err != nil {
		return nil, err
	}
	e, err := integrators.NewEuler(m, ContactEulerDt)
	if err != nil {
		return nil, err
	}
	return actionScenario("contact-cop-euler", e, rng), nil
}

func contactCoPLPF(rng *rand.Rand) (*Scenario, error) {
	m, err := contactModel(rng, func(sum *costs.Sum, _ int) error { return copCosts(sum) })
	if err != nil {
		return nil, err
	}
	l, err := integrators.NewLPF(m, ContactEulerDt, 0)
	if err != nil {
		return nil, err
	}
	l.SetCutoff(TorqueCutoff)
	return actionScenario("contact-cop-lpf", l, rng), nil
}

func impulseCoP(rng *rand.Rand) (*Scenario, error) {
	b, err := multibody.NewBiped(rng)
	if err != nil {
		return nil, err
	}
	sum := costs.NewSum(2*multibody.BipedDofs, 0)
	if err := copCosts(sum); err != nil {
		return nil, err
	}
	m, err := multibody.NewImpulseFwdDynamics(b.Body, b.Contacts, sum, 0, 0)
	if err != nil {
		return nil, err
	}
	return actionScenario("impulse-cop", m, rng), nil
}

func contactGravity(rng *rand.Rand) (*Scenario, error) {
	m, err := contactModel(rng, func(sum *costs.Sum, nu int) error {
		if err := sum.Add("control_gravity", costs.NewControlGravity(nu), nil, 1); err != nil {
			return err
		}
		weights := make([]float64, 2*multibody.BipedDofs)
		for i := range weights {
			weights[i] = 1
			if i < 6 {
				weights[i] = 10
			}
		}
		if err := sum.Add("state_reg", costs.NewState(make(dynamo.State, 2*multibody.BipedDofs)), costs.WeightedQuad{Weights: weights}, 1e-1); err != nil {
			return err
		}
		return sum.Add("control_reg", costs.NewControl(make(dynamo.Control, nu)), nil, 1e-3)
	})
	if err != nil {
		return nil, err
	}
	return &Scenario{
		Name:         "contact-gravity",
		Differential: m,
		X:            m.State().Rand(rng),
		U:            randomControl(rng, m.ControlDim()),
	}, nil
}
