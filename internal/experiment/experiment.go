package experiment

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/san-kum/shootbench/internal/numdiff"
	"github.com/san-kum/shootbench/internal/verify"
)

// Config selects the scenarios of a verification run and the
// finite-difference setting they are checked with.
type Config struct {
	Scenarios []string
	// Disturbance of 0 means numdiff.DefaultDisturbance.
	Disturbance float64 `validate:"gte=0"`
	Scale       float64 `validate:"gt=0"`
	Modifier    float64 `validate:"gt=0"`
	Scheme      numdiff.Scheme
	// Each scenario draws its model and point from a seed derived from
	// Seed and the scenario name, so a scenario checks the same point
	// whether it runs alone or with others.
	Seed int64
	// Workers bounds concurrent scenarios; below 2 runs them in order.
	Workers int `validate:"gte=0"`
}

var validate = validator.New()

// DefaultConfig checks every scenario at the default disturbance.
func DefaultConfig() Config {
	return Config{Scale: 1, Modifier: verify.DefaultModifier}
}

// NumDiff returns the finite-difference configuration after scaling.
func (c Config) NumDiff() numdiff.Config {
	nd := numdiff.Config{Disturbance: c.Disturbance, Scheme: c.Scheme}
	if nd.Disturbance == 0 {
		nd.Disturbance = numdiff.DefaultDisturbance
	}
	return nd.Scaled(c.Scale)
}

// scenarioSeed mixes the scenario name into base.
func scenarioSeed(base int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return base + int64(h.Sum64())
}

type Outcome struct {
	Scenario string
	Report   *verify.Report
}

type Experiment struct {
	cfg      Config
	registry *Registry
	verifier *verify.Verifier
	logger   *slog.Logger
}

func New(cfg Config, registry *Registry, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("experiment config: %w", err)
	}
	nd := cfg.NumDiff()
	if err := nd.Validate(); err != nil {
		return nil, err
	}
	return &Experiment{
		cfg:      cfg,
		registry: registry,
		verifier: verify.New(nd, verify.Tolerance{Modifier: cfg.Modifier}, logger),
		logger:   logger,
	}, nil
}

// Run verifies each scenario and returns the outcomes in scenario order.
// A scenario whose derivatives disagree is still reported; only failures
// to evaluate end the run.
func (e *Experiment) Run(ctx context.Context) ([]Outcome, error) {
	names := e.cfg.Scenarios
	if len(names) == 0 {
		names = e.registry.ListScenarios()
	}

	outcomes := make([]Outcome, len(names))
	errs := make([]error, len(names))
	run := func(i int) {
		outcomes[i], errs[i] = e.runScenario(ctx, names[i], scenarioSeed(e.cfg.Seed, names[i]))
	}

	if e.cfg.Workers < 2 {
		for i := range names {
			run(i)
			if errs[i] != nil {
				return outcomes[:i], errs[i]
			}
		}
		return outcomes, nil
	}

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i := range names {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			run(idx)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return outcomes[:i], err
		}
	}
	return outcomes, nil
}

func (e *Experiment) runScenario(ctx context.Context, name string, seed int64) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	s, err := e.registry.GetScenario(name, rand.New(rand.NewSource(seed)))
	if err != nil {
		return Outcome{}, err
	}

	var report *verify.Report
	if s.Differential != nil {
		report, err = e.verifier.Differential(s.Differential, s.X, s.U)
	} else {
		report, err = e.verifier.Action(s.Action, s.X, s.U)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("scenario %s: %w", name, err)
	}

	e.logger.Info("verified scenario",
		slog.String("scenario", name),
		slog.Bool("passed", report.Passed()),
		slog.Float64("threshold", report.Threshold))
	return Outcome{Scenario: name, Report: report}, nil
}

// Verifier exposes the configured verifier.
func (e *Experiment) Verifier() *verify.Verifier { return e.verifier }
