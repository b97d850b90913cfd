// Package bench times shooting-problem operations over many trials.
package bench

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/metrics"
	"github.com/san-kum/shootbench/internal/shooting"
	"github.com/san-kum/shootbench/internal/solver"
)

const DefaultTrials = 5000

const (
	OpSolve    = "Solver.Solve"
	OpCalc     = "ShootingProblem.Calc"
	OpCalcDiff = "ShootingProblem.CalcDiff"
)

// Result is the timing of one operation on one implementation. Times are
// in milliseconds.
type Result struct {
	Operation      string          `json:"operation"`
	Implementation string          `json:"implementation"`
	Trials         int             `json:"trials"`
	Avg            float64         `json:"avg_ms"`
	Min            float64         `json:"min_ms"`
	Max            float64         `json:"max_ms"`
	Durations      []time.Duration `json:"-"`
}

// Harness runs an operation a fixed number of times and times each call.
type Harness struct {
	Trials int
	// Now is the clock; it defaults to time.Now.
	Now    func() time.Time
	logger *slog.Logger
}

func NewHarness(trials int, logger *slog.Logger) (*Harness, error) {
	if trials < 1 {
		return nil, fmt.Errorf("bench: trial count must be at least 1, got %d", trials)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{Trials: trials, Now: time.Now, logger: logger}, nil
}

// Measure calls fn Trials times. Only the call itself is inside the timed
// region; the duration slice is allocated up front. The first error aborts
// the measurement.
func (h *Harness) Measure(op, impl string, fn func() error) (Result, error) {
	durations := make([]time.Duration, h.Trials)
	now := h.Now

	for i := range durations {
		start := now()
		err := fn()
		durations[i] = now().Sub(start)
		if err != nil {
			return Result{}, fmt.Errorf("%s %s trial %d: %w", impl, op, i, err)
		}
	}

	timing := metrics.NewTiming(op)
	for _, d := range durations {
		timing.Observe(d)
	}
	r := Result{
		Operation:      op,
		Implementation: impl,
		Trials:         timing.Samples(),
		Avg:            timing.Mean(),
		Min:            timing.Min(),
		Max:            timing.Max(),
		Durations:      durations,
	}
	h.logger.Debug("measured",
		slog.String("implementation", impl),
		slog.String("operation", op),
		slog.Int("trials", h.Trials),
		slog.Float64("avg_ms", r.Avg))
	return r, nil
}

// Case is one implementation of the benchmark problem.
type Case struct {
	Implementation string
	Problem        *shooting.Problem
	Solver         solver.Solver
	MaxIter        int
}

// NewCase builds the problem x0, N copies of model, and a terminal copy of
// model, solved by the gradient solver.
func NewCase(impl string, model dynamo.ActionModel, x0 dynamo.State, nodes, maxIter int) (*Case, error) {
	p, err := shooting.Repeat(x0, model, model, nodes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", impl, err)
	}
	return &Case{
		Implementation: impl,
		Problem:        p,
		Solver:         solver.NewGradient(p),
		MaxIter:        maxIter,
	}, nil
}

// RunCase times Solve, Calc and CalcDiff on one pre-allocated trajectory
// that every trial reuses.
func (h *Harness) RunCase(c *Case) ([]Result, error) {
	traj := c.Problem.NewTrajectory()
	xs, us := traj.Xs, traj.Us

	solve, err := h.Measure(OpSolve, c.Implementation, func() error {
		_, err := c.Solver.Solve(xs, us, c.MaxIter)
		return err
	})
	if err != nil {
		return nil, err
	}
	calc, err := h.Measure(OpCalc, c.Implementation, func() error {
		_, err := c.Problem.Calc(xs, us)
		return err
	})
	if err != nil {
		return nil, err
	}
	calcDiff, err := h.Measure(OpCalcDiff, c.Implementation, func() error {
		_, err := c.Problem.CalcDiff(xs, us)
		return err
	})
	if err != nil {
		return nil, err
	}

	effort := metrics.NewControlEffort()
	effort.ObserveAll(us)
	h.logger.Info("case finished",
		slog.String("implementation", c.Implementation),
		slog.Float64("control_effort", effort.Value()),
		slog.Float64("control_peak", effort.Peak()))

	return []Result{solve, calc, calcDiff}, nil
}

// IsSubprocessFailure reports whether err came from the reference binary.
func IsSubprocessFailure(err error) bool {
	return errors.Is(err, dynamo.ErrSubprocessFailure)
}
