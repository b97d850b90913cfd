// Package verify checks analytic model derivatives against their
// finite-difference estimates.
package verify

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/numdiff"
)

const (
	// DefaultModifier scales the disturbance into the comparison threshold.
	DefaultModifier = 1e4

	// MaxViolations bounds how many mismatches a report keeps per matrix.
	MaxViolations = 16
)

type Tolerance struct {
	Modifier float64
}

func DefaultTolerance() Tolerance {
	return Tolerance{Modifier: DefaultModifier}
}

// Threshold is the largest accepted element-wise difference for a given
// disturbance.
func (t Tolerance) Threshold(eps float64) float64 {
	return t.Modifier * eps
}

type Mismatch struct {
	Row, Col int
	Analytic float64
	Numeric  float64
	Delta    float64
}

type MatrixReport struct {
	Name       string
	Rows, Cols int
	MaxDelta   float64
	Threshold  float64
	// Count is the number of out-of-tolerance entries; only the first
	// MaxViolations are kept in Violations.
	Count      int
	Violations []Mismatch
}

func (r MatrixReport) Passed() bool { return r.Count == 0 }

// CompareMatrix compares two matrices of the same shape entry by entry.
// NaN entries always count as violations.
func CompareMatrix(name string, analytic, numeric *dynamo.Matrix, threshold float64) (MatrixReport, error) {
	if !analytic.SameShape(numeric) {
		return MatrixReport{}, fmt.Errorf("%w: %s is %dx%d analytically but %dx%d numerically",
			dynamo.ErrInvalidDimension, name, analytic.Rows, analytic.Cols, numeric.Rows, numeric.Cols)
	}

	r := MatrixReport{Name: name, Rows: analytic.Rows, Cols: analytic.Cols, Threshold: threshold}
	for i := 0; i < analytic.Rows; i++ {
		for j := 0; j < analytic.Cols; j++ {
			a, n := analytic.At(i, j), numeric.At(i, j)
			delta := math.Abs(a - n)
			if math.IsNaN(delta) {
				delta = math.Inf(1)
			}
			if delta > r.MaxDelta {
				r.MaxDelta = delta
			}
			if delta <= threshold {
				continue
			}
			r.Count++
			if len(r.Violations) < MaxViolations {
				r.Violations = append(r.Violations, Mismatch{Row: i, Col: j, Analytic: a, Numeric: n, Delta: delta})
			}
		}
	}
	return r, nil
}

// Report holds the comparison of Fx, Fu, Lx and Lu, in that order.
type Report struct {
	Disturbance float64
	Threshold   float64
	Matrices    []MatrixReport
}

func (r *Report) Passed() bool {
	for _, m := range r.Matrices {
		if !m.Passed() {
			return false
		}
	}
	return true
}

// Err returns a *ToleranceError for the first failing matrix, or nil.
func (r *Report) Err() error {
	for _, m := range r.Matrices {
		if !m.Passed() {
			return &ToleranceError{Report: r, Matrix: m.Name, First: m.Violations[0], Count: m.Count}
		}
	}
	return nil
}

// Compare checks every derivative matrix against the same threshold.
func Compare(analytic, numeric *dynamo.Derivatives, threshold float64) (*Report, error) {
	am, nm := analytic.Matrices(), numeric.Matrices()
	report := &Report{Threshold: threshold, Matrices: make([]MatrixReport, 0, len(am))}
	for i := range am {
		mr, err := CompareMatrix(am[i].Name, am[i].Matrix, nm[i].Matrix, threshold)
		if err != nil {
			return nil, err
		}
		report.Matrices = append(report.Matrices, mr)
	}
	return report, nil
}

type ToleranceError struct {
	Report *Report
	Matrix string
	First  Mismatch
	Count  int
}

func (e *ToleranceError) Error() string {
	return fmt.Sprintf("%s: %s[%d,%d] analytic=%g numeric=%g delta=%g > %g (%d entries)",
		dynamo.ErrToleranceExceeded, e.Matrix, e.First.Row, e.First.Col,
		e.First.Analytic, e.First.Numeric, e.First.Delta, e.Report.Threshold, e.Count)
}

func (e *ToleranceError) Unwrap() error { return dynamo.ErrToleranceExceeded }

// Verifier runs a model and its finite-difference wrapper at the same point
// and compares their derivatives.
type Verifier struct {
	Config    numdiff.Config
	Tolerance Tolerance
	logger    *slog.Logger
}

func New(cfg numdiff.Config, tol Tolerance, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{Config: cfg, Tolerance: tol, logger: logger}
}

// Action verifies an action model at (x, u). The returned error is non-nil
// only when the check could not be carried out; a failed comparison is
// reported through Report.Err.
func (v *Verifier) Action(model dynamo.ActionModel, x dynamo.State, u dynamo.Control) (*Report, error) {
	nd, err := numdiff.NewAction(model, v.Config)
	if err != nil {
		return nil, err
	}
	d, dn := model.CreateData(), nd.CreateData()

	if err := model.Calc(d, x, u); err != nil {
		return nil, fmt.Errorf("calc: %w", err)
	}
	if err := model.CalcDiff(d, x, u); err != nil {
		return nil, fmt.Errorf("calc diff: %w", err)
	}
	if err := nd.Calc(dn, x, u); err != nil {
		return nil, fmt.Errorf("numdiff calc: %w", err)
	}
	if err := nd.CalcDiff(dn, x, u); err != nil {
		return nil, fmt.Errorf("numdiff calc diff: %w", err)
	}
	return v.compare(&d.Derivatives, &dn.Derivatives)
}

// Differential verifies a differential model at (x, u).
func (v *Verifier) Differential(model dynamo.DifferentialModel, x dynamo.State, u dynamo.Control) (*Report, error) {
	nd, err := numdiff.NewDifferential(model, v.Config)
	if err != nil {
		return nil, err
	}
	d, dn := model.CreateData(), nd.CreateData()

	if err := model.Calc(d, x, u); err != nil {
		return nil, fmt.Errorf("calc: %w", err)
	}
	if err := model.CalcDiff(d, x, u); err != nil {
		return nil, fmt.Errorf("calc diff: %w", err)
	}
	if err := nd.Calc(dn, x, u); err != nil {
		return nil, fmt.Errorf("numdiff calc: %w", err)
	}
	if err := nd.CalcDiff(dn, x, u); err != nil {
		return nil, fmt.Errorf("numdiff calc diff: %w", err)
	}
	return v.compare(&d.Derivatives, &dn.Derivatives)
}

func (v *Verifier) compare(analytic, numeric *dynamo.Derivatives) (*Report, error) {
	threshold := v.Tolerance.Threshold(v.Config.Disturbance)
	report, err := Compare(analytic, numeric, threshold)
	if err != nil {
		return nil, err
	}
	report.Disturbance = v.Config.Disturbance

	for _, m := range report.Matrices {
		v.logger.Debug("compared derivatives",
			"matrix", m.Name,
			"rows", m.Rows,
			"cols", m.Cols,
			"max_delta", m.MaxDelta,
			"threshold", threshold,
			"violations", m.Count)
	}
	return report, nil
}
