package dynamo

import (
	"fmt"
	"math/rand"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

type Control []float64

func (u Control) Clone() Control {
	c := make(Control, len(u))
	copy(c, u)
	return c
}

// Manifold describes the space a state lives in. Perturbations and
// differences are taken in the tangent space, which has Ndx dimensions.
type Manifold interface {
	Nx() int
	Ndx() int
	Zero() State
	Rand(rng *rand.Rand) State
	// Integrate writes x (+) dx into out.
	Integrate(x State, dx []float64, out State)
	// Diff writes x1 (-) x0 into out.
	Diff(x0, x1 State, out []float64)
}

// Euclidean is the flat vector space R^N.
type Euclidean struct {
	N int
}

func NewEuclidean(n int) Euclidean { return Euclidean{N: n} }

func (e Euclidean) Nx() int  { return e.N }
func (e Euclidean) Ndx() int { return e.N }

func (e Euclidean) Zero() State { return make(State, e.N) }

func (e Euclidean) Rand(rng *rand.Rand) State {
	x := make(State, e.N)
	for i := range x {
		x[i] = 2*rng.Float64() - 1
	}
	return x
}

func (e Euclidean) Integrate(x State, dx []float64, out State) {
	for i := 0; i < e.N; i++ {
		out[i] = x[i] + dx[i]
	}
}

func (e Euclidean) Diff(x0, x1 State, out []float64) {
	for i := 0; i < e.N; i++ {
		out[i] = x1[i] - x0[i]
	}
}

// Derivatives is the bundle produced by CalcDiff. It is overwritten on
// every call and never carries information from one call to the next.
type Derivatives struct {
	Fx *Matrix
	Fu *Matrix
	Lx []float64
	Lu []float64
}

func NewDerivatives(nout, ndx, nu int) Derivatives {
	return Derivatives{
		Fx: NewMatrix(nout, ndx),
		Fu: NewMatrix(nout, nu),
		Lx: make([]float64, ndx),
		Lu: make([]float64, nu),
	}
}

// Zero clears every entry of the bundle.
func (d *Derivatives) Zero() {
	d.Fx.Zero()
	d.Fu.Zero()
	clear(d.Lx)
	clear(d.Lu)
}

// NamedMatrix pairs a derivative block with the name used in reports.
type NamedMatrix struct {
	Name   string
	Matrix *Matrix
}

// Matrices returns Fx, Fu, Lx and Lu in that order. The gradients are
// exposed as single-column matrices.
func (d *Derivatives) Matrices() []NamedMatrix {
	return []NamedMatrix{
		{Name: "Fx", Matrix: d.Fx},
		{Name: "Fu", Matrix: d.Fu},
		{Name: "Lx", Matrix: ColVector(d.Lx)},
		{Name: "Lu", Matrix: ColVector(d.Lu)},
	}
}

// ActionModel is a discrete-time dynamics and cost model:
// (x, u) -> (x', l(x, u)).
type ActionModel interface {
	State() Manifold
	ControlDim() int
	CreateData() *ActionData
	Calc(d *ActionData, x State, u Control) error
	CalcDiff(d *ActionData, x State, u Control) error
}

type ActionData struct {
	Xnext State
	Cost  float64
	Derivatives
	// Scratch holds model-specific buffers.
	Scratch any
}

func NewActionData(state Manifold, nu int) *ActionData {
	return &ActionData{
		Xnext:       state.Zero(),
		Derivatives: NewDerivatives(state.Ndx(), state.Ndx(), nu),
	}
}

// DifferentialModel is a continuous-time model whose output is the
// generalized acceleration. Fx has one row per velocity dimension.
type DifferentialModel interface {
	State() Manifold
	ControlDim() int
	OutputDim() int
	CreateData() *DifferentialData
	Calc(d *DifferentialData, x State, u Control) error
	CalcDiff(d *DifferentialData, x State, u Control) error
}

type DifferentialData struct {
	Xout  []float64
	Cost  float64
	Derivatives
	Scratch any
}

func NewDifferentialData(state Manifold, nout, nu int) *DifferentialData {
	return &DifferentialData{
		Xout:        make([]float64, nout),
		Derivatives: NewDerivatives(nout, state.Ndx(), nu),
	}
}

// CheckDims validates x and u against the dimensions a model expects.
func CheckDims(state Manifold, nu int, x State, u Control) error {
	if len(x) != state.Nx() {
		return &DimensionError{What: "state", Got: len(x), Want: state.Nx()}
	}
	if len(u) != nu {
		return &DimensionError{What: "control", Got: len(u), Want: nu}
	}
	return nil
}

func (d *DimensionError) Error() string {
	return fmt.Sprintf("%s: %s has %d entries, want %d", ErrInvalidDimension, d.What, d.Got, d.Want)
}
