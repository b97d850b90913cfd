package costs

import (
	"fmt"
	"math"

	"github.com/san-kum/shootbench/internal/dynamo"
)

type Activation interface {
	Calc(r []float64) float64
	// CalcDiff writes da/dr into grad.
	CalcDiff(r, grad []float64)
}

// Quad is 0.5 |r|^2.
type Quad struct{}

func (Quad) Calc(r []float64) float64 {
	sum := 0.0
	for _, v := range r {
		sum += v * v
	}
	return 0.5 * sum
}

func (Quad) CalcDiff(r, grad []float64) {
	copy(grad, r)
}

// WeightedQuad is 0.5 sum w_i r_i^2.
type WeightedQuad struct {
	Weights []float64
}

func (a WeightedQuad) Calc(r []float64) float64 {
	sum := 0.0
	for i, v := range r {
		sum += a.Weights[i] * v * v
	}
	return 0.5 * sum
}

func (a WeightedQuad) CalcDiff(r, grad []float64) {
	for i, v := range r {
		grad[i] = a.Weights[i] * v
	}
}

// QuadraticBarrier is zero inside [Lower, Upper] and grows quadratically
// outside. Infinite bounds switch the corresponding side off.
type QuadraticBarrier struct {
	Lower []float64
	Upper []float64
}

func NewQuadraticBarrier(lower, upper []float64) (*QuadraticBarrier, error) {
	if len(lower) != len(upper) {
		return nil, &dynamo.DimensionError{What: "barrier upper bound", Got: len(upper), Want: len(lower)}
	}
	for i := range lower {
		if lower[i] > upper[i] {
			return nil, fmt.Errorf("costs: barrier bound %d is empty: [%g, %g]", i, lower[i], upper[i])
		}
	}
	return &QuadraticBarrier{Lower: lower, Upper: upper}, nil
}

func (a *QuadraticBarrier) Calc(r []float64) float64 {
	sum := 0.0
	for i, v := range r {
		above, below := a.excess(i, v)
		sum += above*above + below*below
	}
	return 0.5 * sum
}

func (a *QuadraticBarrier) CalcDiff(r, grad []float64) {
	for i, v := range r {
		above, below := a.excess(i, v)
		grad[i] = above + below
	}
}

func (a *QuadraticBarrier) excess(i int, v float64) (above, below float64) {
	return math.Max(v-a.Upper[i], 0), math.Min(v-a.Lower[i], 0)
}
