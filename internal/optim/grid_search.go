package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/shootbench/internal/experiment"
)

// Margin is the worst ratio of max delta to threshold over every matrix
// of every outcome. Below 1 every check passed.
func Margin(outcomes []experiment.Outcome) float64 {
	worst := 0.0
	for _, o := range outcomes {
		for _, m := range o.Report.Matrices {
			if m.Threshold == 0 {
				if m.MaxDelta > 0 {
					return math.Inf(1)
				}
				continue
			}
			worst = max(worst, m.MaxDelta/m.Threshold)
		}
	}
	return worst
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Margin float64
}

// GridSearch tries every combination of parameter values and keeps the
// one with the smallest Margin.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d parameters but %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: empty range for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search returns the best point and every evaluated point in grid order.
// An experiment that fails to build or run ends the search.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
) (Point, []Point, error) {
	best := Point{Margin: math.Inf(1)}
	var points []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, &best, &points)
	if err != nil {
		return Point{}, points, err
	}
	return best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	best *Point,
	points *[]Point,
) error {
	if depth == len(g.paramNames) {
		exp, err := buildExperiment(current)
		if err != nil {
			return fmt.Errorf("optim: build %v: %w", current, err)
		}

		outcomes, err := exp.Run(ctx)
		if err != nil {
			return fmt.Errorf("optim: run %v: %w", current, err)
		}

		p := Point{Params: current, Margin: Margin(outcomes)}
		*points = append(*points, p)
		if p.Margin < best.Margin {
			*best = p
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, best, points); err != nil {
			return err
		}
	}
	return nil
}
