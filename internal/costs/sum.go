package costs

import (
	"fmt"

	"github.com/san-kum/shootbench/internal/dynamo"
)

type Item struct {
	Name       string
	Residual   Residual
	Activation Activation
	Weight     float64
}

// Sum is a weighted sum of activated residuals over a state tangent of
// size Ndx and Nu controls.
type Sum struct {
	Ndx, Nu int
	items   []Item
}

func NewSum(ndx, nu int) *Sum {
	return &Sum{Ndx: ndx, Nu: nu}
}

// Add appends a cost term. A nil activation means Quad.
func (s *Sum) Add(name string, res Residual, act Activation, weight float64) error {
	for _, it := range s.items {
		if it.Name == name {
			return fmt.Errorf("costs: duplicate cost %q", name)
		}
	}
	if act == nil {
		act = Quad{}
	}
	s.items = append(s.items, Item{Name: name, Residual: res, Activation: act, Weight: weight})
	return nil
}

type itemData struct {
	r, grad []float64
	rx, ru  *dynamo.Matrix
	tx, tu  []float64
}

type SumData struct {
	// Costs holds the unweighted value of each term from the last Calc.
	Costs []float64
	items []itemData
}

func (s *Sum) CreateData() *SumData {
	d := &SumData{Costs: make([]float64, len(s.items)), items: make([]itemData, len(s.items))}
	for i, it := range s.items {
		n := it.Residual.Dim()
		d.items[i] = itemData{
			r:    make([]float64, n),
			grad: make([]float64, n),
			rx:   dynamo.NewMatrix(n, s.Ndx),
			ru:   dynamo.NewMatrix(n, s.Nu),
			tx:   make([]float64, s.Ndx),
			tu:   make([]float64, s.Nu),
		}
	}
	return d
}

func (s *Sum) Calc(d *SumData, ctx *Context) (float64, error) {
	total := 0.0
	for i, it := range s.items {
		id := &d.items[i]
		if err := it.Residual.Calc(ctx, id.r); err != nil {
			return 0, fmt.Errorf("cost %s: %w", it.Name, err)
		}
		d.Costs[i] = it.Activation.Calc(id.r)
		total += it.Weight * d.Costs[i]
	}
	return total, nil
}

// CalcDiff overwrites lx and lu with the cost gradient. It re-evaluates the
// residuals so it does not depend on a preceding Calc.
func (s *Sum) CalcDiff(d *SumData, ctx *Context, lx, lu []float64) error {
	clear(lx)
	clear(lu)
	for i, it := range s.items {
		id := &d.items[i]
		if err := it.Residual.Calc(ctx, id.r); err != nil {
			return fmt.Errorf("cost %s: %w", it.Name, err)
		}
		id.rx.Zero()
		id.ru.Zero()
		if err := it.Residual.CalcDiff(ctx, id.rx, id.ru); err != nil {
			return fmt.Errorf("cost %s: %w", it.Name, err)
		}
		it.Activation.CalcDiff(id.r, id.grad)

		id.rx.MulTVec(id.grad, id.tx)
		for k := range lx {
			lx[k] += it.Weight * id.tx[k]
		}
		id.ru.MulTVec(id.grad, id.tu)
		for k := range lu {
			lu[k] += it.Weight * id.tu[k]
		}
	}
	return nil
}
