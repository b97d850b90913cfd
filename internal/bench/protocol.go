package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/viz"
)

const (
	DefaultNodes   = 200
	DefaultMaxIter = 1
)

// DefaultX0 is the unicycle start state.
var DefaultX0 = dynamo.State{1, 0, 0}

// Implementation is one interchangeable model of the benchmark problem.
type Implementation struct {
	Name  string
	Label string
	Model dynamo.ActionModel
}

// Protocol runs the reference binary, then every implementation in order,
// printing timings as it goes.
type Protocol struct {
	Harness   *Harness
	Reference *Reference
	Nodes     int
	MaxIter   int
	X0        dynamo.State
	Out       io.Writer
	logger    *slog.Logger
}

func NewProtocol(h *Harness, ref *Reference, out io.Writer, logger *slog.Logger) *Protocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &Protocol{
		Harness:   h,
		Reference: ref,
		Nodes:     DefaultNodes,
		MaxIter:   DefaultMaxIter,
		X0:        DefaultX0.Clone(),
		Out:       out,
		logger:    logger,
	}
}

// Run returns the results of every implementation. A failing reference run
// returns its *SubprocessError before any timing is printed.
func (p *Protocol) Run(ctx context.Context, impls []Implementation) ([]Result, error) {
	if p.Reference != nil {
		fmt.Fprintln(p.Out, viz.Title.Render("Reference:"))
		if err := p.Reference.Run(ctx, p.Harness.Trials); err != nil {
			return nil, err
		}
	} else {
		p.logger.Debug("no reference binary, skipping")
	}

	var results []Result
	for _, impl := range impls {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		c, err := NewCase(impl.Name, impl.Model, p.X0, p.Nodes, p.MaxIter)
		if err != nil {
			return results, err
		}
		caseResults, err := p.Harness.RunCase(c)
		if err != nil {
			return results, err
		}

		fmt.Fprintln(p.Out, viz.Section.Render(impl.Label+":"))
		for _, r := range caseResults {
			fmt.Fprintln(p.Out, viz.TimingLine(r.Operation, r.Avg, r.Min, r.Max))
		}
		results = append(results, caseResults...)
	}
	return results, nil
}
