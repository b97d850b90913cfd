package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/experiment"
	"github.com/san-kum/shootbench/internal/numdiff"
	"github.com/san-kum/shootbench/internal/optim"
	"github.com/san-kum/shootbench/internal/viz"
)

// shownViolations limits the mismatches printed per matrix.
const shownViolations = 3

func runVerify(cmd *cobra.Command, args []string) error {
	sch, err := numdiff.ParseScheme(scheme)
	if err != nil {
		return err
	}
	cfg := experiment.Config{
		Scenarios:   args,
		Disturbance: disturbance,
		Scale:       scale,
		Modifier:    modifier,
		Scheme:      sch,
		Seed:        seed,
		Workers:     workers,
	}

	logger := newLogger(slog.LevelWarn)
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}
	nd := exp.Verifier().Config
	fmt.Println(viz.Title.Render("Derivative check"))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("scheme %s, disturbance %.3g, threshold %.3g",
		nd.Scheme, nd.Disturbance, exp.Verifier().Tolerance.Threshold(nd.Disturbance))))

	outcomes, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		printReport(o)
		if !o.Report.Passed() {
			failed++
		}
	}
	fmt.Println(viz.Separator(40))
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d scenarios", dynamo.ErrToleranceExceeded, failed, len(outcomes))
	}
	fmt.Println(viz.Pass.Render(fmt.Sprintf("%d scenarios passed", len(outcomes))))
	return nil
}

func printReport(o experiment.Outcome) {
	fmt.Printf("%s %s\n", viz.Section.Render(o.Scenario), viz.Verdict(o.Report.Passed()))
	for _, m := range o.Report.Matrices {
		fmt.Printf("  %s %s  %s\n",
			viz.MetricLabel.Render(fmt.Sprintf("%-2s %3dx%-3d", m.Name, m.Rows, m.Cols)),
			viz.MetricValue.Render(fmt.Sprintf("max delta %.3e", m.MaxDelta)),
			viz.Verdict(m.Passed()))
		for i, v := range m.Violations {
			if i == shownViolations {
				fmt.Printf("    ... %d more\n", m.Count-shownViolations)
				break
			}
			fmt.Printf("    [%d,%d] analytic %.6g numeric %.6g\n", v.Row, v.Col, v.Analytic, v.Numeric)
		}
	}
}

func listScenarios(cmd *cobra.Command, args []string) error {
	fmt.Println("scenarios:")
	for _, name := range experiment.NewRegistry().ListScenarios() {
		fmt.Printf("  %s\n", name)
	}
	return nil
}

func listImplementations(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLABEL\tNX\tNU")
	for _, name := range reg.ListImplementations() {
		impl, err := reg.GetImplementation(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\n", impl.Name, impl.Label, impl.Model.State().Nx(), impl.Model.ControlDim())
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	sch, err := numdiff.ParseScheme(scheme)
	if err != nil {
		return err
	}
	g, err := optim.NewGridSearch([]string{"scale"}, [][]float64{scales})
	if err != nil {
		return err
	}

	logger := newLogger(slog.LevelWarn)
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(experiment.Config{
			Scenarios: args,
			Scale:     params["scale"],
			Modifier:  modifier,
			Scheme:    sch,
			Seed:      seed,
		}, experiment.NewRegistry(), logger)
	}

	best, points, err := g.Search(cmd.Context(), build)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("Disturbance sweep"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCALE\tDISTURBANCE\tMARGIN\tRESULT")
	for _, p := range points {
		s := p.Params["scale"]
		fmt.Fprintf(w, "%g\t%.3e\t%.3g\t%s\n", s, numdiff.DefaultDisturbance*s, p.Margin, viz.Verdict(p.Margin <= 1))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(viz.MetricLabel.Render("best scale:"), viz.MetricValue.Render(fmt.Sprintf("%g", best.Params["scale"])))
	return nil
}
