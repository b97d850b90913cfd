package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/shootbench/internal/config"
	"github.com/san-kum/shootbench/internal/storage"
	"github.com/san-kum/shootbench/internal/tui"
	"github.com/san-kum/shootbench/internal/viz"
)

func runsCommand() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "inspect saved benchmark runs",
	}
	runsCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run timings",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot per-trial durations",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&column, "column", "", "only plot columns containing this text")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Export(os.Stdout, args[0])
		},
	}

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "browse runs interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunBrowser(storage.New(dataDir))
		},
	}

	runsCmd.AddCommand(listCmd, showCmd, plotCmd, exportCmd, browseCmd)
	return runsCmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tTRIALS\tNODES\tMAX_ITER\tIMPLS")

	for _, run := range runs {
		var impls []string
		for _, r := range run.Results {
			if len(impls) == 0 || impls[len(impls)-1] != r.Implementation {
				impls = append(impls, r.Implementation)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Trials,
			run.Nodes,
			run.MaxIter,
			strings.Join(impls, ","),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	d, err := st.LoadDurations(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render("run " + meta.ID))
	fmt.Println(viz.Subtle.Render(fmt.Sprintf("%s, %d trials, %d nodes, max_iter %d",
		meta.Timestamp.Format("2006-01-02 15:04:05"), meta.Trials, meta.Nodes, meta.MaxIter)))

	impl := ""
	for _, r := range meta.Results {
		if r.Implementation != impl {
			impl = r.Implementation
			fmt.Println(viz.Section.Render(impl + ":"))
		}
		fmt.Println(viz.TimingLine(r.Operation, r.Avg, r.Min, r.Max))
		fmt.Println("    " + viz.Sparkline(d.Values[storage.Column(r)], 60))
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	d, err := st.LoadDurations(args[0])
	if err != nil {
		return err
	}

	plotted := 0
	for _, col := range d.Columns {
		if column != "" && !strings.Contains(col, column) {
			continue
		}
		data := d.Values[col]
		if len(data) == 0 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col+" [ms] per trial"),
		)
		fmt.Println(graph)
		fmt.Println()
		plotted++
	}

	if plotted == 0 {
		return fmt.Errorf("no data to plot")
	}
	return nil
}
