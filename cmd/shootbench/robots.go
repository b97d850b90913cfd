package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/shootbench/internal/robots"
	"github.com/san-kum/shootbench/internal/viz"
)

func robotsCommand() *cobra.Command {
	robotsCmd := &cobra.Command{
		Use:   "robots",
		Short: "robot description specs",
	}
	robotsCmd.PersistentFlags().StringVar(&specsFile, "specs", "", "extra robot specs (yaml)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list robot specs",
		Args:  cobra.NoArgs,
		RunE:  listRobots,
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve [name]",
		Short: "locate and load a robot description",
		Args:  cobra.ExactArgs(1),
		RunE:  resolveRobot,
	}
	resolveCmd.Flags().StringVar(&modelPath, "path", "", "model directory (skips the search path)")

	robotsCmd.AddCommand(listCmd, resolveCmd)
	return robotsCmd
}

func newLoader() (*robots.Loader, error) {
	l := robots.NewLoader(robots.URDFBuilder{}, robots.SRDFReader{}, newLogger(slog.LevelWarn))
	if specsFile == "" {
		return l, nil
	}
	specs, err := robots.LoadSpecs(specsFile)
	if err != nil {
		return nil, err
	}
	return l, l.Register(specs...)
}

func listRobots(cmd *cobra.Command, args []string) error {
	l, err := newLoader()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tFAMILY\tFREE_FLYER\tURDF")
	for _, name := range l.List() {
		s, err := l.Spec(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", s.Name, s.Family, s.FreeFlyer, s.URDF)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println(viz.Subtle.Render("search path: " + strings.Join(robots.SearchDirs(), string(os.PathListSeparator))))
	return nil
}

func resolveRobot(cmd *cobra.Command, args []string) error {
	l, err := newLoader()
	if err != nil {
		return err
	}
	r, err := l.Load(args[0], modelPath)
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(r.Spec.Name))
	fmt.Printf("  %s %s\n", viz.MetricLabel.Render("dir:"), r.Dir)
	fmt.Printf("  %s %d  %s %d  %s %d\n",
		viz.MetricLabel.Render("joints:"), len(r.Model.Joints),
		viz.MetricLabel.Render("nq:"), r.Model.NQ(),
		viz.MetricLabel.Render("nv:"), r.Model.NV())

	refs := make([]string, 0, len(r.Model.References))
	for name := range r.Model.References {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	fmt.Printf("  %s %s\n", viz.MetricLabel.Render("references:"), strings.Join(refs, ", "))
	fmt.Printf("  %s %v\n", viz.MetricLabel.Render("q0:"), r.Q0)
	return nil
}
