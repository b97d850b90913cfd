package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/shootbench/internal/bench"
	"github.com/san-kum/shootbench/internal/verify"
)

var (
	dataDir      string
	benchDataDir string
	configFile   string
	preset       string
	save         bool

	scale       float64
	modifier    float64
	disturbance float64
	scheme      string
	seed        int64
	workers     int
	scales      []float64

	modelPath string
	specsFile string
	column    string
)

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// parseTrials reads the optional positional trial count.
func parseTrials(args []string, fallback int) (int, error) {
	if len(args) == 0 {
		return fallback, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid trial count %q: %w", args[0], err)
	}
	if n < 1 {
		return 0, fmt.Errorf("trial count must be at least 1, got %d", n)
	}
	return n, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "shootbench [trials]",
		Short:         "derivative verification and shooting benchmarks",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runDefault,
	}

	benchCmd := &cobra.Command{
		Use:   "bench [trials]",
		Short: "run the benchmark protocol from a config",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBench,
	}
	benchCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	benchCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	benchCmd.Flags().BoolVar(&save, "save", false, "save timings to the data directory")
	benchCmd.Flags().StringVar(&benchDataDir, "data", "", "data directory (overrides config)")

	referenceCmd := &cobra.Command{
		Use:   "reference [trials]",
		Short: "time the native implementation only",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReference,
	}

	verifyCmd := &cobra.Command{
		Use:   "verify [scenario...]",
		Short: "check analytic derivatives against finite differences",
		RunE:  runVerify,
	}
	verifyCmd.Flags().Float64Var(&scale, "scale", 10, "disturbance multiplier")
	verifyCmd.Flags().Float64Var(&modifier, "modifier", verify.DefaultModifier, "tolerance = modifier * disturbance")
	verifyCmd.Flags().Float64Var(&disturbance, "disturbance", 0, "base disturbance (0 = sqrt(2 eps))")
	verifyCmd.Flags().StringVar(&scheme, "scheme", "forward", "finite-difference scheme (forward, central)")
	verifyCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	verifyCmd.Flags().IntVar(&workers, "workers", 1, "scenarios verified concurrently")

	sweepCmd := &cobra.Command{
		Use:   "sweep [scenario...]",
		Short: "find the disturbance scale with the widest tolerance margin",
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64SliceVar(&scales, "scales", []float64{1, 10, 100, 1000}, "disturbance multipliers to try")
	sweepCmd.Flags().Float64Var(&modifier, "modifier", verify.DefaultModifier, "tolerance = modifier * disturbance")
	sweepCmd.Flags().StringVar(&scheme, "scheme", "forward", "finite-difference scheme (forward, central)")
	sweepCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	verifyCmd.AddCommand(sweepCmd)

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list verification scenarios",
		RunE:  listScenarios,
	}

	implementationsCmd := &cobra.Command{
		Use:   "implementations",
		Short: "list benchmark implementations",
		Args:  cobra.NoArgs,
		RunE:  listImplementations,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list benchmark presets",
		RunE:  listPresets,
	}

	rootCmd.AddCommand(benchCmd, referenceCmd, verifyCmd, scenariosCmd, implementationsCmd, presetsCmd, runsCommand(), robotsCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var se *bench.SubprocessError
		if errors.As(err, &se) && se.ExitCode > 0 {
			os.Exit(se.ExitCode)
		}
		os.Exit(1)
	}
}
