package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/shootbench/internal/bench"
	"github.com/san-kum/shootbench/internal/config"
	"github.com/san-kum/shootbench/internal/dynamo"
	"github.com/san-kum/shootbench/internal/experiment"
	"github.com/san-kum/shootbench/internal/storage"
	"github.com/san-kum/shootbench/internal/viz"
)

func runDefault(cmd *cobra.Command, args []string) error {
	trials, err := parseTrials(args, bench.DefaultTrials)
	if err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	cfg.Trials = trials
	_, err = runProtocol(cmd.Context(), cfg, newLogger(slog.LevelWarn))
	return err
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	trials, err := parseTrials(args, cfg.Trials)
	if err != nil {
		return err
	}
	cfg.Trials = trials
	if benchDataDir != "" {
		cfg.DataDir = benchDataDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Level())
	results, err := runProtocol(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}

	if !save {
		return nil
	}
	st := storage.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg.Trials, cfg.Nodes, cfg.MaxIter, results)
	if err != nil {
		return err
	}
	fmt.Println(viz.Subtle.Render("saved run: " + runID))
	return nil
}

func runReference(cmd *cobra.Command, args []string) error {
	trials, err := parseTrials(args, bench.DefaultTrials)
	if err != nil {
		return err
	}
	cfg := config.DefaultConfig()
	cfg.Trials = trials
	cfg.Implementations = []string{"native"}
	cfg.Reference.Command = nil

	logger := newLogger(slog.LevelWarn)
	h, err := bench.NewHarness(cfg.Trials, logger)
	if err != nil {
		return err
	}
	impls, err := implementations(cfg)
	if err != nil {
		return err
	}
	p := newProtocol(h, nil, cfg, logger)
	_, err = p.Run(cmd.Context(), impls)
	return err
}

func implementations(cfg *config.Config) ([]bench.Implementation, error) {
	registry := experiment.NewRegistry()
	impls := make([]bench.Implementation, 0, len(cfg.Implementations))
	for _, name := range cfg.Implementations {
		impl, err := registry.GetImplementation(name)
		if err != nil {
			return nil, err
		}
		impls = append(impls, impl)
	}
	return impls, nil
}

func newProtocol(h *bench.Harness, ref *bench.Reference, cfg *config.Config, logger *slog.Logger) *bench.Protocol {
	p := bench.NewProtocol(h, ref, os.Stdout, logger)
	p.Nodes = cfg.Nodes
	p.MaxIter = cfg.MaxIter
	p.X0 = dynamo.State(cfg.X0).Clone()
	return p
}

func runProtocol(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]bench.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	h, err := bench.NewHarness(cfg.Trials, logger)
	if err != nil {
		return nil, err
	}
	impls, err := implementations(cfg)
	if err != nil {
		return nil, err
	}

	command := cfg.Reference.Command
	if len(command) == 0 {
		command = bench.FindReference()
	}
	var ref *bench.Reference
	if len(command) > 0 {
		ref = bench.NewReference(command, os.Stdout, os.Stderr, logger)
	}

	return newProtocol(h, ref, cfg, logger).Run(ctx, impls)
}

func listPresets(cmd *cobra.Command, args []string) error {
	fmt.Println("presets:")
	for _, p := range config.ListPresets() {
		fmt.Printf("  %s\n", p)
	}
	return nil
}
