package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/szbench/szbench/internal/bench"
)

var runFlags struct {
	mx         int
	mmt        int
	md         int
	iterations int
	cooldown   time.Duration
	timeout    time.Duration
	outDir     string
	tool       string
	keepRaw    bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one benchmark configuration and write its artifact",
	Long: `Run invokes the external tool once per iteration with the given
compression level (--mx), thread count (--mmt) and dictionary size
(--md), and writes one JSON artifact for the configuration.

Individual failed iterations are recorded and do not fail the command;
only setup problems (tool not found, output directory not writable)
exit non-zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		defaults, err := bench.LoadDefaults(cwd)
		if err != nil {
			return err
		}

		cfg := bench.Config{
			MX:         runFlags.mx,
			MMT:        runFlags.mmt,
			MD:         runFlags.md,
			Iterations: bench.ResolveIterations(runFlags.iterations, defaults),
			Cooldown:   runFlags.cooldown,
			Timeout:    runFlags.timeout,
			OutDir:     runFlags.outDir,
			Tool:       runFlags.tool,
			KeepRaw:    runFlags.keepRaw,
		}
		if cfg.Tool == "" {
			cfg.Tool = defaults.Tool
		}
		if !cmd.Flags().Changed("cooldown") && defaults.CooldownS > 0 {
			cfg.Cooldown = time.Duration(defaults.CooldownS * float64(time.Second))
		}
		if !cmd.Flags().Changed("outdir") && defaults.OutDir != "" {
			cfg.OutDir = defaults.OutDir
		}

		runner, err := bench.NewRunner(cfg, slog.Default())
		if err != nil {
			return err
		}
		result, path, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		bench.PrintSummary(result, path)
		return nil
	},
}

func init() {
	f := runCmd.Flags()
	f.IntVar(&runFlags.mx, "mx", 5, "compression level (1, 5, 9, ...)")
	f.IntVar(&runFlags.mmt, "mmt", 1, "thread count")
	f.IntVar(&runFlags.md, "md", 26, "dictionary size as log2 (e.g. 26 for 64 MiB)")
	f.IntVar(&runFlags.iterations, "iterations", 0, "iterations per configuration (0 = env, then szbench.yaml, then 1)")
	f.DurationVar(&runFlags.cooldown, "cooldown", 500*time.Millisecond, "minimum delay between iterations")
	f.DurationVar(&runFlags.timeout, "timeout", 0, "per-iteration timeout (0 = none)")
	f.StringVar(&runFlags.outDir, "outdir", "results", "output directory for artifacts and raw logs")
	f.StringVar(&runFlags.tool, "tool", "", "benchmark tool binary (default \"7z\" on PATH)")
	f.BoolVar(&runFlags.keepRaw, "keep-raw", false, "also inline raw output in the artifact (can be large)")
}
