package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/szbench/szbench/internal/report"
)

var aggFlags struct {
	resultsDir string
	outMD      string
	outCSV     string
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Combine run artifacts into CSV and markdown reports",
	Long: `Aggregate scans the results directory recursively for artifacts
(skipping raw/ capture directories), computes per-configuration
statistics, and writes a CSV and a markdown table. Artifacts that fail
to load are skipped with a warning.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := report.Discover(aggFlags.resultsDir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", aggFlags.resultsDir, err)
		}
		if len(files) == 0 {
			fmt.Printf("No result artifacts found in %s\n", aggFlags.resultsDir)
			return nil
		}

		rows := report.Aggregate(report.Load(files, slog.Default()))

		if err := writeReport(aggFlags.outCSV, rows, report.WriteCSV); err != nil {
			return err
		}
		if err := writeReport(aggFlags.outMD, rows, report.WriteMarkdown); err != nil {
			return err
		}

		if err := report.PrintGrid(os.Stdout, rows); err != nil {
			return err
		}
		fmt.Printf("Wrote %s and %s (%d rows)\n", aggFlags.outMD, aggFlags.outCSV, len(rows))
		return nil
	},
}

func writeReport(path string, rows []report.Row, render func(w io.Writer, rows []report.Row) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report %s: %w", path, err)
	}
	defer f.Close()
	if err := render(f, rows); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return nil
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggFlags.resultsDir, "results-dir", "results", "directory to scan for artifacts")
	f.StringVar(&aggFlags.outMD, "out-md", "results/aggregate.md", "output markdown file")
	f.StringVar(&aggFlags.outCSV, "out-csv", "results/aggregate.csv", "output CSV file")
}
