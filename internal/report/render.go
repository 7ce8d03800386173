package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

var columns = []string{
	"file", "platform_node", "cpu_model", "logical_cpus",
	"mmt", "mx", "iterations", "md",
	"avg_s", "stddev_s", "throughput_MB_s",
}

// optCell renders an optional metric; absence is an empty cell, never
// a zero that could be mistaken for a measurement.
func optCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

func (r Row) cells() []string {
	return []string{
		r.File,
		r.Platform,
		r.CPUModel,
		strconv.Itoa(r.LogicalCPUs),
		strconv.Itoa(r.MMT),
		strconv.Itoa(r.MX),
		strconv.Itoa(r.Iterations),
		strconv.Itoa(r.MD),
		optCell(r.AvgS),
		optCell(r.StddevS),
		optCell(r.ThroughputMBs),
	}
}

func asAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

// WriteCSV emits the headers+delimited-rows form.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMarkdown emits the grid form as a markdown pipe table.
func WriteMarkdown(w io.Writer, rows []Row) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header(asAny(columns)...)
	for _, r := range rows {
		if err := table.Append(asAny(r.cells())...); err != nil {
			return fmt.Errorf("append markdown row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render markdown table: %w", err)
	}
	return nil
}

// PrintGrid renders a terminal summary table of the aggregate rows.
func PrintGrid(w io.Writer, rows []Row) error {
	table := tablewriter.NewWriter(w)
	table.Header("Platform", "CPU", "mx", "mmt", "md", "Iters", "Avg (s)", "Stddev (s)", "MB/s")
	gridCell := func(v *float64, format string) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf(format, *v)
	}
	for _, r := range rows {
		if err := table.Append(
			r.Platform,
			r.CPUModel,
			strconv.Itoa(r.MX),
			strconv.Itoa(r.MMT),
			strconv.Itoa(r.MD),
			strconv.Itoa(r.Iterations),
			gridCell(r.AvgS, "%.3f"),
			gridCell(r.StddevS, "%.3f"),
			gridCell(r.ThroughputMBs, "%.1f"),
		); err != nil {
			return fmt.Errorf("append grid row: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render grid: %w", err)
	}
	return nil
}
