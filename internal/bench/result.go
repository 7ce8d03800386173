package bench

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/szbench/szbench/internal/sevenzip"
	"github.com/szbench/szbench/internal/stats"
)

// Platform identifies where a configuration ran. The aggregator copies
// these fields into report rows but never interprets them.
type Platform struct {
	CollectedAt string `json:"collected_at"`
	Hostname    string `json:"hostname"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
	CPUModel    string `json:"cpu_model,omitempty"`
	LogicalCPUs int    `json:"logical_cpus"`
	RAMMB       *int64 `json:"ram_mb,omitempty"`
}

// ToolInfo records how the external tool was invoked.
type ToolInfo struct {
	Cmdline string `json:"cmdline"`
}

// Params are the configuration parameters of one artifact.
type Params struct {
	MX         int `json:"mx"`
	MMT        int `json:"mmt"`
	MD         int `json:"md"`
	Iterations int `json:"iterations"`
}

// Sample is the outcome of a single invocation. Optional fields are
// pointers: nil means the value was never measured, not that it was
// zero. A Sample is never mutated after it is appended to a Result.
type Sample struct {
	Run           int                 `json:"run"`
	ElapsedS      *float64            `json:"elapsed_s"`
	ExitCode      *int                `json:"returncode"`
	ThroughputMBs *float64            `json:"throughput_MB_s"`
	Report        *sevenzip.Benchmark `json:"report,omitempty"`
	RawLog        string              `json:"raw_log,omitempty"`
	RawOutput     string              `json:"raw_output,omitempty"`
	Note          string              `json:"note,omitempty"`
}

// ResultStats summarizes the two per-sample metrics.
type ResultStats struct {
	Elapsed       stats.Summary `json:"elapsed"`
	ThroughputMBs stats.Summary `json:"throughput_MB_s"`
}

// Result is the persisted artifact for one configuration: platform
// and tool metadata, the ordered samples, and derived stats. Once
// written it is treated as read-only by everything downstream.
type Result struct {
	Platform Platform    `json:"platform"`
	Tool     ToolInfo    `json:"tool"`
	Params   Params      `json:"params"`
	Samples  []Sample    `json:"samples"`
	Stats    ResultStats `json:"stats"`
}

// ElapsedValues returns the elapsed seconds of every sample that has
// one, preserving sample order.
func (r *Result) ElapsedValues() []float64 {
	var vals []float64
	for _, s := range r.Samples {
		if s.ElapsedS != nil {
			vals = append(vals, *s.ElapsedS)
		}
	}
	return vals
}

// ThroughputValues returns the measured throughputs; frequently empty
// since most report variants carry no MB/s figure.
func (r *Result) ThroughputValues() []float64 {
	var vals []float64
	for _, s := range r.Samples {
		if s.ThroughputMBs != nil {
			vals = append(vals, *s.ThroughputMBs)
		}
	}
	return vals
}

// ComputeStats derives Stats from the current samples.
func (r *Result) ComputeStats() {
	r.Stats = ResultStats{
		Elapsed:       stats.Summarize(r.ElapsedValues()),
		ThroughputMBs: stats.Summarize(r.ThroughputValues()),
	}
}

// WriteFile persists the artifact as indented JSON.
func (r *Result) WriteFile(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// LoadResult reads one persisted artifact.
func LoadResult(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return &r, nil
}
