// Package bench runs one `7z b` configuration for a number of
// iterations and persists the outcome as a JSON artifact.
package bench

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"github.com/szbench/szbench/internal/sevenzip"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
)

// Runner executes the external tool for a single configuration. One
// Runner builds exactly one Result, sequentially; samples are appended
// in run order and never revisited.
type Runner struct {
	cfg  Config
	log  *slog.Logger
	tool string
}

// NewRunner validates the setup: the tool must resolve on PATH and the
// output directories must be creatable. These are the only fatal
// errors of a run; everything later is recorded per sample.
func NewRunner(cfg Config, log *slog.Logger) (*Runner, error) {
	if cfg.Tool == "" {
		cfg.Tool = DefaultTool
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1
	}
	if log == nil {
		log = slog.Default()
	}

	tool, err := exec.LookPath(cfg.Tool)
	if err != nil {
		return nil, fmt.Errorf("benchmark tool %q not found: %w", cfg.Tool, err)
	}
	if err := os.MkdirAll(filepath.Join(cfg.OutDir, "raw"), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &Runner{cfg: cfg, log: log, tool: tool}, nil
}

func (r *Runner) args() []string {
	return []string{
		"b",
		fmt.Sprintf("-mmt=%d", r.cfg.MMT),
		fmt.Sprintf("-mx=%d", r.cfg.MX),
		fmt.Sprintf("-md=%d", r.cfg.MD),
		"-bt",
	}
}

// Cmdline is the invocation recorded in the artifact.
func (r *Runner) Cmdline() string {
	return strings.Join(append([]string{r.cfg.Tool}, r.args()...), " ")
}

// Run executes all iterations and writes the artifact. A failed or
// timed-out iteration is recorded in its Sample and the loop moves on;
// only context cancellation stops the run early (the artifact is still
// written with the samples collected so far).
func (r *Runner) Run(ctx context.Context) (*Result, string, error) {
	platform := CollectPlatform()
	result := &Result{
		Platform: platform,
		Tool:     ToolInfo{Cmdline: r.Cmdline()},
		Params: Params{
			MX:         r.cfg.MX,
			MMT:        r.cfg.MMT,
			MD:         r.cfg.MD,
			Iterations: r.cfg.Iterations,
		},
	}

	bar := progressbar.NewOptions(r.cfg.Iterations,
		progressbar.OptionSetDescription(fmt.Sprintf("mx=%d mmt=%d md=%d", r.cfg.MX, r.cfg.MMT, r.cfg.MD)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	// Burst 1 spaces iterations at least one cooldown apart; the first
	// wait consumes the initial token immediately.
	limiter := rate.NewLimiter(rate.Every(r.cfg.Cooldown), 1)

	var runErr error
	for i := 1; i <= r.cfg.Iterations; i++ {
		if err := limiter.Wait(ctx); err != nil {
			runErr = err
			break
		}
		sample := r.runOne(ctx, platform.CollectedAt, i)
		result.Samples = append(result.Samples, sample)
		_ = bar.Add(1)

		if sample.Note != "" {
			_, _ = red.Fprintf(os.Stderr, "  run %d/%d: %s\n", i, r.cfg.Iterations, sample.Note)
		}
	}
	_ = bar.Finish()

	result.ComputeStats()

	path := filepath.Join(r.cfg.OutDir, fmt.Sprintf("%s_mx%d_mmt%d_md%d.json",
		platform.CollectedAt, r.cfg.MX, r.cfg.MMT, r.cfg.MD))
	if err := result.WriteFile(path); err != nil {
		return result, "", err
	}
	return result, path, runErr
}

// runOne performs a single invocation. Whatever goes wrong ends up in
// the returned Sample, never in an error.
func (r *Runner) runOne(ctx context.Context, stamp string, run int) Sample {
	sample := Sample{Run: run}

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.tool, r.args()...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Seconds()

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		sample.Note = "timeout"
		return sample
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		code := 0
		sample.ExitCode = &code
		sample.ElapsedS = &elapsed
	case errors.As(err, &exitErr):
		code := exitErr.ExitCode()
		sample.ExitCode = &code
		sample.ElapsedS = &elapsed
		sample.Note = fmt.Sprintf("exit code %d", code)
	default:
		sample.Note = fmt.Sprintf("launch failed: %v", err)
		return sample
	}

	combined := stdout.String() + "\n" + stderr.String()
	sample.ThroughputMBs = sevenzip.ParseThroughput(combined)

	sample.RawLog = r.writeRawLog(stamp, run, stdout.Bytes(), stderr.Bytes())
	if r.cfg.KeepRaw {
		sample.RawOutput = combined
	}

	if sample.ExitCode != nil && *sample.ExitCode == 0 {
		report, parseErr := sevenzip.Parse(stdout.String())
		if parseErr != nil {
			sample.Note = fmt.Sprintf("parse failed: %v", parseErr)
			r.log.Warn("benchmark output did not parse", "run", run, "err", parseErr)
		} else {
			sample.Report = report
		}
	}
	return sample
}

// writeRawLog saves the captured output for later inspection. A write
// failure only costs the log reference, not the sample.
func (r *Runner) writeRawLog(stamp string, run int, stdout, stderr []byte) string {
	path := filepath.Join(r.cfg.OutDir, "raw",
		fmt.Sprintf("%s_mx%d_mmt%d_run%d.log", stamp, r.cfg.MX, r.cfg.MMT, run))

	var buf bytes.Buffer
	buf.WriteString("=== STDOUT ===\n")
	buf.Write(stdout)
	buf.WriteString("\n=== STDERR ===\n")
	buf.Write(stderr)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		r.log.Warn("could not write raw log", "path", path, "err", err)
		return ""
	}
	return path
}

// PrintSummary gives the operator a one-glance outcome after a run.
func PrintSummary(result *Result, path string) {
	ok := 0
	for _, s := range result.Samples {
		if s.ExitCode != nil && *s.ExitCode == 0 {
			ok++
		}
	}
	if ok == len(result.Samples) {
		_, _ = green.Printf("✓ %d/%d runs succeeded", ok, len(result.Samples))
	} else {
		_, _ = yellow.Printf("⚠ %d/%d runs succeeded", ok, len(result.Samples))
	}
	fmt.Printf("  mean %.3fs  stdev %.3fs\n", result.Stats.Elapsed.Mean, result.Stats.Elapsed.Stdev)
	fmt.Printf("Wrote results to %s\n", path)
}
