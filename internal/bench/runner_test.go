package bench

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

const fakeReport = `RAM size:   64216 MB,  # CPU hardware threads:  16
RAM usage:   1765 MB,  # Benchmark threads:      8

22:      31775   622   4969  30915  |     376113   762   4206  32059
23:      29807   618   4910  30375  |     368841   763   4316  31889
----------------------------------  | ------------------------------
Avr:     30791   620   4940  30645  |     372477   762   4261  31974
Tot:             691   4601  31310
`

// writeFakeTool installs a shell script standing in for 7z.
func writeFakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake tool scripts need a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake7z")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func okTool(t *testing.T) string {
	t.Helper()
	return writeFakeTool(t, "#!/bin/sh\ncat <<'EOF'\n"+fakeReport+"EOF\n")
}

func TestNewRunner_ToolNotFound(t *testing.T) {
	_, err := NewRunner(Config{Tool: "definitely-not-a-real-benchmark-tool", OutDir: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("NewRunner() error = nil, want tool-not-found error")
	}
}

func TestRunner_Run(t *testing.T) {
	outDir := t.TempDir()
	r, err := NewRunner(Config{
		MX: 5, MMT: 4, MD: 26,
		Iterations: 2,
		OutDir:     outDir,
		Tool:       okTool(t),
	}, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	result, path, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if got := len(result.Samples); got != 2 {
		t.Fatalf("len(Samples) = %d, want 2", got)
	}
	for i, s := range result.Samples {
		if s.Run != i+1 {
			t.Errorf("Samples[%d].Run = %d, want %d", i, s.Run, i+1)
		}
		if s.ExitCode == nil || *s.ExitCode != 0 {
			t.Errorf("Samples[%d].ExitCode = %v, want 0", i, s.ExitCode)
		}
		if s.ElapsedS == nil || *s.ElapsedS <= 0 {
			t.Errorf("Samples[%d].ElapsedS = %v, want > 0", i, s.ElapsedS)
		}
		if s.Report == nil {
			t.Errorf("Samples[%d].Report = nil, want parsed benchmark", i)
		} else if len(s.Report.Rows) != 2 {
			t.Errorf("Samples[%d] report rows = %d, want 2", i, len(s.Report.Rows))
		}
		if s.RawLog == "" {
			t.Errorf("Samples[%d].RawLog empty, want raw log path", i)
		}
	}

	if result.Stats.Elapsed.Count != 2 {
		t.Errorf("Stats.Elapsed.Count = %d, want 2", result.Stats.Elapsed.Count)
	}
	if result.Params != (Params{MX: 5, MMT: 4, MD: 26, Iterations: 2}) {
		t.Errorf("Params = %+v", result.Params)
	}

	// Artifact must round-trip.
	loaded, err := LoadResult(path)
	if err != nil {
		t.Fatalf("LoadResult() error = %v", err)
	}
	if len(loaded.Samples) != 2 || loaded.Params.MX != 5 {
		t.Errorf("round-tripped artifact = %+v", loaded)
	}
}

func TestRunner_FailedIterationContinues(t *testing.T) {
	tool := writeFakeTool(t, "#!/bin/sh\nexit 3\n")
	r, err := NewRunner(Config{MX: 1, MMT: 1, MD: 22, Iterations: 3, OutDir: t.TempDir(), Tool: tool}, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	result, path, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (per-sample failures are not fatal)", err)
	}
	if got := len(result.Samples); got != 3 {
		t.Fatalf("len(Samples) = %d, want all 3 iterations recorded", got)
	}
	for i, s := range result.Samples {
		if s.ExitCode == nil || *s.ExitCode != 3 {
			t.Errorf("Samples[%d].ExitCode = %v, want 3", i, s.ExitCode)
		}
		if s.Report != nil {
			t.Errorf("Samples[%d].Report = non-nil, want absent on failure", i)
		}
		if s.ElapsedS == nil {
			t.Errorf("Samples[%d].ElapsedS = nil, want recorded even on failure", i)
		}
	}
	if path == "" {
		t.Error("artifact path empty, want artifact written despite failures")
	}
}

func TestRunner_TimedOutIterationContinues(t *testing.T) {
	tool := writeFakeTool(t, "#!/bin/sh\nsleep 10\n")
	r, err := NewRunner(Config{
		MX: 1, MMT: 1, MD: 22,
		Iterations: 2,
		Timeout:    100 * time.Millisecond,
		OutDir:     t.TempDir(),
		Tool:       tool,
	}, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	result, path, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (timeouts are per-sample)", err)
	}
	if got := len(result.Samples); got != 2 {
		t.Fatalf("len(Samples) = %d, want both iterations recorded", got)
	}
	for i, s := range result.Samples {
		if s.Note != "timeout" {
			t.Errorf("Samples[%d].Note = %q, want %q", i, s.Note, "timeout")
		}
		if s.ElapsedS != nil {
			t.Errorf("Samples[%d].ElapsedS = %v, want nil for a timed-out run", i, *s.ElapsedS)
		}
		if s.ExitCode != nil {
			t.Errorf("Samples[%d].ExitCode = %v, want nil for a timed-out run", i, *s.ExitCode)
		}
		if s.Report != nil {
			t.Errorf("Samples[%d].Report = non-nil, want absent", i)
		}
	}
	if result.Stats.Elapsed.Count != 0 {
		t.Errorf("Stats.Elapsed.Count = %d, want 0", result.Stats.Elapsed.Count)
	}
	if path == "" {
		t.Error("artifact path empty, want artifact written despite timeouts")
	}
}

func TestRunner_ThroughputParsed(t *testing.T) {
	tool := writeFakeTool(t, "#!/bin/sh\ncat <<'EOF'\n"+fakeReport+"rate 100.5 MB/s\nEOF\n")
	r, err := NewRunner(Config{MX: 5, MMT: 1, MD: 24, Iterations: 1, OutDir: t.TempDir(), Tool: tool}, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}

	result, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s := result.Samples[0]
	if s.ThroughputMBs == nil || *s.ThroughputMBs != 100.5 {
		t.Errorf("ThroughputMBs = %v, want 100.5", s.ThroughputMBs)
	}
	if result.Stats.ThroughputMBs.Count != 1 {
		t.Errorf("Stats.ThroughputMBs.Count = %d, want 1", result.Stats.ThroughputMBs.Count)
	}
}

func TestRunner_Cmdline(t *testing.T) {
	tool := okTool(t)
	r, err := NewRunner(Config{MX: 9, MMT: 8, MD: 25, Iterations: 1, OutDir: t.TempDir(), Tool: tool}, nil)
	if err != nil {
		t.Fatalf("NewRunner() error = %v", err)
	}
	want := tool + " b -mmt=8 -mx=9 -md=25 -bt"
	if got := r.Cmdline(); got != want {
		t.Errorf("Cmdline() = %q, want %q", got, want)
	}
}
