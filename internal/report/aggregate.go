// Package report aggregates persisted run artifacts into tabular
// summaries comparable across configurations and machines.
package report

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/szbench/szbench/internal/bench"
	"github.com/szbench/szbench/internal/stats"
)

// Row is one line of the aggregate report: one per (platform,
// configuration) pair. Rows from different platforms are never merged;
// comparing them is left to the reader. Metric fields are pointers:
// nil means no sample measured the metric (all iterations failed, or
// the tool never reported it) and renders as an empty cell, never as
// a fabricated zero.
type Row struct {
	File          string
	Platform      string
	CPUModel      string
	LogicalCPUs   int
	MMT           int
	MX            int
	MD            int
	Iterations    int
	AvgS          *float64
	StddevS       *float64
	ThroughputMBs *float64
}

// Loaded pairs an artifact with its originating file name.
type Loaded struct {
	File   string
	Result *bench.Result
}

// Discover walks dir recursively for artifact files, skipping raw
// capture directories. The returned order is stable but irrelevant:
// Aggregate imposes its own.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "raw" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".json") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Load reads artifacts concurrently. Artifacts are immutable once
// written, so parallel loading carries no correctness risk. A file
// that fails to read or decode is skipped with a warning and never
// aborts the rest.
func Load(files []string, log *slog.Logger) []Loaded {
	if log == nil {
		log = slog.Default()
	}

	var (
		mu     sync.Mutex
		loaded []Loaded
	)
	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for _, file := range files {
		g.Go(func() error {
			res, err := bench.LoadResult(file)
			if err != nil {
				log.Warn("skipping unreadable artifact", "file", file, "err", err)
				return nil
			}
			mu.Lock()
			loaded = append(loaded, Loaded{File: filepath.Base(file), Result: res})
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(loaded, func(i, j int) bool { return loaded[i].File < loaded[j].File })
	return loaded
}

// Aggregate computes one Row per artifact. Stats are recomputed from
// the samples rather than trusted from the artifact, so partially
// written or pre-stats artifacts still aggregate. The output order is
// a strict function of (platform, mx, mmt, md), independent of input
// order, so repeated runs produce byte-identical reports.
func Aggregate(loaded []Loaded) []Row {
	rows := make([]Row, 0, len(loaded))
	for _, l := range loaded {
		elapsed := stats.Summarize(l.Result.ElapsedValues())
		throughput := stats.Summarize(l.Result.ThroughputValues())

		row := Row{
			File:        l.File,
			Platform:    l.Result.Platform.Hostname,
			CPUModel:    l.Result.Platform.CPUModel,
			LogicalCPUs: l.Result.Platform.LogicalCPUs,
			MMT:         l.Result.Params.MMT,
			MX:          l.Result.Params.MX,
			MD:          l.Result.Params.MD,
			Iterations:  l.Result.Params.Iterations,
		}
		if elapsed.Count > 0 {
			mean, stdev := elapsed.Mean, elapsed.Stdev
			row.AvgS = &mean
			row.StddevS = &stdev
		}
		if throughput.Count > 0 {
			mean := throughput.Mean
			row.ThroughputMBs = &mean
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		if a.MX != b.MX {
			return a.MX < b.MX
		}
		if a.MMT != b.MMT {
			return a.MMT < b.MMT
		}
		if a.MD != b.MD {
			return a.MD < b.MD
		}
		return a.File < b.File
	})
	return rows
}
