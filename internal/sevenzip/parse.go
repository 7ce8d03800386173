// Package sevenzip parses the text report printed by `7z b`.
//
// The report format is not documented and drifts between 7-Zip versions
// and platforms, so the parser keys off line shape and field position
// rather than fixed offsets. The only section it insists on is the
// per-dictionary-size row table; everything else degrades to an absent
// value when missing.
package sevenzip

import (
	"bufio"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoRows is returned when the report contains no benchmark table
// rows at all. An empty table means the capture is unusable, not that
// the benchmark measured nothing.
var ErrNoRows = errors.New("no benchmark rows found")

type lineKind int

const (
	kindIgnore lineKind = iota
	kindRow
	kindAverages
	kindTotals
	kindSystem
	kindFreq
	kindTiming
)

// classified is one report line tagged with the section it belongs to.
type classified struct {
	kind   lineKind
	line   string
	fields []string
}

var (
	dictTokenRe    = regexp.MustCompile(`^\d+:$`)
	ramSizeRe      = regexp.MustCompile(`RAM size:\s*(\d+)\s*MB`)
	ramUsageRe     = regexp.MustCompile(`RAM usage:\s*(\d+)\s*MB`)
	cpuThreadsRe   = regexp.MustCompile(`# CPU hardware threads:\s*(\d+)`)
	benchThreadsRe = regexp.MustCompile(`Benchmark threads:\s*(\d+)`)

	mbPerSecRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*MB/s`)
	kbPerSecRe = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*KB/s`)
)

// classify tags a single line by shape. Predicates are tried in order;
// anything unrecognized is ignored, which is how headers, separators
// and banner lines fall out.
func classify(line string) classified {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return classified{kind: kindIgnore, line: line}
	}

	// Column separators ("|") carry no data in the row table.
	tokens := strings.Fields(strings.ReplaceAll(trimmed, "|", " "))
	if len(tokens) == 0 {
		return classified{kind: kindIgnore, line: line}
	}

	switch {
	case dictTokenRe.MatchString(tokens[0]) && len(tokens) == 9:
		return classified{kind: kindRow, line: line, fields: tokens}
	case tokens[0] == "Avr:":
		return classified{kind: kindAverages, line: line, fields: tokens[1:]}
	case tokens[0] == "Tot:":
		return classified{kind: kindTotals, line: line, fields: tokens[1:]}
	case strings.Contains(trimmed, "RAM size:") || strings.Contains(trimmed, "RAM usage:"):
		return classified{kind: kindSystem, line: line}
	case strings.Contains(trimmed, "CPU Freq"):
		return classified{kind: kindFreq, line: line}
	case isTimingLine(tokens):
		return classified{kind: kindTiming, line: line, fields: tokens}
	default:
		return classified{kind: kindIgnore, line: line}
	}
}

// isTimingLine matches lines like "Kernel  Time =   1.656 =   2%".
func isTimingLine(tokens []string) bool {
	if len(tokens) < 6 || tokens[1] != "Time" || tokens[2] != "=" {
		return false
	}
	switch tokens[0] {
	case "Kernel", "User", "Process", "Global":
		return true
	}
	return false
}

// Parse converts the captured stdout of one `7z b` invocation into a
// Benchmark. It fails only when no table rows are found; all optional
// sections (averages, totals, system info, timing) degrade gracefully.
func Parse(text string) (*Benchmark, error) {
	b := &Benchmark{}
	var reportedAvr []string
	var timing Timing

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		c := classify(sc.Text())
		switch c.kind {
		case kindRow:
			row, err := parseRow(c.fields)
			if err != nil {
				slog.Debug("dropping malformed benchmark row", "line", strings.TrimSpace(c.line), "err", err)
				continue
			}
			b.Rows = append(b.Rows, row)
		case kindAverages:
			reportedAvr = c.fields
		case kindTotals:
			b.Totals = parseTotals(c.fields)
		case kindSystem:
			parseSystemLine(c.line, &b.System)
		case kindFreq:
			b.System.CPUFreqsMHz = append(b.System.CPUFreqsMHz, parseFreqs(c.line)...)
		case kindTiming:
			setTimingPhase(&timing, c.fields)
		}
	}

	if len(b.Rows) == 0 {
		return nil, ErrNoRows
	}

	if avg, ok := parseAverages(reportedAvr); ok {
		b.Averages = avg
	} else {
		// Some output variants omit the Avr line entirely; fall back to
		// the field-wise mean of the rows we collected. A present but
		// diverging Avr line is always taken as-is, never cross-checked.
		b.Averages = computeAverages(b.Rows)
		b.AveragesComputed = true
	}

	if timing != (Timing{}) {
		b.Timing = &timing
	}
	return b, nil
}

// ParseThroughput scans combined stdout+stderr for the first MB/s or
// KB/s figure. Returns nil when none is present, which is the common
// case for plain benchmark reports.
func ParseThroughput(text string) *float64 {
	if m := mbPerSecRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return &v
		}
	}
	if m := kbPerSecRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			v /= 1024.0
			return &v
		}
	}
	return nil
}

func parseRow(fields []string) (TableRow, error) {
	dict, err := strconv.Atoi(strings.TrimSuffix(fields[0], ":"))
	if err != nil {
		return TableRow{}, err
	}
	comp, err := parseMeasurement(fields[1:5])
	if err != nil {
		return TableRow{}, err
	}
	dec, err := parseMeasurement(fields[5:9])
	if err != nil {
		return TableRow{}, err
	}
	return TableRow{Dict: dict, Compress: comp, Decompress: dec}, nil
}

func parseMeasurement(fields []string) (Measurement, error) {
	var m Measurement
	var err error
	if m.Speed, err = strconv.ParseInt(fields[0], 10, 64); err != nil {
		return m, err
	}
	if m.Usage, err = strconv.ParseInt(fields[1], 10, 64); err != nil {
		return m, err
	}
	if m.RU, err = strconv.ParseFloat(fields[2], 64); err != nil {
		return m, err
	}
	if m.Rating, err = strconv.ParseInt(fields[3], 10, 64); err != nil {
		return m, err
	}
	return m, nil
}

// parseAverages reads the tool-reported "Avr:" line. Any shape or
// conversion problem makes it report not-ok so the caller falls back
// to computing the averages itself.
func parseAverages(fields []string) (Averages, bool) {
	if len(fields) != 8 {
		return Averages{}, false
	}
	vals := make([]float64, 8)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return Averages{}, false
		}
		vals[i] = v
	}
	return Averages{
		Compress:   AvgMeasurement{Speed: vals[0], Usage: vals[1], RU: vals[2], Rating: vals[3]},
		Decompress: AvgMeasurement{Speed: vals[4], Usage: vals[5], RU: vals[6], Rating: vals[7]},
	}, true
}

func computeAverages(rows []TableRow) Averages {
	var avg Averages
	n := float64(len(rows))
	for _, r := range rows {
		avg.Compress.Speed += float64(r.Compress.Speed)
		avg.Compress.Usage += float64(r.Compress.Usage)
		avg.Compress.RU += r.Compress.RU
		avg.Compress.Rating += float64(r.Compress.Rating)
		avg.Decompress.Speed += float64(r.Decompress.Speed)
		avg.Decompress.Usage += float64(r.Decompress.Usage)
		avg.Decompress.RU += r.Decompress.RU
		avg.Decompress.Rating += float64(r.Decompress.Rating)
	}
	avg.Compress.Speed /= n
	avg.Compress.Usage /= n
	avg.Compress.RU /= n
	avg.Compress.Rating /= n
	avg.Decompress.Speed /= n
	avg.Decompress.Usage /= n
	avg.Decompress.RU /= n
	avg.Decompress.Rating /= n
	return avg
}

// parseTotals reads the blended "Tot:" line (usage, R/U, rating; no
// speed column). Returns nil on any conversion failure, leaving the
// totals absent rather than failing the parse.
func parseTotals(fields []string) *Totals {
	if len(fields) != 3 {
		return nil
	}
	usage, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return nil
	}
	ru, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil
	}
	rating, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil
	}
	return &Totals{Usage: usage, RU: ru, Rating: rating}
}

// parseSystemLine extracts whatever labeled figures the line carries.
// 7-Zip packs two figures per line ("RAM size: ... # CPU hardware
// threads: ..."), so each regexp is tried independently.
func parseSystemLine(line string, sys *SystemInfo) {
	if m := ramSizeRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			sys.RAMSizeMB = &v
		}
	}
	if m := ramUsageRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			sys.RAMUsageMB = &v
		}
	}
	if m := cpuThreadsRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			sys.CPUThreads = &v
		}
	}
	if m := benchThreadsRe.FindStringSubmatch(line); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			sys.BenchThreads = &v
		}
	}
}

// parseFreqs reads per-core frequency readings from a "CPU Freq" line.
// Unreadable cores are printed as "-" and skipped.
func parseFreqs(line string) []int64 {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return nil
	}
	var freqs []int64
	for _, tok := range strings.Fields(line[idx+1:]) {
		if v, err := strconv.ParseInt(tok, 10, 64); err == nil {
			freqs = append(freqs, v)
		}
	}
	return freqs
}

func setTimingPhase(t *Timing, fields []string) {
	// Shape already checked by isTimingLine: NAME Time = SECS = PCT%.
	secs, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return
	}
	pct, err := strconv.ParseInt(strings.TrimSuffix(fields[5], "%"), 10, 64)
	if err != nil {
		return
	}
	phase := &TimingPhase{Seconds: secs, Percent: pct}
	switch fields[0] {
	case "Kernel":
		t.Kernel = phase
	case "User":
		t.User = phase
	case "Process":
		t.Process = phase
	case "Global":
		t.Global = phase
	}
}
