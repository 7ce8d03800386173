package sevenzip

// Measurement holds the four figures 7-Zip reports for one direction
// (compressing or decompressing) of one dictionary size.
type Measurement struct {
	// Speed in KiB/s.
	Speed int64 `json:"speed_kib_s"`
	// Usage is CPU usage in percent; exceeds 100 on multi-core runs.
	Usage int64 `json:"usage_pct"`
	// RU is the rating divided by usage, i.e. MIPS per effective thread.
	RU float64 `json:"mips_per_thread"`
	// Rating in MIPS.
	Rating int64 `json:"rating_mips"`
}

// TableRow is one line of the per-dictionary-size benchmark table.
type TableRow struct {
	// Dict is the log2 of the dictionary size (e.g. 22 for 4 MiB).
	Dict       int         `json:"dict"`
	Compress   Measurement `json:"compress"`
	Decompress Measurement `json:"decompress"`
}

// AvgMeasurement mirrors Measurement with float fields, since averages
// may be computed from rows rather than read off the tool's integer line.
type AvgMeasurement struct {
	Speed  float64 `json:"speed_kib_s"`
	Usage  float64 `json:"usage_pct"`
	RU     float64 `json:"mips_per_thread"`
	Rating float64 `json:"rating_mips"`
}

// Averages holds the per-direction means over all table rows.
type Averages struct {
	Compress   AvgMeasurement `json:"compress"`
	Decompress AvgMeasurement `json:"decompress"`
}

// Totals is the blended compress+decompress summary line ("Tot:").
// Unlike Averages it has no speed column.
type Totals struct {
	Usage  int64   `json:"usage_pct"`
	RU     float64 `json:"mips_per_thread"`
	Rating int64   `json:"rating_mips"`
}

// SystemInfo is the labeled system block of the report. Every sub-field
// is independently optional; the parser stores what it finds and never
// interprets the values.
type SystemInfo struct {
	RAMSizeMB    *int64  `json:"ram_size_mb,omitempty"`
	RAMUsageMB   *int64  `json:"ram_usage_mb,omitempty"`
	CPUThreads   *int    `json:"cpu_threads,omitempty"`
	BenchThreads *int    `json:"bench_threads,omitempty"`
	CPUFreqsMHz  []int64 `json:"cpu_freqs_mhz,omitempty"`
}

// TimingPhase is one line of the CPU-time breakdown.
type TimingPhase struct {
	Seconds float64 `json:"seconds"`
	Percent int64   `json:"percent"`
}

// Timing is the kernel/user/process/global breakdown printed with -bt.
// Individual phases may be missing on some platforms.
type Timing struct {
	Kernel  *TimingPhase `json:"kernel,omitempty"`
	User    *TimingPhase `json:"user,omitempty"`
	Process *TimingPhase `json:"process,omitempty"`
	Global  *TimingPhase `json:"global,omitempty"`
}

// Benchmark is one fully parsed `7z b` report. Constructed once per
// captured output and not mutated afterwards.
type Benchmark struct {
	Rows     []TableRow `json:"rows"`
	Averages Averages   `json:"averages"`

	// AveragesComputed is true when the tool's "Avr:" line was absent
	// and Averages was derived from Rows instead.
	AveragesComputed bool       `json:"averages_computed,omitempty"`
	Totals           *Totals    `json:"totals,omitempty"`
	System           SystemInfo `json:"system"`
	Timing           *Timing    `json:"timing,omitempty"`
}
