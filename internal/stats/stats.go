// Package stats summarizes repeated benchmark measurements.
package stats

import (
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Summary describes one metric over the samples that reported it.
// A metric nothing reported (common for throughput) has Count 0 and
// zeroed moments.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
}

// Summarize computes count, mean, median and sample standard deviation
// over values. Stdev uses the n-1 denominator; for fewer than two
// values it is reported as 0 rather than undefined, a deliberate
// simplification so single-iteration runs still aggregate cleanly.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Median: median(values),
	}
	if len(values) > 1 {
		s.Stdev = stat.StdDev(values, nil)
	}
	return s
}

// median returns the middle value, averaging the two middles for an
// even count.
func median(values []float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
