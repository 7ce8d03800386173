//go:build !linux

package bench

func cpuModel() string { return "" }

func totalRAMMB() *int64 { return nil }
