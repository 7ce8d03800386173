package bench

import (
	"os"
	"runtime"
	"time"
)

// timestampLayout matches the artifact and raw-log file name stamps.
const timestampLayout = "20060102T150405Z"

// CollectPlatform snapshots the host at run start. Fields that cannot
// be determined on this platform stay at their zero or nil value.
func CollectPlatform() Platform {
	hostname, _ := os.Hostname()
	return Platform{
		CollectedAt: time.Now().UTC().Format(timestampLayout),
		Hostname:    hostname,
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		CPUModel:    cpuModel(),
		LogicalCPUs: runtime.NumCPU(),
		RAMMB:       totalRAMMB(),
	}
}
