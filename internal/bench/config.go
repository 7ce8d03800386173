package bench

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultTool is the external benchmark binary looked up on PATH when
// no explicit tool path is configured.
const DefaultTool = "7z"

// DefaultsFile is the optional per-directory defaults file.
const DefaultsFile = "szbench.yaml"

// Config holds everything one benchmark configuration needs. It is
// passed into the Runner explicitly; nothing here is ambient state.
type Config struct {
	// MX is the compression level (-mx), MMT the thread count (-mmt),
	// MD the log2 dictionary size (-md).
	MX  int
	MMT int
	MD  int

	Iterations int
	// Cooldown is the minimum spacing between iterations, letting
	// thermal and frequency effects settle.
	Cooldown time.Duration
	// Timeout bounds a single invocation; zero means unbounded.
	Timeout time.Duration

	OutDir  string
	Tool    string
	KeepRaw bool
}

// Defaults are the optional values read from szbench.yaml.
type Defaults struct {
	Iterations int     `yaml:"default_iterations"`
	CooldownS  float64 `yaml:"cooldown_s"`
	OutDir     string  `yaml:"outdir"`
	Tool       string  `yaml:"tool"`
}

// LoadDefaults reads szbench.yaml from dir. A missing file is not an
// error; a malformed one is.
func LoadDefaults(dir string) (Defaults, error) {
	var d Defaults
	data, err := os.ReadFile(filepath.Join(dir, DefaultsFile))
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("read defaults file: %w", err)
	}
	if err := yaml.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("parse %s: %w", DefaultsFile, err)
	}
	return d, nil
}

// ResolveIterations applies the iteration-count precedence chain:
// explicit flag, then the ITERATIONS / DEFAULT_ITERATIONS environment
// variables, then the defaults file, then 1.
func ResolveIterations(flagValue int, d Defaults) int {
	if flagValue > 0 {
		return flagValue
	}
	for _, key := range []string{"ITERATIONS", "DEFAULT_ITERATIONS"} {
		if raw := os.Getenv(key); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				return n
			}
		}
	}
	if d.Iterations > 0 {
		return d.Iterations
	}
	return 1
}
