package reporting

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultOutputDir derives the results directory for a run from its
// first symbol and run id.
func DefaultOutputDir(symbol, runID string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		s = "UNKNOWN"
	}
	short := runID
	if len(short) > 8 {
		short = short[:8]
	}
	return filepath.Join("results", fmt.Sprintf("%s_%s", s, short))
}

// EnsureDir creates the parent directory of path when needed.
func EnsureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// MakeOutputDir creates the directory itself, parents included. Use
// this for the run's results directory; EnsureDir takes a file path.
func MakeOutputDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
