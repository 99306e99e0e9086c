package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"hopper/internal/config"
)

// Result captures one named check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll evaluates every startup requirement for the given config.
func RunAll(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDraptoBinary(cfg),
	}
	return results
}

// Failures filters results down to the checks that did not pass.
func Failures(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}

// FirstError summarizes failed checks as a single error, or nil when all
// checks passed.
func FirstError(results []Result) error {
	failed := Failures(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, result := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", result.Name, result.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDraptoBinary verifies the encode backend is reachable. The library
// client is linked in, so only the CLI client needs a resolvable binary.
func CheckDraptoBinary(cfg *config.Config) Result {
	const name = "Drapto"
	if cfg.Encoding.UseLibrary {
		return Result{Name: name, Passed: true, Detail: "library client"}
	}
	binary := cfg.DraptoBinary()
	path, err := exec.LookPath(binary)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found in PATH", binary)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}
