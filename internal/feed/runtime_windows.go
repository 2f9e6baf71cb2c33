//go:build windows

package feed

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// FindCommand returns the path of the feed program. Programs shipped in a bin directory
// next to the executable or in the working directory win over PATH.
func FindCommand(name string) (string, error) {
	var lookup []string

	if exePath, err := os.Executable(); err == nil {
		lookup = append(lookup, filepath.Dir(exePath))
	}
	if wd, err := os.Getwd(); err == nil {
		lookup = append(lookup, wd)
	}

	exe := name
	if !strings.HasSuffix(strings.ToLower(exe), ".exe") {
		exe += ".exe"
	}

	for _, dir := range lookup {
		binPath := filepath.Join(dir, "bin", exe)
		if _, err := os.Stat(binPath); err != nil {
			continue // continue to next directory
		}
		return binPath, nil
	}

	binPath, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: '%s'", ErrCommandNotFound, name)
	}

	return binPath, nil
}
