//go:build !windows

package feed

import (
	"errors"
	"fmt"
	"os/exec"
)

// FindCommand returns the path of the feed program
func FindCommand(name string) (string, error) {
	binPath, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%w: `%s` not found in PATH", ErrCommandNotFound, name)
		}
		return "", fmt.Errorf("failed to locate feed program: %w", err)
	}

	return binPath, nil
}
