package app

import (
	"fmt"
	"os/exec"
	"syscall"
)

// Execer hands the process over to another program. On success Exec never
// returns; an error means the handoff did not happen.
type Execer interface {
	Exec(name string, argv []string, environ []string) error
}

// processExecer replaces the current process image.
type processExecer struct{}

func (processExecer) Exec(name string, argv []string, environ []string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("locating %s: %w", name, err)
	}
	if err := syscall.Exec(path, argv, environ); err != nil {
		return fmt.Errorf("exec %s: %w", path, err)
	}
	return nil
}
