//go:build !linux

package engine

import (
	"os/exec"
)

// startPrioritized starts cmd unchanged outside Linux.
func startPrioritized(cmd *exec.Cmd, p Priority, warn func(error)) error {
	return cmd.Start()
}
