//go:build !linux

// Package procattr provides platform-specific subprocess configuration
// so the engine process cannot outlive the application.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set configures a process group for the engine subprocess. Pdeathsig
// is Linux-only; Setpgid still enables kill -<signal> -<pgid> cleanup
// by the parent.
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
