//go:build linux

// Package procattr provides platform-specific subprocess configuration
// so the engine process cannot outlive the application.
package procattr

import (
	"os/exec"
	"syscall"
)

// Set configures process group and parent-death signal for the engine
// subprocess. On Linux, Pdeathsig delivers SIGTERM to the engine when
// the parent dies without cleaning up (OOM kill, SIGKILL, a halted
// debugger).
func Set(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGTERM,
	}
}
