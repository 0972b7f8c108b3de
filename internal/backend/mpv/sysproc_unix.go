//go:build !windows

package mpv

import (
	"os/exec"
	"syscall"
)

// sysProcAttr puts mpv in its own process group so a terminal signal
// aimed at the player does not reach it first.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func killProcess(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}
	_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	return cmd.Process.Kill()
}
