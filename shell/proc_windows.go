//go:build windows

package shell

import "os/exec"

func shellCommand(command string) (string, []string) {
	return "cmd", []string{"/C", command}
}

func configureProcess(*exec.Cmd) {}

func terminateProcess(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
}
