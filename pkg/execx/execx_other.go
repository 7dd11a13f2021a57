//go:build !unix

package execx

import "os/exec"

// killProcessGroup is a no-op; WaitDelay still bounds the wait.
func killProcessGroup(*exec.Cmd) {}
