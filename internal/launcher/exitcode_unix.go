//go:build unix

package launcher

import (
	"os"
	"syscall"
)

// exitCode maps death by signal N to 128+N, as shells do.
func exitCode(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
