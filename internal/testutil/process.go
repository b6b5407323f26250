package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessGone reports whether pid no longer names a running process. Zombies
// awaiting a reaper count as gone.
func ProcessGone(ctx context.Context, pid int) bool {
	exists, err := process.PidExistsWithContext(ctx, int32(pid))
	if err != nil || !exists {
		return true
	}
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return true
	}
	status, err := p.StatusWithContext(ctx)
	if err != nil {
		return false
	}
	for _, s := range status {
		if s == process.Zombie {
			return true
		}
	}
	return false
}

// WaitProcessGone fails the test if pid is still running after timeout.
func WaitProcessGone(t *testing.T, pid int, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !ProcessGone(context.Background(), pid) {
		if time.Now().After(deadline) {
			t.Fatalf("process %d still alive after %s", pid, timeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
