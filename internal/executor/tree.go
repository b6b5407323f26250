package executor

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// descendants returns every live descendant of pid, deepest first.
func descendants(ctx context.Context, pid int32) []*process.Process {
	parent, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return nil
	}
	children, err := parent.ChildrenWithContext(ctx)
	if err != nil {
		return nil
	}

	var out []*process.Process
	for _, child := range children {
		out = append(out, descendants(ctx, child.Pid)...)
		out = append(out, child)
	}
	return out
}

// killTree kills p and every descendant gopsutil can see. Descendants that
// escaped the process group (daemonized helpers, windows job-less children)
// are caught here.
func killTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, d := range descendants(ctx, int32(p.Pid)) {
		_ = d.KillWithContext(ctx)
	}
	return killGroup(p)
}
