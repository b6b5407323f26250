package launcher

import "os"

// Session is one child lifetime, from spawn to exit.
type Session struct {
	pid       int
	exitCode  *int
	forwarded map[os.Signal]int
}

func newSession(pid int) *Session {
	return &Session{pid: pid, forwarded: make(map[os.Signal]int)}
}

// Pid returns the child's process id.
func (s *Session) Pid() int { return s.pid }

// ExitCode returns the child's exit code, and false if it has not been observed.
func (s *Session) ExitCode() (int, bool) {
	if s.exitCode == nil {
		return 0, false
	}
	return *s.exitCode, true
}

// Forwarded returns how many times sig was relayed to the child.
func (s *Session) Forwarded(sig os.Signal) int {
	return s.forwarded[sig]
}
