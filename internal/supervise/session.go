package supervise

import (
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/tshepang/rustic/internal/logbuf"
)

// Session is one supervised process run. Exactly one live session exists
// per role at any time; a terminal session stays around for inspection
// until the next start replaces it.
//
// Session is safe for concurrent use.
type Session struct {
	// ID is the unique identifier for this session.
	ID string

	// Role is the mutual-exclusion key the session runs under.
	Role Role

	// Command is the argv the process was spawned with.
	Command []string

	// Dir is the working directory of the process.
	Dir string

	// Started is when the process was spawned.
	Started time.Time

	cmd  *exec.Cmd
	ptmx *os.File // non-nil when spawned under a PTY

	sink *logbuf.Sink

	status   atomic.Int32
	exitCode atomic.Int32
	killed   atomic.Bool // a supervisor-initiated or signal death

	done chan struct{}
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status {
	return Status(s.status.Load())
}

// ExitCode returns the process exit code, or -1 while running.
func (s *Session) ExitCode() int {
	return int(s.exitCode.Load())
}

// IsRunning returns true while the process is alive.
func (s *Session) IsRunning() bool {
	return s.Status() == StatusRunning
}

// Done returns a channel closed when the process has exited and its final
// output has been delivered to the sink.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Sink returns the output sink the session writes to. The underlying log
// buffer remains intact after exit.
func (s *Session) Sink() *logbuf.Sink {
	return s.sink
}

// PID returns the process ID, or -1 if not started.
func (s *Session) PID() int {
	if s.cmd == nil || s.cmd.Process == nil {
		return -1
	}
	return s.cmd.Process.Pid
}

// Runtime returns how long the process has been running, or its total
// runtime after exit.
func (s *Session) Runtime() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	return time.Since(s.Started)
}
