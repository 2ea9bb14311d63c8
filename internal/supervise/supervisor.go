package supervise

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/tshepang/rustic/internal/logbuf"
)

// termEnv is forced into every spawned process so tools emit color and
// control sequences predictably, regardless of the supervisor's own
// environment.
const termEnv = "TERM=xterm-256color"

// defaultGrace is the wait between interrupt and forced kill.
const defaultGrace = 2 * time.Second

// ConfirmFunc decides whether a live session may be interrupted and
// killed to make room for a new start. Headless and test environments
// supply a deterministic answer.
type ConfirmFunc func(running *Session) bool

// FlushFunc is invoked before any session starts, flushing unsaved
// external state (editor buffers) relevant to the project so the build
// sees what the user sees.
type FlushFunc func() error

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithConfirm sets the takeover decision callback. Without one, starts
// that conflict with a live session are always refused.
func WithConfirm(fn ConfirmFunc) SupervisorOption {
	return func(s *Supervisor) {
		s.confirm = fn
	}
}

// WithFlush sets the pre-flight flush hook.
func WithFlush(fn FlushFunc) SupervisorOption {
	return func(s *Supervisor) {
		s.flush = fn
	}
}

// WithGracePeriod sets the wait between interrupt and forced kill.
func WithGracePeriod(d time.Duration) SupervisorOption {
	return func(s *Supervisor) {
		if d > 0 {
			s.grace = d
		}
	}
}

// WithExitCallback sets a callback invoked after a session reaches a
// terminal state and its final output has been delivered.
func WithExitCallback(fn func(*Session)) SupervisorOption {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.logger = l
	}
}

// Spec describes a session to start.
type Spec struct {
	// Role is the mutual-exclusion key.
	Role Role

	// Command is the argv to spawn.
	Command []string

	// Dir is the working directory.
	Dir string

	// Env holds extra environment entries, overriding inherited ones.
	Env map[string]string

	// Sink receives the raw output stream. Its buffer is cleared before
	// the first byte of the new session is written.
	Sink *logbuf.Sink

	// UsePTY spawns the process under a pseudo-terminal instead of pipes,
	// for tools that only emit color when attached to a TTY.
	UsePTY bool
}

// Supervisor tracks at most one session per role and enforces mutual
// exclusion across all roles. The pre-start conflict check and session
// creation happen under one lock, so no interleaving start can slip in
// between.
type Supervisor struct {
	mu       sync.Mutex
	sessions map[Role]*Session

	confirm ConfirmFunc
	flush   FlushFunc
	grace   time.Duration
	onExit  func(*Session)
	logger  *log.Logger
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		sessions: make(map[Role]*Session),
		grace:    defaultGrace,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start spawns a session for the spec's role.
//
// If any tracked role has a live session, the confirm callback decides
// whether to interrupt and kill it; declined (or no callback) means the
// start fails with ErrAlreadyRunning and the running session is
// untouched. A spawn failure leaves the role idle with no session
// recorded.
func (s *Supervisor) Start(ctx context.Context, spec Spec) (*Session, error) {
	if len(spec.Command) == 0 {
		return nil, ErrEmptyCommand
	}
	if spec.Sink == nil {
		return nil, ErrNoSink
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if running := s.liveLocked(); running != nil {
		if s.confirm == nil || !s.confirm(running) {
			return nil, fmt.Errorf("%s session %s: %w", running.Role, running.ID, ErrAlreadyRunning)
		}
		s.logger.Info("killing running session", "role", running.Role, "pid", running.PID())
		s.stop(running)
	}

	if s.flush != nil {
		if err := s.flush(); err != nil {
			s.logger.Warn("pre-flight flush failed", "err", err)
		}
	}

	// The previous run's log stays inspectable until here.
	spec.Sink.Reset()

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = buildEnv(spec.Env)

	sess := &Session{
		ID:      uuid.New().String(),
		Role:    spec.Role,
		Command: spec.Command,
		Dir:     spec.Dir,
		cmd:     cmd,
		sink:    spec.Sink,
		done:    make(chan struct{}),
	}
	sess.exitCode.Store(-1)

	var reader io.ReadCloser
	if spec.UsePTY {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return nil, fmt.Errorf("spawn %q: %w", spec.Command[0], err)
		}
		sess.ptmx = ptmx
		reader = ptmx
	} else {
		// One pipe for both streams keeps output delivery serialized.
		pr, pw, err := os.Pipe()
		if err != nil {
			return nil, fmt.Errorf("output pipe: %w", err)
		}
		cmd.Stdout = pw
		cmd.Stderr = pw
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		if err := cmd.Start(); err != nil {
			pr.Close()
			pw.Close()
			return nil, fmt.Errorf("spawn %q: %w", spec.Command[0], err)
		}
		// The child holds its own copy of the write end.
		pw.Close()
		reader = pr
	}

	sess.Started = time.Now()
	sess.status.Store(int32(StatusRunning))
	s.sessions[spec.Role] = sess

	s.logger.Info("session started",
		"role", spec.Role, "pid", sess.PID(), "dir", spec.Dir, "command", spec.Command)

	go s.pump(sess, reader)

	return sess, nil
}

// buildEnv layers the TERM override and extra entries over the inherited
// environment. Later duplicates win at exec time.
func buildEnv(extra map[string]string) []string {
	env := append(os.Environ(), termEnv)
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

// liveLocked returns the first running session across all roles.
func (s *Supervisor) liveLocked() *Session {
	for _, role := range Roles {
		if sess := s.sessions[role]; sess != nil && sess.IsRunning() {
			return sess
		}
	}
	return nil
}

// pump copies process output into the sink, then records the exit.
func (s *Supervisor) pump(sess *Session, r io.ReadCloser) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = sess.sink.Write(buf[:n])
		}
		if err != nil {
			// A PTY read returns EIO once the child exits; either way the
			// stream is over.
			break
		}
	}
	r.Close()

	err := sess.cmd.Wait()

	status := StatusExited
	code := 0
	if err != nil {
		code = -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
			if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				status = StatusKilled
			}
		}
	}
	if sess.killed.Load() {
		status = StatusKilled
	}

	sess.exitCode.Store(int32(code))
	sess.status.Store(int32(status))

	// One more notification after the final chunk, so dependent scans see
	// the complete log before the session counts as fully processed.
	sess.sink.Flush()

	close(sess.done)

	s.logger.Info("session finished",
		"role", sess.Role, "status", status, "exit", code, "runtime", sess.Runtime())

	if s.onExit != nil {
		s.onExit(sess)
	}
}

// stop interrupts a session, waits the grace period, and force-kills if
// it is still alive. It blocks until the session is fully processed.
func (s *Supervisor) stop(sess *Session) {
	sess.killed.Store(true)
	s.signal(sess, syscall.SIGINT)

	select {
	case <-sess.done:
		return
	case <-time.After(s.grace):
	}

	s.signal(sess, syscall.SIGKILL)
	<-sess.done
}

// signal delivers a signal to the session's process group, falling back
// to the process itself when no group exists (PTY spawns).
func (s *Supervisor) signal(sess *Session, sig syscall.Signal) {
	pid := sess.PID()
	if pid <= 0 {
		return
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		_ = syscall.Kill(pid, sig)
	}
}

// Terminate kills the role's session if it is running. It is safe to call
// at any time and is idempotent against an already-exited session.
func (s *Supervisor) Terminate(role Role) error {
	s.mu.Lock()
	sess := s.sessions[role]
	s.mu.Unlock()

	if sess == nil || !sess.IsRunning() {
		return nil
	}
	s.stop(sess)
	return nil
}

// Get returns the role's session, running or terminal, or nil.
func (s *Supervisor) Get(role Role) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[role]
}

// Live returns the currently running session, if any.
func (s *Supervisor) Live() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveLocked()
}

// Shutdown terminates any live session. Used on process exit.
func (s *Supervisor) Shutdown() {
	if sess := s.Live(); sess != nil {
		s.stop(sess)
	}
}
