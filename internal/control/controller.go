package control

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/shlex"

	"github.com/tshepang/rustic/internal/ansi"
	"github.com/tshepang/rustic/internal/config"
	"github.com/tshepang/rustic/internal/locate"
	"github.com/tshepang/rustic/internal/logbuf"
	"github.com/tshepang/rustic/internal/project"
	"github.com/tshepang/rustic/internal/supervise"
)

// Controller errors.
var (
	// ErrNoCommand is returned when neither an explicit, recorded, nor
	// configured command exists for a role.
	ErrNoCommand = errors.New("no command for role")

	// ErrNoLocation is returned when jumping past either end of the
	// location list. The jump cursor does not move.
	ErrNoLocation = errors.New("no more locations")
)

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithConfirm forwards the takeover decision callback to the supervisor.
func WithConfirm(fn supervise.ConfirmFunc) ControllerOption {
	return func(c *Controller) {
		c.supOpts = append(c.supOpts, supervise.WithConfirm(fn))
	}
}

// WithFlush forwards the pre-flight flush hook to the supervisor.
func WithFlush(fn supervise.FlushFunc) ControllerOption {
	return func(c *Controller) {
		c.supOpts = append(c.supOpts, supervise.WithFlush(fn))
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithFinder overrides the project-root finder.
func WithFinder(f *project.Finder) ControllerOption {
	return func(c *Controller) {
		c.finder = f
	}
}

// WithWorkDir pins the starting directory used for root discovery instead
// of the process working directory.
func WithWorkDir(dir string) ControllerOption {
	return func(c *Controller) {
		c.workDir = dir
	}
}

// roleState is the per-role log pipeline: sink, scanner, and jump cursor.
type roleState struct {
	sink    *logbuf.Sink
	scanner *locate.Scanner
	jump    int // index into scanner locations; -1 before the first jump
}

// restartScan begins a fresh scan cycle for a new session. The output pump
// runs concurrently and may already have delivered chunks, or even the
// post-exit flush, before this executes; rescanning the current buffer
// right away means a scan over everything that has arrived always stands
// instead of waiting for a notification that may already have fired.
func (rs *roleState) restartScan() {
	rs.scanner.Reset()
	rs.scanner.Rescan(rs.sink.Buffer().Text())
	rs.jump = -1
}

// Controller resolves commands and directories, starts sessions, and
// exposes navigation over extracted locations.
type Controller struct {
	mu      sync.Mutex
	cfg     config.Config
	reg     *Registry
	sup     *supervise.Supervisor
	locs    *locate.Registry
	finder  *project.Finder
	roles   map[supervise.Role]*roleState
	workDir string
	supOpts []supervise.SupervisorOption
	logger  *log.Logger
}

// New creates a controller with the given configuration.
func New(cfg config.Config, opts ...ControllerOption) *Controller {
	c := &Controller{
		cfg:    cfg,
		reg:    NewRegistry(),
		locs:   locate.NewRegistry(),
		finder: project.NewFinder(),
		roles:  make(map[supervise.Role]*roleState),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.supOpts = append(c.supOpts, supervise.WithLogger(c.logger))
	c.sup = supervise.NewSupervisor(c.supOpts...)
	return c
}

// Supervisor exposes the underlying supervisor.
func (c *Controller) Supervisor() *supervise.Supervisor {
	return c.sup
}

// Registry exposes the last-command/last-directory registry.
func (c *Controller) Registry() *Registry {
	return c.reg
}

// SetConfig swaps the active configuration (config file reload). Running
// sessions are unaffected; the next start picks it up.
func (c *Controller) SetConfig(cfg config.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg
}

// RegisterFamily extends diagnostic coverage with an additional pattern
// family. Malformed patterns are rejected here and other families are
// unaffected.
func (c *Controller) RegisterFamily(f locate.Family) error {
	return c.locs.Register(f)
}

// Run starts a session for the role. An empty command means "use the last
// recorded command, or the configured default". A non-empty command is
// split shell-style and becomes the role's new recorded default after a
// successful start.
func (c *Controller) Run(ctx context.Context, role supervise.Role, command string) (*supervise.Session, error) {
	argv, err := c.resolveCommand(role, command)
	if err != nil {
		return nil, err
	}

	dir := c.resolveDir()
	return c.start(ctx, role, argv, dir)
}

// Rerun repeats the role's last run: last recorded command and last
// resolved directory, even if the caller's directory has since changed.
// With nothing recorded it falls back to the configured default command
// and the caller's current directory.
func (c *Controller) Rerun(ctx context.Context, role supervise.Role) (*supervise.Session, error) {
	argv, err := c.resolveCommand(role, "")
	if err != nil {
		return nil, err
	}

	dir, ok := c.reg.LastDir(role)
	if !ok {
		dir = c.startDir()
	}
	return c.start(ctx, role, argv, dir)
}

// Terminate kills the role's session; idempotent.
func (c *Controller) Terminate(role supervise.Role) error {
	return c.sup.Terminate(role)
}

// Session returns the role's current session, or nil.
func (c *Controller) Session(role supervise.Role) *supervise.Session {
	return c.sup.Get(role)
}

// Sink returns the role's output sink, creating the pipeline on first
// use.
func (c *Controller) Sink(role supervise.Role) *logbuf.Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roleLocked(role).sink
}

// Locations returns the role's extracted locations in document order.
func (c *Controller) Locations(role supervise.Role) []locate.Location {
	c.mu.Lock()
	rs := c.roleLocked(role)
	c.mu.Unlock()
	return rs.scanner.Locations()
}

// ScanState returns the role's incremental scan state.
func (c *Controller) ScanState(role supervise.Role) locate.ScanState {
	c.mu.Lock()
	rs := c.roleLocked(role)
	c.mu.Unlock()
	return rs.scanner.State()
}

// JumpNext advances the role's jump cursor and returns the location.
func (c *Controller) JumpNext(role supervise.Role) (locate.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rs := c.roleLocked(role)
	locs := rs.scanner.Locations()
	if rs.jump+1 >= len(locs) {
		return locate.Location{}, ErrNoLocation
	}
	rs.jump++
	return locs[rs.jump], nil
}

// JumpPrev moves the role's jump cursor back and returns the location.
func (c *Controller) JumpPrev(role supervise.Role) (locate.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rs := c.roleLocked(role)
	locs := rs.scanner.Locations()
	if rs.jump-1 < 0 || len(locs) == 0 {
		return locate.Location{}, ErrNoLocation
	}
	rs.jump--
	return locs[rs.jump], nil
}

// resolveCommand picks explicit > recorded > configured default.
func (c *Controller) resolveCommand(role supervise.Role, command string) ([]string, error) {
	if command == "" {
		if last, ok := c.reg.LastCommand(role); ok {
			return last, nil
		}
		c.mu.Lock()
		command = c.cfg.Command(role)
		c.mu.Unlock()
	}
	if command == "" {
		return nil, fmt.Errorf("%s: %w", role, ErrNoCommand)
	}

	argv, err := shlex.Split(command)
	if err != nil {
		return nil, fmt.Errorf("split command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("%s: %w", role, ErrNoCommand)
	}
	return argv, nil
}

// resolveDir discovers the project root above the starting directory,
// falling back to the starting directory itself.
func (c *Controller) resolveDir() string {
	start := c.startDir()
	root, err := c.finder.Root(start)
	if err != nil {
		return start
	}
	return root
}

func (c *Controller) startDir() string {
	if c.workDir != "" {
		return c.workDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func (c *Controller) start(ctx context.Context, role supervise.Role, argv []string, dir string) (*supervise.Session, error) {
	c.mu.Lock()
	rs := c.roleLocked(role)
	cfg := c.cfg
	c.mu.Unlock()

	sess, err := c.sup.Start(ctx, supervise.Spec{
		Role:    role,
		Command: argv,
		Dir:     dir,
		Env:     cfg.Env,
		Sink:    rs.sink,
		UsePTY:  cfg.UsePTY,
	})
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	rs.restartScan()
	c.mu.Unlock()

	c.reg.Record(role, argv, dir)
	return sess, nil
}

// roleLocked returns the role's pipeline, building it on first use.
// Called with c.mu held.
func (c *Controller) roleLocked(role supervise.Role) *roleState {
	if rs, ok := c.roles[role]; ok {
		return rs
	}

	dec := ansi.NewDecoder(c.cfg.AnsiPalette())
	sink := logbuf.NewSink(dec,
		logbuf.WithCarriageReturnCollapse(c.cfg.CollapseCarriageReturns))
	scanner := locate.NewScanner(c.locs)

	// Every content change re-enters the scanning state; the final
	// post-exit flush guarantees one scan over the complete log.
	sink.Subscribe(func(logbuf.Change) {
		scanner.Rescan(sink.Buffer().Text())
	})

	rs := &roleState{sink: sink, scanner: scanner, jump: -1}
	c.roles[role] = rs
	return rs
}
