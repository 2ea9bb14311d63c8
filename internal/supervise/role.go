package supervise

import "fmt"

// Role is the logical category of a supervised process. It is the key for
// single-instance enforcement.
type Role int

const (
	// RoleBuild is a compiler/build invocation.
	RoleBuild Role = iota
	// RoleTest is a test runner invocation.
	RoleTest
	// RoleFormat is a formatter invocation.
	RoleFormat
	// RoleLint is a linter invocation.
	RoleLint
)

// Roles lists all tracked roles.
var Roles = []Role{RoleBuild, RoleTest, RoleFormat, RoleLint}

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleBuild:
		return "build"
	case RoleTest:
		return "test"
	case RoleFormat:
		return "format"
	case RoleLint:
		return "lint"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch s {
	case "build":
		return RoleBuild, nil
	case "test":
		return RoleTest, nil
	case "format", "fmt":
		return RoleFormat, nil
	case "lint", "clippy":
		return RoleLint, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusIdle means no process has been started.
	StatusIdle Status = iota
	// StatusRunning means the process is alive.
	StatusRunning
	// StatusExited means the process exited on its own.
	StatusExited
	// StatusKilled means the process was terminated by the supervisor or
	// by a signal.
	StatusKilled
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusExited:
		return "exited"
	case StatusKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}
