package supervise

import "errors"

// Sentinel errors for the supervise package.
var (
	// ErrAlreadyRunning is returned when a start is refused because another
	// session is live and the takeover was declined.
	ErrAlreadyRunning = errors.New("process already running")

	// ErrEmptyCommand is returned when a spec has no command tokens.
	ErrEmptyCommand = errors.New("empty command")

	// ErrNoSink is returned when a spec has no output sink.
	ErrNoSink = errors.New("no output sink")
)
