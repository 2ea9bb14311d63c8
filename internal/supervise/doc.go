// Package supervise runs one external build-tool process per role and
// streams its output into a session log.
//
// A Role (build, test, format, lint) is the mutual-exclusion key: at most
// one live session exists per role, and starting any role while another
// role's session is running requires a decision from the injected confirm
// callback. A confirmed takeover interrupts the running process, waits a
// grace period, and force-kills if it is still alive.
//
//	sup := supervise.NewSupervisor(
//	    supervise.WithConfirm(func(running *supervise.Session) bool {
//	        return true // headless environments answer deterministically
//	    }),
//	)
//	sess, err := sup.Start(ctx, supervise.Spec{
//	    Role:    supervise.RoleBuild,
//	    Command: []string{"cargo", "build"},
//	    Dir:     root,
//	    Sink:    sink,
//	})
//
// Output delivery to the sink is serialized per session: stdout and
// stderr share one descriptor, and a single goroutine pumps it. The log
// buffer is cleared when the next session starts, not when a process
// exits, so a finished run stays inspectable.
package supervise
