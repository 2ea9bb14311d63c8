// Package control is the entry layer over the runner: it resolves what
// command to run and where, starts sessions through the supervisor, and
// exposes navigation over the locations extracted from the log.
//
// A Registry holds the last command and last resolved directory per role
// for the process lifetime; an explicit command becomes the new default
// for later parameterless reruns of that role, and a rerun reuses the
// last resolved directory even if the caller's directory has since
// changed.
package control
