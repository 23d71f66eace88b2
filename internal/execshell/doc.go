// Package execshell runs external commands for release-cascade.
//
// ShellExecutor wraps a CommandRunner, logs a readable message for every
// command it starts and finishes, notifies registered observers, and turns
// non-zero exits into CommandFailedError values that keep the captured
// standard error for callers that need to inspect it.
package execshell
