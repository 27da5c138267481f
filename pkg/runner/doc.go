/*
Package runner defines the Runnable Unit boundary between the supervisor
and the pipelines it manages.

A Runner is an opaque execution handle exposing exactly five operations:
Start, Alive, Terminate, Join, and Pid. The supervisor depends on
nothing else, which keeps it indifferent to whether a pipeline runs as
an isolated OS process (the exec component) or as a goroutine (the
task-backed components).

# Component registry

Config specs name their implementation with a component field. The
Registry maps component names to constructors and resolves them once,
at construction time:

	reg := runner.DefaultRegistry()
	r, err := reg.New("gyro", spec)   // spec["component"] == "exec"

Built-in components:

  - exec: run a command line as a child process
  - tick: emit a log line on an interval (bench stand-in for a feed)
  - noop: block until stopped
  - crash: exit on purpose, for retry-policy testing

External instrument components register the same way, keeping class
lookup out of the supervisor entirely.

# Lifecycle

Start may be called at most once per runner; a dead runner is replaced,
never restarted in place. Terminate is a request (SIGTERM or context
cancel); Join waits for the pipeline to actually stop, escalating to
SIGKILL for processes that ignore the request.
*/
package runner
