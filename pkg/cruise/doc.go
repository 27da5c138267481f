/*
Package cruise loads, validates, and resolves cruise configurations.

A cruise configuration is the declarative YAML document describing every
logger aboard, the named pipeline configs each may run, and the
vessel-wide modes (e.g. "port", "underway") that bundle per-logger
config choices.

# Architecture

The package is a pure configuration model: it has no side effects on
the supervisor. Control flows

	Load/Parse → Validate → ResolveMode → supervisor.SetConfigs

ResolveMode always returns exactly one entry per declared logger; a nil
spec means the mode leaves that logger off. This total-coverage property
is what lets the supervisor treat a mode switch as a complete desired
state rather than a delta.

# Example document

	cruise_id: NBP1406
	loggers:
	  gyro:
	    configs: [gyro-file, gyro-net]
	  seawater:
	    configs: [seawater-file]
	configs:
	  gyro-file:
	    component: tick
	    interval: 1s
	  gyro-net:
	    component: exec
	    command: [/usr/local/bin/gyro-reader]
	  seawater-file:
	    component: tick
	    interval: 5s
	modes:
	  port: {}
	  underway:
	    gyro: gyro-net
	    seawater: seawater-file
	default_mode: port

# Validation

Validate enforces the document invariants up front: all three sections
present, default_mode a defined mode, every mode assignment whitelisted
by its logger and backed by a defined config. Validation failures leave
no trace in the system; they are always safe to retry after an edit.

# See Also

  - pkg/supervisor for applying resolved state
  - pkg/runner for how config specs become running pipelines
*/
package cruise
