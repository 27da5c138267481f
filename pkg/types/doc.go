/*
Package types defines the core data structures used throughout deckhand.

This package contains the fundamental types of deckhand's domain model:
cruise configurations, logger specifications, opaque pipeline config
specs, per-logger status records, and run events. These types are used
by all other packages for mode resolution, supervision, and telemetry.

# Core Types

Cruise configuration:
  - CruiseConfig: The full declarative document for one cruise
  - LoggerSpec: One named pipeline and its config whitelist
  - ConfigSpec: An opaque, structurally-comparable pipeline definition

Supervision and telemetry:
  - LoggerStatus: The flat four-field status record per logger
  - RunEvent: One logger lifecycle transition
  - RunEventType: Typed string constants for event classification

# Design Patterns

ConfigSpec is deliberately a generic map rather than a struct: the
supervisor treats pipeline definitions as opaque blobs, comparing them
only with ConfigSpec.Equal (structural deep equality) and passing them
to the runner factory. Interpreting the blob is the factory's job.

All enums use typed string constants:

	type RunEventType string
	const (
	    RunEventStarted RunEventType = "logger.started"
	    RunEventDied    RunEventType = "logger.died"
	)

# Thread Safety

Types in this package are read-safe but write-unsafe; mutations must be
synchronized by the owning component (the supervisor core holds the only
mutable references during a cruise).

# See Also

  - pkg/cruise for loading and mode resolution
  - pkg/supervisor for the state these types describe
  - pkg/journal for RunEvent persistence
*/
package types
