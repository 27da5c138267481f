/*
Package supervisor keeps every logger's pipeline running exactly when
and as its cruise configuration says it should.

The supervisor owns one record per logger name: desired config, running
unit, bounded error log, and retry history. External callers mutate
desired state (SetConfig, SetConfigs, Quit) and read actual state
(CheckLogger, CheckLoggers); a periodic reconciliation loop closes the
gap between the two.

# Architecture

	┌──────────────────────────────────────────────────────┐
	│                Command Surface (pkg/command)         │
	└────────────┬─────────────────────────┬───────────────┘
	             │ SetConfig/SetConfigs    │ CheckLoggers
	             ▼                         ▼
	┌──────────────────────────────────────────────────────┐
	│                   Supervisor Core                    │
	│   state: logger → {desired, unit, errors, history}   │
	└──────┬─────────────────────┬─────────────────────────┘
	       │ start/stop          │ every interval
	       ▼                     ▼
	┌──────────────┐     ┌──────────────────────┐
	│ pkg/runner   │     │ CheckLoggers(manage) │
	│  pipelines   │     │  → pkg/policy        │
	└──────────────┘     └──────────────────────┘

# Semantics

SetConfig is idempotent on an unchanged, healthy logger: the unit keeps
running and keeps its pid. A changed config stops the old unit before
starting the new one. An unchanged config with a dead unit relaunches
with the same config. An explicit SetConfig always resets the retry
budget and clears the sticky failed flag, which is the only way the
flag clears.

SetConfigs applies a complete desired state: names the supervisor knows
but the new state omits are removed outright (unit stopped, record
deleted), which is distinct from a name mapped to nil (kept, but off).
The call is per-logger consistent, never transactional across loggers;
a pipeline that fails to start is logged against its own logger and
does not disturb the rest.

Automatic restarts happen only inside managed status scans, and the
full-table scan takes a dedicated lock so the reconciliation loop and a
concurrent external query cannot double-restart the same dead logger.

Nothing in this package terminates the supervisor process. Pipeline
failures are recorded per logger; internal anomalies are self-healed;
the loop runs until Quit.

# Usage

	sup := supervisor.New(supervisor.Config{
	    Registry: runner.DefaultRegistry(),
	    Policy:   policy.NewUptimeAware(3, 10*time.Second),
	    Broker:   broker,
	})
	sup.Start()

	desired, _ := cruise.ResolveMode(cfg, cfg.DefaultMode)
	sup.SetConfigs(desired)

	statuses := sup.CheckLoggers(false, false)

	sup.Quit()
	sup.Join()

# See Also

  - pkg/policy for the restart/fail decision
  - pkg/runner for the unit contract
  - pkg/command for the external command mapping
*/
package supervisor
