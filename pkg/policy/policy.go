package policy

import (
	"fmt"
	"time"
)

// Decision is the policy's verdict on an unexpectedly dead logger.
type Decision int

const (
	// Restart means launch the pipeline again with its current config.
	Restart Decision = iota
	// GiveUp means mark the logger permanently failed; no further
	// automatic restarts until a new config is set.
	GiveUp
	// Ignore means the logger is already marked failed; do nothing.
	Ignore
)

// History is the per-logger run bookkeeping the policy reads and
// updates. It is owned by the supervisor core and only touched under
// its lock.
type History struct {
	// Attempts counts launch attempts since the last explicit config
	// change, whether or not unit construction and start succeeded.
	Attempts int
	// Restarts counts consecutive short-lived runs (uptime-aware policy).
	Restarts int
	// LastStart is when the pipeline was most recently launched.
	LastStart time.Time
	// Failed is sticky: once set, only a new set_config clears it.
	Failed bool
}

// Policy decides whether a desired-but-dead logger gets another chance.
type Policy interface {
	// OnDeath inspects and updates the run history of a logger that was
	// found dead, returning the verdict. Reason explains the verdict for
	// the logger's error log.
	OnDeath(h *History) (d Decision, reason string)

	// OnStart records a launch attempt in the history. It is called for
	// every attempt, successful or not, so broken specs consume budget
	// too.
	OnStart(h *History)
}

// FixedAttempt restarts a dead logger a fixed number of times and then
// gives up, regardless of how long each run lasted.
type FixedAttempt struct {
	MaxTries int
}

// NewFixedAttempt returns a fixed-attempt policy with the given budget.
func NewFixedAttempt(maxTries int) *FixedAttempt {
	return &FixedAttempt{MaxTries: maxTries}
}

func (p *FixedAttempt) OnDeath(h *History) (Decision, string) {
	if h.Failed {
		return Ignore, "logger already failed; not restarting"
	}
	if h.Attempts < p.MaxTries {
		return Restart, fmt.Sprintf("unexpectedly dead; restarting (attempt %d/%d)",
			h.Attempts+1, p.MaxTries)
	}
	h.Failed = true
	return GiveUp, fmt.Sprintf("failed %d times; not restarting", p.MaxTries)
}

func (p *FixedAttempt) OnStart(h *History) {
	h.Attempts++
	h.LastStart = time.Now()
}

// UptimeAware restarts a dead logger indefinitely as long as each run
// stays up at least MinUptime; a run that long earns the logger a clean
// slate. MaxTries consecutive short-lived runs mark it failed
// (flapping).
type UptimeAware struct {
	MaxTries  int
	MinUptime time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewUptimeAware returns an uptime-aware (flap-detecting) policy.
func NewUptimeAware(maxTries int, minUptime time.Duration) *UptimeAware {
	return &UptimeAware{
		MaxTries:  maxTries,
		MinUptime: minUptime,
		now:       time.Now,
	}
}

func (p *UptimeAware) OnDeath(h *History) (Decision, string) {
	if h.Failed {
		return Ignore, "logger already failed; not restarting"
	}

	uptime := p.now().Sub(h.LastStart)
	if uptime < p.MinUptime {
		h.Restarts++
	} else {
		h.Restarts = 0
	}

	if h.Restarts >= p.MaxTries {
		h.Failed = true
		return GiveUp, fmt.Sprintf("flapping: %d consecutive runs shorter than %v; not restarting",
			h.Restarts, p.MinUptime)
	}
	return Restart, fmt.Sprintf("unexpectedly dead after %v; restarting", uptime.Round(time.Millisecond))
}

func (p *UptimeAware) OnStart(h *History) {
	h.Attempts++
	h.LastStart = p.now()
}
