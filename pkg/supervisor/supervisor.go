package supervisor

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/marintech/deckhand/pkg/events"
	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/metrics"
	"github.com/marintech/deckhand/pkg/policy"
	"github.com/marintech/deckhand/pkg/runner"
	"github.com/marintech/deckhand/pkg/types"
)

const (
	// DefaultInterval is the reconciliation polling period.
	DefaultInterval = 10 * time.Second

	// maxErrors bounds each logger's diagnostic log.
	maxErrors = 25
)

// runnerState is everything the supervisor knows about one logger. It
// is created the first time a logger name is mentioned and destroyed
// only when a bulk reconfiguration stops mentioning the name entirely.
type runnerState struct {
	desired types.ConfigSpec // nil means off
	unit    runner.Runner    // nil means no pipeline
	errors  []string
	history policy.History
}

// Config configures a Supervisor.
type Config struct {
	// Registry builds runners from config specs. Required.
	Registry *runner.Registry
	// Policy decides restarts for dead loggers. Defaults to a
	// three-attempt fixed policy.
	Policy policy.Policy
	// Broker receives run events. Optional.
	Broker *events.Broker
	// Interval is the reconciliation period. Defaults to
	// DefaultInterval.
	Interval time.Duration
}

// Supervisor owns the map from logger name to its desired config,
// running unit, error log, and retry history, and keeps actual state
// converged on desired state. Supervisors are independent instances; a
// process may run several (one per cruise) without shared state.
type Supervisor struct {
	registry *runner.Registry
	policy   policy.Policy
	broker   *events.Broker
	logger   zerolog.Logger

	// mu is the core critical section guarding state. All mutation goes
	// through *Locked helpers called with mu held.
	mu    sync.Mutex
	state map[string]*runnerState

	// checkMu serializes full-table status scans so the reconciliation
	// loop and an external status query can't both decide to restart
	// the same dead logger.
	checkMu sync.Mutex

	interval atomic.Int64
	stopCh   chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}
}

// New creates a supervisor. It does not start the reconciliation loop;
// call Start for that.
func New(cfg Config) *Supervisor {
	if cfg.Policy == nil {
		cfg.Policy = policy.NewFixedAttempt(3)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	s := &Supervisor{
		registry: cfg.Registry,
		policy:   cfg.Policy,
		broker:   cfg.Broker,
		logger:   log.WithComponent("supervisor"),
		state:    make(map[string]*runnerState),
		stopCh:   make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	s.interval.Store(int64(cfg.Interval))
	return s
}

// Start begins the reconciliation loop.
func (s *Supervisor) Start() {
	go s.run()
}

// Interval returns the current reconciliation period.
func (s *Supervisor) Interval() time.Duration {
	return time.Duration(s.interval.Load())
}

// SetInterval changes the reconciliation period. It takes effect on the
// next loop iteration.
func (s *Supervisor) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("interval must be positive, got %v", d)
	}
	s.interval.Store(int64(d))
	s.logger.Info().Dur("interval", d).Msg("reconciliation interval changed")
	return nil
}

// Stopped returns a channel closed once Quit has been called.
func (s *Supervisor) Stopped() <-chan struct{} {
	return s.stopCh
}

// run is the reconciliation loop: the only place automatic restarts are
// triggered. External SetConfig/SetConfigs calls never invoke the retry
// policy themselves.
func (s *Supervisor) run() {
	defer close(s.loopDone)
	for {
		timer := time.NewTimer(s.Interval())
		select {
		case <-timer.C:
			t := metrics.NewTimer()
			s.CheckLoggers(true, false)
			t.ObserveDuration(metrics.ReconcileDuration)
			metrics.ReconcileCyclesTotal.Inc()
		case <-s.stopCh:
			timer.Stop()
			return
		}
	}
}

// SetConfig sets one logger's desired config; nil means off. It is the
// fundamental mutating primitive: idempotent on an unchanged healthy
// logger, a replace on a changed config, a restart on an unchanged but
// dead one. Pipeline construction and start failures are recorded in
// the logger's error log, never returned, so one bad pipeline cannot
// abort a bulk reconfiguration.
func (s *Supervisor) SetConfig(name string, spec types.ConfigSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setConfigLocked(name, spec)
}

func (s *Supervisor) setConfigLocked(name string, spec types.ConfigSpec) {
	// An empty spec is another spelling of off.
	if len(spec) == 0 {
		spec = nil
	}

	// A logger exists from the moment its name is first mentioned, even
	// if only to be off; it still shows up in status reports.
	st, ok := s.state[name]
	if !ok {
		st = &runnerState{}
		s.state[name] = st
	}

	if st.desired.Equal(spec) {
		if spec == nil {
			return
		}
		if st.unit != nil && st.unit.Alive() {
			// Unchanged config, healthy unit: no restart.
			return
		}
		// Same config but the unit is gone; note it and relaunch below.
		s.appendErrorLocked(name, st, "pipeline unexpectedly dead; relaunching with same config")
		s.reapLocked(st)
	} else if st.unit != nil {
		s.stopUnitLocked(name, st)
	}

	st.desired = spec

	// A fresh explicit config always resets the retry budget and clears
	// the sticky failed flag, even if the spec is unchanged.
	st.history = policy.History{}

	if spec == nil {
		s.logger.Info().Str("logger", name).Msg("logger set off")
		return
	}
	s.startUnitLocked(name, st)
}

// startUnitLocked constructs and launches a unit for st.desired,
// recording rather than returning any failure. Every launch attempt
// consumes retry budget, including one that never produces a unit, so
// a spec that cannot be built or started still exhausts the policy and
// goes permanently failed.
func (s *Supervisor) startUnitLocked(name string, st *runnerState) {
	s.policy.OnStart(&st.history)

	unit, err := s.registry.New(name, st.desired)
	if err != nil {
		s.appendErrorLocked(name, st, fmt.Sprintf("failed to build pipeline: %v", err))
		return
	}
	if err := unit.Start(); err != nil {
		s.appendErrorLocked(name, st, fmt.Sprintf("failed to start pipeline: %v", err))
		return
	}
	st.unit = unit
	metrics.LoggerStartsTotal.Inc()

	s.logger.Info().Str("logger", name).Int("pid", unit.Pid()).Msg("pipeline started")
	s.publish(&types.RunEvent{
		Type:   types.RunEventStarted,
		Logger: name,
		Pid:    unit.Pid(),
	})
}

// reapLocked releases a unit that is already dead without the stop
// ceremony.
func (s *Supervisor) reapLocked(st *runnerState) {
	if st.unit == nil {
		return
	}
	_ = st.unit.Join()
	st.unit = nil
}

// stopUnitLocked terminates and joins st.unit, releasing ownership.
func (s *Supervisor) stopUnitLocked(name string, st *runnerState) {
	unit := st.unit
	st.unit = nil
	if unit == nil {
		return
	}
	pid := unit.Pid()
	if err := unit.Terminate(); err != nil {
		s.appendErrorLocked(name, st, fmt.Sprintf("failed to terminate pipeline: %v", err))
	}
	if err := unit.Join(); err != nil {
		s.appendErrorLocked(name, st, fmt.Sprintf("pipeline shutdown error: %v", err))
	}
	s.logger.Info().Str("logger", name).Int("pid", pid).Msg("pipeline stopped")
	s.publish(&types.RunEvent{
		Type:   types.RunEventStopped,
		Logger: name,
		Pid:    pid,
	})
}

// SetConfigs applies a complete desired state in one critical section.
// Logger names known to the supervisor but absent from desired are
// removed entirely: unit stopped, state deleted. Every name in desired
// is then applied as SetConfig would. The call is per-logger
// consistent, not transactional across loggers.
func (s *Supervisor) SetConfigs(desired map[string]types.ConfigSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range s.knownNamesLocked() {
		if _, ok := desired[name]; !ok {
			st := s.state[name]
			s.stopUnitLocked(name, st)
			delete(s.state, name)
			s.logger.Info().Str("logger", name).Msg("logger removed from desired state")
		}
	}

	// Deterministic application order.
	names := make([]string, 0, len(desired))
	for name := range desired {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s.setConfigLocked(name, desired[name])
	}
}

// Quit requests cooperative shutdown: the reconciliation loop stops at
// its next iteration and every known logger is set off. Logger state
// entries persist so a final status query still reports them.
func (s *Supervisor) Quit() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range s.knownNamesLocked() {
		s.setConfigLocked(name, nil)
	}
	s.logger.Info().Msg("supervisor quit")
}

// Join blocks until the reconciliation loop has exited. Only meaningful
// after Quit.
func (s *Supervisor) Join() {
	<-s.loopDone
}

func (s *Supervisor) knownNamesLocked() []string {
	names := make([]string, 0, len(s.state))
	for name := range s.state {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownLoggers returns the names the supervisor currently tracks.
func (s *Supervisor) KnownLoggers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.knownNamesLocked()
}

func (s *Supervisor) appendErrorLocked(name string, st *runnerState, msg string) {
	st.errors = append(st.errors, msg)
	if len(st.errors) > maxErrors {
		st.errors = st.errors[len(st.errors)-maxErrors:]
	}
	s.logger.Warn().Str("logger", name).Msg(msg)
	s.publish(&types.RunEvent{
		Type:    types.RunEventError,
		Logger:  name,
		Message: msg,
	})
}

func (s *Supervisor) publish(event *types.RunEvent) {
	if s.broker != nil {
		s.broker.Publish(event)
	}
}

// Publish forwards a cruise-level event (mode set, cruise loaded) to
// the broker on behalf of the command surface.
func (s *Supervisor) Publish(event *types.RunEvent) {
	s.publish(event)
}
