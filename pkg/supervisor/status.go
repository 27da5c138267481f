package supervisor

import (
	"github.com/marintech/deckhand/pkg/metrics"
	"github.com/marintech/deckhand/pkg/policy"
	"github.com/marintech/deckhand/pkg/types"
)

// CheckLogger reports one logger's status. With manage set, a
// desired-but-dead logger is handed to the retry policy (the only path
// that triggers automatic restarts) and a stray unit with no desired
// config is terminated, both before the status is computed. With
// clearErrors set, the logger's error log is emptied after being read.
func (s *Supervisor) CheckLogger(name string, manage, clearErrors bool) types.LoggerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkLoggerLocked(name, manage, clearErrors)
}

func (s *Supervisor) checkLoggerLocked(name string, manage, clearErrors bool) types.LoggerStatus {
	st, ok := s.state[name]
	if !ok {
		return types.LoggerStatus{}
	}

	if st.desired == nil && st.unit != nil {
		// Should not arise under correct SetConfig use; self-heal
		// rather than treat as fatal.
		s.logger.Error().Str("logger", name).Msg("anomaly: unit running with no desired config")
		if manage {
			s.stopUnitLocked(name, st)
		}
	}

	if manage && st.desired != nil && !s.aliveLocked(st) {
		s.manageDeadLocked(name, st)
	}

	status := types.LoggerStatus{
		Failed: st.history.Failed,
		Errors: append([]string(nil), st.errors...),
	}
	switch {
	case st.desired == nil:
		// Steady off state: Running stays nil.
	case s.aliveLocked(st):
		running := true
		pid := st.unit.Pid()
		status.Running = &running
		status.Pid = &pid
	default:
		running := false
		status.Running = &running
	}

	if clearErrors {
		st.errors = nil
	}
	return status
}

// manageDeadLocked routes a desired-but-dead logger through the retry
// policy.
func (s *Supervisor) manageDeadLocked(name string, st *runnerState) {
	decision, reason := s.policy.OnDeath(&st.history)
	switch decision {
	case policy.Restart:
		s.logger.Warn().Str("logger", name).Msg(reason)
		s.appendErrorLocked(name, st, reason)
		s.reapLocked(st)
		s.startUnitLocked(name, st)
		if st.unit != nil {
			metrics.LoggerRestartsTotal.WithLabelValues(name).Inc()
			s.publish(&types.RunEvent{
				Type:   types.RunEventRestarted,
				Logger: name,
				Pid:    st.unit.Pid(),
			})
		}
	case policy.GiveUp:
		s.logger.Error().Str("logger", name).Msg(reason)
		s.appendErrorLocked(name, st, reason)
		s.reapLocked(st)
		metrics.LoggerFailuresTotal.Inc()
		s.publish(&types.RunEvent{
			Type:    types.RunEventFailed,
			Logger:  name,
			Message: reason,
		})
	case policy.Ignore:
		s.logger.Debug().Str("logger", name).Msg(reason)
	}
}

func (s *Supervisor) aliveLocked(st *runnerState) bool {
	return st.unit != nil && st.unit.Alive()
}

// CheckLoggers reports every known logger's status. The scan itself is
// serialized by a dedicated lock so two concurrent managed scans (the
// reconciliation loop plus an external query) cannot both restart the
// same dead logger.
func (s *Supervisor) CheckLoggers(manage, clearErrors bool) map[string]types.LoggerStatus {
	s.checkMu.Lock()
	defer s.checkMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make(map[string]types.LoggerStatus, len(s.state))
	for _, name := range s.knownNamesLocked() {
		statuses[name] = s.checkLoggerLocked(name, manage, clearErrors)
	}

	s.updateGauges(statuses)
	return statuses
}

func (s *Supervisor) updateGauges(statuses map[string]types.LoggerStatus) {
	var off, running, dead, failed float64
	for _, st := range statuses {
		switch {
		case st.Failed:
			failed++
		case st.Running == nil:
			off++
		case *st.Running:
			running++
		default:
			dead++
		}
	}
	metrics.LoggersTotal.WithLabelValues("off").Set(off)
	metrics.LoggersTotal.WithLabelValues("running").Set(running)
	metrics.LoggersTotal.WithLabelValues("dead").Set(dead)
	metrics.LoggersTotal.WithLabelValues("failed").Set(failed)
}
