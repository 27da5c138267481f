package types

import (
	"fmt"
	"reflect"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigSpec is an opaque pipeline definition. The supervisor never
// interprets its contents; it only tests specs for structural equality
// and hands them to the runner factory. A nil map means "no config".
type ConfigSpec map[string]interface{}

// Equal reports whether two specs are structurally identical. Specs are
// generic YAML subtrees, so reflect.DeepEqual on the decoded value gives
// structural (not identity) equality.
func (c ConfigSpec) Equal(other ConfigSpec) bool {
	if len(c) == 0 && len(other) == 0 {
		return true
	}
	return reflect.DeepEqual(map[string]interface{}(c), map[string]interface{}(other))
}

// Clone returns a deep copy of the spec so callers can't mutate state
// the supervisor has already accepted.
func (c ConfigSpec) Clone() ConfigSpec {
	if c == nil {
		return nil
	}
	out, err := yaml.Marshal(map[string]interface{}(c))
	if err != nil {
		// Specs come from decoded YAML, so this cannot happen in practice.
		panic(fmt.Sprintf("clone config spec: %v", err))
	}
	var cp map[string]interface{}
	if err := yaml.Unmarshal(out, &cp); err != nil {
		panic(fmt.Sprintf("clone config spec: %v", err))
	}
	return ConfigSpec(cp)
}

// LoggerSpec declares one named data pipeline and the configs it may run.
type LoggerSpec struct {
	// Configs whitelists the config names valid for this logger.
	Configs []string `yaml:"configs"`
	// Host is optional host-affinity metadata for multi-host deployments.
	// The supervisor itself ignores it.
	Host string `yaml:"host,omitempty"`
}

// HasConfig reports whether name is in the logger's whitelist.
func (l *LoggerSpec) HasConfig(name string) bool {
	for _, c := range l.Configs {
		if c == name {
			return true
		}
	}
	return false
}

// CruiseConfig is the full declarative document for one cruise: the
// loggers aboard, the named pipeline configs, and the vessel-wide modes
// that bundle per-logger config choices.
type CruiseConfig struct {
	ID          string                       `yaml:"cruise_id,omitempty"`
	Loggers     map[string]*LoggerSpec       `yaml:"loggers"`
	Configs     map[string]ConfigSpec        `yaml:"configs"`
	Modes       map[string]map[string]string `yaml:"modes"`
	DefaultMode string                       `yaml:"default_mode"`
}

// LoggerStatus is the flat per-logger record the supervisor reports to
// external consumers (CLI, dashboards, monitoring).
type LoggerStatus struct {
	// Running is nil when the logger is off (no config desired, no unit),
	// true when a desired unit is alive, false when a desired unit is dead.
	Running *bool    `json:"running"`
	Failed  bool     `json:"failed"`
	Pid     *int     `json:"pid"`
	Errors  []string `json:"errors"`
}

// RunEventType classifies run-journal entries.
type RunEventType string

const (
	RunEventStarted   RunEventType = "logger.started"
	RunEventStopped   RunEventType = "logger.stopped"
	RunEventRestarted RunEventType = "logger.restarted"
	RunEventDied      RunEventType = "logger.died"
	RunEventFailed    RunEventType = "logger.failed"
	RunEventError     RunEventType = "logger.error"
	RunEventModeSet   RunEventType = "mode.set"
	RunEventCruiseSet RunEventType = "cruise.loaded"
)

// RunEvent is one logger lifecycle transition, published on the event
// broker and appended to the run journal.
type RunEvent struct {
	ID        string       `json:"id"`
	Type      RunEventType `json:"type"`
	Timestamp time.Time    `json:"timestamp"`
	Logger    string       `json:"logger,omitempty"`
	Mode      string       `json:"mode,omitempty"`
	Pid       int          `json:"pid,omitempty"`
	Message   string       `json:"message,omitempty"`
}
