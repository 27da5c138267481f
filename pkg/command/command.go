package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marintech/deckhand/pkg/cruise"
	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/metrics"
	"github.com/marintech/deckhand/pkg/supervisor"
	"github.com/marintech/deckhand/pkg/types"
)

// ErrQuit is returned by Execute when the quit command has been
// processed, so transports know to stop reading.
var ErrQuit = errors.New("quit requested")

var errNoCruise = errors.New("no cruise configuration loaded")

const usage = `commands:
  load_cruise <path>                      load a cruise file and apply its default mode
  set_cruise <yaml>                       same, from an inline document
  set_mode <name>                         switch every logger to the named mode
  set_configs <yaml map>                  apply an explicit logger→config map
  set_logger_config <logger> <yaml>       set one logger's config inline
  set_logger_config_name <logger> <name>  set one logger's config by name
  set_interval <seconds>                  change the reconciliation interval
  status                                  print per-logger status as JSON
  quit                                    shut every logger down and exit`

// Dispatcher maps command lines 1:1 onto supervisor and cruise
// operations. One dispatcher serves any number of transports (stdin
// loop, socket, embedding process); it owns the current cruise
// configuration and mode.
type Dispatcher struct {
	sup *supervisor.Supervisor

	mu   sync.Mutex
	cfg  *types.CruiseConfig
	mode string
}

// NewDispatcher creates a dispatcher bound to one supervisor.
func NewDispatcher(sup *supervisor.Supervisor) *Dispatcher {
	return &Dispatcher{sup: sup}
}

// Cruise returns the currently loaded cruise config, or nil.
func (d *Dispatcher) Cruise() *types.CruiseConfig {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Mode returns the currently applied mode name, or "".
func (d *Dispatcher) Mode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Execute runs one command line and returns its printable output.
// Malformed arguments return a synchronous error without touching
// supervisor state; an unrecognized verb returns the usage text.
func (d *Dispatcher) Execute(line string) (string, error) {
	verb, rest := splitVerb(line)
	if verb == "" {
		return "", nil
	}

	out, err := d.dispatch(verb, rest)
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CommandsTotal.WithLabelValues(verb, status).Inc()
	return out, err
}

func (d *Dispatcher) dispatch(verb, rest string) (string, error) {
	switch verb {
	case "load_cruise":
		return d.loadCruise(rest)
	case "set_cruise":
		return d.setCruise(rest)
	case "set_mode":
		return d.setMode(rest)
	case "set_configs":
		return d.setConfigs(rest)
	case "set_logger_config":
		return d.setLoggerConfig(rest)
	case "set_logger_config_name":
		return d.setLoggerConfigName(rest)
	case "set_interval":
		return d.setInterval(rest)
	case "status":
		return d.status()
	case "help":
		return usage, nil
	case "quit":
		d.sup.Quit()
		return "shutting down", ErrQuit
	default:
		return usage, fmt.Errorf("unrecognized command %q", verb)
	}
}

func (d *Dispatcher) loadCruise(rest string) (string, error) {
	path := strings.TrimSpace(rest)
	if path == "" {
		return "", errors.New("load_cruise requires a file path")
	}
	cfg, err := cruise.Load(path)
	if err != nil {
		return "", err
	}
	return d.applyCruise(cfg)
}

func (d *Dispatcher) setCruise(rest string) (string, error) {
	if strings.TrimSpace(rest) == "" {
		return "", errors.New("set_cruise requires an inline YAML document")
	}
	cfg, err := cruise.Parse([]byte(rest))
	if err != nil {
		return "", err
	}
	return d.applyCruise(cfg)
}

// ApplyCruise installs an already-validated cruise config and applies
// its default mode. Embedding processes use this directly; the command
// verbs route through it.
func (d *Dispatcher) ApplyCruise(cfg *types.CruiseConfig) (string, error) {
	return d.applyCruise(cfg)
}

// applyCruise installs a validated cruise config and applies its
// default mode. Resolution happens before any supervisor mutation, so a
// bad document leaves the running state untouched.
func (d *Dispatcher) applyCruise(cfg *types.CruiseConfig) (string, error) {
	mode := cfg.DefaultMode
	desired, err := cruise.ResolveMode(cfg, mode)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mode = mode
	d.mu.Unlock()

	d.sup.SetConfigs(desired)
	cl := log.WithCruiseID(cfg.ID)
	cl.Info().Str("mode", mode).Int("loggers", len(cfg.Loggers)).Msg("cruise configuration applied")
	d.sup.Publish(&types.RunEvent{
		Type:    types.RunEventCruiseSet,
		Mode:    mode,
		Message: fmt.Sprintf("cruise %s loaded, %d loggers", cfg.ID, len(cfg.Loggers)),
	})
	return fmt.Sprintf("loaded cruise %s (%d loggers), mode %s", cfg.ID, len(cfg.Loggers), mode), nil
}

func (d *Dispatcher) setMode(rest string) (string, error) {
	mode := strings.TrimSpace(rest)
	if mode == "" {
		return "", errors.New("set_mode requires a mode name")
	}

	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()
	if cfg == nil {
		return "", errNoCruise
	}

	desired, err := cruise.ResolveMode(cfg, mode)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()

	d.sup.SetConfigs(desired)
	metrics.ModeSwitchesTotal.Inc()
	d.sup.Publish(&types.RunEvent{
		Type: types.RunEventModeSet,
		Mode: mode,
	})
	return fmt.Sprintf("mode %s applied", mode), nil
}

func (d *Dispatcher) setConfigs(rest string) (string, error) {
	if strings.TrimSpace(rest) == "" {
		return "", errors.New("set_configs requires an inline YAML map")
	}
	var raw map[string]types.ConfigSpec
	if err := yaml.Unmarshal([]byte(rest), &raw); err != nil {
		return "", fmt.Errorf("failed to parse desired-state map: %w", err)
	}
	d.sup.SetConfigs(raw)
	return fmt.Sprintf("applied %d logger configs", len(raw)), nil
}

func (d *Dispatcher) setLoggerConfig(rest string) (string, error) {
	name, specText, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok || strings.TrimSpace(specText) == "" {
		return "", errors.New("set_logger_config requires a logger name and an inline YAML spec")
	}
	var spec types.ConfigSpec
	if err := yaml.Unmarshal([]byte(specText), &spec); err != nil {
		return "", fmt.Errorf("failed to parse config spec: %w", err)
	}
	d.sup.SetConfig(name, spec)
	return fmt.Sprintf("logger %s config set", name), nil
}

func (d *Dispatcher) setLoggerConfigName(rest string) (string, error) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return "", errors.New("set_logger_config_name requires a logger name and a config name")
	}
	loggerName, configName := fields[0], fields[1]

	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()
	if cfg == nil {
		return "", errNoCruise
	}

	spec, err := cruise.LookupConfig(cfg, configName)
	if err != nil {
		return "", err
	}
	d.sup.SetConfig(loggerName, spec)
	return fmt.Sprintf("logger %s running config %s", loggerName, configName), nil
}

func (d *Dispatcher) setInterval(rest string) (string, error) {
	arg := strings.TrimSpace(rest)
	if arg == "" {
		return "", errors.New("set_interval requires a number of seconds")
	}

	var interval time.Duration
	if secs, err := strconv.ParseFloat(arg, 64); err == nil {
		interval = time.Duration(secs * float64(time.Second))
	} else if dur, err := time.ParseDuration(arg); err == nil {
		interval = dur
	} else {
		return "", fmt.Errorf("invalid interval %q", arg)
	}

	if err := d.sup.SetInterval(interval); err != nil {
		return "", err
	}
	return fmt.Sprintf("interval set to %v", interval), nil
}

func (d *Dispatcher) status() (string, error) {
	statuses := d.sup.CheckLoggers(false, false)
	out, err := json.MarshalIndent(statuses, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode status: %w", err)
	}
	return string(out), nil
}

// Verbs returns the recognized command verbs, for interactive help.
func Verbs() []string {
	verbs := []string{
		"load_cruise", "set_cruise", "set_mode", "set_configs",
		"set_logger_config", "set_logger_config_name",
		"set_interval", "status", "help", "quit",
	}
	sort.Strings(verbs)
	return verbs
}

func splitVerb(line string) (verb, rest string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", ""
	}
	verb, rest, _ = strings.Cut(line, " ")
	return verb, rest
}
