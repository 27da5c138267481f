package cruise

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/marintech/deckhand/pkg/types"
)

// Validation and resolution errors. All are detected synchronously,
// before any supervisor state is touched, so callers can fix the input
// and retry safely.
var (
	ErrNoLoggers      = errors.New("cruise config has no loggers section")
	ErrNoConfigs      = errors.New("cruise config has no configs section")
	ErrNoModes        = errors.New("cruise config has no modes section")
	ErrNoDefaultMode  = errors.New("cruise config has no default_mode")
	ErrUnknownMode    = errors.New("unknown mode")
	ErrUnknownLogger  = errors.New("unknown logger")
	ErrUnknownConfig  = errors.New("unknown config")
	ErrNotWhitelisted = errors.New("config not whitelisted for logger")
)

// Load reads and parses a cruise configuration from a YAML file.
func Load(path string) (*types.CruiseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cruise file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a cruise configuration from YAML and validates it.
func Parse(data []byte) (*types.CruiseConfig, error) {
	var cfg types.CruiseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cruise YAML: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structural invariants of a cruise configuration:
// all three sections present, default_mode defined, and every config
// name referenced by a mode both whitelisted for its logger and defined
// in the configs section.
func Validate(cfg *types.CruiseConfig) error {
	if len(cfg.Loggers) == 0 {
		return ErrNoLoggers
	}
	if len(cfg.Configs) == 0 {
		return ErrNoConfigs
	}
	if len(cfg.Modes) == 0 {
		return ErrNoModes
	}

	if cfg.DefaultMode == "" {
		return ErrNoDefaultMode
	}
	if _, ok := cfg.Modes[cfg.DefaultMode]; !ok {
		return fmt.Errorf("default_mode %q: %w", cfg.DefaultMode, ErrUnknownMode)
	}

	for loggerName, spec := range cfg.Loggers {
		for _, configName := range spec.Configs {
			if _, ok := cfg.Configs[configName]; !ok {
				return fmt.Errorf("logger %q lists config %q: %w", loggerName, configName, ErrUnknownConfig)
			}
		}
	}

	for modeName, assignments := range cfg.Modes {
		for loggerName, configName := range assignments {
			spec, ok := cfg.Loggers[loggerName]
			if !ok {
				return fmt.Errorf("mode %q references logger %q: %w", modeName, loggerName, ErrUnknownLogger)
			}
			if !spec.HasConfig(configName) {
				return fmt.Errorf("mode %q assigns config %q to logger %q: %w",
					modeName, configName, loggerName, ErrNotWhitelisted)
			}
			if _, ok := cfg.Configs[configName]; !ok {
				return fmt.Errorf("mode %q references config %q: %w", modeName, configName, ErrUnknownConfig)
			}
		}
	}

	return nil
}

// ResolveMode computes the desired state for a mode: one entry per
// declared logger, mapping its name to the config spec it should run,
// or to nil when the mode leaves that logger off. Pure function; it
// never touches supervisor state.
func ResolveMode(cfg *types.CruiseConfig, mode string) (map[string]types.ConfigSpec, error) {
	assignments, ok := cfg.Modes[mode]
	if !ok {
		return nil, fmt.Errorf("mode %q: %w", mode, ErrUnknownMode)
	}

	desired := make(map[string]types.ConfigSpec, len(cfg.Loggers))
	for loggerName, spec := range cfg.Loggers {
		configName, ok := assignments[loggerName]
		if !ok {
			// Absent from the mode's mapping means off in that mode.
			desired[loggerName] = nil
			continue
		}
		if !spec.HasConfig(configName) {
			return nil, fmt.Errorf("mode %q assigns config %q to logger %q: %w",
				mode, configName, loggerName, ErrNotWhitelisted)
		}
		configSpec, ok := cfg.Configs[configName]
		if !ok {
			return nil, fmt.Errorf("mode %q references config %q: %w", mode, configName, ErrUnknownConfig)
		}
		desired[loggerName] = configSpec.Clone()
	}

	return desired, nil
}

// LookupConfig returns the named config spec, for the
// set_logger_config_name command path.
func LookupConfig(cfg *types.CruiseConfig, name string) (types.ConfigSpec, error) {
	spec, ok := cfg.Configs[name]
	if !ok {
		return nil, fmt.Errorf("config %q: %w", name, ErrUnknownConfig)
	}
	return spec.Clone(), nil
}
