package runner

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marintech/deckhand/pkg/types"
)

// Runner is the execution handle for one logger's pipeline. The
// supervisor calls nothing beyond this interface and interprets no
// field of the config spec a runner was built from.
type Runner interface {
	// Start launches the pipeline. It must be called at most once.
	Start() error

	// Alive reports whether the pipeline is still running.
	Alive() bool

	// Terminate requests shutdown of the pipeline.
	Terminate() error

	// Join blocks until the pipeline has fully stopped and its
	// resources are released.
	Join() error

	// Pid returns the OS process ID for process-backed runners, or a
	// synthetic identifier for task-backed ones.
	Pid() int
}

// Constructor builds a runner for one logger from its config spec.
type Constructor func(logger string, spec types.ConfigSpec) (Runner, error)

var (
	ErrNoComponent      = errors.New("config spec has no component field")
	ErrUnknownComponent = errors.New("unknown component")
)

// Registry maps component-type names to runner constructors. Component
// lookup happens once, at construction time, entirely outside the
// supervisor core.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		constructors: make(map[string]Constructor),
	}
}

// Register binds a component-type name to a constructor, replacing any
// previous binding for that name.
func (r *Registry) Register(component string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[component] = ctor
}

// New builds a runner from a config spec by looking up its component
// field. The returned runner has not been started.
func (r *Registry) New(logger string, spec types.ConfigSpec) (Runner, error) {
	component, err := specString(spec, "component")
	if err != nil {
		return nil, ErrNoComponent
	}

	r.mu.RLock()
	ctor, ok := r.constructors[component]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("component %q: %w", component, ErrUnknownComponent)
	}

	return ctor(logger, spec)
}

// Components returns the registered component-type names.
func (r *Registry) Components() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry returns a registry with the built-in components
// registered: exec (process-backed), tick, noop, and crash
// (task-backed, used for bench testing and dockside dry runs).
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("exec", NewProcessRunner)
	r.Register("tick", NewTickRunner)
	r.Register("noop", NewNoopRunner)
	r.Register("crash", NewCrashRunner)
	return r
}

// specString extracts a required string field from a config spec.
func specString(spec types.ConfigSpec, key string) (string, error) {
	v, ok := spec[key]
	if !ok {
		return "", fmt.Errorf("spec field %q missing", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("spec field %q is not a string", key)
	}
	return s, nil
}

// specStrings extracts a string-list field from a config spec.
func specStrings(spec types.ConfigSpec, key string) ([]string, error) {
	v, ok := spec[key]
	if !ok {
		return nil, fmt.Errorf("spec field %q missing", key)
	}
	items, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("spec field %q is not a list", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("spec field %q contains a non-string entry", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// specDuration extracts an optional duration field, returning def when
// the field is absent.
func specDuration(spec types.ConfigSpec, key string, def time.Duration) (time.Duration, error) {
	v, ok := spec[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("spec field %q is not a duration string", key)
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("spec field %q: %w", key, err)
	}
	return d, nil
}
