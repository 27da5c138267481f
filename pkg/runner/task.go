package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/types"
)

// taskIDs issues synthetic pids for task-backed runners so status
// consumers see a stable identifier regardless of backing.
var taskIDs atomic.Int64

// TaskFunc is the body of a task-backed pipeline. It must return when
// ctx is cancelled; a non-nil return before cancellation counts as an
// unexpected death.
type TaskFunc func(ctx context.Context) error

// taskRunner runs a pipeline as a goroutine. Lighter than a process,
// with the same Runner contract; used for built-in components and
// dockside dry runs.
type taskRunner struct {
	log     zerolog.Logger
	fn      TaskFunc
	id      int
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// NewTaskRunner wraps fn in a Runner with a synthetic pid.
func NewTaskRunner(logger string, fn TaskFunc) Runner {
	return &taskRunner{
		log:  log.WithLogger(logger),
		fn:   fn,
		id:   int(taskIDs.Add(1)),
		done: make(chan struct{}),
	}
}

func (t *taskRunner) Start() error {
	if t.started {
		return errors.New("runner already started")
	}
	t.started = true

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	go func() {
		defer close(t.done)
		if err := t.fn(ctx); err != nil && ctx.Err() == nil {
			t.log.Warn().Err(err).Msg("pipeline task exited with error")
		}
	}()
	return nil
}

func (t *taskRunner) Alive() bool {
	if !t.started {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *taskRunner) Terminate() error {
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

func (t *taskRunner) Join() error {
	if !t.started {
		return nil
	}
	<-t.done
	return nil
}

func (t *taskRunner) Pid() int {
	if !t.started {
		return 0
	}
	return t.id
}

// NewTickRunner builds a tick-component runner: it emits a debug log
// line at a fixed interval until stopped. Stands in for a real
// instrument feed during bench tests.
//
//	component: tick
//	interval: 1s
func NewTickRunner(logger string, spec types.ConfigSpec) (Runner, error) {
	interval, err := specDuration(spec, "interval", time.Second)
	if err != nil {
		return nil, err
	}
	tickLog := log.WithLogger(logger)
	return NewTaskRunner(logger, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				tickLog.Debug().Msg("tick")
			case <-ctx.Done():
				return nil
			}
		}
	}), nil
}

// NewNoopRunner builds a noop-component runner: it blocks until stopped.
func NewNoopRunner(logger string, spec types.ConfigSpec) (Runner, error) {
	return NewTaskRunner(logger, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}), nil
}

// NewCrashRunner builds a crash-component runner: it exits on its own
// after an optional delay. Exists to exercise the retry policy and flap
// detection.
//
//	component: crash
//	after: 100ms
func NewCrashRunner(logger string, spec types.ConfigSpec) (Runner, error) {
	after, err := specDuration(spec, "after", 0)
	if err != nil {
		return nil, err
	}
	return NewTaskRunner(logger, func(ctx context.Context) error {
		if after > 0 {
			select {
			case <-time.After(after):
			case <-ctx.Done():
				return nil
			}
		}
		return errors.New("pipeline gave up the ghost")
	}), nil
}
