package runner

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/marintech/deckhand/pkg/log"
	"github.com/marintech/deckhand/pkg/types"
)

// killGrace is how long Join waits after a Terminate before escalating
// from SIGTERM to SIGKILL.
const killGrace = 10 * time.Second

// processRunner runs a pipeline as an isolated OS process so a blocking
// read or crash inside it cannot stall the supervisor or any sibling.
type processRunner struct {
	log     zerolog.Logger
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error
	started bool
}

// NewProcessRunner builds an exec-component runner. The spec must carry
// a non-empty command list; env entries are optional.
//
//	component: exec
//	command: [/usr/local/bin/gyro-reader, --port, /dev/ttyS0]
//	env: [GYRO_BAUD=4800]
func NewProcessRunner(logger string, spec types.ConfigSpec) (Runner, error) {
	command, err := specStrings(spec, "command")
	if err != nil {
		return nil, err
	}
	if len(command) == 0 {
		return nil, errors.New("exec component requires a non-empty command")
	}

	cmd := exec.Command(command[0], command[1:]...)
	if _, ok := spec["env"]; ok {
		// Optional, but if present it must be well formed.
		env, err := specStrings(spec, "env")
		if err != nil {
			return nil, err
		}
		cmd.Env = append(cmd.Environ(), env...)
	}

	return &processRunner{
		log:  log.WithLogger(logger),
		cmd:  cmd,
		done: make(chan struct{}),
	}, nil
}

func (p *processRunner) Start() error {
	if p.started {
		return errors.New("runner already started")
	}
	if err := p.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start pipeline process: %w", err)
	}
	p.started = true

	// Reap in the background so Alive never blocks on Wait.
	go func() {
		p.waitErr = p.cmd.Wait()
		close(p.done)
	}()

	p.log.Debug().
		Int("pid", p.cmd.Process.Pid).
		Str("command", p.cmd.Path).
		Msg("pipeline process started")
	return nil
}

func (p *processRunner) Alive() bool {
	if !p.started {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

func (p *processRunner) Terminate() error {
	if !p.started || !p.Alive() {
		return nil
	}
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal pipeline process: %w", err)
	}
	return nil
}

func (p *processRunner) Join() error {
	if !p.started {
		return nil
	}
	select {
	case <-p.done:
	case <-time.After(killGrace):
		p.log.Warn().
			Int("pid", p.cmd.Process.Pid).
			Msg("pipeline ignored SIGTERM, killing")
		_ = p.cmd.Process.Kill()
		<-p.done
	}
	if p.waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(p.waitErr, &exitErr) {
			// Non-zero exit after a requested stop is routine.
			return nil
		}
		return p.waitErr
	}
	return nil
}

func (p *processRunner) Pid() int {
	if !p.started {
		return 0
	}
	return p.cmd.Process.Pid
}
