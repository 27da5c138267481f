package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marintech/deckhand/pkg/types"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestRegistryLookup(t *testing.T) {
	reg := DefaultRegistry()
	assert.ElementsMatch(t, []string{"exec", "tick", "noop", "crash"}, reg.Components())

	tests := []struct {
		name    string
		spec    types.ConfigSpec
		wantErr error
	}{
		{
			name:    "missing component field",
			spec:    types.ConfigSpec{"interval": "1s"},
			wantErr: ErrNoComponent,
		},
		{
			name:    "unknown component",
			spec:    types.ConfigSpec{"component": "sonar-deluxe"},
			wantErr: ErrUnknownComponent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.New("test", tt.spec)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRegistryRegisterOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("custom", func(logger string, spec types.ConfigSpec) (Runner, error) {
		return NewTaskRunner(logger, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}), nil
	})

	r, err := reg.New("depth", types.ConfigSpec{"component": "custom"})
	require.NoError(t, err)
	assert.False(t, r.Alive(), "runner should not be alive before Start")
}

func TestTaskRunnerLifecycle(t *testing.T) {
	r, err := NewNoopRunner("test", types.ConfigSpec{"component": "noop"})
	require.NoError(t, err)

	assert.Equal(t, 0, r.Pid(), "pid should be zero before start")
	require.NoError(t, r.Start())
	assert.True(t, r.Alive())
	assert.Greater(t, r.Pid(), 0)

	require.NoError(t, r.Terminate())
	require.NoError(t, r.Join())
	assert.False(t, r.Alive())

	assert.Error(t, r.Start(), "double start must fail")
}

func TestTaskRunnerUniquePids(t *testing.T) {
	a, err := NewNoopRunner("a", nil)
	require.NoError(t, err)
	b, err := NewNoopRunner("b", nil)
	require.NoError(t, err)

	require.NoError(t, a.Start())
	require.NoError(t, b.Start())
	assert.NotEqual(t, a.Pid(), b.Pid())

	_ = a.Terminate()
	_ = b.Terminate()
	_ = a.Join()
	_ = b.Join()
}

func TestCrashRunnerDies(t *testing.T) {
	r, err := NewCrashRunner("test", types.ConfigSpec{"component": "crash", "after": "20ms"})
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.True(t, waitFor(t, 2*time.Second, func() bool { return !r.Alive() }),
		"crash runner should die on its own")
	require.NoError(t, r.Join())
}

func TestTickRunnerBadInterval(t *testing.T) {
	_, err := NewTickRunner("test", types.ConfigSpec{"component": "tick", "interval": "not-a-duration"})
	assert.Error(t, err)
}

func TestProcessRunnerLifecycle(t *testing.T) {
	r, err := NewProcessRunner("test", types.ConfigSpec{
		"component": "exec",
		"command":   []interface{}{"sleep", "60"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.True(t, r.Alive())
	assert.Greater(t, r.Pid(), 0)

	require.NoError(t, r.Terminate())
	require.NoError(t, r.Join())
	assert.False(t, r.Alive())
}

func TestProcessRunnerExits(t *testing.T) {
	r, err := NewProcessRunner("test", types.ConfigSpec{
		"component": "exec",
		"command":   []interface{}{"true"},
	})
	require.NoError(t, err)

	require.NoError(t, r.Start())
	assert.True(t, waitFor(t, 2*time.Second, func() bool { return !r.Alive() }),
		"process should exit on its own")
}

func TestProcessRunnerBadSpec(t *testing.T) {
	tests := []struct {
		name string
		spec types.ConfigSpec
	}{
		{"missing command", types.ConfigSpec{"component": "exec"}},
		{"empty command", types.ConfigSpec{"component": "exec", "command": []interface{}{}}},
		{"non-string command entry", types.ConfigSpec{"component": "exec", "command": []interface{}{42}}},
		{"malformed env list", types.ConfigSpec{
			"component": "exec",
			"command":   []interface{}{"true"},
			"env":       []interface{}{"OK=1", 7},
		}},
		{"env not a list", types.ConfigSpec{
			"component": "exec",
			"command":   []interface{}{"true"},
			"env":       "PATH=/bin",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProcessRunner("test", tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestProcessRunnerEnvAccepted(t *testing.T) {
	_, err := NewProcessRunner("test", types.ConfigSpec{
		"component": "exec",
		"command":   []interface{}{"true"},
		"env":       []interface{}{"GYRO_BAUD=4800"},
	})
	require.NoError(t, err)
}

func TestSpecHelpers(t *testing.T) {
	spec := types.ConfigSpec{
		"component": "exec",
		"command":   []interface{}{"echo", "hi"},
		"interval":  "250ms",
	}

	s, err := specString(spec, "component")
	require.NoError(t, err)
	assert.Equal(t, "exec", s)

	list, err := specStrings(spec, "command")
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", "hi"}, list)

	d, err := specDuration(spec, "interval", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	d, err = specDuration(spec, "missing", time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, d)
}
