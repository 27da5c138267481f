package command

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marintech/deckhand/pkg/runner"
	"github.com/marintech/deckhand/pkg/supervisor"
	"github.com/marintech/deckhand/pkg/types"
)

const testCruise = `
cruise_id: TEST01
loggers:
  gyro:
    configs: [gyro-on]
  depth:
    configs: [depth-on]
configs:
  gyro-on: {component: noop}
  depth-on: {component: noop}
modes:
  port: {}
  underway: {gyro: gyro-on, depth: depth-on}
default_mode: port
`

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	sup := supervisor.New(supervisor.Config{
		Registry: runner.DefaultRegistry(),
		Interval: time.Hour,
	})
	t.Cleanup(sup.Quit)
	return NewDispatcher(sup)
}

func TestExecuteUnrecognized(t *testing.T) {
	d := newTestDispatcher(t)
	out, err := d.Execute("jettison_cargo now")
	assert.Error(t, err)
	assert.Contains(t, out, "commands:", "unrecognized verbs print usage")
}

func TestExecuteBlankAndComment(t *testing.T) {
	d := newTestDispatcher(t)
	for _, line := range []string{"", "   ", "# a comment"} {
		out, err := d.Execute(line)
		assert.NoError(t, err)
		assert.Empty(t, out)
	}
}

func TestSetCruiseAndSetMode(t *testing.T) {
	d := newTestDispatcher(t)

	out, err := d.Execute("set_cruise " + testCruise)
	require.NoError(t, err)
	assert.Contains(t, out, "TEST01")
	assert.Equal(t, "port", d.Mode())

	// Default mode is port: everything off.
	statuses := statusMap(t, d)
	require.Len(t, statuses, 2)
	assert.Nil(t, statuses["gyro"].Running)

	_, err = d.Execute("set_mode underway")
	require.NoError(t, err)
	assert.Equal(t, "underway", d.Mode())

	statuses = statusMap(t, d)
	require.NotNil(t, statuses["gyro"].Running)
	assert.True(t, *statuses["gyro"].Running)
	require.NotNil(t, statuses["depth"].Running)
	assert.True(t, *statuses["depth"].Running)
}

func TestSetModeErrors(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Execute("set_mode underway")
	assert.ErrorIs(t, err, errNoCruise)

	_, err = d.Execute("set_cruise " + testCruise)
	require.NoError(t, err)

	_, err = d.Execute("set_mode drydock")
	assert.Error(t, err)
	assert.Equal(t, "port", d.Mode(), "failed switch must not change the mode")

	_, err = d.Execute("set_mode")
	assert.Error(t, err)
}

func TestLoadCruiseFromFile(t *testing.T) {
	d := newTestDispatcher(t)

	path := filepath.Join(t.TempDir(), "cruise.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testCruise), 0o644))

	out, err := d.Execute("load_cruise " + path)
	require.NoError(t, err)
	assert.Contains(t, out, "TEST01")

	_, err = d.Execute("load_cruise /no/such/file.yaml")
	assert.Error(t, err)

	_, err = d.Execute("load_cruise")
	assert.Error(t, err)
}

func TestSetLoggerConfigInline(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Execute("set_logger_config winch {component: noop}")
	require.NoError(t, err)

	statuses := statusMap(t, d)
	require.NotNil(t, statuses["winch"].Running)
	assert.True(t, *statuses["winch"].Running)

	_, err = d.Execute("set_logger_config winch")
	assert.Error(t, err)
}

func TestSetLoggerConfigName(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Execute("set_logger_config_name gyro gyro-on")
	assert.ErrorIs(t, err, errNoCruise)

	_, err = d.Execute("set_cruise " + testCruise)
	require.NoError(t, err)

	_, err = d.Execute("set_logger_config_name gyro gyro-on")
	require.NoError(t, err)
	statuses := statusMap(t, d)
	require.NotNil(t, statuses["gyro"].Running)
	assert.True(t, *statuses["gyro"].Running)

	_, err = d.Execute("set_logger_config_name gyro no-such-config")
	assert.Error(t, err)

	_, err = d.Execute("set_logger_config_name gyro")
	assert.Error(t, err)
}

func TestSetConfigsInline(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Execute("set_configs {gyro: {component: noop}, depth: ~}")
	require.NoError(t, err)

	statuses := statusMap(t, d)
	require.Len(t, statuses, 2)
	require.NotNil(t, statuses["gyro"].Running)
	assert.True(t, *statuses["gyro"].Running)
	assert.Nil(t, statuses["depth"].Running)

	_, err = d.Execute("set_configs {not yaml")
	assert.Error(t, err)
}

func TestSetInterval(t *testing.T) {
	d := newTestDispatcher(t)

	out, err := d.Execute("set_interval 2")
	require.NoError(t, err)
	assert.Contains(t, out, "2s")

	_, err = d.Execute("set_interval 500ms")
	require.NoError(t, err)

	for _, bad := range []string{"set_interval", "set_interval soon", "set_interval -3"} {
		_, err = d.Execute(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuitCommand(t *testing.T) {
	d := newTestDispatcher(t)

	_, err := d.Execute("set_logger_config gyro {component: noop}")
	require.NoError(t, err)

	out, err := d.Execute("quit")
	assert.ErrorIs(t, err, ErrQuit)
	assert.Contains(t, out, "shutting down")

	statuses := statusMap(t, d)
	assert.Nil(t, statuses["gyro"].Running)
}

func TestRunLoop(t *testing.T) {
	d := newTestDispatcher(t)

	input := strings.Join([]string{
		"set_logger_config gyro {component: noop}",
		"status",
		"bogus_verb",
		"quit",
		"status", // never reached
	}, "\n")

	var out strings.Builder
	err := RunLoop(d, strings.NewReader(input), &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, `"running": true`)
	assert.Contains(t, text, "error:")
	assert.Contains(t, text, "shutting down")
	assert.Equal(t, 1, strings.Count(text, `"gyro"`), "loop must stop at quit")
}

func statusMap(t *testing.T, d *Dispatcher) map[string]types.LoggerStatus {
	t.Helper()
	out, err := d.Execute("status")
	require.NoError(t, err)
	var statuses map[string]types.LoggerStatus
	require.NoError(t, json.Unmarshal([]byte(out), &statuses))
	return statuses
}
