package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/logline"
)

func TestRunStreamsScriptOutput(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh",
		"echo '2024-01-15 10:30:00 [SUCCESS] Backup finished'\n"+
			"echo plain progress line\n")

	out, err := runCLI(t, "run", "job.sh", "--no-notify")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	first, ok := logline.Parse(lines[0])
	require.True(t, ok)
	assert.Equal(t, logline.LevelSuccess, first.Level)
	assert.Equal(t, "Backup finished", first.Message)

	second, ok := logline.Parse(lines[1])
	require.True(t, ok)
	assert.Equal(t, logline.LevelInfo, second.Level)
	assert.Equal(t, "plain progress line", second.Message)
}

func TestRunRecordsHistory(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh", "echo done\n")

	_, err := runCLI(t, "run", "job.sh", "--no-notify")
	require.NoError(t, err)

	out, err := runCLI(t, "history", "list", "--script", "job.sh", "--output", "json")
	require.NoError(t, err)

	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "job.sh", records[0].ScriptName)
	assert.Equal(t, "success", string(records[0].Status))
	assert.Equal(t, 0, records[0].ExitCode)
	assert.Len(t, records[0].RunID, 26)
}

func TestRunPropagatesScriptExitCode(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "fail.sh", "echo about to fail\nexit 3\n")

	_, err := runCLI(t, "run", "fail.sh", "--no-notify")
	require.Error(t, err)

	var exitErr *ExitCodeError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)

	// The failure still lands in history.
	out, err := runCLI(t, "history", "list", "--script", "fail.sh", "--output", "json")
	require.NoError(t, err)
	var records []history.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, "error", string(records[0].Status))
	assert.Equal(t, 3, records[0].ExitCode)
}

func TestRunUnknownScript(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "run", "nope.sh", "--no-notify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRunHonorsRequiresConstraint(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "future.sh", "echo hi\n")

	_, err := runCLI(t, "scripts", "remove", "future.sh")
	require.NoError(t, err)
	_, err = runCLI(t, "scripts", "add", "future.sh", "--path", "future.sh", "--requires", ">=99.0.0")
	require.NoError(t, err)

	_, err = runCLI(t, "run", "future.sh", "--no-notify")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run")
}

func TestRunDevModeShowsDebugLines(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "chatty.sh",
		"echo '2024-01-15 10:30:00 [DEBUG] internals'\n"+
			"echo visible\n")

	out, err := runCLI(t, "run", "chatty.sh", "--no-notify")
	require.NoError(t, err)
	assert.NotContains(t, out, "internals")
	assert.Contains(t, out, "visible")

	out, err = runCLI(t, "run", "chatty.sh", "--dev", "--no-notify")
	require.NoError(t, err)
	assert.Contains(t, out, "[DEBUG] internals")
}
