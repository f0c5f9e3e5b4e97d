package cli

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptsListSeedsDefaults(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "scripts", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "Name")
	assert.Contains(t, out, "Simulation")
	assert.Contains(t, out, "(built-in)")
	assert.Contains(t, out, "Test Data Processor")
	assert.Contains(t, out, "Never")
}

func TestScriptsListJSON(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "scripts", "list", "--output", "json")
	require.NoError(t, err)

	var entries []scriptListEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.NotEmpty(t, entries)

	byName := make(map[string]scriptListEntry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	sim, ok := byName["Simulation"]
	require.True(t, ok)
	assert.Equal(t, builtinPathLabel, sim.Path)
	assert.Equal(t, "Testing", sim.Category)
	assert.Equal(t, "Never", sim.LastRun)
}

func TestScriptsListNDJSONOneObjectPerLine(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "scripts", "list", "--output", "ndjson")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	for _, line := range lines {
		var entry scriptListEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %q", line)
		assert.NotEmpty(t, entry.Name)
	}
}

func TestScriptsListCategoryFilter(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "scripts", "list", "--category", "Testing", "--output", "json")
	require.NoError(t, err)

	var entries []scriptListEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "Simulation", entries[0].Name)
}

func TestScriptsAddShowRemove(t *testing.T) {
	testHome(t)

	out, err := runCLI(t, "scripts", "add", "backup.py",
		"--path", "backup.py",
		"--description", "Nightly backup",
		"--category", "System",
		"--requires", ">=0.1.0")
	require.NoError(t, err)
	assert.Contains(t, out, `Registered "backup.py"`)

	out, err = runCLI(t, "scripts", "show", "backup.py")
	require.NoError(t, err)
	assert.Contains(t, out, "Nightly backup")
	assert.Contains(t, out, ">=0.1.0")
	assert.Contains(t, out, "none recorded")

	// Survives a reload through a fresh command.
	out, err = runCLI(t, "scripts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "backup.py")

	out, err = runCLI(t, "scripts", "remove", "backup.py")
	require.NoError(t, err)
	assert.Contains(t, out, `Removed "backup.py"`)

	_, err = runCLI(t, "scripts", "show", "backup.py")
	require.Error(t, err)
}

func TestScriptsAddRequiresPath(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "scripts", "add", "pathless")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--path is required")
}

func TestScriptsAddDuplicate(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "scripts", "add", "Simulation", "--path", "sim.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestScriptsShowJSONIncludesStats(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh", "echo done\n")

	_, err := runCLI(t, "run", "job.sh", "--no-notify")
	require.NoError(t, err)

	out, err := runCLI(t, "scripts", "show", "job.sh", "--output", "json")
	require.NoError(t, err)

	var detail scriptDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, "job.sh", detail.Name)
	require.NotNil(t, detail.Stats)
	assert.Equal(t, 1, detail.Stats.TotalRuns)
	assert.InDelta(t, 100.0, detail.Stats.SuccessRate, 0.001)
	require.NotNil(t, detail.LastRun)
	assert.Equal(t, "success", string(detail.LastRun.Status))
}

func TestScriptsSetAndUnset(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh", "echo done\n")

	out, err := runCLI(t, "scripts", "set", "job.sh", "retries", "3")
	require.NoError(t, err)
	assert.Contains(t, out, `Set retries = 3 for "job.sh"`)

	_, err = runCLI(t, "scripts", "set", "job.sh", "target_dir", "/srv/backups")
	require.NoError(t, err)

	// JSON-typed values survive; the file lands under script_settings/.
	require.FileExists(t, filepath.Join(home, "script_settings", "job_sh_settings.json"))

	out, err = runCLI(t, "scripts", "show", "job.sh", "--output", "json")
	require.NoError(t, err)
	var detail scriptDetail
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, float64(3), detail.Settings["retries"])
	assert.Equal(t, "/srv/backups", detail.Settings["target_dir"])

	out, err = runCLI(t, "scripts", "show", "job.sh")
	require.NoError(t, err)
	assert.Contains(t, out, "Settings:")
	assert.Contains(t, out, "retries: 3")

	out, err = runCLI(t, "scripts", "unset", "job.sh", "retries")
	require.NoError(t, err)
	assert.Contains(t, out, `Unset retries for "job.sh"`)

	// Dropping the last key removes the file entirely.
	_, err = runCLI(t, "scripts", "unset", "job.sh", "target_dir")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(home, "script_settings", "job_sh_settings.json"))
}

func TestScriptsSetRequiresRegisteredScript(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "scripts", "set", "ghost.py", "retries", "3")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestScriptsUnsetMissing(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh", "echo done\n")

	_, err := runCLI(t, "scripts", "unset", "job.sh", "retries")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no settings recorded")

	_, err = runCLI(t, "scripts", "set", "job.sh", "retries", "3")
	require.NoError(t, err)
	_, err = runCLI(t, "scripts", "unset", "job.sh", "timeout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `setting "timeout" not found`)

	// Clearing everything works even with nothing stored.
	out, err := runCLI(t, "scripts", "unset", "job.sh")
	require.NoError(t, err)
	assert.Contains(t, out, `Cleared settings for "job.sh"`)
}
