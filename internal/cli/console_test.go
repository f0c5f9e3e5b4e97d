package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Command tests run without a terminal, so the console exercises its
// non-interactive degradation paths here. The interactive model itself is
// covered in the tui package.

func TestConsoleFallsBackToPlainStreaming(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "job.sh", "echo streamed from the console\n")

	out, err := runCLI(t, "console", "job.sh")
	require.NoError(t, err)
	assert.Contains(t, out, "[INFO] streamed from the console")

	// The degraded path still records history.
	out, err = runCLI(t, "history", "list", "--script", "job.sh")
	require.NoError(t, err)
	assert.Contains(t, out, "success")
}

func TestConsoleWithoutScriptNeedsTerminal(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "console")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "picking a script requires a terminal")
}

func TestConsoleUnknownScript(t *testing.T) {
	testHome(t)

	_, err := runCLI(t, "console", "ghost.py")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestConsoleHonorsRequiresConstraint(t *testing.T) {
	home := testHome(t)
	writeShellScript(t, home, "pinned.sh", "echo never runs\n")

	_, err := runCLI(t, "scripts", "remove", "pinned.sh")
	require.NoError(t, err)
	_, err = runCLI(t, "scripts", "add", "pinned.sh",
		"--path", "pinned.sh", "--requires", ">=99.0.0")
	require.NoError(t, err)

	_, err = runCLI(t, "console", "pinned.sh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot run")
}
