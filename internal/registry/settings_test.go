package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeScriptName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces to underscores", input: "Test Data Processor", want: "test_data_processor"},
		{name: "already clean", input: "backup", want: "backup"},
		{name: "punctuation collapsed", input: "EFS -- Attachments!", want: "efs_attachments"},
		{name: "path separators", input: "scripts/job.py", want: "scripts_job_py"},
		{name: "trailing junk trimmed", input: "weird???", want: "weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeScriptName(tt.input))
		})
	}
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	store := NewSettingsStore(filepath.Join(t.TempDir(), "script_settings"))

	assert.False(t, store.Has("Test Data Processor"))
	_, err := store.Get("Test Data Processor")
	assert.ErrorIs(t, err, ErrSettingsNotFound)

	require.NoError(t, store.Set("Test Data Processor", "batch_size", 250))
	require.NoError(t, store.Set("Test Data Processor", "output_format", "csv"))

	assert.True(t, store.Has("Test Data Processor"))

	settings, err := store.Get("Test Data Processor")
	require.NoError(t, err)
	// JSON numbers decode as float64.
	assert.Equal(t, float64(250), settings["batch_size"])
	assert.Equal(t, "csv", settings["output_format"])
}

func TestSettingsStoreSetPreservesOtherKeys(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	require.NoError(t, store.Write("job", map[string]any{"a": 1, "b": "two"}))
	require.NoError(t, store.Set("job", "a", 99))

	settings, err := store.Get("job")
	require.NoError(t, err)
	assert.Equal(t, float64(99), settings["a"])
	assert.Equal(t, "two", settings["b"])
}

func TestSettingsStoreFileShape(t *testing.T) {
	dir := t.TempDir()
	store := NewSettingsStore(dir)

	require.NoError(t, store.Write("My Script", map[string]any{"k": "v"}))

	path := filepath.Join(dir, "my_script_settings.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), data[len(data)-1])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSettingsStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewSettingsStore(dir)

	require.NoError(t, os.WriteFile(store.SettingsPath("bad"), []byte("{broken"), 0o600))

	_, err := store.Get("bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSettingsNotFound)
}

func TestSettingsStoreDelete(t *testing.T) {
	store := NewSettingsStore(t.TempDir())

	require.NoError(t, store.Write("gone", map[string]any{"x": 1}))
	require.NoError(t, store.Delete("gone"))
	assert.False(t, store.Has("gone"))

	// Deleting again is fine.
	require.NoError(t, store.Delete("gone"))
}
