package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// settingsFileSuffix is appended to the sanitized script name.
const settingsFileSuffix = "_settings.json"

// ErrSettingsNotFound is returned when a script has no settings file.
var ErrSettingsNotFound = errors.New("settings file not found")

// SettingsStore persists per-script settings as JSON files under a single
// directory, one file per script.
type SettingsStore struct {
	dir string
}

// NewSettingsStore returns a store rooted at dir. The directory is created
// lazily on the first write.
func NewSettingsStore(dir string) *SettingsStore {
	return &SettingsStore{dir: dir}
}

// SettingsPath returns the file backing the named script's settings.
func (st *SettingsStore) SettingsPath(scriptName string) string {
	return filepath.Join(st.dir, sanitizeScriptName(scriptName)+settingsFileSuffix)
}

// Get reads the script's settings. A missing file returns
// ErrSettingsNotFound; callers usually treat that as an empty map.
func (st *SettingsStore) Get(scriptName string) (map[string]any, error) {
	data, err := os.ReadFile(st.SettingsPath(scriptName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("reading settings for %q: %w", scriptName, err)
	}

	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings for %q: %w", scriptName, err)
	}
	return settings, nil
}

// Set stores one key for the script, preserving other keys.
func (st *SettingsStore) Set(scriptName, key string, value any) error {
	settings, err := st.Get(scriptName)
	if err != nil && !errors.Is(err, ErrSettingsNotFound) {
		return err
	}
	if settings == nil {
		settings = make(map[string]any, 1)
	}
	settings[key] = value
	return st.Write(scriptName, settings)
}

// Write replaces the script's settings wholesale. The file is written with
// mode 0600 and a trailing newline.
func (st *SettingsStore) Write(scriptName string, settings map[string]any) error {
	if err := os.MkdirAll(st.dir, 0o750); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling settings for %q: %w", scriptName, err)
	}

	if err := os.WriteFile(st.SettingsPath(scriptName), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing settings for %q: %w", scriptName, err)
	}
	return nil
}

// Has reports whether the script has a settings file.
func (st *SettingsStore) Has(scriptName string) bool {
	_, err := os.Stat(st.SettingsPath(scriptName))
	return err == nil
}

// Delete removes the script's settings file. Deleting absent settings is not
// an error.
func (st *SettingsStore) Delete(scriptName string) error {
	err := os.Remove(st.SettingsPath(scriptName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting settings for %q: %w", scriptName, err)
	}
	return nil
}

// sanitizeScriptName maps a display name to a filesystem-safe slug:
// lowercase, runs of non-alphanumerics collapsed to single underscores.
func sanitizeScriptName(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore && b.Len() > 0 {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
