// Package config loads and persists the application configuration kept under
// the autobear home directory (~/.autobear by default, AUTOBEAR_HOME to
// relocate).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	// EnvHome relocates the autobear home directory.
	EnvHome = "AUTOBEAR_HOME"

	// EnvLogLevel overrides the configured diagnostic log level.
	EnvLogLevel = "AUTOBEAR_LOG_LEVEL"

	// EnvLogFormat overrides the configured diagnostic log format.
	EnvLogFormat = "AUTOBEAR_LOG_FORMAT"

	homeDirName    = ".autobear"
	configFileName = "config.yaml"

	defaultInterpreter     = "python3"
	defaultNotifyDuration  = 5
	defaultHistoryMaxRuns  = 100
	defaultConsoleBuffer   = 5000
	defaultConsoleTheme    = "dark"
	defaultLogLevel        = "info"
	defaultLogFormat       = "console"
	defaultOutputFormat    = "table"
	configFilePermissions  = 0o600
	configDirPermissions   = 0o750
	outputTypeFile         = "file"
	defaultRegistryName    = "scripts.yaml"
	defaultScriptsDirName  = "scripts"
	defaultHistoryDirName  = "history"
	defaultSettingsDirName = "script_settings"
	defaultSOPsFileName    = "sops.json"
	defaultLogsDirName     = "logs"
	defaultExportsDirName  = "exports"
)

// configPathOverride holds a --config flag value for the lifetime of a CLI
// invocation.
var (
	configPathOverride   string       //nolint:gochecknoglobals // Set once at startup, read by config loaders
	configPathOverrideMu sync.RWMutex //nolint:gochecknoglobals // Protects configPathOverride
)

// SetConfigPath overrides the config file location for this invocation.
func SetConfigPath(path string) {
	configPathOverrideMu.Lock()
	defer configPathOverrideMu.Unlock()
	configPathOverride = path
}

// Config is the full application configuration.
type Config struct {
	Output        string              `yaml:"output" json:"output"`
	Logging       LoggingConfig       `yaml:"logging" json:"logging"`
	Scripts       ScriptsConfig       `yaml:"scripts" json:"scripts"`
	Notifications NotificationsConfig `yaml:"notifications" json:"notifications"`
	History       HistoryConfig       `yaml:"history" json:"history"`
	SOPs          SOPsConfig          `yaml:"sops" json:"sops"`
	Console       ConsoleConfig       `yaml:"console" json:"console"`
}

// LoggingConfig selects diagnostic output. Script output is unaffected; it
// always follows the console line contract on stdout.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// ScriptsConfig locates the registry and controls execution defaults.
type ScriptsConfig struct {
	Registry      string `yaml:"registry" json:"registry"`
	Dir           string `yaml:"dir" json:"dir"`
	Interpreter   string `yaml:"interpreter" json:"interpreter"`
	DeveloperMode bool   `yaml:"developer_mode" json:"developer_mode"`
}

// NotificationsConfig controls desktop notifications raised around script
// runs.
type NotificationsConfig struct {
	Enabled         bool `yaml:"enabled" json:"enabled"`
	Silent          bool `yaml:"silent" json:"silent"`
	DurationSeconds int  `yaml:"duration_seconds" json:"duration_seconds"`
	OnStart         bool `yaml:"on_start" json:"on_start"`
	OnSuccess       bool `yaml:"on_success" json:"on_success"`
	OnError         bool `yaml:"on_error" json:"on_error"`
	OnStopped       bool `yaml:"on_stopped" json:"on_stopped"`
}

// HistoryConfig locates the execution history store.
type HistoryConfig struct {
	Dir     string `yaml:"dir" json:"dir"`
	MaxRuns int    `yaml:"max_runs" json:"max_runs"`
}

// SOPsConfig locates the SOP catalog.
type SOPsConfig struct {
	Path string `yaml:"path" json:"path"`
}

// ConsoleConfig tunes the interactive console.
type ConsoleConfig struct {
	Buffer int    `yaml:"buffer" json:"buffer"`
	Theme  string `yaml:"theme" json:"theme"`
}

// HomeDir returns the autobear home directory, honoring EnvHome.
func HomeDir() string {
	if custom := os.Getenv(EnvHome); custom != "" {
		return custom
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative home so a broken environment still works.
		return homeDirName
	}
	return filepath.Join(home, homeDirName)
}

// ConfigPath returns the active config file location: the --config override
// when set, otherwise <home>/config.yaml.
func ConfigPath() string {
	configPathOverrideMu.RLock()
	override := configPathOverride
	configPathOverrideMu.RUnlock()
	if override != "" {
		return override
	}
	return filepath.Join(HomeDir(), configFileName)
}

// DefaultConfig returns the built-in configuration rooted at the current home
// directory.
func DefaultConfig() *Config {
	home := HomeDir()
	return &Config{
		Output: defaultOutputFormat,
		Logging: LoggingConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
		Scripts: ScriptsConfig{
			Registry:    filepath.Join(home, defaultRegistryName),
			Dir:         filepath.Join(home, defaultScriptsDirName),
			Interpreter: defaultInterpreter,
		},
		Notifications: NotificationsConfig{
			Enabled:         true,
			Silent:          true,
			DurationSeconds: defaultNotifyDuration,
			OnStart:         true,
			OnSuccess:       true,
			OnError:         true,
			OnStopped:       true,
		},
		History: HistoryConfig{
			Dir:     filepath.Join(home, defaultHistoryDirName),
			MaxRuns: defaultHistoryMaxRuns,
		},
		SOPs: SOPsConfig{
			Path: filepath.Join(home, defaultSOPsFileName),
		},
		Console: ConsoleConfig{
			Buffer: defaultConsoleBuffer,
			Theme:  defaultConsoleTheme,
		},
	}
}

// New loads the configuration: defaults overlaid with the config file when it
// exists. A missing file is not an error; a malformed one is ignored in favor
// of defaults so a bad edit never locks the user out of the CLI.
func New() *Config {
	cfg := DefaultConfig()

	path := ConfigPath()
	if _, err := os.Stat(path); err != nil {
		return cfg
	}
	if err := ShallowMergeYAML(cfg, path); err != nil {
		// Defaults win over a file we cannot parse.
		return DefaultConfig()
	}
	cfg.normalize()
	return cfg
}

// Load reads the configuration strictly from path. Unlike New, every failure
// is reported.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := ShallowMergeYAML(cfg, path); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// normalize re-fills blank path and size fields with their defaults. Section
// replacement zeroes the fields a partial section omits; a file that only
// sets scripts.interpreter must not strand the registry. Booleans stay as
// written, since false cannot be told apart from unset.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Output == "" {
		c.Output = def.Output
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
	if c.Scripts.Registry == "" {
		c.Scripts.Registry = def.Scripts.Registry
	}
	if c.Scripts.Dir == "" {
		c.Scripts.Dir = def.Scripts.Dir
	}
	if c.Scripts.Interpreter == "" {
		c.Scripts.Interpreter = def.Scripts.Interpreter
	}
	if c.Notifications.DurationSeconds <= 0 {
		c.Notifications.DurationSeconds = def.Notifications.DurationSeconds
	}
	if c.History.Dir == "" {
		c.History.Dir = def.History.Dir
	}
	if c.History.MaxRuns <= 0 {
		c.History.MaxRuns = def.History.MaxRuns
	}
	if c.SOPs.Path == "" {
		c.SOPs.Path = def.SOPs.Path
	}
	if c.Console.Buffer <= 0 {
		c.Console.Buffer = def.Console.Buffer
	}
	if c.Console.Theme == "" {
		c.Console.Theme = def.Console.Theme
	}
}

// Save writes the configuration to the active config path, creating the home
// directory as needed.
func (c *Config) Save() error {
	path := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}

	if err := os.WriteFile(path, data, configFilePermissions); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// SettingsDir returns the per-script settings directory.
func (c *Config) SettingsDir() string {
	return filepath.Join(HomeDir(), defaultSettingsDirName)
}

// LogDir returns the directory for file-based diagnostics.
func (c *Config) LogDir() string {
	return filepath.Join(HomeDir(), defaultLogsDirName)
}

// ExportDir returns the directory console exports are written to.
func (c *Config) ExportDir() string {
	return filepath.Join(HomeDir(), defaultExportsDirName)
}

// EnsureDataDirs creates the directories the stores write into.
func (c *Config) EnsureDataDirs() error {
	dirs := []string{
		HomeDir(),
		c.History.Dir,
		c.SettingsDir(),
		c.Scripts.Dir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, configDirPermissions); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}

// EnsureLogDir creates the log directory.
func (c *Config) EnsureLogDir() error {
	if err := os.MkdirAll(c.LogDir(), configDirPermissions); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	return nil
}
