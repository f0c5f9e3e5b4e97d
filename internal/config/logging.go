package config

import "github.com/autobear/autobear/internal/logging"

// ToLoggingConfig converts the Logging section to a logging.Config. When File
// is set the output moves off stderr so the terminal stays clean for script
// lines.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	output := "stderr"
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		Output: output,
		File:   lc.File,
	}
}
