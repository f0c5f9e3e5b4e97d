// Command autobear is the script runner CLI: it registers automation
// scripts, executes them with streamed console output, and keeps history,
// SOPs, and notifications around them.
package main

import (
	"errors"
	"os"

	"github.com/autobear/autobear/internal/cli"
	"github.com/autobear/autobear/pkg/version"
)

func main() {
	os.Exit(run())
}

// run executes the root command and maps its error to a process exit code.
// Separated from main so tests can exercise the mapping.
func run() int {
	rootCmd := cli.NewRootCmd(version.GetVersion())
	if err := rootCmd.Execute(); err != nil {
		return extractExitCode(err)
	}
	return 0
}

// extractExitCode returns the exit code carried by an ExitCodeError, 1 for
// any other error, and 0 for nil. Script failures propagate the script's own
// code this way; interrupts carry 1.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return 1
}
