package tui

import (
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether stdout is connected to a terminal. Commands use this
// to fall back to plain streaming when their output is piped.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
