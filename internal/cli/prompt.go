package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/autobear/autobear/internal/tui"
)

// PromptResult contains the result of a user prompt interaction.
type PromptResult struct {
	// Accepted is true if the user accepted the prompt (typed "y" or "yes")
	Accepted bool
	// Cancelled is true if reading input failed (e.g. the pipe closed)
	Cancelled bool
}

// Confirm asks a yes/no question and reads one line of input. It returns
// immediately with Accepted=false in non-interactive (non-TTY) environments
// so scripted invocations never hang; destructive commands expose --yes for
// that case.
//
// The prompt defaults to "No" when the user presses Enter without input.
// Valid inputs: "y", "Y", "yes", "Yes", "YES" for acceptance; anything else
// declines.
func Confirm(writer io.Writer, reader io.Reader, question string) PromptResult {
	if !tui.IsTTY() {
		return PromptResult{Accepted: false}
	}

	fmt.Fprintf(writer, "? %s [y/N] ", question)

	scanner := bufio.NewScanner(reader)
	if !scanner.Scan() {
		if scanner.Err() != nil {
			return PromptResult{Cancelled: true}
		}
		// EOF without error, the user pressed Ctrl+D.
		return PromptResult{Accepted: false}
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return PromptResult{Accepted: true}
	default:
		return PromptResult{Accepted: false}
	}
}

// ConfirmWithStdin is a convenience wrapper that uses os.Stdin as the reader.
func ConfirmWithStdin(writer io.Writer, question string) PromptResult {
	return Confirm(writer, os.Stdin, question)
}
