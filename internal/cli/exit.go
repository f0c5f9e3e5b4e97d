package cli

// ExitCodeError is a sentinel error that carries a process exit code. Script
// failures propagate the script's own exit code; interruptions carry 1. The
// main package unwraps it with errors.As.
type ExitCodeError struct {
	ExitCode int
	Reason   string
}

func (e *ExitCodeError) Error() string {
	return e.Reason
}
