package cli

import "fmt"

// Exit codes returned by the CLI.
const (
	ExitRuntime = 1
	ExitConfig  = 2
)

// ExitError is an error that carries a specific process exit code.
// Commands return it from RunE so main can pick the exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

func exitError(code int, format string, args ...any) *ExitError {
	return &ExitError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
