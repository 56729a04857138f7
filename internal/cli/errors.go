package cli

import (
	"errors"
	"fmt"
)

// ExitError represents a command failure with a specific exit code.
//
// RunE functions return it instead of calling os.Exit, after the failure has
// already been shown to the reader. [RunWithApp] turns it into an
// [ExecuteResult] and [Execute] performs the actual exit.
type ExitError struct {
	// Code is the exit code to return to the shell.
	// Convention: 0 = success, 1 = rejected command or failure.
	Code int
}

// Error returns "exit status N", matching the os/exec format.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError checks if err is or wraps an [ExitError] and extracts its code.
//
// Returns (0, false) for nil or any other error.
func IsExitError(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
