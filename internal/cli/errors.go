// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	"github.com/jeranaias/deskshell/internal/commands"
	"github.com/jeranaias/deskshell/internal/config"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a configuration file or settings error
	ExitConfigError = 3
	// ExitStartupError indicates the command set could not be built
	ExitStartupError = 4
	// ExitCommandError indicates a one-shot line failed
	ExitCommandError = 5
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrCommandFailed is returned by `run` when the line produced an error line.
var ErrCommandFailed = errors.New("command failed")

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// withCode wraps err with an exit code. A nil err stays nil.
func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &ExitError{Code: code, Err: err}
}

// usageErrorf creates an error for invalid command usage.
func usageErrorf(format string, args ...any) error {
	return &ExitError{Code: ExitUsageError, Err: fmt.Errorf(format, args...)}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var (
		valErr  config.ValidationError
		valErrs config.ValidateErrors
		dupErr  *commands.DuplicateCommandError
	)
	switch {
	case errors.As(err, &valErrs), errors.As(err, &valErr):
		return ExitConfigError
	case errors.As(err, &dupErr):
		return ExitStartupError
	case errors.Is(err, ErrCommandFailed):
		return ExitCommandError
	}
	return ExitGeneralError
}
