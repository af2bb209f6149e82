// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error handling shared by all CLI commands.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/macdroidapps/WorknoteChallenge/internal/cloud"
	"github.com/macdroidapps/WorknoteChallenge/internal/config"
	"github.com/macdroidapps/WorknoteChallenge/internal/model"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
	ExitInterrupted   = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string // Command that failed (e.g., "ask", "weather")
	Reason  string // Human-readable reason
	Err     error  // Underlying error (if any)
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Command, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// UsageError reports invalid arguments or flags.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

func usageErrorf(format string, args ...any) error {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// errMissingKey builds the error for an unconfigured provider.
func errMissingKey(command, provider, envVar string) error {
	return &CommandError{
		Command: command,
		Reason:  fmt.Sprintf("%s API key is not set (export %s or run 'worknote config init')", provider, envVar),
		Err:     cloud.ErrNotConfigured,
	}
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// ExitCodeFor maps err to a process exit code.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	var validation config.ValidationErrors
	switch {
	case errors.Is(err, context.Canceled):
		return ExitInterrupted
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case errors.As(err, &usageErr), errors.Is(err, model.ErrUnknownModel):
		return ExitUsageError
	case errors.As(err, &validation), errors.Is(err, cloud.ErrNotConfigured):
		return ExitConfigError
	case errors.Is(err, cloud.ErrAuthFailed):
		return ExitAuthError
	case errors.Is(err, cloud.ErrModelNotFound):
		return ExitNotFoundError
	}

	var apiErr *cloud.APIError
	if errors.As(err, &apiErr) {
		return ExitNetworkError
	}
	return ExitGeneralError
}
