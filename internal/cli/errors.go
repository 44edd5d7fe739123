// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/wlctl/internal/config"
	"github.com/jeranaias/wlctl/internal/plugin"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates the requested action failed
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a bad config file or setting
	ExitConfigError = 3
	// ExitUnavailableError indicates the whitelist could not be opened
	ExitUnavailableError = 4
	// ExitNotFoundError indicates a player or attempt was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError is a malformed command line.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return fmt.Sprintf("%s\nExample: %s", e.Reason, e.Example)
	}
	return e.Reason
}

// NotFoundError is a missing player or attempt.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ActionError is a whitelist action that reported failure. Text is the
// notice the operator would have seen in the manager.
type ActionError struct {
	Command string
	Text    string
}

func (e *ActionError) Error() string {
	return e.Text
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to w. In JSON mode it writes an error response
// instead.
func DisplayError(w io.Writer, err error, command string, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), err.Error())
}

// GetExitCode maps err to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return ExitNotFoundError
	}

	if errors.Is(err, plugin.ErrGatewayUnavailable) {
		return ExitUnavailableError
	}

	var invalid config.ValidateErrors
	if errors.As(err, &invalid) || errors.Is(err, config.ErrInvalidConfig) {
		return ExitConfigError
	}

	return ExitGeneralError
}
