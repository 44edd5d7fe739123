// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"

	"github.com/jeranaias/wlctl/internal/attempt"
)

// JSONResponse is the envelope every --json command prints.
type JSONResponse struct {
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data interface{} `json:"data"`

	// Error is the error message when Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is RFC3339 UTC
	Timestamp string `json:"timestamp"`

	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a successful response.
func NewJSONResponse(command string, data interface{}) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a failed response from err.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	msg := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
	}
}

// String returns the response as indented JSON.
func (r *JSONResponse) String() string {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":"failed to marshal response: %s","timestamp":"%s"}`,
			err.Error(), time.Now().UTC().Format(time.RFC3339))
	}
	return string(data)
}

// Write prints the response to w, highlighted when w is a color terminal.
func (r *JSONResponse) Write(w io.Writer) error {
	out := r.String()
	if IsWriterTTY(w) && ColorsEnabled() {
		out = HighlightJSON(out, GetColorProfile())
	}
	_, err := fmt.Fprintln(w, out)
	return err
}

// =============================================================================
// SYNTAX HIGHLIGHTING
// =============================================================================

// HighlightJSON colors src for a terminal with the given profile. It
// returns src unchanged for Ascii or when tokenising fails.
func HighlightJSON(src string, profile termenv.Profile) string {
	return highlight(src, "json", profile)
}

// HighlightTOML is HighlightJSON for config files.
func HighlightTOML(src string, profile termenv.Profile) string {
	return highlight(src, "toml", profile)
}

func highlight(src, language string, profile termenv.Profile) string {
	var name string
	switch profile {
	case termenv.TrueColor:
		name = "terminal16m"
	case termenv.ANSI256:
		name = "terminal256"
	case termenv.ANSI:
		name = "terminal16"
	default:
		return src
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(name)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return src
	}
	return buf.String()
}

// =============================================================================
// COMMAND DATA
// =============================================================================

// StatusData is the data of "status --json".
type StatusData struct {
	Version          string `json:"version"`
	ServerDir        string `json:"server_dir"`
	WhitelistFile    string `json:"whitelist_file"`
	WhitelistEnabled bool   `json:"whitelist_enabled"`
	Whitelisted      int    `json:"whitelisted"`
	Online           int    `json:"online"`
	AttemptsFile     string `json:"attempts_file"`
	Pending          int    `json:"pending"`
	Capacity         int    `json:"capacity"`
	AttemptLogError  string `json:"attempt_log_error,omitempty"`
}

// AttemptsData is the data of "attempts --json".
type AttemptsData struct {
	Capacity int               `json:"capacity"`
	Count    int               `json:"count"`
	Attempts []attempt.Summary `json:"attempts"`
}

// ActionData is the data of a whitelist mutation.
type ActionData struct {
	Result      string `json:"result"`
	Message     string `json:"message"`
	Enabled     bool   `json:"enabled"`
	Whitelisted int    `json:"whitelisted"`
}

// VersionData is the data of "version --json".
type VersionData struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}
