package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Makepad-fr/tadasync/internal/ui"
)

// Exit codes (0 ok, 1 error, 2 usage).
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError carries the exit code a command should end with.
type ExitError struct {
	Code    int
	Message string
	Hint    string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func usageError(format string, args ...any) *ExitError {
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf(format, args...)}
}

// ExitCode extracts the exit code from err; anything else is ExitFailure.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope of --format json.
type Response struct {
	Status string         `json:"status"`
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type output struct {
	format string
	out    io.Writer
	errOut io.Writer
}

func (o output) json() bool { return o.format == "json" }

// success prints data as JSON, or msg with the OK mark in text mode.
func (o output) success(data any, msg string) error {
	if o.json() {
		return o.encode(Response{Status: "ok", Data: data})
	}
	if msg != "" {
		ui.OK(o.out, msg)
	}
	return nil
}

func (o output) failure(err error, msg string) {
	if o.json() {
		_ = o.encode(Response{Status: "error", Error: &ResponseError{Code: ExitCode(err), Message: msg}})
		return
	}
	ui.Fail(o.errOut, msg)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Hint != "" {
		ui.Hint(o.errOut, exitErr.Hint)
	}
}

func (o output) encode(v any) error {
	enc := json.NewEncoder(o.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}
