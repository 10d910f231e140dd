package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Vince095/HeatmapSDK/internal/session"
	"github.com/Vince095/HeatmapSDK/internal/syncclient"
)

// Process exit codes.
const (
	ExitSuccess      = 0 // nothing went wrong
	ExitFailure      = 1 // the ingest service rejected work, or scripts failed
	ExitCommandError = 2 // bad flags, unreadable files, unusable config
)

// ExitError carries the exit code a command wants main to return.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that are not an
// ExitError count as ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode is the machine-readable code reported in JSON error output.
type ErrorCode string

const (
	CodeTransport   ErrorCode = "E_TRANSPORT"    // ingest service unreachable or timed out
	CodeStatus      ErrorCode = "E_STATUS"       // ingest service answered non-2xx
	CodeEncode      ErrorCode = "E_ENCODE"       // request could not be built
	CodeNoIdentity  ErrorCode = "E_NO_IDENTITY"  // screenshot without user id and token
	CodeEmptyUser   ErrorCode = "E_EMPTY_USER"   // identify with an empty user id
	CodeTestsFailed ErrorCode = "E_TESTS_FAILED" // one or more pointer scripts failed
	CodeInternal    ErrorCode = "E_INTERNAL"
)

// codeFor classifies an error from the sync path.
func codeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, syncclient.ErrNoIdentity):
		return CodeNoIdentity
	case errors.Is(err, session.ErrEmptyUserID):
		return CodeEmptyUser
	case syncclient.IsTransport(err):
		return CodeTransport
	case syncclient.IsStatus(err):
		return CodeStatus
	case syncclient.IsEncode(err):
		return CodeEncode
	}
	return CodeInternal
}

// Envelope wraps every JSON document a command prints.
type Envelope struct {
	Status string   `json:"status"` // "ok" or "error"
	Data   any      `json:"data,omitempty"`
	Error  *Problem `json:"error,omitempty"`
}

// Problem describes a failed command in JSON output.
type Problem struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
}

// OutputFormatter prints command results as text or as an Envelope.
// Diagnostics go to Diag so they never mix with JSON on Writer.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Diag    io.Writer // defaults to Writer
	Verbose bool
}

// JSON reports whether output is JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

func (f *OutputFormatter) encode(env Envelope) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// Success prints data. Text output relies on data's String method.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(Envelope{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail prints err under the code codeFor assigns it. details is always part
// of JSON output and shown in text output only when verbose.
func (f *OutputFormatter) Fail(err error, details any) error {
	return f.Problem(codeFor(err), err.Error(), details)
}

// Problem prints an error with an explicit code.
func (f *OutputFormatter) Problem(code ErrorCode, message string, details any) error {
	if f.JSON() {
		return f.encode(Envelope{
			Status: "error",
			Error:  &Problem{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "error %s: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "  details: %v\n", details)
	}
	return nil
}

// Debugf writes a diagnostic line to Diag when verbose.
func (f *OutputFormatter) Debugf(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.Diag
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
