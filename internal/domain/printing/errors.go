package printing

import (
	"errors"
	"fmt"
)

// ErrorKind classifies print service failures. The values are part of the
// HTTP contract and appear verbatim in error responses.
type ErrorKind string

const (
	ErrDiscovery           ErrorKind = "DiscoveryError"
	ErrConfig              ErrorKind = "ConfigError"
	ErrPrinterNotConnected ErrorKind = "PrinterNotConnected"
	ErrTransportWrite      ErrorKind = "TransportWriteError"
	ErrTimeout             ErrorKind = "Timeout"
	ErrValidation          ErrorKind = "ValidationError"
)

// IsClientError reports whether the caller can fix the failure by changing the request
func (k ErrorKind) IsClientError() bool {
	return k == ErrConfig || k == ErrValidation
}

// PrintError is the single error type crossing the domain boundary.
// All kinds are terminal: nothing in the service retries them.
type PrintError struct {
	Kind     ErrorKind
	Message  string
	Platform string // set for discovery failures
	OpIndex  int    // set for transport write failures, -1 otherwise
	Cause    error
}

// Error implements the error interface
func (e *PrintError) Error() string {
	prefix := string(e.Kind)
	if e.Kind == ErrTransportWrite && e.OpIndex >= 0 {
		prefix = fmt.Sprintf("%s at op %d", e.Kind, e.OpIndex)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause
func (e *PrintError) Unwrap() error {
	return e.Cause
}

// Is matches another *PrintError of the same kind, so sentinel comparisons
// like errors.Is(err, &PrintError{Kind: ErrTimeout}) work.
func (e *PrintError) Is(target error) bool {
	var t *PrintError
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

// Detail is the short message shown for ticket and comanda failures
func (e *PrintError) Detail() string {
	if e.Kind == ErrTransportWrite && e.OpIndex >= 0 {
		return fmt.Sprintf("%s (operation %d)", e.Message, e.OpIndex)
	}
	return e.Message
}

// Diagnostic is the full chain, including the platform's own output
func (e *PrintError) Diagnostic() string {
	msg := e.Detail()
	if e.Platform != "" {
		msg = fmt.Sprintf("[%s] %s", e.Platform, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// AsPrintError extracts a *PrintError from err
func AsPrintError(err error) (*PrintError, bool) {
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" if it is not a PrintError
func KindOf(err error) ErrorKind {
	if pe, ok := AsPrintError(err); ok {
		return pe.Kind
	}
	return ""
}

// NewDiscoveryError reports a failed or unparsable printer registry query
func NewDiscoveryError(platform, detail string, cause error) *PrintError {
	return &PrintError{Kind: ErrDiscovery, Message: detail, Platform: platform, OpIndex: -1, Cause: cause}
}

// NewConfigError reports a printer configuration that cannot be addressed
func NewConfigError(detail string) *PrintError {
	return &PrintError{Kind: ErrConfig, Message: detail, OpIndex: -1}
}

// NewValidationError reports a malformed request document
func NewValidationError(detail string) *PrintError {
	return &PrintError{Kind: ErrValidation, Message: detail, OpIndex: -1}
}

// NewNotConnectedError reports a printer that failed the pre-send liveness check
func NewNotConnectedError(address string, cause error) *PrintError {
	return &PrintError{
		Kind:    ErrPrinterNotConnected,
		Message: fmt.Sprintf("printer %s is not connected", address),
		OpIndex: -1,
		Cause:   cause,
	}
}

// NewTransportWriteError reports an I/O failure while replaying op opIndex
func NewTransportWriteError(opIndex int, cause error) *PrintError {
	return &PrintError{Kind: ErrTransportWrite, Message: "write to printer failed", OpIndex: opIndex, Cause: cause}
}

// NewTimeoutError reports a job that exceeded its time bound
func NewTimeoutError(after string, cause error) *PrintError {
	return &PrintError{
		Kind:    ErrTimeout,
		Message: fmt.Sprintf("print job exceeded %s", after),
		OpIndex: -1,
		Cause:   cause,
	}
}
