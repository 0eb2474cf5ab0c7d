// Package errors provides error types and handling for the workshop resolver.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// InvalidURL marks a top-level URL that points at a workshop browse listing.
	InvalidURL
	// FetchFailed represents a transport error or a non-success response.
	FetchFailed
	// MalformedReference marks a discovered link without a resolvable item id.
	MalformedReference
	// Parse represents HTML parsing errors.
	Parse
	// Cancelled represents context cancellation.
	Cancelled
)

// Messages surfaced to HTTP clients.
const (
	MsgInvalidURL  = "Invalid workshop browser link."
	MsgFetchFailed = "Failed to fetch the page"
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case InvalidURL:
		return "invalid_url"
	case FetchFailed:
		return "fetch_failed"
	case MalformedReference:
		return "malformed_reference"
	case Parse:
		return "parse"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ResolveError represents a categorized resolution error.
type ResolveError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
	Status     string
	Retryable  bool
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches a target.
func (e *ResolveError) Is(target error) bool {
	t, ok := target.(*ResolveError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// Description is the short failure text embedded in reports: the HTTP status
// line for bad responses, otherwise the underlying cause.
func (e *ResolveError) Description() string {
	if e.Status != "" {
		return e.Status
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// New creates a new ResolveError.
func New(errType ErrorType, url, operation, message string, cause error) *ResolveError {
	return &ResolveError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewInvalidURLError creates the error returned for blocked browse links.
func NewInvalidURLError(url string) *ResolveError {
	return New(InvalidURL, url, "validate", MsgInvalidURL, nil)
}

// NewFetchError creates a fetch error wrapping a transport failure.
func NewFetchError(url string, cause error) *ResolveError {
	err := New(FetchFailed, url, "fetch", MsgFetchFailed, cause)
	err.Retryable = transient(cause)
	return err
}

// NewStatusError creates a fetch error for a non-success HTTP response.
func NewStatusError(url string, statusCode int, status string) *ResolveError {
	if status == "" {
		status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}
	err := New(FetchFailed, url, "fetch", MsgFetchFailed+": "+status, nil)
	err.StatusCode = statusCode
	err.Status = status
	err.Retryable = statusCode == http.StatusTooManyRequests || statusCode >= 500
	return err
}

// NewMalformedReferenceError creates an error for a link lacking an item id.
func NewMalformedReferenceError(url string) *ResolveError {
	return New(MalformedReference, url, "reference", "reference has no item id", nil)
}

// NewParseError creates a parse error.
func NewParseError(url, operation string, cause error) *ResolveError {
	return New(Parse, url, operation, "parsing failed", cause)
}

// NewCancelledError creates an error for work cut short by its context.
// cause is the context's error; nil means context.Canceled.
func NewCancelledError(url, operation string, cause error) *ResolveError {
	if cause == nil {
		cause = context.Canceled
	}
	return New(Cancelled, url, operation, MsgFetchFailed, cause)
}

// Categorize determines the error type from a generic transport error.
func Categorize(err error, url string) *ResolveError {
	if err == nil {
		return nil
	}

	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr
	}

	if errors.Is(err, context.Canceled) {
		return NewCancelledError(url, "fetch", err)
	}

	return NewFetchError(url, err)
}

// CategorizeHTTPStatus creates an error from an HTTP status, or nil for 2xx.
func CategorizeHTTPStatus(statusCode int, status, url string) *ResolveError {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	return NewStatusError(url, statusCode, status)
}

var transientErrnos = []error{
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.ETIMEDOUT,
	syscall.EHOSTUNREACH,
	syscall.ENETUNREACH,
}

// transientMarkers catch wrapped errors that lost their concrete type.
var transientMarkers = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"no such host",
}

// transient reports whether a transport error is worth another attempt:
// timeouts, DNS failures and dropped or refused connections.
func transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) {
		return true
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := err.Error()
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRetryable checks if an error should be retried.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr.Retryable
	}

	return transient(err)
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr.Type
	}
	return Unknown
}

// IsType reports whether err is a ResolveError of the given type.
func IsType(err error, errType ErrorType) bool {
	return err != nil && GetErrorType(err) == errType
}

// Describe returns the report-friendly description of any error.
func Describe(err error) string {
	var resolveErr *ResolveError
	if errors.As(err, &resolveErr) {
		return resolveErr.Description()
	}
	return err.Error()
}
