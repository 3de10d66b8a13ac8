// Package agent runs one AI request cycle per user query: it builds the
// prompt from stored history, calls the completion endpoint with bounded
// retries and commits the exchange to the conversation store.
package agent

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/hrygo/arisu/plugin/ai"
)

// ErrorClass represents the category of error for retry decisions.
type ErrorClass int

const (
	// ErrorClassTransient indicates a temporary error that should be retried.
	// Examples: network timeout, 5xx, rate limiting, malformed body
	ErrorClassTransient ErrorClass = iota

	// ErrorClassPermanent indicates a non-retryable error.
	// Examples: bad request, invalid credentials, unknown model, cancellation
	ErrorClassPermanent
)

// String returns the string representation of ErrorClass.
func (e ErrorClass) String() string {
	switch e {
	case ErrorClassTransient:
		return "transient"
	case ErrorClassPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an error with its classification.
type ClassifiedError struct {
	Class      ErrorClass
	StatusCode int
	Original   error
}

// Error returns a formatted error message.
func (c *ClassifiedError) Error() string {
	if c.Original == nil {
		return fmt.Sprintf("classified error: class=%s", c.Class)
	}
	return fmt.Sprintf("%s: %v", c.Class, c.Original)
}

// Unwrap returns the original error for errors.Is/As.
func (c *ClassifiedError) Unwrap() error {
	return c.Original
}

// IsTransient returns true if the error is temporary and should be retried.
func (c *ClassifiedError) IsTransient() bool {
	return c.Class == ErrorClassTransient
}

// IsPermanent returns true if the error is non-retryable.
func (c *ClassifiedError) IsPermanent() bool {
	return c.Class == ErrorClassPermanent
}

// permanentStatus lists the responses a retry cannot fix.
var permanentStatus = map[int]bool{
	http.StatusBadRequest:   true,
	http.StatusUnauthorized: true,
	http.StatusForbidden:    true,
	http.StatusNotFound:     true,
}

// ClassifyError decides whether a failed completion attempt is worth repeating.
// Anything not known to be permanent is transient.
func ClassifyError(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Class: ErrorClassPermanent, Original: err}
	}

	var transportErr *ai.CompletionTransportError
	if errors.As(err, &transportErr) {
		class := ErrorClassTransient
		if permanentStatus[transportErr.StatusCode] {
			class = ErrorClassPermanent
		}
		return &ClassifiedError{Class: class, StatusCode: transportErr.StatusCode, Original: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Class: ErrorClassTransient, Original: err}
	}

	return &ClassifiedError{Class: ErrorClassTransient, Original: err}
}

// ShouldRetry returns true if the error warrants a retry attempt.
func ShouldRetry(err error) bool {
	classified := ClassifyError(err)
	return classified != nil && classified.IsTransient()
}
