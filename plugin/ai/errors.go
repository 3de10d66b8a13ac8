package ai

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse reports a 2xx completion response without a usable reply.
var ErrMalformedResponse = errors.New("malformed completion response")

// CompletionTransportError is returned for every failed completion call:
// network errors, non-2xx responses and malformed bodies alike.
type CompletionTransportError struct {
	// StatusCode is the HTTP status of the response, 0 when none was received.
	StatusCode int
	Err        error
}

func (e *CompletionTransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion failed: %v", e.Err)
}

func (e *CompletionTransportError) Unwrap() error {
	return e.Err
}
