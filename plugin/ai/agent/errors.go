package agent

import (
	"context"
	"errors"
)

var (
	// ErrEmptyQuery is returned when the query has no text after the trigger prefix.
	ErrEmptyQuery = errors.New("empty query")

	// ErrAttemptsExhausted is returned when every completion attempt failed.
	ErrAttemptsExhausted = errors.New("completion attempts exhausted")
)

// Messages sent back to the chat.
const (
	// TruncationNotice tells the user older turns were dropped to fit the budget.
	TruncationNotice = "Kamu mencapai limit, chat direset"

	// UnavailableMessage replaces the reply when no completion could be obtained.
	UnavailableMessage = "Maaf, Arisu lagi nggak bisa jawab sekarang. Coba lagi nanti ya."

	cancelledMessage = "Permintaan dibatalkan."
	timeoutMessage   = "Arisu kelamaan mikir, coba tanya lagi nanti ya."
)

// UserFacingMessage converts a failed query into the text sent to the chat.
func UserFacingMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return cancelledMessage
	case errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrAttemptsExhausted):
		return timeoutMessage
	default:
		return UnavailableMessage
	}
}
