// Package context assembles the message list sent to the completion endpoint
// and keeps each conversation inside its token budget.
package context

import (
	"strings"

	"github.com/hrygo/arisu/plugin/ai/session"
)

// DefaultMaxTokens is the budget used when none is configured.
const DefaultMaxTokens = 500

// EstimateTokens approximates the token count of text as its whitespace separated word count.
func EstimateTokens(text string) int {
	return len(strings.Fields(text))
}

// EstimateCost sums EstimateTokens over every turn's content.
func EstimateCost(turns []session.ChatTurn) int {
	total := 0
	for _, turn := range turns {
		total += EstimateTokens(turn.Content)
	}
	return total
}

// Enforce drops the oldest turns until the cost is at most max.
// It returns the surviving turns and whether anything was dropped.
// The input slice is not modified.
func Enforce(turns []session.ChatTurn, max int) ([]session.ChatTurn, bool) {
	return evictFront(turns, max, len(turns))
}

// EnforceKeepingLast behaves like Enforce but never drops the final turn,
// so a single oversized query still reaches the model.
func EnforceKeepingLast(turns []session.ChatTurn, max int) ([]session.ChatTurn, bool) {
	if len(turns) == 0 {
		return turns, false
	}
	return evictFront(turns, max, len(turns)-1)
}

// evictFront removes at most limit turns from the front while the cost exceeds max.
func evictFront(turns []session.ChatTurn, max, limit int) ([]session.ChatTurn, bool) {
	cost := EstimateCost(turns)
	drop := 0
	for cost > max && drop < limit {
		cost -= EstimateTokens(turns[drop].Content)
		drop++
	}
	if drop == 0 {
		return turns, false
	}

	kept := make([]session.ChatTurn, len(turns)-drop)
	copy(kept, turns[drop:])
	return kept, true
}
