// Package session owns the per-user conversation history that feeds the
// completion endpoint.
package session

import "context"

// Role of a stored chat turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const (
	// SystemSender marks turns that were not written by a human sender.
	SystemSender = "system"
	// DefaultName stands in for a sender without a display name.
	DefaultName = "tidak ada nama"
)

// ChatTurn is one message in a user's history.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
	// Sender is the digits-only sender id, or SystemSender.
	Sender string `json:"sender"`
	Name   string `json:"name,omitempty"`
}

// DisplayName returns the sender name or the placeholder.
func (t ChatTurn) DisplayName() string {
	if t.Name == "" {
		return DefaultName
	}
	return t.Name
}

// SessionService is what the request orchestrator needs from the conversation store.
type SessionService interface {
	// Turns returns a copy of the user's history, oldest first.
	Turns(userID string) []ChatTurn
	// Replace swaps the user's whole history.
	Replace(userID string, turns []ChatTurn)
	// Epoch returns the generation bumped by every bulk clear.
	Epoch() uint64
	// CommitSince stores turns unless a bulk clear ran after epoch, in which
	// case only the last keep turns are stored. It returns what was stored.
	CommitSince(userID string, epoch uint64, turns []ChatTurn, keep int) []ChatTurn
	// Save persists every session as one snapshot.
	Save(ctx context.Context) error
	// LockUser serializes request handling for one user; call the returned func to release.
	LockUser(userID string) (unlock func())
}
