package context

import (
	"github.com/hrygo/arisu/plugin/ai"
	"github.com/hrygo/arisu/plugin/ai/session"
)

// Identity is who a conversation is attributed to in the system preamble.
type Identity struct {
	Sender string
	Name   string
}

// ConversationIdentity returns the sender of the earliest user turn in turns,
// or fallback when no user turn survives.
func ConversationIdentity(turns []session.ChatTurn, fallback Identity) Identity {
	for _, turn := range turns {
		if turn.Role != session.RoleUser || turn.Sender == "" {
			continue
		}
		return Identity{Sender: turn.Sender, Name: turn.DisplayName()}
	}
	if fallback.Name == "" {
		fallback.Name = session.DefaultName
	}
	return fallback
}

// BuildMessages prepends systemPrompt to turns reduced to role and content.
func BuildMessages(systemPrompt string, turns []session.ChatTurn) []ai.Message {
	messages := make([]ai.Message, 0, len(turns)+1)
	messages = append(messages, ai.SystemPrompt(systemPrompt))
	for _, turn := range turns {
		switch turn.Role {
		case session.RoleAssistant:
			messages = append(messages, ai.AssistantMessage(turn.Content))
		case session.RoleSystem:
			messages = append(messages, ai.SystemPrompt(turn.Content))
		default:
			messages = append(messages, ai.UserMessage(turn.Content))
		}
	}
	return messages
}
