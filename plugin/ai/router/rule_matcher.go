package router

import (
	"strings"
	"unicode"
)

// AIQueryPrefixes trigger an AI reply. Matching is case-insensitive.
var AIQueryPrefixes = []string{",", "arisu"}

// RuleMatcher maps the first word of a message to a command.
type RuleMatcher struct {
	commands map[string]Intent
	prefixes []string
}

// NewRuleMatcher creates a matcher with the bot's command table.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		commands: map[string]Intent{
			".hello":     IntentHello,
			".info":      IntentInfo,
			".gpict":     IntentImageSearch,
			".everyone":  IntentEveryone,
			".clearchat": IntentClearChat,
			".reg":       IntentRegister,
			".s":         IntentSticker,
			".smeme":     IntentStickerMeme,
			".qc":        IntentQuoteSticker,
			".cstiker":   IntentCustomSticker,
		},
		prefixes: AIQueryPrefixes,
	}
}

// Match classifies text. Commands are matched on the whole first word, so
// ".smeme" never falls into ".s".
func (m *RuleMatcher) Match(text string) Route {
	text = strings.TrimSpace(text)
	if text == "" {
		return Route{}
	}

	word, rest := splitFirstWord(text)
	command := strings.ToLower(word)
	if intent, ok := m.commands[command]; ok {
		return Route{Intent: intent, Command: command, Args: rest}
	}

	lower := strings.ToLower(text)
	for _, prefix := range m.prefixes {
		if strings.HasPrefix(lower, prefix) {
			query := strings.TrimSpace(text[len(prefix):])
			if query == "" {
				return Route{}
			}
			return Route{Intent: IntentAIQuery, Args: query}
		}
	}
	return Route{}
}

func splitFirstWord(text string) (string, string) {
	idx := strings.IndexFunc(text, unicode.IsSpace)
	if idx < 0 {
		return text, ""
	}
	return text[:idx], strings.TrimSpace(text[idx:])
}
