package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleMatcher_Match(t *testing.T) {
	m := NewRuleMatcher()

	tests := []struct {
		name     string
		input    string
		expected Route
	}{
		{"hello", ".hello", Route{Intent: IntentHello, Command: ".hello"}},
		{"case insensitive command", ".HELLO", Route{Intent: IntentHello, Command: ".hello"}},
		{"image search keeps args", ".gpict  kucing  lucu ", Route{Intent: IntentImageSearch, Command: ".gpict", Args: "kucing  lucu"}},
		{"sticker", ".s", Route{Intent: IntentSticker, Command: ".s"}},
		{"sticker author", ".s punya aku", Route{Intent: IntentSticker, Command: ".s", Args: "punya aku"}},
		{"meme is not sticker", ".smeme atas|bawah", Route{Intent: IntentStickerMeme, Command: ".smeme", Args: "atas|bawah"}},
		{"quote", ".qc", Route{Intent: IntentQuoteSticker, Command: ".qc"}},
		{"old sticker command", ".cstiker", Route{Intent: IntentCustomSticker, Command: ".cstiker"}},
		{"register", ".reg 0812-3456", Route{Intent: IntentRegister, Command: ".reg", Args: "0812-3456"}},
		{"clear chat", ".clearchat", Route{Intent: IntentClearChat, Command: ".clearchat"}},
		{"everyone", ".everyone", Route{Intent: IntentEveryone, Command: ".everyone"}},
		{"info", ".info", Route{Intent: IntentInfo, Command: ".info"}},
		{"unknown command", ".sx", Route{}},
		{"comma prefix", ", apa kabar?", Route{Intent: IntentAIQuery, Args: "apa kabar?"}},
		{"name prefix", "Arisu tolong bantu", Route{Intent: IntentAIQuery, Args: "tolong bantu"}},
		{"upper name prefix", "ARISU halo", Route{Intent: IntentAIQuery, Args: "halo"}},
		{"prefix without query", "arisu", Route{}},
		{"plain text", "halo semua", Route{}},
		{"empty", "   ", Route{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, m.Match(tt.input))
		})
	}
}

func TestRoute_IsCommand(t *testing.T) {
	assert.True(t, Route{Intent: IntentHello, Command: ".hello"}.IsCommand())
	assert.False(t, Route{Intent: IntentAIQuery, Args: "x"}.IsCommand())
}
