package dispatcher

import "strings"

// GroupSuffix marks group chat addresses.
const GroupSuffix = "@g.us"

// InboundMessage is one chat message handed over by the messaging client.
type InboundMessage struct {
	// ID is the client's message id, used to quote replies.
	ID string `json:"id"`
	// ChatID is the raw chat address the message arrived in.
	ChatID string `json:"chat_id"`
	// AuthorID is the group member who wrote the message; empty in private chats.
	AuthorID   string `json:"author_id,omitempty"`
	SenderName string `json:"sender_name,omitempty"`
	Body       string `json:"body"`
	HasMedia   bool   `json:"has_media,omitempty"`
	// Quoted is the message this one replies to, if any.
	Quoted *QuotedMessage `json:"quoted,omitempty"`
	// Participants lists group member addresses, used by .everyone.
	Participants []string `json:"participants,omitempty"`
}

// QuotedMessage describes the message being replied to.
type QuotedMessage struct {
	ID       string `json:"id"`
	Body     string `json:"body,omitempty"`
	HasMedia bool   `json:"has_media,omitempty"`
}

// IsGroup reports whether the message came from a group chat.
func (m InboundMessage) IsGroup() bool {
	return strings.HasSuffix(m.ChatID, GroupSuffix)
}

// SenderAddress is the author in groups and the chat itself in private chats.
func (m InboundMessage) SenderAddress() string {
	if m.AuthorID != "" {
		return m.AuthorID
	}
	return m.ChatID
}

// Reply is one outbound action for the messaging client.
type Reply struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text,omitempty"`
	// QuoteID quotes the given message when set.
	QuoteID  string      `json:"quote_id,omitempty"`
	Mentions []string    `json:"mentions,omitempty"`
	Media    *Media      `json:"media,omitempty"`
	Sticker  *StickerJob `json:"sticker,omitempty"`
}

// Media is an attachment. Data is base64 in JSON.
type Media struct {
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

// StickerKind selects how the client renders a sticker.
type StickerKind string

const (
	StickerPlain StickerKind = "plain"
	StickerMeme  StickerKind = "meme"
	StickerQuote StickerKind = "quote"
)

// StickerJob asks the messaging client to render and send a sticker.
type StickerJob struct {
	Kind StickerKind `json:"kind"`
	// SourceMessageID is the message whose media becomes the sticker.
	SourceMessageID string `json:"source_message_id,omitempty"`
	Author          string `json:"author"`
	// Text is the meme caption or quote.
	Text string `json:"text,omitempty"`
}
