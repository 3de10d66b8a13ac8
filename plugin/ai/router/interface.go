// Package router classifies an inbound chat text into a bot command or an AI query.
package router

// Intent is what an inbound text asks the bot to do.
type Intent string

const (
	IntentNone          Intent = ""
	IntentHello         Intent = "hello"
	IntentInfo          Intent = "info"
	IntentImageSearch   Intent = "image_search"
	IntentEveryone      Intent = "everyone"
	IntentClearChat     Intent = "clear_chat"
	IntentRegister      Intent = "register"
	IntentSticker       Intent = "sticker"
	IntentStickerMeme   Intent = "sticker_meme"
	IntentQuoteSticker  Intent = "quote_sticker"
	IntentCustomSticker Intent = "custom_sticker"
	// IntentAIQuery is text addressed to the assistant by its trigger prefix.
	IntentAIQuery Intent = "ai_query"
)

// Route is a classified text.
type Route struct {
	Intent Intent
	// Command is the matched command word, lower-cased, or empty.
	Command string
	// Args is the text after the command word or trigger prefix, trimmed.
	Args string
}

// IsCommand reports whether the route is a dot command.
func (r Route) IsCommand() bool {
	return r.Command != ""
}
