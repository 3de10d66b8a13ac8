package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hrygo/arisu/internal/util"
	"github.com/hrygo/arisu/plugin/ai/router"
	"github.com/hrygo/arisu/plugin/imagesearch"
	"github.com/hrygo/arisu/server/internal/observability"
)

func (d *Dispatcher) handleImageSearch(ctx context.Context, msg InboundMessage, query string) []Reply {
	if msg.IsGroup() {
		return []Reply{d.quote(msg, groupOnlyPrivateText)}
	}
	if d.images == nil {
		return []Reply{d.quote(msg, imageSearchOffText)}
	}
	if query == "" {
		return []Reply{d.quote(msg, imageQueryEmptyText)}
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.ImageSearchTimeout)
	defer cancel()

	reqCtx, _ := observability.FromContext(ctx)
	result, err := d.images.Search(ctx, query)
	switch {
	case errors.Is(err, imagesearch.ErrNoResults):
		return []Reply{d.quote(msg, imageNotFoundText)}
	case errors.Is(err, imagesearch.ErrDownloadFailed):
		reqCtx.Error("failed to download image", err)
		return []Reply{d.quote(msg, imageDownloadText)}
	case err != nil:
		reqCtx.Error("image search failed", err)
		return []Reply{d.quote(msg, imageQuotaText)}
	}

	var replies []Reply
	if result.Repeated {
		replies = append(replies, d.quote(msg, imageRepeatedText))
	}
	replies = append(replies, Reply{
		ChatID:  msg.ChatID,
		QuoteID: msg.ID,
		Media: &Media{
			MimeType: result.Image.MimeType,
			FileName: result.Image.FileName,
			Data:     result.Image.Data,
		},
	})
	reqCtx.Info("image sent", slog.String("url", result.Image.SourceURL))
	return replies
}

// handleSticker validates a sticker command and hands rendering to the client.
func (d *Dispatcher) handleSticker(msg InboundMessage, route router.Route) []Reply {
	source := mediaSource(msg)
	job := &StickerJob{SourceMessageID: source, Author: d.config.StickerAuthor}

	switch route.Intent {
	case router.IntentSticker:
		if source == "" {
			return []Reply{d.quote(msg, stickerNoMediaText)}
		}
		job.Kind = StickerPlain
		if route.Args != "" {
			job.Author = route.Args
		}
	case router.IntentStickerMeme:
		if route.Args == "" {
			return []Reply{d.quote(msg, memeNoTextText)}
		}
		if source == "" {
			return []Reply{d.quote(msg, memeNoMediaText)}
		}
		job.Kind = StickerMeme
		job.Text = route.Args
	case router.IntentQuoteSticker:
		text := route.Args
		if text == "" && msg.Quoted != nil {
			text = strings.TrimSpace(msg.Quoted.Body)
		}
		if text == "" {
			return []Reply{d.quote(msg, quoteNoTextText)}
		}
		job.Kind = StickerQuote
		job.SourceMessageID = ""
		job.Text = text
	}

	return []Reply{{ChatID: msg.ChatID, QuoteID: msg.ID, Sticker: job}}
}

// mediaSource returns the message holding the image: the quoted one first.
func mediaSource(msg InboundMessage) string {
	if msg.Quoted != nil {
		if msg.Quoted.HasMedia {
			return msg.Quoted.ID
		}
		return ""
	}
	if msg.HasMedia {
		return msg.ID
	}
	return ""
}

func (d *Dispatcher) handleInfo(msg InboundMessage) Reply {
	text := fmt.Sprintf(infoFormat, d.config.BotName, d.config.BotNumber, d.config.AdminNumber, d.config.Version)
	return Reply{ChatID: msg.ChatID, Text: text}
}

func (d *Dispatcher) handleEveryone(msg InboundMessage) []Reply {
	if !msg.IsGroup() || len(msg.Participants) == 0 {
		return nil
	}
	mentions := make([]string, len(msg.Participants))
	copy(mentions, msg.Participants)
	return []Reply{{ChatID: msg.ChatID, Text: everyoneText, Mentions: mentions}}
}

func (d *Dispatcher) handleClearChat(ctx context.Context, msg InboundMessage) []Reply {
	reqCtx, _ := observability.FromContext(ctx)
	if !d.isAdmin(msg) {
		reqCtx.Warn("clear chat refused")
		return []Reply{d.quote(msg, forbiddenText)}
	}

	if err := d.history.ClearAll(ctx); err != nil {
		reqCtx.Error("failed to clear chat history", err)
		return []Reply{d.quote(msg, clearFailedText)}
	}
	if d.images != nil {
		d.images.Forget()
	}
	reqCtx.Info("chat history cleared")
	return []Reply{d.quote(msg, clearedText)}
}

func (d *Dispatcher) handleRegister(ctx context.Context, msg InboundMessage, args string) []Reply {
	reqCtx, _ := observability.FromContext(ctx)
	if !d.isAdmin(msg) {
		reqCtx.Warn("register refused")
		return []Reply{d.quote(msg, forbiddenText)}
	}

	number := ""
	if fields := strings.Fields(args); len(fields) > 0 {
		number = util.NormalizePhoneNumber(fields[0])
	}
	if number == "" {
		return []Reply{d.quote(msg, registerUsageText)}
	}

	added, err := d.members.RegisterIfAbsent(ctx, number)
	if err != nil {
		reqCtx.Error("failed to register number", err, slog.String("number", number))
		return []Reply{d.quote(msg, registerFailedText)}
	}
	if !added {
		return []Reply{d.quote(msg, fmt.Sprintf(duplicateFormat, number))}
	}
	reqCtx.Info("number registered", slog.String("number", number))
	return []Reply{d.quote(msg, fmt.Sprintf(registeredFormat, number))}
}
