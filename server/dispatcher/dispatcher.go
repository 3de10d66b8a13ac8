// Package dispatcher turns inbound chat messages into replies: it routes dot
// commands to their handlers, gates AI queries on membership and hands them
// to the request orchestrator.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/arisu/internal/util"
	"github.com/hrygo/arisu/plugin/ai/agent"
	"github.com/hrygo/arisu/plugin/ai/router"
	"github.com/hrygo/arisu/plugin/ai/timeout"
	"github.com/hrygo/arisu/plugin/imagesearch"
	"github.com/hrygo/arisu/server/internal/observability"
	"github.com/hrygo/arisu/server/middleware"
	"github.com/hrygo/arisu/server/service/member"
)

// ErrRateLimited is returned when a chat sends faster than its limit allows.
var ErrRateLimited = errors.New("chat rate limit exceeded")

// QueryHandler runs one AI request cycle.
type QueryHandler interface {
	HandleQuery(ctx context.Context, q agent.Query) agent.QueryResult
}

// HistoryStore is the part of the conversation store the admin commands need.
type HistoryStore interface {
	ClearAll(ctx context.Context) error
}

// ImageSearcher finds images for .gpict.
type ImageSearcher interface {
	Search(ctx context.Context, query string) (*imagesearch.Result, error)
	Forget()
}

// MessageRecorder counts handled messages.
type MessageRecorder interface {
	RecordMessage(intent string)
	RecordRateLimited()
	// TrackQuery marks a query in flight until the returned func is called.
	TrackQuery() func()
}

// Config holds the bot identity and limits.
type Config struct {
	BotName     string
	BotNumber   string
	Version     string
	AdminNumber string
	// NotifyChat receives the unregistered number notifications.
	NotifyChat    string
	StickerAuthor string
	// QueryTimeout bounds one AI query, waiting for a completion slot included.
	QueryTimeout       time.Duration
	ImageSearchTimeout time.Duration
}

// Dispatcher routes inbound messages.
type Dispatcher struct {
	config  Config
	members member.Service
	queries QueryHandler
	history HistoryStore
	images  ImageSearcher
	matcher *router.RuleMatcher
	limiter *middleware.RateLimiter
	metrics MessageRecorder
	logger  *slog.Logger
}

// Deps are the collaborators of a Dispatcher. Queries and Images may be nil
// when the feature is not configured.
type Deps struct {
	Members member.Service
	Queries QueryHandler
	History HistoryStore
	Images  ImageSearcher
	Limiter *middleware.RateLimiter
	Metrics MessageRecorder
	Logger  *slog.Logger
}

// New creates a dispatcher.
func New(config Config, deps Deps) *Dispatcher {
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = timeout.QueryTimeout
	}
	if config.ImageSearchTimeout <= 0 {
		config.ImageSearchTimeout = timeout.ImageSearchTimeout
	}
	if config.BotName == "" {
		config.BotName = "Arisu"
	}
	if deps.Limiter == nil {
		deps.Limiter = middleware.NewRateLimiter(middleware.DefaultRPS, middleware.DefaultBurst)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	d := &Dispatcher{
		config:  config,
		members: deps.Members,
		queries: deps.Queries,
		history: deps.History,
		images:  deps.Images,
		matcher: router.NewRuleMatcher(),
		limiter: deps.Limiter,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
	return d
}

// Handle processes one inbound message and returns the replies to send, in order.
func (d *Dispatcher) Handle(ctx context.Context, msg InboundMessage) ([]Reply, error) {
	sender := util.NormalizePhoneNumber(msg.SenderAddress())
	reqCtx := observability.NewRequestContextWithID(d.logger, msg.ID, msg.ChatID, sender)
	ctx = observability.WithRequestContext(ctx, reqCtx)

	if !d.limiter.Allow(msg.ChatID) {
		reqCtx.Warn("message dropped by rate limit")
		if d.metrics != nil {
			d.metrics.RecordRateLimited()
		}
		return nil, ErrRateLimited
	}

	route := d.matcher.Match(msg.Body)
	reqCtx.Intent = string(route.Intent)
	d.record(string(route.Intent))

	var (
		replies []Reply
		err     error
	)
	switch route.Intent {
	case router.IntentHello:
		replies = []Reply{d.quote(msg, helloText)}
	case router.IntentImageSearch:
		replies = d.handleImageSearch(ctx, msg, route.Args)
	case router.IntentSticker, router.IntentStickerMeme, router.IntentQuoteSticker:
		replies = d.handleSticker(msg, route)
	case router.IntentCustomSticker:
		replies = []Reply{d.quote(msg, stickerMovedText)}
	case router.IntentInfo:
		replies = []Reply{d.handleInfo(msg)}
	case router.IntentEveryone:
		replies = d.handleEveryone(msg)
	case router.IntentClearChat:
		replies = d.handleClearChat(ctx, msg)
	default:
		replies, err = d.handleMemberText(ctx, msg, route)
	}

	reqCtx.Debug("message handled", slog.Int("replies", len(replies)), slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
	return replies, err
}

// handleMemberText covers everything that is not a public command: the
// registration gate, .reg and AI queries.
func (d *Dispatcher) handleMemberText(ctx context.Context, msg InboundMessage, route router.Route) ([]Reply, error) {
	reqCtx, _ := observability.FromContext(ctx)
	var replies []Reply

	chat := util.NormalizePhoneNumber(msg.ChatID)
	registered := d.members.IsRegistered(chat)
	if !registered && chat != "" {
		wasNew, err := d.members.MarkSeenUnregistered(ctx, chat)
		if err != nil {
			reqCtx.Error("failed to record unregistered number", err)
		}
		if wasNew && d.config.NotifyChat != "" {
			replies = append(replies, Reply{ChatID: d.config.NotifyChat, Text: fmt.Sprintf(notifyFormat, chat)})
			reqCtx.Info("unregistered number notified")
		}
	}

	if route.Intent == router.IntentRegister {
		return append(replies, d.handleRegister(ctx, msg, route.Args)...), nil
	}

	if !registered {
		reqCtx.Debug("chat not registered, ignoring")
		return replies, nil
	}
	if route.Intent != router.IntentAIQuery {
		return replies, nil
	}

	result, err := d.runQuery(ctx, msg.ChatID, util.NormalizePhoneNumber(msg.SenderAddress()), msg.SenderName, route.Args)
	if err != nil {
		return replies, err
	}
	if result.Truncated {
		replies = append(replies, Reply{ChatID: msg.ChatID, Text: agent.TruncationNotice})
	}
	if result.Reply != "" {
		replies = append(replies, d.quote(msg, result.Reply))
	}
	return replies, nil
}

// OnQuery runs an AI query outside of message routing and returns the reply text.
func (d *Dispatcher) OnQuery(ctx context.Context, userID, senderID, senderName, text string) (string, error) {
	result, err := d.runQuery(ctx, userID, util.NormalizePhoneNumber(senderID), senderName, text)
	if err != nil {
		return "", err
	}
	if !result.Success {
		return result.Reply, result.Err
	}
	return result.Reply, nil
}

// runQuery runs the query under the query deadline. The orchestrator waits
// for the user lock and then for a completion slot.
func (d *Dispatcher) runQuery(ctx context.Context, userID, senderID, senderName, text string) (*agent.QueryResult, error) {
	if d.queries == nil {
		return &agent.QueryResult{Reply: aiDisabledText}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.config.QueryTimeout)
	defer cancel()

	if d.metrics != nil {
		defer d.metrics.TrackQuery()()
	}

	result := d.queries.HandleQuery(ctx, agent.Query{
		UserID:     userID,
		SenderID:   senderID,
		SenderName: senderName,
		Text:       text,
	})
	if errors.Is(result.Err, agent.ErrEmptyQuery) {
		return &agent.QueryResult{}, nil
	}
	return &result, nil
}

func (d *Dispatcher) quote(msg InboundMessage, text string) Reply {
	return Reply{ChatID: msg.ChatID, Text: text, QuoteID: msg.ID}
}

func (d *Dispatcher) record(intent string) {
	if d.metrics != nil {
		d.metrics.RecordMessage(intent)
	}
}

// isAdmin checks the person who wrote the message, not the chat it came from.
func (d *Dispatcher) isAdmin(msg InboundMessage) bool {
	admin := util.NormalizePhoneNumber(d.config.AdminNumber)
	return admin != "" && util.NormalizePhoneNumber(msg.SenderAddress()) == admin
}
