package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/arisu/plugin/ai"
	aicontext "github.com/hrygo/arisu/plugin/ai/context"
	"github.com/hrygo/arisu/plugin/ai/session"
	"github.com/hrygo/arisu/plugin/ai/timeout"
)

// State is a step of one request cycle.
type State int

const (
	StateBuilding State = iota
	StateAwaitingCompletion
	StateRetrying
	StateSucceeded
	StateDelivered
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateAwaitingCompletion:
		return "awaiting_completion"
	case StateRetrying:
		return "retrying"
	case StateSucceeded:
		return "succeeded"
	case StateDelivered:
		return "delivered"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Query is one AI request from a chat.
type Query struct {
	// UserID keys the conversation, the raw chat address.
	UserID string
	// SenderID is the digits-only id of the person who wrote the message.
	SenderID   string
	SenderName string
	Text       string
}

// QueryResult is the outcome of HandleQuery.
type QueryResult struct {
	Success bool
	// Reply is the assistant text on success, otherwise a message fit for the chat.
	Reply string
	// Truncated reports that older turns were evicted to fit the budget.
	Truncated bool
	// Attempts counts completion calls made.
	Attempts int
	Err      error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Orchestrator drives the request cycle for every user.
type Orchestrator struct {
	sessions session.SessionService
	client   ai.CompletionClient
	config   *ai.Config

	// slots caps completions in flight across users. It is taken after the
	// user lock so queued messages of one user never hold a slot.
	slots *semaphore.Weighted

	persona string
	metrics MetricsRecorder
	sleep   SleepFunc
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPersona replaces DefaultPersona.
func WithPersona(persona string) Option {
	return func(o *Orchestrator) {
		o.persona = persona
	}
}

// WithConcurrencyLimit caps the queries running a completion at once.
func WithConcurrencyLimit(n int64) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.slots = semaphore.NewWeighted(n)
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *Orchestrator) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSleep replaces the backoff wait, mainly for tests.
func WithSleep(sleep SleepFunc) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates an orchestrator over the given store and client.
func NewOrchestrator(sessions session.SessionService, client ai.CompletionClient, config *ai.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sessions: sessions,
		client:   client,
		config:   config,
		slots:    semaphore.NewWeighted(timeout.MaxConcurrentQueries),
		persona:  DefaultPersona,
		metrics:  noopRecorder{},
		sleep:    sleepContext,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// HandleQuery runs one request cycle for q.
//
// The user's history is only changed when a completion succeeds: the query and
// the reply are committed together, trimmed to the budget and persisted. A
// failed cycle leaves the history as it was and returns a message for the chat.
func (o *Orchestrator) HandleQuery(ctx context.Context, q Query) QueryResult {
	start := time.Now()
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return QueryResult{Err: ErrEmptyQuery}
	}

	unlock := o.sessions.LockUser(q.UserID)
	defer unlock()

	logger := o.logger.With(slog.String("user", q.UserID))
	if err := o.slots.Acquire(ctx, 1); err != nil {
		logger.Warn("no completion slot before deadline", slog.String("error", err.Error()))
		o.metrics.RecordQuery(false, 0, time.Since(start))
		return QueryResult{Reply: UserFacingMessage(err), Err: err}
	}
	defer o.slots.Release(1)

	o.trace(logger, StateBuilding, 0)

	pending := session.ChatTurn{
		Role:    session.RoleUser,
		Content: text,
		Sender:  q.SenderID,
		Name:    q.SenderName,
	}
	epoch := o.sessions.Epoch()
	history := append(o.sessions.Turns(q.UserID), pending)
	working, truncated := aicontext.EnforceKeepingLast(history, o.budget())

	who := aicontext.ConversationIdentity(working, aicontext.Identity{Sender: q.SenderID, Name: q.SenderName})
	messages := aicontext.BuildMessages(BuildPreamble(o.persona, who), working)

	var lastErr error
	attempts := 0
	for attempts < o.maxAttempts() {
		if attempts > 0 {
			o.trace(logger, StateRetrying, attempts)
			if err := o.sleep(ctx, o.backoff(attempts)); err != nil {
				lastErr = err
				break
			}
		}
		attempts++

		o.trace(logger, StateAwaitingCompletion, attempts)
		reply, err := o.complete(ctx, messages)
		if err == nil {
			o.trace(logger, StateSucceeded, attempts)
			truncated = o.commit(ctx, logger, q.UserID, epoch, working, reply, truncated)
			if truncated {
				o.metrics.RecordTruncation()
			}
			o.metrics.RecordQuery(true, attempts, time.Since(start))
			o.trace(logger, StateDelivered, attempts)
			return QueryResult{
				Success:   true,
				Reply:     reply,
				Truncated: truncated,
				Attempts:  attempts,
			}
		}

		classified := ClassifyError(err)
		o.metrics.RecordErrorClass(classified.Class)
		logger.Warn("completion attempt failed",
			slog.Int("attempt", attempts),
			slog.String("class", classified.Class.String()),
			slog.Int("status", classified.StatusCode),
			slog.String("error", err.Error()),
		)
		lastErr = classified
		if classified.IsPermanent() || ctx.Err() != nil {
			break
		}
	}

	if attempts >= o.maxAttempts() && ctx.Err() == nil && ShouldRetry(lastErr) {
		lastErr = fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, attempts, lastErr)
	}
	o.trace(logger, StateFailed, attempts)
	logger.Error("ai request failed", slog.Int("attempts", attempts), slog.String("error", lastErr.Error()))
	o.metrics.RecordQuery(false, attempts, time.Since(start))

	return QueryResult{
		Reply:    UserFacingMessage(lastErr),
		Attempts: attempts,
		Err:      lastErr,
	}
}

// EnforceBudget trims a stored conversation to the budget and persists it when
// anything was evicted.
func (o *Orchestrator) EnforceBudget(ctx context.Context, userID string) (bool, error) {
	unlock := o.sessions.LockUser(userID)
	defer unlock()

	kept, evicted := aicontext.Enforce(o.sessions.Turns(userID), o.budget())
	if !evicted {
		return false, nil
	}
	o.sessions.Replace(userID, kept)
	if err := o.sessions.Save(ctx); err != nil {
		return true, fmt.Errorf("failed to persist trimmed history: %w", err)
	}
	return true, nil
}

func (o *Orchestrator) complete(ctx context.Context, messages []ai.Message) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.attemptTimeout())
	defer cancel()
	return o.client.Complete(attemptCtx, messages)
}

// commit stores the exchange and reports whether the history lost turns to the
// budget. When the histories were cleared while the completion was pending,
// only the query and its reply are stored.
// A failed snapshot write is logged; the reply is still delivered and the
// in-memory history stays authoritative until the next successful save.
func (o *Orchestrator) commit(ctx context.Context, logger *slog.Logger, userID string, epoch uint64, working []session.ChatTurn, reply string, truncated bool) bool {
	turns := make([]session.ChatTurn, 0, len(working)+1)
	turns = append(turns, working...)
	turns = append(turns, session.ChatTurn{
		Role:    session.RoleAssistant,
		Content: reply,
		Sender:  session.SystemSender,
	})
	turns, evicted := aicontext.Enforce(turns, o.budget())
	stored := o.sessions.CommitSince(userID, epoch, turns, 2)
	if len(stored) < len(turns) {
		logger.Info("history was cleared during the request, keeping only the last exchange")
		truncated, evicted = false, false
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.SnapshotWriteTimeout)
	defer cancel()
	if err := o.sessions.Save(saveCtx); err != nil {
		logger.Error("failed to persist chat history", slog.String("error", err.Error()))
	}

	logger.Debug("conversation committed",
		slog.Int("turns", len(stored)),
		slog.Int("tokens", aicontext.EstimateCost(stored)),
	)
	return truncated || evicted
}

// backoff returns the delay before retry n (1-based): base·2^(n-1), capped.
func (o *Orchestrator) backoff(n int) time.Duration {
	base := o.config.Retry.BackoffBase
	if base <= 0 {
		return 0
	}
	limit := o.config.Retry.BackoffMax
	delay := base
	for i := 1; i < n; i++ {
		delay *= 2
		if limit > 0 && delay >= limit {
			return limit
		}
	}
	if limit > 0 && delay > limit {
		return limit
	}
	return delay
}

func (o *Orchestrator) budget() int {
	if o.config.TokenBudget > 0 {
		return o.config.TokenBudget
	}
	return aicontext.DefaultMaxTokens
}

func (o *Orchestrator) maxAttempts() int {
	if o.config.Retry.MaxAttempts > 0 {
		return o.config.Retry.MaxAttempts
	}
	return timeout.MaxCompletionAttempts
}

func (o *Orchestrator) attemptTimeout() time.Duration {
	if o.config.Retry.AttemptTimeout > 0 {
		return o.config.Retry.AttemptTimeout
	}
	return timeout.CompletionAttemptTimeout
}

func (o *Orchestrator) trace(logger *slog.Logger, state State, attempt int) {
	logger.Debug("ai request state", slog.String("state", state.String()), slog.Int("attempt", attempt))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
