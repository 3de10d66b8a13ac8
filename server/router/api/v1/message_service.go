package v1

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/arisu/plugin/ai/agent"
	"github.com/hrygo/arisu/server/dispatcher"
	apierrors "github.com/hrygo/arisu/server/internal/errors"
)

// MessageResponse carries the replies for one inbound message, in send order.
type MessageResponse struct {
	Replies []dispatcher.Reply `json:"replies"`
}

// QueryRequest asks the AI directly, outside of command routing.
type QueryRequest struct {
	UserID     string `json:"user_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name,omitempty"`
	Text       string `json:"text"`
}

// QueryResponse holds the reply text. Reply may be set alongside Error when
// the bot has a user-facing apology to show.
type QueryResponse struct {
	Reply string              `json:"reply"`
	Error *apierrors.APIError `json:"error,omitempty"`
}

// HandleMessage handles one message from the messaging client.
// POST /api/v1/messages
func (s *APIV1Service) HandleMessage(c echo.Context) error {
	var msg dispatcher.InboundMessage
	if err := c.Bind(&msg); err != nil {
		return writeError(c, apierrors.InvalidArgument("invalid message body"))
	}
	if strings.TrimSpace(msg.ChatID) == "" {
		return writeError(c, apierrors.InvalidArgument("chat_id is required"))
	}

	replies, err := s.Messages.Handle(c.Request().Context(), msg)
	if err != nil {
		apiErr := toAPIError(err)
		s.logAPIError(c, apiErr)
		return writeError(c, apiErr)
	}
	if replies == nil {
		replies = []dispatcher.Reply{}
	}
	return c.JSON(http.StatusOK, MessageResponse{Replies: replies})
}

// HandleQuery runs one AI query and returns the reply text.
// POST /api/v1/queries
func (s *APIV1Service) HandleQuery(c echo.Context) error {
	var req QueryRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apierrors.InvalidArgument("invalid query body"))
	}
	if strings.TrimSpace(req.UserID) == "" {
		return writeError(c, apierrors.InvalidArgument("user_id is required"))
	}
	if strings.TrimSpace(req.Text) == "" {
		return writeError(c, apierrors.InvalidArgument("text is required"))
	}
	senderID := req.SenderID
	if senderID == "" {
		senderID = req.UserID
	}

	reply, err := s.Messages.OnQuery(c.Request().Context(), req.UserID, senderID, req.SenderName, req.Text)
	if err != nil {
		apiErr := toAPIError(err)
		s.logAPIError(c, apiErr)
		return c.JSON(apiErr.HTTPStatus(), QueryResponse{Reply: reply, Error: apiErr})
	}
	return c.JSON(http.StatusOK, QueryResponse{Reply: reply})
}

// toAPIError maps handler failures to gateway error codes.
func toAPIError(err error) *apierrors.APIError {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, dispatcher.ErrRateLimited):
		return apierrors.Wrap(err, apierrors.ErrCodeRateLimitExceeded, "too many messages from this chat")
	case errors.Is(err, agent.ErrAttemptsExhausted):
		// Exhaustion wraps the last attempt error, which may itself be a deadline.
		return apierrors.Wrap(err, apierrors.ErrCodeServiceUnavailable, "completion service unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		return apierrors.Wrap(err, apierrors.ErrCodeTimeout, "request timed out")
	default:
		return apierrors.Wrap(err, apierrors.ErrCodeInternal, "failed to handle request")
	}
}

func writeError(c echo.Context, apiErr *apierrors.APIError) error {
	return c.JSON(apiErr.HTTPStatus(), apiErr)
}

func (s *APIV1Service) logAPIError(c echo.Context, apiErr *apierrors.APIError) {
	level := slog.LevelError
	if apiErr.HTTPStatus() < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	s.logger.Log(c.Request().Context(), level, "gateway request failed",
		slog.String("path", c.Path()),
		slog.String("code", string(apiErr.Code)),
		slog.Any("client", c.Get(clientContextKey)),
		slog.String("error", apiErr.Error()),
	)
}
