package v1

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/server/auth"
	"github.com/hrygo/arisu/server/dispatcher"
)

// MessageHandler is the dispatcher surface the gateway exposes.
type MessageHandler interface {
	Handle(ctx context.Context, msg dispatcher.InboundMessage) ([]dispatcher.Reply, error)
	OnQuery(ctx context.Context, userID, senderID, senderName, text string) (string, error)
}

type APIV1Service struct {
	Profile  *profile.Profile
	Messages MessageHandler
	// Stats is nil when AI is disabled.
	Stats StatsSource

	// authenticator is nil when no gateway secret is configured.
	authenticator *auth.Authenticator
	logger        *slog.Logger
}

func NewAPIV1Service(profile *profile.Profile, messages MessageHandler, logger *slog.Logger) *APIV1Service {
	if logger == nil {
		logger = slog.Default()
	}
	service := &APIV1Service{
		Profile:  profile,
		Messages: messages,
		logger:   logger,
	}
	if profile != nil && profile.GatewaySecret != "" {
		service.authenticator = auth.NewAuthenticator(profile.GatewaySecret)
	}
	return service
}

// RegisterRoutes mounts the webhook API on the given Echo instance.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	group := echoServer.Group("/api/v1")
	group.Use(middleware.BodyLimit("32M"))
	if s.authenticator != nil {
		group.Use(s.authMiddleware)
	} else {
		s.logger.Warn("gateway secret not set, webhook API is unauthenticated")
	}

	group.POST("/messages", s.HandleMessage)
	group.POST("/queries", s.HandleQuery)
	group.GET("/system/metrics/overview", s.GetMetricsOverview)
}
