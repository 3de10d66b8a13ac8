package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/arisu/internal/profile"
	"github.com/hrygo/arisu/plugin/ai"
	"github.com/hrygo/arisu/plugin/ai/agent"
	"github.com/hrygo/arisu/plugin/ai/session"
	"github.com/hrygo/arisu/plugin/imagesearch"
	"github.com/hrygo/arisu/server/dispatcher"
	"github.com/hrygo/arisu/server/internal/observability"
	"github.com/hrygo/arisu/server/middleware"
	apiv1 "github.com/hrygo/arisu/server/router/api/v1"
	"github.com/hrygo/arisu/server/runner/ratelimit"
	"github.com/hrygo/arisu/server/service/member"
	"github.com/hrygo/arisu/store"
)

// MetricsNamespace prefixes every exported Prometheus metric.
const MetricsNamespace = "arisu"

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	Sessions   *session.Store
	Members    *member.Registry
	Dispatcher *dispatcher.Dispatcher
	Metrics    *observability.Metrics

	images            *imagesearch.Client
	limiter           *middleware.RateLimiter
	echoServer        *echo.Echo
	logger            *slog.Logger
	runnerCancelFuncs []context.CancelFunc
}

// NewServer loads both snapshots and wires the bot. A corrupt snapshot stops
// startup so it is never overwritten with an empty document.
func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Profile: profile,
		Store:   store,
		Metrics: observability.NewMetrics(MetricsNamespace),
		limiter: middleware.NewRateLimiter(profile.RateLimitRPS, profile.RateLimitBurst),
		logger:  logger,
	}

	s.Sessions = session.NewStore(store)
	if err := s.Sessions.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load chat history")
	}
	s.Members = member.NewRegistry(store)
	if err := s.Members.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load members")
	}

	deps := dispatcher.Deps{
		Members: s.Members,
		History: s.Sessions,
		Limiter: s.limiter,
		Metrics: s.Metrics,
		Logger:  logger,
	}

	var stats *agent.AgentMetrics
	if profile.IsAIEnabled() {
		orchestrator, agentMetrics, err := s.newOrchestrator()
		if err != nil {
			return nil, err
		}
		deps.Queries = orchestrator
		stats = agentMetrics
	} else {
		logger.Warn("AI is disabled, set ARISU_AI_API_KEY to enable it")
	}

	if profile.IsImageSearchEnabled() {
		s.images = imagesearch.NewClient(imagesearch.Config{
			APIKey: profile.GoogleAPIKey,
			CX:     profile.GoogleSearchCX,
		}, nil)
		deps.Images = s.images
	}

	s.Dispatcher = dispatcher.New(dispatcher.Config{
		BotName:       profile.BotName,
		BotNumber:     profile.BotNumber,
		Version:       profile.Version,
		AdminNumber:   profile.AdminNumber,
		NotifyChat:    profile.NotifyChat,
		StickerAuthor: profile.StickerAuthor,
	}, deps)

	s.echoServer = s.newEcho(stats)
	return s, nil
}

func (s *Server) newOrchestrator() (*agent.Orchestrator, *agent.AgentMetrics, error) {
	config := ai.NewConfigFromProfile(s.Profile)
	if err := config.Validate(); err != nil {
		return nil, nil, errors.Wrap(err, "invalid ai config")
	}
	client, err := ai.NewCompletionClient(&config.LLM)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create completion client")
	}

	agentMetrics := agent.NewAgentMetrics()
	orchestrator := agent.NewOrchestrator(s.Sessions, client, config,
		agent.WithMetrics(agent.MultiRecorder{s.Metrics, agentMetrics}),
		agent.WithLogger(s.logger),
	)
	return orchestrator, agentMetrics, nil
}

func (s *Server) newEcho(stats *agent.AgentMetrics) *echo.Echo {
	echoServer := echo.New()
	echoServer.Debug = s.Profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(echomiddleware.Recover())

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(s.Metrics.Handler()))

	service := apiv1.NewAPIV1Service(s.Profile, s.Dispatcher, s.logger)
	if stats != nil {
		service.Stats = stats
	}
	service.RegisterRoutes(echoServer)
	return echoServer
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start echo server", "error", err)
		}
	}()

	s.StartBackgroundRunners(ctx)
	return nil
}

func (s *Server) StartBackgroundRunners(ctx context.Context) {
	runnerCtx, cancel := context.WithCancel(ctx)
	s.runnerCancelFuncs = append(s.runnerCancelFuncs, cancel)

	pruner := ratelimit.NewRunner(s.limiter, ratelimit.DefaultInterval)
	go pruner.Run(runnerCtx)
}

// Shutdown stops serving, flushes chat history and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	for _, cancelFunc := range s.runnerCancelFuncs {
		cancelFunc()
	}
	if s.images != nil {
		s.images.Close()
	}

	if err := s.Sessions.Save(ctx); err != nil {
		slog.Error("failed to save chat history", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("arisu stopped properly")
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
