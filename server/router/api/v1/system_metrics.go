package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/arisu/plugin/ai/agent"
	apierrors "github.com/hrygo/arisu/server/internal/errors"
)

// StatsSource exposes the in-process AI counters.
type StatsSource interface {
	Snapshot() agent.MetricsSnapshot
}

// MetricsOverviewResponse represents the overview response of AI metrics since start.
type MetricsOverviewResponse struct {
	TotalQueries    int64   `json:"total_queries"`
	SuccessRate     float64 `json:"success_rate"`
	AvgLatencyMs    int64   `json:"avg_latency_ms"`
	CompletionCalls int64   `json:"completion_calls"`
	TransientErrors int64   `json:"transient_errors"`
	PermanentErrors int64   `json:"permanent_errors"`
	Truncations     int64   `json:"truncations"`
}

// GetMetricsOverview returns the AI metrics overview.
// GET /api/v1/system/metrics/overview
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	if s.Stats == nil {
		return writeError(c, apierrors.ServiceUnavailable("ai is not enabled"))
	}
	snapshot := s.Stats.Snapshot()
	return c.JSON(http.StatusOK, MetricsOverviewResponse{
		TotalQueries:    snapshot.TotalQueries,
		SuccessRate:     snapshot.SuccessRate,
		AvgLatencyMs:    snapshot.AverageDuration.Milliseconds(),
		CompletionCalls: snapshot.CompletionCalls,
		TransientErrors: snapshot.TransientErrors,
		PermanentErrors: snapshot.PermanentErrors,
		Truncations:     snapshot.Truncations,
	})
}
