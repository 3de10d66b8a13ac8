package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hrygo/arisu/plugin/ai"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"server error", statusErr(http.StatusInternalServerError), ErrorClassTransient},
		{"bad gateway", statusErr(http.StatusBadGateway), ErrorClassTransient},
		{"rate limited", statusErr(http.StatusTooManyRequests), ErrorClassTransient},
		{"malformed body", &ai.CompletionTransportError{StatusCode: http.StatusOK, Err: ai.ErrMalformedResponse}, ErrorClassTransient},
		{"no response", &ai.CompletionTransportError{Err: errors.New("connection refused")}, ErrorClassTransient},
		{"attempt timeout", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), ErrorClassTransient},
		{"bad request", statusErr(http.StatusBadRequest), ErrorClassPermanent},
		{"unauthorized", statusErr(http.StatusUnauthorized), ErrorClassPermanent},
		{"forbidden", statusErr(http.StatusForbidden), ErrorClassPermanent},
		{"unknown model", statusErr(http.StatusNotFound), ErrorClassPermanent},
		{"cancelled", context.Canceled, ErrorClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			assert.Equal(t, tt.expected, classified.Class)
			assert.ErrorIs(t, classified, tt.err)
		})
	}

	assert.Nil(t, ClassifyError(nil))
	assert.False(t, ShouldRetry(nil))
}

func TestClassifyError_KeepsExistingClassification(t *testing.T) {
	original := &ClassifiedError{Class: ErrorClassPermanent, Original: errors.New("x")}
	assert.Same(t, original, ClassifyError(fmt.Errorf("outer: %w", original)))
}

func TestUserFacingMessage(t *testing.T) {
	exhausted := fmt.Errorf("%w: %w", ErrAttemptsExhausted, context.DeadlineExceeded)

	assert.Equal(t, cancelledMessage, UserFacingMessage(context.Canceled))
	assert.Equal(t, timeoutMessage, UserFacingMessage(context.DeadlineExceeded))
	assert.Equal(t, UnavailableMessage, UserFacingMessage(exhausted))
	assert.Equal(t, UnavailableMessage, UserFacingMessage(errors.New("boom")))
}

func TestAgentMetrics(t *testing.T) {
	m := NewAgentMetrics()
	assert.Zero(t, m.GetSuccessRate())

	m.RecordQuery(true, 1, 100*time.Millisecond)
	m.RecordQuery(false, 3, 300*time.Millisecond)
	m.RecordErrorClass(ErrorClassTransient)
	m.RecordErrorClass(ErrorClassPermanent)
	m.RecordTruncation()

	snapshot := m.Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalQueries)
	assert.Equal(t, int64(4), snapshot.CompletionCalls)
	assert.Equal(t, int64(1), snapshot.TransientErrors)
	assert.Equal(t, int64(1), snapshot.PermanentErrors)
	assert.Equal(t, int64(1), snapshot.Truncations)
	assert.InDelta(t, 50.0, snapshot.SuccessRate, 0.001)
	assert.Equal(t, 200*time.Millisecond, snapshot.AverageDuration)
}

func TestMultiRecorder(t *testing.T) {
	a, b := NewAgentMetrics(), NewAgentMetrics()
	rec := MultiRecorder{a, b}
	rec.RecordQuery(true, 2, time.Second)
	rec.RecordTruncation()

	for _, m := range []*AgentMetrics{a, b} {
		assert.Equal(t, int64(1), m.Snapshot().SuccessfulQueries)
		assert.Equal(t, int64(1), m.Snapshot().Truncations)
	}
}
