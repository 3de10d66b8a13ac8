// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
const (
	// CompletionAttemptTimeout is the default deadline for a single completion call.
	CompletionAttemptTimeout = 30 * time.Second

	// QueryTimeout bounds one whole query, retries and backoff included.
	QueryTimeout = 3 * time.Minute

	// ImageSearchTimeout is the timeout for an image search plus download.
	ImageSearchTimeout = 30 * time.Second

	// SnapshotWriteTimeout is the timeout for persisting one snapshot.
	SnapshotWriteTimeout = 10 * time.Second

	// MaxCompletionAttempts is the default cap on completion attempts per query.
	MaxCompletionAttempts = 3

	// MaxConcurrentQueries is the default cap on completions in flight across users.
	MaxConcurrentQueries = 4

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 200
)
