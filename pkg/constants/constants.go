// Package constants provides shared constants used throughout the modelcast codebase.
// This includes timeouts, limits, file permissions, and other values that
// should be consistent between the server and its clients.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for pull requests made by clients
	DefaultHTTPTimeout = 30 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server
	ShutdownTimeout = 30 * time.Second

	// DefaultReconnectDelay is the fixed wait before a push client reconnects
	DefaultReconnectDelay = 3 * time.Second

	// DefaultPollInterval is the catalog file check interval for the poll trigger
	DefaultPollInterval = 2 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// SubscriberBufferSize is the number of snapshots queued per push connection
	// before the connection counts as failed
	SubscriberBufferSize = 16

	// MaxFeedbackBodyBytes caps the size of a feedback submission body
	MaxFeedbackBodyBytes = 1 << 20
)

// Default file locations, relative to the working directory
const (
	// DefaultCatalogPath is the catalog file served by default
	DefaultCatalogPath = "models/models.json"

	// DefaultQuestionsPath is the feedback questions file served by default
	DefaultQuestionsPath = "models/questions.json"

	// DefaultFeedbackLogPath is the append-only feedback submission log
	DefaultFeedbackLogPath = "data/feedback.jsonl"
)
