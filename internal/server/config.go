package server

import (
	"time"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/pkg/constants"
)

// Config holds server configuration.
type Config struct {
	// Server settings
	Host string
	Port int

	// API settings
	PathPrefix string

	// CORS settings
	CORSEnabled bool
	CORSOrigins []string

	// Performance settings
	RateLimit        int // Requests per minute per IP (0 to disable)
	SubscriberBuffer int // Queued snapshots per push subscriber

	// HTTP timeouts
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Features
	MetricsEnabled bool

	// Catalog settings
	CatalogPath  string
	Trigger      string // fsnotify or poll
	PollInterval time.Duration
	KeepLastGood bool

	// Feedback settings
	QuestionsPath   string
	FeedbackLogPath string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:             "localhost",
		Port:             8080,
		PathPrefix:       "",
		CORSEnabled:      true,
		CORSOrigins:      []string{},
		RateLimit:        0,
		SubscriberBuffer: constants.SubscriberBufferSize,
		ReadTimeout:      10 * time.Second,
		WriteTimeout:     10 * time.Second,
		IdleTimeout:      120 * time.Second,
		MetricsEnabled:   true,
		CatalogPath:      constants.DefaultCatalogPath,
		Trigger:          catalog.TriggerFsnotify,
		PollInterval:     constants.DefaultPollInterval,
		QuestionsPath:    constants.DefaultQuestionsPath,
		FeedbackLogPath:  constants.DefaultFeedbackLogPath,
	}
}
