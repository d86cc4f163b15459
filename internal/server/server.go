// Package server provides the HTTP server of the modelcast service.
//
// The server owns the catalog stores, their change triggers, the
// distribution service and the feedback log, and exposes them over HTTP,
// WebSocket and Server-Sent Events.
package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/distribution"
	"github.com/agentstation/modelcast/internal/feedback"
	"github.com/agentstation/modelcast/internal/metrics"
	"github.com/agentstation/modelcast/pkg/constants"
	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	store     *catalog.Store
	questions *catalog.Store
	service   *distribution.Service
	feedback  *feedback.Log
	metrics   *metrics.Prometheus
	upgrader  websocket.Upgrader
	logger    *zerolog.Logger
	config    Config
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a server and loads both catalogs. Missing or invalid catalog
// files are not an error; the server starts with an empty catalog.
func New(cfg Config, logger *zerolog.Logger) (*Server, error) {
	if cfg.CatalogPath == "" {
		return nil, pkgerrors.NewConfigError("server", "catalog path is required", nil)
	}
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = constants.SubscriberBufferSize
	}

	logger.Debug().Str("catalog", cfg.CatalogPath).Msg("Creating new server instance")

	m := metrics.New()

	store := catalog.NewStore(cfg.CatalogPath,
		catalog.WithLogger(logger),
		catalog.WithKeepLastGood(cfg.KeepLastGood),
	)
	m.ObserveReload(store.Current().Err, store.Current().Len())

	questions := catalog.NewStore(cfg.QuestionsPath,
		catalog.WithLogger(logger),
		catalog.WithKeepLastGood(cfg.KeepLastGood),
	)

	feedbackLog, err := feedback.OpenLog(cfg.FeedbackLogPath, logger)
	if err != nil {
		return nil, pkgerrors.WrapResource("create", "feedback", cfg.FeedbackLogPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		store:     store,
		questions: questions,
		service:   distribution.New(store, logger, distribution.WithMetrics(m)),
		feedback:  feedbackLog,
		metrics:   m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
	}

	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// Start begins watching both catalog files. A trigger that cannot start
// is an error: without it the server would never push updates.
func (s *Server) Start() error {
	s.logger.Debug().Str("trigger", s.config.Trigger).Msg("Starting catalog watchers")

	changes, err := s.startTrigger(s.config.CatalogPath)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.service.Run(s.ctx, changes)
	}()

	questionChanges, err := s.startTrigger(s.config.QuestionsPath)
	if err != nil {
		return err
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for range questionChanges {
			s.questions.Reload()
		}
	}()

	s.logger.Info().
		Str("catalog", s.config.CatalogPath).
		Str("questions", s.config.QuestionsPath).
		Str("trigger", s.config.Trigger).
		Msg("Watching catalog files")
	return nil
}

func (s *Server) startTrigger(path string) (<-chan catalog.Change, error) {
	trigger, err := catalog.NewTrigger(s.config.Trigger, path, s.config.PollInterval, s.logger)
	if err != nil {
		return nil, err
	}
	return trigger.Start(s.ctx)
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// StopPush stops the catalog watchers and disconnects every push
// subscriber. Pull and feedback requests keep working until Close, so the
// HTTP server can drain in between.
func (s *Server) StopPush(ctx context.Context) {
	s.logger.Info().Msg("Stopping catalog watchers and push subscribers")

	s.cancel()
	s.service.Shutdown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Catalog watchers stopped")
	case <-ctx.Done():
		s.logger.Warn().Msg("Catalog watchers shutdown timed out")
	}
}

// Close closes the feedback log. Submissions after Close fail with 503.
func (s *Server) Close() error {
	return s.feedback.Close()
}

// Shutdown runs StopPush followed by Close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.StopPush(ctx)
	return s.Close()
}

// Service returns the distribution service.
func (s *Server) Service() *distribution.Service {
	return s.service
}
