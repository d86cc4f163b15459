package server

import (
	"net/http"
	"slices"

	"github.com/agentstation/modelcast/internal/server/handlers"
	"github.com/agentstation/modelcast/internal/server/middleware"
	"github.com/agentstation/modelcast/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.service,
		s.questions,
		s.feedback,
		s.metrics,
		s.upgrader,
		s.config.SubscriberBuffer,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// methods routes a path by HTTP method and answers anything else with 405.
// HEAD is served by the GET handler.
func methods(routes map[string]http.HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(routes))
	for m := range routes {
		allowed = append(allowed, m)
	}
	slices.Sort(allowed)

	return func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == http.MethodHead {
			method = http.MethodGet
		}
		if handler, ok := routes[method]; ok {
			handler(w, r)
			return
		}
		response.MethodNotAllowed(w, r.Method, allowed...)
	}
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("/favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health endpoints
	mux.HandleFunc("/health", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleHealth}))
	mux.HandleFunc("/ready", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleReady}))
	if prefix != "" {
		mux.HandleFunc(prefix+"/health", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleHealth}))
		mux.HandleFunc(prefix+"/ready", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleReady}))
	}

	// Catalog pull
	models := methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleModels})
	mux.HandleFunc(prefix+"/model", models)
	mux.HandleFunc(prefix+"/models", models)

	// Catalog push
	mux.HandleFunc(prefix+"/model/ws", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleWebSocket}))
	mux.HandleFunc(prefix+"/model/stream", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleSSE}))

	// Feedback
	mux.HandleFunc(prefix+"/feedback", methods(map[string]http.HandlerFunc{
		http.MethodGet:  h.HandleQuestions,
		http.MethodPost: h.HandleSubmitFeedback,
	}))
	mux.HandleFunc(prefix+"/metadata", methods(map[string]http.HandlerFunc{http.MethodGet: h.HandleMetadata}))

	// Metrics
	if s.config.MetricsEnabled {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found", "No route for "+r.URL.Path)
	})
}

// applyMiddleware wraps handler with middleware chain.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	// Metrics sit next to the mux so the matched route pattern is visible.
	if cfg.MetricsEnabled {
		handler = middleware.Metrics(s.metrics)(handler)
	}

	// Rate limiting (if enabled)
	if cfg.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimit, s.logger)
		handler = middleware.RateLimit(rateLimiter)(handler)
	}

	// CORS (if enabled)
	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
			corsConfig.AllowAll = false
		}
		handler = middleware.CORS(corsConfig)(handler)
	}

	// Request ids, logging and recovery (always enabled)
	handler = middleware.Logger(s.logger)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Recovery(s.logger)(handler)

	return handler
}
