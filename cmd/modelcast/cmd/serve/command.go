// Package serve provides the modelcast server command.
package serve

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/cmd/application"
	"github.com/agentstation/modelcast/internal/cmd/emoji"
	"github.com/agentstation/modelcast/internal/server"
	"github.com/agentstation/modelcast/pkg/constants"
)

// NewCommand creates the serve command using app context.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"server"},
		Short:   "Serve the catalog over HTTP, WebSocket and SSE",
		Long: `Start the modelcast server.

Endpoints:
  GET  /model, /models        current catalog as a JSON array
  GET  /model/ws              WebSocket; one text frame per catalog
  GET  /model/stream          Server-Sent Events; one "models" event per catalog
  GET  /feedback, /metadata   feedback questions
  POST /feedback              store a feedback submission
  GET  /health, /ready        liveness and readiness
  GET  /metrics               Prometheus metrics

The catalog file is watched for changes. Every change is pushed to all
connected subscribers as the complete new catalog. A missing or invalid
catalog file is served as an empty array until it is fixed.`,
		Example: `  # Serve models/models.json on localhost:8080
  modelcast serve

  # Serve another file on all interfaces
  modelcast serve --catalog /etc/modelcast/models.json --host 0.0.0.0

  # Poll instead of using file system notifications (network mounts)
  modelcast serve --trigger poll --poll-interval 5s

  # Keep serving the last good catalog when the file becomes invalid
  modelcast serve --keep-last-good`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, args, app)
		},
	}

	d := server.DefaultConfig()

	// Server configuration flags
	cmd.Flags().IntP("port", "p", d.Port, "Server port")
	cmd.Flags().String("host", d.Host, "Bind address")
	cmd.Flags().String("prefix", d.PathPrefix, "Path prefix for all catalog and feedback routes")

	// Catalog flags
	cmd.Flags().String("catalog", d.CatalogPath, "Catalog file (JSON array)")
	cmd.Flags().String("trigger", d.Trigger, "Change detection: "+catalog.TriggerFsnotify+" or "+catalog.TriggerPoll)
	cmd.Flags().Duration("poll-interval", d.PollInterval, "File check interval for the poll trigger")
	cmd.Flags().Bool("keep-last-good", d.KeepLastGood, "Keep the previous catalog when the file becomes invalid")

	// Feedback flags
	cmd.Flags().String("questions", d.QuestionsPath, "Feedback questions file (JSON)")
	cmd.Flags().String("feedback-log", d.FeedbackLogPath, "Feedback submission log (JSON Lines)")

	// CORS flags
	cmd.Flags().Bool("cors", d.CORSEnabled, "Enable CORS")
	cmd.Flags().StringSlice("cors-origins", d.CORSOrigins, "Allowed CORS origins (comma-separated, default all)")

	// Performance flags
	cmd.Flags().Int("rate-limit", d.RateLimit, "Requests per minute per IP (0 to disable)")
	cmd.Flags().Int("subscriber-buffer", d.SubscriberBuffer, "Catalogs queued per subscriber before it is dropped")

	// Timeout flags
	cmd.Flags().Duration("read-timeout", d.ReadTimeout, "HTTP read timeout")
	cmd.Flags().Duration("write-timeout", d.WriteTimeout, "HTTP write timeout (not applied to push streams)")
	cmd.Flags().Duration("idle-timeout", d.IdleTimeout, "HTTP idle timeout")

	// Features flags
	cmd.Flags().Bool("metrics", d.MetricsEnabled, "Enable metrics endpoint")

	return cmd
}

// runServer starts the server and blocks until the command context ends.
func runServer(cmd *cobra.Command, _ []string, app application.Application) error {
	cfg := parseConfig(cmd, app.ServerConfig())
	logger := app.Logger()

	logger.Info().
		Int("port", cfg.Port).
		Str("host", cfg.Host).
		Str("prefix", cfg.PathPrefix).
		Str("catalog", cfg.CatalogPath).
		Str("trigger", cfg.Trigger).
		Bool("keep_last_good", cfg.KeepLastGood).
		Bool("cors", cfg.CORSEnabled).
		Int("rate_limit", cfg.RateLimit).
		Msg("Starting modelcast server")

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if err := srv.Start(); err != nil {
		_ = srv.Shutdown(context.Background())
		return fmt.Errorf("starting catalog watcher: %w", err)
	}

	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return startWithGracefulShutdown(cmd.Context(), httpServer, srv, logger, cmd)
}

// parseConfig applies the flags the user set on top of base, so config
// file and environment values survive unless a flag overrides them.
func parseConfig(cmd *cobra.Command, base server.Config) server.Config {
	cfg := base
	flags := cmd.Flags()

	if flags.Changed("port") {
		cfg.Port = mustGetInt(cmd, "port")
	}
	if flags.Changed("host") {
		cfg.Host = mustGetString(cmd, "host")
	}
	if flags.Changed("prefix") {
		cfg.PathPrefix = mustGetString(cmd, "prefix")
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = mustGetString(cmd, "catalog")
	}
	if flags.Changed("trigger") {
		cfg.Trigger = mustGetString(cmd, "trigger")
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = mustGetDuration(cmd, "poll-interval")
	}
	if flags.Changed("keep-last-good") {
		cfg.KeepLastGood = mustGetBool(cmd, "keep-last-good")
	}
	if flags.Changed("questions") {
		cfg.QuestionsPath = mustGetString(cmd, "questions")
	}
	if flags.Changed("feedback-log") {
		cfg.FeedbackLogPath = mustGetString(cmd, "feedback-log")
	}
	if flags.Changed("cors") {
		cfg.CORSEnabled = mustGetBool(cmd, "cors")
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = mustGetStringSlice(cmd, "cors-origins")
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = mustGetInt(cmd, "rate-limit")
	}
	if flags.Changed("subscriber-buffer") {
		cfg.SubscriberBuffer = mustGetInt(cmd, "subscriber-buffer")
	}
	if flags.Changed("read-timeout") {
		cfg.ReadTimeout = mustGetDuration(cmd, "read-timeout")
	}
	if flags.Changed("write-timeout") {
		cfg.WriteTimeout = mustGetDuration(cmd, "write-timeout")
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = mustGetDuration(cmd, "idle-timeout")
	}
	if flags.Changed("metrics") {
		cfg.MetricsEnabled = mustGetBool(cmd, "metrics")
	}

	return cfg
}

// startWithGracefulShutdown starts the HTTP server with graceful shutdown.
// The context is used to detect shutdown signals - when cancelled, server will shutdown gracefully.
func startWithGracefulShutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger, cmd *cobra.Command) error {
	serverErr := make(chan error, 1)

	go func() {
		logger.Info().
			Str("addr", httpServer.Addr).
			Msg("HTTP server listening")

		cmd.Printf("%s modelcast listening on %s\n", emoji.Success, httpServer.Addr)
		cmd.Println("   Press Ctrl+C to stop")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("server failed: %w", err)
		}
	}()

	select {
	case err := <-serverErr:
		_ = srv.Shutdown(context.Background())
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received via context")
		cmd.Printf("\n%s Shutting down modelcast...\n", emoji.Stop)

		// Use Background() since the parent context is already cancelled
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()

		if err := shutdown(shutdownCtx, httpServer, srv, logger); err != nil {
			return err
		}

		logger.Info().Msg("Server stopped gracefully")
		cmd.Printf("%s modelcast stopped\n", emoji.Success)
		return nil
	}
}

// shutdown stops the server in three steps. Push connections are hijacked
// and not drained by http.Server.Shutdown, so the distribution service
// closes them first. The feedback log stays open until in-flight requests
// have finished.
func shutdown(ctx context.Context, httpServer *http.Server, srv *server.Server, logger *zerolog.Logger) error {
	srv.StopPush(ctx)

	drainErr := httpServer.Shutdown(ctx)

	if err := srv.Close(); err != nil {
		logger.Warn().Err(err).Msg("Closing feedback log failed")
	}

	if drainErr != nil {
		return fmt.Errorf("server shutdown failed: %w", drainErr)
	}
	return nil
}

// mustGetInt retrieves an integer flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetInt(cmd *cobra.Command, name string) int {
	val, err := cmd.Flags().GetInt(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetStringSlice retrieves a string slice flag value or panics if the flag doesn't exist.
func mustGetStringSlice(cmd *cobra.Command, name string) []string {
	val, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}

// mustGetDuration retrieves a duration flag value or panics if the flag doesn't exist.
func mustGetDuration(cmd *cobra.Command, name string) time.Duration {
	val, err := cmd.Flags().GetDuration(name)
	if err != nil {
		panic(fmt.Sprintf("programming error: failed to get flag %q: %v", name, err))
	}
	return val
}
