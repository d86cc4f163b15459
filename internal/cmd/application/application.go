// Package application provides the application interface for modelcast commands.
//
// The Application interface defines the contract between the application layer and
// command implementations, enabling dependency injection and testability.
//
// Usage in Commands:
//
//	func NewCommand(app application.Application) *cobra.Command {
//	    return &cobra.Command{
//	        RunE: func(cmd *cobra.Command, args []string) error {
//	            c, err := app.Client()
//	            if err != nil {
//	                return err
//	            }
//	            update, err := c.Models(cmd.Context())
//	            // ... render update
//	        },
//	    }
//	}
//
// Testing with Mocks:
//
//	mock := &application.Mock{
//	    ServerConfigFunc: func() server.Config {
//	        cfg := server.DefaultConfig()
//	        cfg.CatalogPath = "testdata/models.json"
//	        return cfg
//	    },
//	}
//	cmd := NewCommand(mock)
package application

import (
	"github.com/rs/zerolog"

	"github.com/agentstation/modelcast/internal/server"
	"github.com/agentstation/modelcast/pkg/client"
)

// Application provides the application interface that commands need.
// The App struct from cmd/modelcast/app implements this interface.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// ServerConfig returns the server configuration assembled from config
	// file, environment and defaults. Command flags are applied on top by
	// the command itself.
	ServerConfig() server.Config

	// Client returns a client for the configured remote server.
	Client() (*client.Client, error)

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
