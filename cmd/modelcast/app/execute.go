package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/modelcast/cmd/modelcast/cmd/get"
	"github.com/agentstation/modelcast/cmd/modelcast/cmd/serve"
	"github.com/agentstation/modelcast/cmd/modelcast/cmd/validate"
	"github.com/agentstation/modelcast/cmd/modelcast/cmd/version"
	"github.com/agentstation/modelcast/cmd/modelcast/cmd/watch"
)

// Execute runs the modelcast CLI application with the given arguments.
// This is the main entry point called from main.go.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "modelcast",
		Short:   "Live model catalog distribution",
		Version: a.version,
		Long: `Modelcast serves a file-backed catalog of model records.

Clients pull the catalog with GET /model or subscribe over WebSocket
(/model/ws) or Server-Sent Events (/model/stream). Every change to the
catalog file is pushed to all subscribers as the complete new catalog.
The same server stores feedback submissions in a flat JSON Lines file.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is $HOME/.modelcast.yaml)")
	flags.BoolP("verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolP("quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.Bool("no-color", false, "disable colored output")
	flags.StringP("format", "o", "", "output format: table, json, yaml")
	flags.String("log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.String("server", "", "base URL of the modelcast server for get and watch")

	rootCmd.SetVersionTemplate("modelcast {{.Version}}\n")

	a.registerCommands(rootCmd)

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if path := mustGetString(cmd, "config"); path != "" {
		config, err := LoadConfigFile(path)
		if err != nil {
			return err
		}
		a.config = config
	}

	a.config.UpdateFromFlags(
		mustGetBool(cmd, "verbose"),
		mustGetBool(cmd, "quiet"),
		mustGetBool(cmd, "no-color"),
		mustGetString(cmd, "format"),
		mustGetString(cmd, "log-level"),
		mustGetString(cmd, "server"),
	)

	// Reinitialize logger with updated config
	a.setLogger(NewLogger(a.config))

	a.Logger().Debug().
		Str("config_file", a.config.ConfigFile).
		Str("command", cmd.Name()).
		Msg("Configuration loaded")

	return nil
}

// registerCommands registers all subcommands with the root command.
func (a *App) registerCommands(rootCmd *cobra.Command) {
	// Core commands
	rootCmd.AddCommand(withGroup(serve.NewCommand(a), "core"))
	rootCmd.AddCommand(withGroup(get.NewCommand(a), "core"))
	rootCmd.AddCommand(withGroup(watch.NewCommand(a), "core"))

	// Management commands
	rootCmd.AddCommand(withGroup(validate.NewCommand(a), "management"))

	rootCmd.AddCommand(version.NewCommand(a))
}

func withGroup(cmd *cobra.Command, group string) *cobra.Command {
	cmd.GroupID = group
	return cmd
}

// ExitOnError is a helper that prints an error and exits with status 1.
// This is meant to be used in main.go for top-level error handling.
func ExitOnError(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// mustGetBool retrieves a boolean flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetBool(cmd *cobra.Command, name string) bool {
	val, err := cmd.Flags().GetBool(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}

// mustGetString retrieves a string flag value or panics if the flag doesn't exist.
// This should only be used for flags defined in this package.
func mustGetString(cmd *cobra.Command, name string) string {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		panic("programming error: failed to get flag " + name + ": " + err.Error())
	}
	return val
}
