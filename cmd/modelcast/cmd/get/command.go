// Package get provides the command that pulls the current catalog.
package get

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/cmd/application"
	"github.com/agentstation/modelcast/internal/cmd/output"
)

// NewCommand creates the get command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "get",
		Aliases: []string{"models", "ls"},
		Short:   "Print the current catalog",
		Long: `Get pulls the current catalog from a modelcast server with GET /model
and prints it. With --file the catalog file is read directly instead,
exactly as the server would load it.`,
		Example: `  modelcast get
  modelcast get --server http://catalog.internal:8080 -o json
  modelcast get --file models/models.json -o yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, _ := cmd.Flags().GetString("file")
			return run(cmd, app, file)
		},
	}

	cmd.Flags().String("file", "", "read a catalog file instead of querying the server")

	return cmd
}

func run(cmd *cobra.Command, app application.Application, file string) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))

	var models []json.RawMessage
	if file != "" {
		snap := catalog.NewStore(file, catalog.WithLogger(app.Logger())).Current()
		if snap.Err != nil {
			return fmt.Errorf("reading catalog: %w", snap.Err)
		}
		for _, r := range snap.Records() {
			models = append(models, json.RawMessage(r))
		}
	} else {
		c, err := app.Client()
		if err != nil {
			return err
		}
		update, err := c.Models(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching catalog: %w", err)
		}
		models = update.Models
		app.Logger().Debug().
			Uint64("revision", update.Revision).
			Int("models", len(models)).
			Msg("Catalog fetched")
	}

	return output.FormatModels(cmd.OutOrStdout(), models, format)
}
