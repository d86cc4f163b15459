// Package validate provides the command that checks catalog files.
package validate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/cmd/application"
	"github.com/agentstation/modelcast/internal/cmd/emoji"
)

// NewCommand creates the validate command.
func NewCommand(app application.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file...]",
		Short: "Check that catalog files load",
		Long: `Validate loads each file the way the server does and reports whether
it is a readable JSON array. Without arguments it checks the configured
catalog and feedback questions files.

The server never rejects an invalid file; it serves an empty catalog
instead. Run validate before replacing a catalog file in production.`,
		Example: `  modelcast validate
  modelcast validate models/next.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cfg := app.ServerConfig()
				args = []string{cfg.CatalogPath, cfg.QuestionsPath}
			}
			return run(cmd, app, args)
		},
	}
}

func run(cmd *cobra.Command, app application.Application, paths []string) error {
	failed := 0
	for _, path := range paths {
		snap := catalog.NewStore(path, catalog.WithLogger(app.Logger())).Current()
		if snap.Err != nil {
			failed++
			cmd.Printf("%s %s: %v\n", emoji.Error, path, snap.Err)
			continue
		}
		cmd.Printf("%s %s: %d records\n", emoji.Success, path, snap.Len())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(paths))
	}
	return nil
}
