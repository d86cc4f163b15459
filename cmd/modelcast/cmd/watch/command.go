// Package watch provides the command that follows catalog updates.
package watch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/modelcast/internal/cmd/application"
	"github.com/agentstation/modelcast/internal/cmd/emoji"
	"github.com/agentstation/modelcast/internal/cmd/output"
	"github.com/agentstation/modelcast/pkg/client"
)

// NewCommand creates the watch command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow catalog updates pushed by a server",
		Long: `Watch subscribes to a modelcast server over WebSocket and prints every
catalog it receives, starting with the current one. When the connection
drops it waits a fixed delay and subscribes again.

With --pull-interval the catalog is also pulled with GET /model on that
interval, for networks where push connections are silently cut.

In json format each catalog is printed as one line.`,
		Example: `  modelcast watch
  modelcast watch --server http://catalog.internal:8080 -o json
  modelcast watch --pull-interval 30s --count 1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, app)
		},
	}

	cmd.Flags().Duration("pull-interval", 0, "also pull the catalog on this interval (0 disables)")
	cmd.Flags().Duration("reconnect-delay", 0, "wait between reconnects (default from config, 3s)")
	cmd.Flags().Int("count", 0, "exit after this many catalogs (0 runs until interrupted)")

	return cmd
}

func run(cmd *cobra.Command, app application.Application) error {
	format, err := output.ParseFormat(app.OutputFormat())
	if err != nil {
		return err
	}
	format = output.DetectFormat(string(format))

	pullInterval, _ := cmd.Flags().GetDuration("pull-interval")
	reconnectDelay, _ := cmd.Flags().GetDuration("reconnect-delay")
	count, _ := cmd.Flags().GetInt("count")

	base, err := app.Client()
	if err != nil {
		return err
	}
	c := base.With(
		client.WithPullInterval(pullInterval),
		client.WithReconnectDelay(reconnectDelay),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var (
		received int
		printErr error
	)
	err = c.Watch(ctx, func(u *client.Update) {
		if err := printUpdate(cmd.OutOrStdout(), u, format); err != nil {
			printErr = err
			cancel()
			return
		}
		received++
		if count > 0 && received >= count {
			cancel()
		}
	})

	if printErr != nil {
		return printErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printUpdate(w io.Writer, u *client.Update, format output.Format) error {
	switch format {
	case output.FormatJSON:
		line, err := json.Marshal(u.Models)
		if err != nil {
			return err
		}
		_, err = w.Write(append(line, '\n'))
		return err
	case output.FormatYAML:
		if _, err := io.WriteString(w, "---\n"); err != nil {
			return err
		}
		return output.FormatModels(w, u.Models, format)
	default:
		header := emoji.Live + " " + u.ReceivedAt.Format(time.TimeOnly) + " " + string(u.Source) + ": " +
			pluralModels(len(u.Models)) + "\n"
		if _, err := io.WriteString(w, header); err != nil {
			return err
		}
		return output.FormatModels(w, u.Models, format)
	}
}

func pluralModels(n int) string {
	if n == 1 {
		return "1 model"
	}
	return strconv.Itoa(n) + " models"
}
