package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/app"
	"github.com/chirino/docsync/internal/cmd/cmdflags"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/ingest"
	"github.com/urfave/cli/v3"
)

// Command returns the sync sub-command, which runs one build sync into the
// entry store and prints what changed.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var asJSON bool
	return &cli.Command{
		Name:  "sync",
		Usage: "Fetch every published document and replace the stored entry set",
		Flags: cmdflags.Join(
			[]cli.Flag{
				&cli.BoolFlag{
					Name:        "json",
					Destination: &asJSON,
					Usage:       "Print the report as JSON",
				},
			},
			cmdflags.Remote(&cfg),
			cmdflags.Store(&cfg),
			cmdflags.Assets(&cfg),
			cmdflags.Logging(&cfg),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, err := cmdflags.Prepare(ctx, &cfg)
			if err != nil {
				return err
			}
			report, err := run(ctx, &cfg)
			if err != nil {
				return err
			}
			return printReport(os.Stdout, report, asJSON)
		},
	}
}

func run(ctx context.Context, cfg *config.Config) (*ingest.SyncReport, error) {
	components, err := app.Assemble(ctx, cfg, app.Options{SkipCache: true})
	if err != nil {
		return nil, err
	}
	defer components.Close()

	report, err := components.Build.Run(ctx)
	if err != nil {
		if ingest.Retryable(err) {
			log.Error("Sync failed; the remote may recover, retry later", "err", err)
		}
		return nil, fmt.Errorf("sync failed: %w", err)
	}
	return report, nil
}

func printReport(w io.Writer, report *ingest.SyncReport, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	if report.Skipped {
		_, err := fmt.Fprintln(w, "Sync skipped: remote credentials are not configured; store left unchanged")
		return err
	}
	fmt.Fprintf(w, "Synced %d entries in %s (run %s)\n", report.Entries, report.Duration.Round(1e6), report.RunID)
	for _, group := range []struct {
		label string
		ids   []string
	}{
		{"added", report.Added},
		{"changed", report.Changed},
		{"removed", report.Removed},
	} {
		if len(group.ids) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s (%d): %s\n", group.label, len(group.ids), strings.Join(group.ids, ", "))
	}
	_, err := fmt.Fprintf(w, "  unchanged: %d\n", len(report.Unchanged))
	return err
}
