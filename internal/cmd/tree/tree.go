package tree

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/chirino/docsync/internal/app"
	"github.com/chirino/docsync/internal/cmd/cmdflags"
	"github.com/chirino/docsync/internal/config"
	"github.com/chirino/docsync/internal/model"
	"github.com/chirino/docsync/internal/pathresolve"
	navtree "github.com/chirino/docsync/internal/tree"
	"github.com/urfave/cli/v3"
	"golang.org/x/text/language"
)

type options struct {
	source string
	format string
	locale string
}

// Command returns the tree sub-command, which prints the navigation tree of
// the stored entries, or of a fresh runtime collection with --source remote.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	opts := options{}
	return &cli.Command{
		Name:  "tree",
		Usage: "Print the navigation tree",
		Flags: cmdflags.Join(
			[]cli.Flag{
				&cli.StringFlag{
					Name:        "source",
					Destination: &opts.source,
					Value:       "store",
					Usage:       "Where entries come from (store|remote)",
				},
				&cli.StringFlag{
					Name:        "format",
					Destination: &opts.format,
					Value:       "text",
					Usage:       "Output format (text|json)",
				},
				&cli.StringFlag{
					Name:        "locale",
					Destination: &opts.locale,
					Usage:       "BCP 47 tag used to collate names, e.g. zh or en",
				},
			},
			cmdflags.Remote(&cfg),
			cmdflags.Store(&cfg),
			cmdflags.Logging(&cfg),
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, err := cmdflags.Prepare(ctx, &cfg)
			if err != nil {
				return err
			}
			entries, err := loadEntries(ctx, &cfg, opts.source)
			if err != nil {
				return err
			}
			return write(os.Stdout, entries, opts)
		},
	}
}

func loadEntries(ctx context.Context, cfg *config.Config, source string) ([]model.ContentEntry, error) {
	components, err := app.Assemble(ctx, cfg, app.Options{SkipCache: true, SkipAssets: true})
	if err != nil {
		return nil, err
	}
	defer components.Close()

	switch source {
	case "store":
		rows, err := components.Store.List(ctx)
		if err != nil {
			return nil, err
		}
		entries := make([]model.ContentEntry, 0, len(rows))
		for _, row := range rows {
			entries = append(entries, row.ContentEntry())
		}
		return entries, nil
	case "remote":
		if !components.Pipeline.Configured() {
			return []model.ContentEntry{}, nil
		}
		return components.Pipeline.Collect(ctx)
	default:
		return nil, fmt.Errorf("unknown --source %q (store|remote)", source)
	}
}

func write(w io.Writer, entries []model.ContentEntry, opts options) error {
	tag := language.Und
	if opts.locale != "" {
		parsed, err := language.Parse(opts.locale)
		if err != nil {
			return fmt.Errorf("invalid --locale: %w", err)
		}
		tag = parsed
	}
	nodes := navtree.BuildWithLocale(entries, tag)

	switch opts.format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nodes)
	case "text", "":
		ids := make(map[string]string, len(entries))
		for _, e := range entries {
			ids[e.ID] = e.ID
		}
		if err := navtree.WriteText(w, nodes); err != nil {
			return err
		}
		summary := pathresolve.Summarize(ids, 0)
		_, err := fmt.Fprintf(w, "%d entries, max depth %d\n", summary.Count, summary.MaxDepth)
		return err
	default:
		return fmt.Errorf("unknown --format %q (text|json)", opts.format)
	}
}
