package migrate

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/cmd/cmdflags"
	"github.com/chirino/docsync/internal/config"
	registrymigrate "github.com/chirino/docsync/internal/registry/migrate"
	"github.com/urfave/cli/v3"

	// Store plugins register their migrators alongside their primary interface.
	_ "github.com/chirino/docsync/internal/plugin/store/mongo"
	_ "github.com/chirino/docsync/internal/plugin/store/postgres"
	_ "github.com/chirino/docsync/internal/plugin/store/sqlite"
)

// Command returns the migrate sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the entry store schema",
		Flags: cmdflags.Join(cmdflags.Store(&cfg), cmdflags.Logging(&cfg)),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// An explicit migrate always migrates.
			cfg.DatastoreMigrateAtStart = true
			ctx, err := cmdflags.Prepare(ctx, &cfg)
			if err != nil {
				return err
			}

			log.Info("Running migrations...", "db", cfg.DatastoreType, "migrators", strings.Join(registrymigrate.Names(), ","))
			if err := registrymigrate.RunAll(ctx); err != nil {
				return err
			}
			log.Info("All migrations completed successfully")
			return nil
		},
	}
}
