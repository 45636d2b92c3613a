package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/chirino/docsync/internal/cmd/migrate"
	"github.com/chirino/docsync/internal/cmd/serve"
	cmdsync "github.com/chirino/docsync/internal/cmd/sync"
	"github.com/chirino/docsync/internal/cmd/tree"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "docsync",
		Usage: "Mirror a Yuque knowledge base into a hierarchical content store",
		Commands: []*cli.Command{
			serve.Command(),
			cmdsync.Command(),
			tree.Command(),
			migrate.Command(),
		},
	}
	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
