// Package main provides the Docdeck API server.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/docdeck/docdeck/pkg/cmd"
	"github.com/docdeck/docdeck/pkg/log"
)

func main() {
	command := &cli.Command{
		Name:                  "docdeck-api",
		EnableShellCompletion: true,
		Usage:                 "Start the document platform API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   9091,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Database connection URL (empty for in-memory storage)",
				Value:   "",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("docdeck-api")

			logger.InfoContext(ctx, "Initializing Docdeck API server")

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			registry := cmd.NewRegistry(logger)

			api := NewAPI(logger, persistence, registry, eventBus)

			if err := eventBus.Subscribe(ctx); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Starting API server", "port", command.Int("port"))

			return api.Start(command.Int("port"))
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		log.WithModule("docdeck-api").Error("API server failed", "error", err)
		os.Exit(1)
	}
}
