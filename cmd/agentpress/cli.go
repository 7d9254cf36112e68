package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/agentpress/agentpress/internal/auth"
	"github.com/agentpress/agentpress/internal/config"
	"github.com/agentpress/agentpress/internal/db"
	"github.com/agentpress/agentpress/internal/embeddings"
	"github.com/agentpress/agentpress/internal/errors"
	"github.com/agentpress/agentpress/internal/mcp"
	"github.com/agentpress/agentpress/internal/ops"
	"github.com/agentpress/agentpress/internal/token"
	"github.com/agentpress/agentpress/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "agentpress",
		Usage:   "Agent memory blog with semantic search",
		Version: Version,
		Commands: []*cli.Command{
			serveCmd(cfg),
			mcpCmd(cfg),
			initDBCmd(cfg),
			createAdminCmd(cfg),
			backfillCmd(cfg),
			tokenCmd(cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// connect opens the Postgres pool for a command.
func connect(c *cli.Context, cfg *config.Config) (*db.Store, error) {
	store, err := db.Connect(c.Context, cfg)
	if err != nil {
		return nil, outputError(err)
	}
	return store, nil
}

// serveCmd creates the serve command.
func serveCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Action: func(c *cli.Context) error {
			store, err := connect(c, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			embedder := embeddings.NewClient(cfg)
			handlers := web.NewHandlers(
				store,
				embedder,
				token.NewService(store),
				auth.NewService(store, auth.NewSessions(auth.SessionTTL)),
				store,
				Version,
			)

			return web.Run(web.NewServer(handlers, cfg))
		},
	}
}

// mcpCmd creates the mcp command (stdio transport).
func mcpCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			store, err := connect(c, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return mcp.Run(store, embeddings.NewClient(cfg), Version)
		},
	}
}

// initDBCmd creates the init-db command.
func initDBCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "init-db",
		Usage: "Create the database schema and indexes",
		Action: func(c *cli.Context) error {
			store, err := connect(c, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.EnsureSchema(c.Context); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"initialized": true})
		},
	}
}

// createAdminCmd creates the create-admin command.
func createAdminCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "create-admin",
		Usage: "Create an admin user",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true, Usage: "Admin email"},
			&cli.StringFlag{Name: "password", Required: true, Usage: "Admin password"},
		},
		Action: func(c *cli.Context) error {
			store, err := connect(c, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := auth.NewService(store, auth.NewSessions(auth.SessionTTL))
			if err := svc.CreateAdmin(c.Context, c.String("email"), c.String("password")); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"created": true, "email": c.String("email")})
		},
	}
}

// backfillCmd creates the backfill command.
func backfillCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "backfill",
		Usage: "Generate embeddings for entries that are missing one",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "batch-size", Aliases: []string{"b"}, Usage: "Entries per batch (1-50)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Report candidates without generating"},
		},
		Action: func(c *cli.Context) error {
			store, err := connect(c, cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			out, err := ops.Backfill(c.Context, store, embeddings.NewClient(cfg), ops.BackfillInput{
				BatchSize: c.Int("batch-size"),
				DryRun:    c.Bool("dry-run"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// tokenCmd creates the token command group.
func tokenCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Manage agent API tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a token; prints the plaintext exactly once",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true, Usage: "Token name"},
					&cli.StringFlag{Name: "agent-tag", Usage: "Default agent name for entries stored with this token"},
				},
				Action: func(c *cli.Context) error {
					store, err := connect(c, cfg)
					if err != nil {
						return err
					}
					defer store.Close()

					plaintext, record, err := token.NewService(store).Create(c.Context, c.String("name"), c.String("agent-tag"))
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"token": plaintext, "record": record})
				},
			},
			{
				Name:  "list",
				Usage: "List tokens (never shows plaintext or hashes)",
				Action: func(c *cli.Context) error {
					store, err := connect(c, cfg)
					if err != nil {
						return err
					}
					defer store.Close()

					tokens, err := token.NewService(store).List(c.Context)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"tokens": tokens})
				},
			},
			{
				Name:      "revoke",
				Usage:     "Revoke a token by id",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return outputError(errors.NewInvalidRequest("token id is required"))
					}
					id, err := strconv.ParseInt(c.Args().First(), 10, 64)
					if err != nil {
						return outputError(errors.NewInvalidRequest("token id must be an integer"))
					}

					store, err := connect(c, cfg)
					if err != nil {
						return err
					}
					defer store.Close()

					if err := token.NewService(store).Revoke(c.Context, id); err != nil {
						return outputError(err)
					}
					return outputJSON(map[string]any{"revoked": true, "id": id})
				},
			},
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if aErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", aErr.Code, aErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
