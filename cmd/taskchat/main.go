package main

import (
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tvural/taskchat/api"
	"github.com/tvural/taskchat/internal/agent"
	"github.com/tvural/taskchat/internal/auth"
	"github.com/tvural/taskchat/internal/config"
	"github.com/tvural/taskchat/internal/llm"
	"github.com/tvural/taskchat/internal/mcp"
	"github.com/tvural/taskchat/internal/store"
)

// Version will be set during build with ldflags
var Version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "taskchat",
		Usage:   "AI-powered conversational todo assistant",
		Version: Version,
		Commands: []*cli.Command{
			newServeCommand(),
			newMcpCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the REST API server",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

			db, err := store.NewDatabase(cfg)
			if err != nil {
				return err
			}

			tasks := store.NewTaskStore(db, logger)
			conversations := store.NewConversationStore(db, logger)
			registry := agent.NewRegistry(tasks, logger)

			client := llm.NewOpenAIClient(cfg.Agent.APIKey, cfg.Agent.BaseURL, cfg.Agent.Model)
			assistant := agent.New(client, registry, logger)

			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour)
			authSvc := auth.NewService(db, tokens, logger)

			router := api.NewRouter(api.Deps{
				Auth:          authSvc,
				Agent:         assistant,
				Tasks:         tasks,
				Conversations: conversations,
				ContextWindow: cfg.Agent.ContextWindow,
				Log:           logger,
			})

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			logger.Info("server starting", "addr", addr)
			return router.Run(addr)
		},
	}
}

func newMcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "MCP (Model Context Protocol) server management",
		Subcommands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start MCP server (stdio)",
				Action: func(c *cli.Context) error {
					cfg, err := config.Load()
					if err != nil {
						return err
					}

					// Logs go to stderr; stdout carries the protocol.
					logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

					db, err := store.NewDatabase(cfg)
					if err != nil {
						return err
					}

					tasks := store.NewTaskStore(db, logger)
					registry := agent.NewRegistry(tasks, logger)
					return mcp.ServeStdio(registry, Version)
				},
			},
			{
				Name:  "config",
				Usage: "Print MCP config example for clients",
				Action: func(c *cli.Context) error {
					cfg := map[string]any{
						"mcpServers": map[string]any{
							"taskchat": map[string]any{
								"command": "taskchat",
								"args":    []string{"mcp", "serve"},
							},
						},
					}
					b, _ := json.MarshalIndent(cfg, "", "  ")
					fmt.Println(string(b))
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "List available MCP tools",
				Action: func(c *cli.Context) error {
					logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
					registry := agent.NewRegistry(nil, logger)
					b, _ := json.MarshalIndent(registry.Definitions(), "", "  ")
					os.Stdout.Write(b)
					os.Stdout.Write([]byte("\n"))
					return nil
				},
			},
		},
	}
}
