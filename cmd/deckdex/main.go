// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/deckdex"
	"github.com/poiesic/deckdex/config"
	"github.com/urfave/cli/v2"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "deckdex",
		Usage:   "Analyze, index and search presentation decks",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults apply when missing)",
				Value:   "deckdex.yaml",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Path to a .env file loaded before the environment overrides",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "port",
						Usage: "Listen port (overrides the config file)",
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Analyze slide text and print an analysis document for append",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "slides",
						Aliases:  []string{"s"},
						Usage:    "JSON file with [{\"number\", \"text\"}] slides",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "external-id",
						Usage:    "External file id recorded on the deck",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source-url",
						Usage: "Link back to the source document",
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a pre-embedded deck payload, replacing any previous version",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "payload",
						Aliases:  []string{"p"},
						Usage:    "JSON ingestion payload",
						Required: true,
					},
				},
			},
			{
				Name:   "append",
				Usage:  "Store an analysis document, embedding topics and slides one at a time",
				Action: appendCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "analysis",
						Aliases:  []string{"a"},
						Usage:    "JSON analysis document produced by analyze",
						Required: true,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Hybrid search over decks, topics and slides",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (1-100)",
						Value: 20,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a question from the indexed decks",
				ArgsUsage: "MESSAGE",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of snippets (1-20)",
						Value: 10,
					},
				},
			},
			{
				Name:   "show",
				Usage:  "Print a stored deck with its topics and slides",
				Action: showCommand,
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:  "id",
						Usage: "Deck id",
					},
					&cli.StringFlag{
						Name:  "external-id",
						Usage: "External file id",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print the number of stored decks, topics and slides",
				Action: statsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Regenerate topic and slide embeddings",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "missing-only",
						Usage: "Only embed items stored without an embedding",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to embed in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig resolves the configuration named by the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Resolve(c.String("config"), c.String("env-file"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openLibrary loads the configuration and initializes the library. The
// caller must Close it.
func openLibrary(c *cli.Context) (*deckdex.Library, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	lib, err := deckdex.New(cfg, deckdex.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}
	if err := lib.Init(); err != nil {
		return nil, err
	}
	return lib, nil
}
