// Copyright 2026 Feedscope Authors
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
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "feedscope",
		Usage: "Screenshot ingestion pipeline for social feed analysis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"D"},
				Usage:   "Directory holding the register, screenshots and analysis database",
				Value:   defaultDataDir(),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "share",
				Usage:     "Enqueue screenshot images for later processing",
				ArgsUsage: "IMAGE [IMAGE...]",
				Action:    shareCommand,
			},
			{
				Name:   "process",
				Usage:  "Drain the capture queue through the analysis pipeline",
				Action: processCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "recognizer-host",
						Usage: "Vision service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "recognizer-model",
						Usage: "Vision model name",
						Value: "llava",
					},
					&cli.StringFlag{
						Name:  "embedder-host",
						Usage: "Embedding inference service host URL",
						Value: "http://localhost:8090",
					},
					&cli.StringFlag{
						Name:  "embedder-model",
						Usage: "Embedding model name",
						Value: "all-MiniLM-L6-v2",
					},
					&cli.StringFlag{
						Name:     "vocab",
						Usage:    "Path to the WordPiece vocabulary file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-seq-length",
						Usage: "Fixed token sequence length for embedding",
						Value: 128,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for model calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 2 * time.Second,
					},
				},
			},
			{
				Name:   "recent",
				Usage:  "Show the most recently analyzed posts",
				Action: recentCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of posts to show",
						Value:   10,
					},
				},
			},
			{
				Name:   "deadletters",
				Usage:  "Show entries that exhausted their retry budget",
				Action: deadLettersCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of records to show",
						Value:   20,
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Delete all analyzed posts",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm the irreversible deletion",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// defaultDataDir resolves to ~/.feedscope, falling back to a relative
// directory when the home directory is unknown.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".feedscope"
	}
	return filepath.Join(home, ".feedscope")
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
