// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
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
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/ragcore"
	"github.com/poiesic/ragcore/ai"
	"github.com/poiesic/ragcore/loader/dir"
	"github.com/poiesic/ragcore/rag"
	"github.com/poiesic/ragcore/reindex"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env in the working directory; flags and real env win.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "ragcore",
		Usage: "Retrieval-augmented generation over local documents",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				EnvVars: []string{"RAGCORE_DB"},
				Value:   "ragcore.db",
			},
			&cli.StringFlag{
				Name:    "host",
				Usage:   "OpenAI-compatible service host URL",
				EnvVars: []string{"RAGCORE_HOST"},
				Value:   "http://localhost:11434",
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				EnvVars: []string{"RAGCORE_EMBEDDING_MODEL"},
				Value:   "embeddinggemma",
			},
			&cli.StringFlag{
				Name:    "chat-model",
				Usage:   "Chat model name",
				EnvVars: []string{"RAGCORE_CHAT_MODEL"},
				Value:   "qwen2.5:3b",
			},
			&cli.IntFlag{
				Name:    "embedding-dimensions",
				Usage:   "Length of the vectors the embedding model produces",
				EnvVars: []string{"RAGCORE_EMBEDDING_DIMENSIONS"},
				Value:   768,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest text documents from a directory",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Unique id for this source",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "path",
						Aliases:  []string{"p"},
						Usage:    "Directory containing .txt and .md files",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep running and ingest files created later",
					},
				},
			},
			{
				Name:      "query",
				Usage:     "Answer a question grounded in ingested documents",
				Action:    queryCommand,
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of fragments to retrieve",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "cutoff",
						Usage: "Minimum relevance score for retrieved fragments",
					},
				},
			},
			{
				Name:      "context",
				Usage:     "Show the fragments retrieval would hand to the model",
				Action:    contextCommand,
				ArgsUsage: "<question>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Number of fragments to retrieve",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "cutoff",
						Usage: "Minimum relevance score for retrieved fragments",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show stored vector and source counts",
				Action: statsCommand,
			},
			{
				Name:   "delete-loader",
				Usage:  "Remove every chunk a source produced",
				Action: deleteLoaderCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Unique id of the source to delete",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "confirm",
						Usage: "Actually delete; without it nothing is removed",
					},
				},
			},
			{
				Name:   "reset",
				Usage:  "Remove every stored chunk",
				Action: resetCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "confirm",
						Usage: "Actually delete; without it nothing is removed",
					},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed every stored chunk with the configured model",
				Action: reindexCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
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

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func aiConfigFromFlags(c *cli.Context) *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithChatModel(c.String("chat-model")),
		ai.WithEmbeddingDimensions(c.Int("embedding-dimensions")),
	)
}

func openStack(c *cli.Context, engineOpts ...rag.Option) (*ragcore.Stack, error) {
	config := aiConfigFromFlags(c)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []ragcore.StackOption{ragcore.WithAIConfig(config)}
	if len(engineOpts) > 0 {
		opts = append(opts, ragcore.WithEngineOptions(engineOpts...))
	}
	return ragcore.NewStack(c.String("db"), opts...)
}

func retrievalOptions(c *cli.Context) []rag.Option {
	var opts []rag.Option
	if c.IsSet("top-k") {
		opts = append(opts, rag.WithTopK(c.Int("top-k")))
	}
	if c.IsSet("cutoff") {
		opts = append(opts, rag.WithRelevanceCutoff(float32(c.Float64("cutoff"))))
	}
	return opts
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	var loaderOpts []dir.Option
	if c.Bool("watch") {
		loaderOpts = append(loaderOpts, dir.WithWatch())
	}

	source, err := dir.New(c.String("id"), c.String("path"), loaderOpts...)
	if err != nil {
		return err
	}
	defer source.Close()

	stack, err := openStack(c)
	if err != nil {
		return err
	}
	defer stack.Close()

	engine := stack.Engine()
	if err := engine.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	result, err := engine.AddLoader(ctx, source)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	fmt.Printf("Ingested %d fragments from %q\n", result.EntriesAdded, result.LoaderID)

	if c.Bool("watch") {
		fmt.Fprintln(os.Stderr, "Watching for new files, Ctrl-C to stop")
		stop, cancel := signal.NotifyContext(ctx, os.Interrupt)
		defer cancel()
		<-stop.Done()
	}
	return nil
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	stack, err := openStack(c, retrievalOptions(c)...)
	if err != nil {
		return err
	}
	defer stack.Close()

	engine := stack.Engine()
	if err := engine.Init(c.Context); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	answer, err := engine.Query(c.Context, question)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(answer.Result)
	if len(answer.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, source := range answer.Sources {
			fmt.Printf("  - %s\n", source)
		}
	}
	return nil
}

func contextCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	stack, err := openStack(c, retrievalOptions(c)...)
	if err != nil {
		return err
	}
	defer stack.Close()

	engine := stack.Engine()
	if err := engine.Init(c.Context); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	fragments, err := engine.GetContext(c.Context, question)
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	if len(fragments) == 0 {
		fmt.Println("No relevant fragments found")
		return nil
	}

	for i, fragment := range fragments {
		fmt.Printf("[%d] %s\n", i+1, fragment.PageContent)
		if source := fragment.Source(); source != "" {
			fmt.Printf("    source: %s\n", source)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	stack, err := openStack(c)
	if err != nil {
		return err
	}
	defer stack.Close()

	ctx := c.Context
	vectors, err := stack.VectorStore().VectorCount(ctx)
	if err != nil {
		return err
	}
	docs, err := stack.VectorStore().DocsCount(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Vectors: %d\nSources: %d\n", vectors, docs)
	return nil
}

func deleteLoaderCommand(c *cli.Context) error {
	stack, err := openStack(c)
	if err != nil {
		return err
	}
	defer stack.Close()

	engine := stack.Engine()
	if err := engine.Init(c.Context); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	deleted, err := engine.DeleteLoader(c.Context, c.String("id"), c.Bool("confirm"))
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Println("Nothing deleted; pass --confirm to delete")
		return nil
	}
	fmt.Printf("Deleted source %q\n", c.String("id"))
	return nil
}

func resetCommand(c *cli.Context) error {
	stack, err := openStack(c)
	if err != nil {
		return err
	}
	defer stack.Close()

	engine := stack.Engine()
	if err := engine.Init(c.Context); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	deleted, err := engine.DeleteAll(c.Context, c.Bool("confirm"))
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Println("Nothing deleted; pass --confirm to delete")
		return nil
	}
	fmt.Println("All stored chunks deleted")
	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	stack, err := openStack(c)
	if err != nil {
		return err
	}
	defer stack.Close()

	reindexer, err := stack.NewReindexer(config, os.Stderr)
	if err != nil {
		return err
	}

	if err := reindexer.Run(c.Context); err != nil {
		return fmt.Errorf("reindexing failed: %w", err)
	}
	return nil
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
