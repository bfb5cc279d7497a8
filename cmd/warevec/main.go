// Copyright 2025 Palletic Systems
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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/palletic/warevec"
	"github.com/palletic/warevec/ai"
	"github.com/palletic/warevec/ai/openai"
	"github.com/palletic/warevec/ingestion"
	"github.com/palletic/warevec/jobs"
	"github.com/palletic/warevec/search"
	"github.com/palletic/warevec/server"
	"github.com/palletic/warevec/storage"
	"github.com/palletic/warevec/storage/qdrant"
)

// version is stamped at build time via -ldflags.
var version = "dev"

const shutdownTimeout = 15 * time.Second

func main() {
	// Local overrides (.env) load before the CLI parses flags so the
	// EnvVars fallbacks see them.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "warevec",
		Usage:   "Semantic search service for the warehouse material catalog",
		Version: version,
		Flags: []cli.Flag{
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
				Name:   "serve",
				Usage:  "Run the HTTP API for ingestion jobs and search",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "catalog-url",
						Usage:    "Material catalog endpoint",
						EnvVars:  []string{"API_URL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "qdrant-url",
						Usage:   "Vector store base URL",
						EnvVars: []string{"QDRANT_URL"},
						Value:   "http://localhost:6333",
					},
					&cli.StringFlag{
						Name:    "qdrant-api-key",
						Usage:   "API key for managed Qdrant deployments",
						EnvVars: []string{"QDRANT_API_KEY"},
					},
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						EnvVars: []string{"EMBEDDING_HOST"},
						Value:   "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						EnvVars: []string{"MODEL_NAME"},
						Value:   "intfloat/multilingual-e5-small",
					},
					&cli.StringFlag{
						Name:    "collection",
						Usage:   "Vector collection name",
						EnvVars: []string{"COLLECTION_NAME"},
						Value:   "material_vectors",
					},
					&cli.IntFlag{
						Name:    "batch-size",
						Usage:   "Number of materials per ingestion batch",
						EnvVars: []string{"BATCH_SIZE"},
						Value:   20,
					},
					&cli.IntFlag{
						Name:    "max-workers",
						Usage:   "Concurrent embedding workers per batch",
						EnvVars: []string{"MAX_WORKERS"},
						Value:   5,
					},
					&cli.Float64Flag{
						Name:    "delay-between-batches",
						Usage:   "Pause between batches in seconds",
						EnvVars: []string{"DELAY_BETWEEN_BATCHES"},
						Value:   0.1,
					},
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "HTTP listen address",
						EnvVars: []string{"LISTEN_ADDR"},
						Value:   ":8000",
					},
					&cli.StringFlag{
						Name:    "archive-dir",
						Usage:   "Directory for the durable job archive (empty disables it)",
						EnvVars: []string{"ARCHIVE_DIR"},
					},
					&cli.DurationFlag{
						Name:    "job-retention",
						Usage:   "How long finished jobs stay queryable in memory",
						EnvVars: []string{"JOB_RETENTION"},
						Value:   24 * time.Hour,
					},
					&cli.DurationFlag{
						Name:    "archive-retention",
						Usage:   "How long archived job snapshots are kept",
						EnvVars: []string{"ARCHIVE_RETENTION"},
						Value:   7 * 24 * time.Hour,
					},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Run one catalog ingestion pass from the command line",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "catalog-url",
						Usage:    "Material catalog endpoint",
						EnvVars:  []string{"API_URL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "qdrant-url",
						Usage:   "Vector store base URL",
						EnvVars: []string{"QDRANT_URL"},
						Value:   "http://localhost:6333",
					},
					&cli.StringFlag{
						Name:    "qdrant-api-key",
						Usage:   "API key for managed Qdrant deployments",
						EnvVars: []string{"QDRANT_API_KEY"},
					},
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						EnvVars: []string{"EMBEDDING_HOST"},
						Value:   "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						EnvVars: []string{"MODEL_NAME"},
						Value:   "intfloat/multilingual-e5-small",
					},
					&cli.StringFlag{
						Name:    "collection",
						Usage:   "Vector collection name",
						EnvVars: []string{"COLLECTION_NAME"},
						Value:   "material_vectors",
					},
					&cli.IntFlag{
						Name:    "batch-size",
						Usage:   "Number of materials per ingestion batch",
						EnvVars: []string{"BATCH_SIZE"},
						Value:   20,
					},
					&cli.IntFlag{
						Name:    "max-workers",
						Usage:   "Concurrent embedding workers per batch",
						EnvVars: []string{"MAX_WORKERS"},
						Value:   5,
					},
					&cli.Float64Flag{
						Name:    "delay-between-batches",
						Usage:   "Pause between batches in seconds",
						EnvVars: []string{"DELAY_BETWEEN_BATCHES"},
						Value:   0.1,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N materials",
						Value: 20,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Query the material index from the command line",
				ArgsUsage: "<query text>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "qdrant-url",
						Usage:   "Vector store base URL",
						EnvVars: []string{"QDRANT_URL"},
						Value:   "http://localhost:6333",
					},
					&cli.StringFlag{
						Name:    "qdrant-api-key",
						Usage:   "API key for managed Qdrant deployments",
						EnvVars: []string{"QDRANT_API_KEY"},
					},
					&cli.StringFlag{
						Name:    "embedding-host",
						Usage:   "Embedding service host URL",
						EnvVars: []string{"EMBEDDING_HOST"},
						Value:   "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:    "embedding-model",
						Usage:   "Embedding model name",
						EnvVars: []string{"MODEL_NAME"},
						Value:   "intfloat/multilingual-e5-small",
					},
					&cli.StringFlag{
						Name:    "collection",
						Usage:   "Vector collection name",
						EnvVars: []string{"COLLECTION_NAME"},
						Value:   "material_vectors",
					},
					&cli.IntFlag{
						Name:    "limit",
						Usage:   "Maximum number of results",
						EnvVars: []string{"SEARCH_DEFAULT_LIMIT"},
						Value:   5,
					},
					&cli.Float64Flag{
						Name:    "score-threshold",
						Usage:   "Minimum similarity score for a hit",
						EnvVars: []string{"SEARCH_SCORE_THRESHOLD"},
						Value:   0.5,
					},
					&cli.StringSliceFlag{
						Name:  "filter",
						Usage: "Payload equality filter as key=value (repeatable)",
					},
				},
			},
		},
	}
}

func serveCommand(c *cli.Context) error {
	ctx := c.Context

	svc, err := warevec.NewService(ctx, warevec.Config{
		CatalogURL:   c.String("catalog-url"),
		QdrantURL:    c.String("qdrant-url"),
		QdrantAPIKey: c.String("qdrant-api-key"),
		Collection:   c.String("collection"),
		AI: ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithModel(c.String("embedding-model")),
		),
		ArchivePath: c.String("archive-dir"),
	})
	if err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Close()

	pipeline, err := svc.NewPipeline()
	if err != nil {
		return err
	}
	searcher, err := svc.NewSearcher()
	if err != nil {
		return err
	}

	readiness := server.RunProbe(ctx, server.ProbeTargets{
		Embedder:   svc.Embedder(),
		Index:      svc.Index(),
		Archive:    svc.Archive(),
		Model:      c.String("embedding-model"),
		Collection: c.String("collection"),
	})
	if !readiness.Ready {
		// Serve anyway so /health and /dependencies can report what is
		// wrong; ingestion and search respond 503 until a restart.
		slog.Warn("starting degraded", "reason", readiness.Failure())
	}

	handler, err := server.NewHandler(server.HandlerConfig{
		Registry:  svc.Registry(),
		Pipeline:  pipeline,
		Searcher:  searcher,
		Readiness: readiness,
		Defaults: ingestion.Params{
			BatchSize:  c.Int("batch-size"),
			MaxWorkers: c.Int("max-workers"),
			Delay:      secondsToDuration(c.Float64("delay-between-batches")),
		},
		Version: version,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              c.String("listen"),
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, svc.Registry(), svc.Archive(),
		c.Duration("job-retention"), c.Duration("archive-retention"))

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr, "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func ingestCommand(c *cli.Context) error {
	ctx := c.Context

	svc, err := warevec.NewService(ctx, warevec.Config{
		CatalogURL:   c.String("catalog-url"),
		QdrantURL:    c.String("qdrant-url"),
		QdrantAPIKey: c.String("qdrant-api-key"),
		Collection:   c.String("collection"),
		AI: ai.NewConfig(
			ai.WithHost(c.String("embedding-host")),
			ai.WithModel(c.String("embedding-model")),
		),
	})
	if err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	defer svc.Close()

	pipeline, err := svc.NewPipeline()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Catalog: %s\n", c.String("catalog-url"))
	fmt.Fprintf(os.Stderr, "Store: %s\n", c.String("qdrant-url"))
	fmt.Fprintf(os.Stderr, "Model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	tracker := ingestion.NewProgressTracker(os.Stderr, c.Int("report-interval"))
	tracker.Start()

	summary, err := pipeline.Run(ctx, ingestion.Params{
		BatchSize:  c.Int("batch-size"),
		MaxWorkers: c.Int("max-workers"),
		Delay:      secondsToDuration(c.Float64("delay-between-batches")),
		OnProgress: tracker.Observe,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	tracker.Finish(summary.Processed, summary.Total)

	fmt.Fprintf(os.Stderr, "Indexed %d of %d materials (%d failed) in %s\n",
		summary.Processed, summary.Total, summary.Failed,
		summary.Duration.Round(time.Millisecond))

	if !summary.Success {
		return fmt.Errorf("every material failed to process")
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context

	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query text is required")
	}

	filter, err := parseFilter(c.StringSlice("filter"))
	if err != nil {
		return err
	}

	embedder, err := openai.NewEmbedder(ctx, ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	))
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}

	indexOpts := []qdrant.Option{qdrant.WithCollection(c.String("collection"))}
	if key := c.String("qdrant-api-key"); key != "" {
		indexOpts = append(indexOpts, qdrant.WithAPIKey(key))
	}
	index, err := qdrant.NewIndex(c.String("qdrant-url"), indexOpts...)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}

	searcher, err := search.NewSearcher(embedder, index)
	if err != nil {
		return err
	}

	results, err := searcher.Search(ctx, search.Request{
		Query:          query,
		Limit:          c.Int("limit"),
		ScoreThreshold: float32(c.Float64("score-threshold")),
		Filter:         filter,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: %s - %s [%0.3f]\n", i+1,
			payloadString(hit.Payload, "materialNo"),
			payloadString(hit.Payload, "description"),
			hit.Score)
	}
	return nil
}

// runJanitor periodically drops expired jobs from the in-memory
// registry and, when an archive is configured, purges snapshots past
// the archive retention.
func runJanitor(ctx context.Context, registry *jobs.Registry, archive storage.JobArchive, retention, archiveRetention time.Duration) {
	if retention <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.Cleanup(retention)
			if archive != nil && archiveRetention > 0 {
				cutoff := time.Now().UTC().Add(-archiveRetention)
				if _, err := archive.PurgeOlderThan(ctx, cutoff); err != nil {
					slog.Error("archive purge failed", "err", err)
				}
			}
		}
	}
}

// parseFilter turns key=value pairs into a payload equality filter.
func parseFilter(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	filter := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid filter %q: expected key=value", pair)
		}
		filter[key] = value
	}
	return filter, nil
}

func payloadString(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
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

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
