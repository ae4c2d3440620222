// Vicd is the conversational orchestration daemon behind the Lost
// London voice assistant.
//
// It serves an OpenAI-compatible chat completions endpoint for the
// speech front-end, classifies each turn, races a fast answer path
// against filler speech, and enriches session memory in the background.
//
// Configuration is loaded from an optional YAML file and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start with defaults
//	vicd
//
//	# Configure via file and environment
//	vicd -config vicd.yaml
//	SERVER_HTTP_PORT=9000 AUTH_TOKEN=secret vicd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lostlondon/vicd/internal/config"
	"github.com/lostlondon/vicd/internal/generate"
	"github.com/lostlondon/vicd/internal/httpapi"
	"github.com/lostlondon/vicd/internal/logging"
	"github.com/lostlondon/vicd/internal/memory"
	"github.com/lostlondon/vicd/internal/orchestrator"
	"github.com/lostlondon/vicd/internal/policy"
	"github.com/lostlondon/vicd/internal/retrieval"
	"github.com/lostlondon/vicd/internal/session"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  vicd           Start the daemon\n")
			fmt.Fprintf(os.Stderr, "  vicd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("vicd\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run wires every collaborator and blocks until ctx is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	embedder, err := retrieval.NewHTTPEmbedder(retrieval.EmbedderConfig{
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Embedding.Model,
		APIKey:  cfg.Embedding.APIKey,
	})
	if err != nil {
		return fmt.Errorf("initializing embedder: %w", err)
	}
	cached := retrieval.NewCachedEmbedder(embedder, cfg.Embedding.CacheTTL, cfg.Embedding.CacheMaxEntries)

	var articles []retrieval.Article
	if cfg.Retrieval.ArticlesPath != "" {
		articles, err = retrieval.LoadArticles(cfg.Retrieval.ArticlesPath)
		if err != nil {
			return fmt.Errorf("loading articles: %w", err)
		}
		logger.Info(ctx, "article corpus loaded",
			zap.Int("articles", len(articles)), zap.String("path", cfg.Retrieval.ArticlesPath))
	}

	var searcher retrieval.VectorSearcher
	switch cfg.Retrieval.Backend {
	case "chromem":
		chromem, err := retrieval.NewChromemSearcher(retrieval.ChromemConfig{
			Path:       cfg.Retrieval.ChromemPath,
			Collection: cfg.Retrieval.Collection,
		}, cached)
		if err != nil {
			return fmt.Errorf("initializing embedded vector store: %w", err)
		}
		if len(articles) > 0 {
			if err := chromem.AddArticles(ctx, articles); err != nil {
				return fmt.Errorf("indexing articles: %w", err)
			}
		}
		searcher = chromem
	default:
		qdrant, err := retrieval.NewQdrantSearcher(retrieval.QdrantConfig{
			Host:       cfg.Retrieval.QdrantHost,
			Port:       cfg.Retrieval.QdrantPort,
			Collection: cfg.Retrieval.Collection,
		})
		if err != nil {
			return fmt.Errorf("initializing vector search: %w", err)
		}
		defer func() { _ = qdrant.Close() }()
		if err := qdrant.EnsureCollection(ctx, cfg.Retrieval.VectorSize); err != nil {
			return fmt.Errorf("preparing collection: %w", err)
		}
		searcher = qdrant
	}

	keywords := retrieval.NewKeywordIndex()
	keywords.Add(articles...)
	retriever := retrieval.NewRetriever(cached, searcher, keywords, cfg.Retrieval.SearchLimit, cfg.Retrieval.Limit, logger)

	generator, err := generate.NewClient(generate.Config{
		BaseURL:    cfg.Generation.BaseURL,
		APIKey:     cfg.Generation.APIKey,
		Model:      cfg.Generation.Model,
		MaxRetries: cfg.Generation.MaxRetries,
	})
	if err != nil {
		return fmt.Errorf("initializing generation client: %w", err)
	}

	store := session.NewStore(cfg.Session.Capacity)
	trending := policy.NewTrending()

	orch := orchestrator.New(orchestrator.Config{
		FastTimeout:    cfg.Generation.FastTimeout,
		EnrichTimeout:  cfg.Generation.EnrichTimeout,
		ReturningAfter: cfg.Session.ReturningAfter,
		FillerDelay:    120 * time.Millisecond,
	}, store, retriever, generator, memory.NewNoop(), trending, logger)

	server, err := httpapi.NewServer(httpapi.Config{
		Port:      cfg.Server.Port,
		AuthToken: cfg.Auth.Token,
	}, orch, store, trending, cached.Stats, logger)
	if err != nil {
		return fmt.Errorf("initializing http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info(ctx, "vicd started", zap.Int("port", cfg.Server.Port), zap.String("version", version))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
