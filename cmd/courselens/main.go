// Command courselens is the course discovery CLI and MCP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/courselens/internal/adapters/driven/ai"
	"github.com/custodia-labs/courselens/internal/adapters/driven/config/file"
	"github.com/custodia-labs/courselens/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/courselens/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/courselens/internal/adapters/driving/cli"
	"github.com/custodia-labs/courselens/internal/core/domain"
	"github.com/custodia-labs/courselens/internal/core/ports/driven"
	"github.com/custodia-labs/courselens/internal/core/services"
	"github.com/custodia-labs/courselens/internal/logger"
	"github.com/custodia-labs/courselens/internal/normalisers"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		logger.Error("Loading config: %v", err)
		return 1
	}
	settings := services.NewSettingsService(configStore, ai.NewConfigValidator())

	app, err := wire(ctx, settings)
	if err != nil {
		// Settings stay usable so a broken configuration can be repaired.
		logger.Error("%v", err)
		cli.Configure(cli.Services{Settings: settings}, version)
	} else {
		defer app.close()
		cli.Configure(app.services, version)
	}

	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// app holds the wired services and the resources they own.
type app struct {
	services cli.Services
	closers  []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// wire opens storage and the embedding provider and builds the services.
func wire(ctx context.Context, settings *services.SettingsService) (*app, error) {
	cfg, err := settings.Get()
	if err != nil {
		return nil, err
	}
	a := &app{}

	store, err := sqlite.NewStore(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { store.Close() })
	catalog := store.Catalog()

	var (
		records driven.EmbeddingStore = store.Embeddings()
		vectors driven.VectorIndex    = store.Embeddings()
		lexical driven.LexicalIndex   = store.Lexical()
	)
	if cfg.Storage.Backend == domain.StorageBackendPostgres {
		index, err := postgres.NewIndex(ctx, cfg.Storage.PostgresDSN, cfg.Embedding.Dimensions)
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { index.Close() })
		records, vectors, lexical = index, index, index.Lexical()
	}

	embedder, err := ai.CreateEmbeddingService(cfg.EmbeddingProvider(), &cfg.Embedding)
	if err != nil {
		logger.Warn("Embedding provider unavailable, search falls back to keywords: %v", err)
		embedder = nil
	} else {
		a.closers = append(a.closers, func() { embedder.Close() })
	}

	retriever := services.NewHybridRetriever(lexical, vectors, embedder, catalog, cfg.Fusion)
	generator, err := services.NewEmbeddingGenerator(catalog, records, embedder, *cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, generator.Close)

	a.services = cli.Services{
		Search: retriever,
		Context: services.NewContextAssembler(
			retriever, services.NewIdentityResolver(catalog), embedder, catalog, catalog, cfg.Context),
		Embedding: generator,
		Batch:     services.NewBatchProgressTracker(generator, cfg.Generation),
		Catalog:   services.NewCatalogService(catalog, catalog, catalog).WithNormalisers(normalisers.Defaults()),
		Settings:  settings,
	}
	return a, nil
}
