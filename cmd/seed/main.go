// Command seed applies migrations, populates the sample catalog, and
// indexes the store policies for the assistant.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/abgdnv/shopbot/internal/config"
	"github.com/abgdnv/shopbot/internal/database"
	shoperrors "github.com/abgdnv/shopbot/internal/errors"
	"github.com/abgdnv/shopbot/internal/knowledge"
	"github.com/abgdnv/shopbot/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	policiesPath := flag.String("policies", "policies.txt", "path to the store policy document")
	flag.Parse()

	if err := run(ctx, *policiesPath); err != nil {
		log.Printf("seed failed: %v", err)
		os.Exit(1)
	}
	log.Println("seed completed")
}

func run(ctx context.Context, policiesPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := store.Migrate(cfg.Database.URL); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	manager := database.NewManager(cfg.Database)
	defer manager.Close()
	handle, err := manager.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	pgStore := store.NewPgStore(handle)
	if err := seedCatalog(ctx, pgStore, logger); err != nil {
		return err
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.AI.Embedder)
	kb := knowledge.NewStore(handle, embedder, logger)

	return seedPolicies(ctx, kb, policiesPath, logger)
}

// seedCatalog inserts the sample product unless it is already present.
func seedCatalog(ctx context.Context, products store.ProductStore, logger *slog.Logger) error {
	const name = "Classic T-Shirt"

	_, err := products.FindByName(ctx, name)
	if err == nil {
		logger.Info("Sample product already present", "name", name)
		return nil
	}
	if !errors.Is(err, shoperrors.ErrProductNotFound) {
		return fmt.Errorf("failed to look up sample product: %w", err)
	}

	created, err := products.Create(ctx, store.ProductCreateParams{
		Name:        name,
		Price:       1999,
		Description: "A comfortable and stylish t-shirt.",
		Category:    "Apparel",
		Stock:       100,
	})
	if err != nil {
		return fmt.Errorf("failed to create sample product: %w", err)
	}
	logger.Info("Sample product created", "name", name, "id", created.ID)
	return nil
}

// seedPolicies splits the policy document into paragraphs and indexes each
// one. Document IDs are stable so re-running the seed updates in place.
func seedPolicies(ctx context.Context, kb *knowledge.Store, path string, logger *slog.Logger) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy document: %w", err)
	}

	var indexed int
	for i, paragraph := range splitParagraphs(string(content)) {
		doc := knowledge.Document{
			ID:       fmt.Sprintf("policies-%d", i+1),
			Content:  paragraph,
			Metadata: map[string]string{"source": path},
		}
		if err := kb.Add(ctx, doc); err != nil {
			return fmt.Errorf("failed to index policy paragraph %d: %w", i+1, err)
		}
		indexed++
	}
	logger.Info("Policy document indexed", "path", path, "paragraphs", indexed)
	return nil
}

// splitParagraphs breaks text on blank lines, dropping empty chunks.
func splitParagraphs(text string) []string {
	var paragraphs []string
	for _, chunk := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if chunk = strings.TrimSpace(chunk); chunk != "" {
			paragraphs = append(paragraphs, chunk)
		}
	}
	return paragraphs
}
