// Command assistant runs the interactive e-commerce chatbot on the terminal.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"

	"github.com/abgdnv/shopbot/internal/assistant"
	"github.com/abgdnv/shopbot/internal/config"
	"github.com/abgdnv/shopbot/internal/database"
	"github.com/abgdnv/shopbot/internal/knowledge"
	"github.com/abgdnv/shopbot/internal/service"
	"github.com/abgdnv/shopbot/internal/store"
	"github.com/abgdnv/shopbot/pkg/messaging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("assistant failed: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	manager := database.NewManager(cfg.Database)
	defer manager.Close()
	handle, err := manager.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to the database: %w", err)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
	embedder := googlegenai.GoogleAIEmbedder(g, cfg.AI.Embedder)

	pgStore := store.NewPgStore(handle)
	shopService := service.NewService(pgStore, pgStore, messaging.NoopPublisher{})
	kb := knowledge.NewStore(handle, embedder, logger)
	bot := assistant.New(g, shopService, kb, cfg.AI, logger)

	fmt.Println("E-commerce Chatbot is running. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if strings.EqualFold(input, "exit") {
			break
		}

		reply, err := bot.Chat(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Error("Chat turn failed", "error", err)
			fmt.Println("Sorry, something went wrong. Please try again.")
			continue
		}
		fmt.Println(reply)
	}
	return scanner.Err()
}

// newLogger creates a new slog.Logger instance with the specified log level.
// The chat transcript goes to stdout, so logs go to stderr.
func newLogger(level string) *slog.Logger {
	logLevel := toLevel(level)
	loggerOpts := &slog.HandlerOptions{
		AddSource: logLevel == slog.LevelDebug,
		Level:     logLevel,
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, loggerOpts))
}

func toLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
