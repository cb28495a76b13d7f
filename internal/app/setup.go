// Package app contains the application setup for the shopbot service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/shopbot/internal/config"
	"github.com/abgdnv/shopbot/internal/database"
	"github.com/abgdnv/shopbot/internal/service"
	"github.com/abgdnv/shopbot/internal/store"
	"github.com/abgdnv/shopbot/internal/transport/rest"
	"github.com/abgdnv/shopbot/pkg/messaging"
	"github.com/abgdnv/shopbot/pkg/server"

	"github.com/go-chi/chi/v5"
)

type Dependencies struct {
	ShopService service.ShopService
	Logger      *slog.Logger
}

func SetupDependencies(handle *database.Handle, publisher messaging.Publisher, logger *slog.Logger) *Dependencies {
	pgStore := store.NewPgStore(handle)

	return &Dependencies{
		ShopService: service.NewService(pgStore, pgStore, publisher),
		Logger:      logger,
	}
}

// SetupHttpHandler initializes the HTTP routes for the shopbot application.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the shopbot application.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	shopHandler := rest.NewHandler(deps.ShopService, deps.Logger)
	shopHandler.RegisterRoutes(mux)
}

// SetupHttpServer creates and configures an HTTP server for the shopbot application.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}
