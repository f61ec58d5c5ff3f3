package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/flashforge/flashforge-api/internal/api"
	apiMiddleware "github.com/flashforge/flashforge-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	generationHandler := api.NewGenerationHandler(app.registry, app.config.Pipeline.SyncTimeout)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", generationHandler.CreateJob)
		r.Post("/generate/sync", generationHandler.GenerateSync)
		r.Get("/jobs/{id}", generationHandler.GetJobStatus)
		r.Get("/jobs/{id}/result", generationHandler.GetJobResult)
	})

	// Health check endpoint
	r.Get("/health", api.HandleHealth)

	return r
}
