package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"similarity-web/internal/api"
	"similarity-web/internal/backend"
	"similarity-web/internal/config"
	"similarity-web/internal/render"
	"similarity-web/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Loading config: %v", err)
	}

	baseURL := backend.ResolveBaseURL(cfg.Host, cfg.BackendURL)

	// Initialize Services
	client := backend.NewClient(baseURL, cfg.AnalyzeTimeout, cfg.HealthTimeout)
	sessions := state.New()
	renderer, err := render.NewRenderer()
	if err != nil {
		log.Fatalf("Loading templates: %v", err)
	}

	// Initialize Handler
	handler := api.NewHandler(client, sessions, renderer)

	// Router Setup
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// CORS - the analysis backend fetches nothing from us, but the page is
	// occasionally embedded in sandboxed preview frames.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Register all Routes
	handler.RegisterRoutes(r)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("🚀 Starting Novel Similarity web UI on http://localhost%s", addr)
	if baseURL != "" {
		log.Printf("📡 Analysis backend: %s", baseURL)
	} else {
		log.Printf("📡 Analysis backend: same-origin")
	}

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
