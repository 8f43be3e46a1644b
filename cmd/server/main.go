// Lanka Pharmacy - support and storefront API server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/api"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/chat"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/config"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/domain"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/middleware"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/presence"
	"github.com/it23625952/Lanka-Pharmacy-sub001/internal/store"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	if err := repo.SeedProducts(context.Background(), defaultCatalog()); err != nil {
		slog.Error("Failed to seed catalog", "error", err)
		os.Exit(1)
	}

	// Presence tracking is optional; without REDIS_ADDR the chat runs
	// identically and presence reads as empty.
	var tracker *presence.Tracker
	if cfg.RedisAddr != "" {
		tracker, err = presence.New(context.Background(), cfg.RedisAddr)
		if err != nil {
			slog.Warn("Failed to connect to redis, presence disabled", "error", err)
			tracker = nil
		} else {
			defer func() {
				if closeErr := tracker.Close(); closeErr != nil {
					slog.Error("Failed to close presence tracker", "error", closeErr)
				}
			}()
			slog.Info("Presence tracking enabled", "redis_addr", cfg.RedisAddr)
		}
	}
	if tracker == nil {
		slog.Info("Presence tracking disabled (REDIS_ADDR not set or connection failed)")
	}

	// Chat core.
	registry := chat.NewRegistry()
	gateway := chat.NewGateway(repo, repo, registry, tracker)
	wsHandler := chat.NewWebSocketHandler(gateway, cfg.FrontendURL, cfg.IsDevelopment(), cfg.ChatWriteWait)

	// REST handlers.
	restHandler := api.NewHandler(repo, tracker)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	allowedOrigins := []string{"*"}
	if cfg.FrontendURL != "" {
		allowedOrigins = []string{cfg.FrontendURL}
	}
	r.Use(middleware.CORS(allowedOrigins))

	restHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/chat", wsHandler.ServeHTTP)

	// Create server. WriteTimeout stays 0 so long-lived chat sockets are
	// not cut off.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// defaultCatalog returns the starter catalog inserted on first run.
func defaultCatalog() []*domain.Product {
	return []*domain.Product{
		{
			ID:          "PRD-PARA-500",
			Name:        "Paracetamol 500mg",
			Description: "Pain and fever relief, 20 tablet strip",
			Category:    "Pain Relief",
			PriceCents:  350,
			Stock:       200,
		},
		{
			ID:          "PRD-CETI-10",
			Name:        "Cetirizine 10mg",
			Description: "Antihistamine for allergy relief, 10 tablet strip",
			Category:    "Allergy",
			PriceCents:  280,
			Stock:       150,
		},
		{
			ID:                   "PRD-AMOX-250",
			Name:                 "Amoxicillin 250mg",
			Description:          "Antibiotic capsules, prescription required",
			Category:             "Antibiotics",
			PriceCents:           950,
			Stock:                80,
			RequiresPrescription: true,
		},
		{
			ID:          "PRD-VITC-1000",
			Name:        "Vitamin C 1000mg",
			Description: "Effervescent tablets, tube of 20",
			Category:    "Vitamins",
			PriceCents:  620,
			Stock:       120,
		},
		{
			ID:                   "PRD-METF-500",
			Name:                 "Metformin 500mg",
			Description:          "Blood sugar control, prescription required",
			Category:             "Diabetes",
			PriceCents:           780,
			Stock:                90,
			RequiresPrescription: true,
		},
	}
}
