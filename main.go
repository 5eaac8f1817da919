package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-screener/config"
	"market-screener/internal/api"
	"market-screener/observability"
	"market-screener/repository"
	"market-screener/screener"
	"market-screener/services"

	"github.com/joho/godotenv"
)

func main() {
	observability.InitLogger(true)
	observability.InitMetrics()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		observability.Info("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		observability.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()

	// Run-history store is optional: screening works without it
	var repo *repository.Repository
	if cfg.HasDatabase() {
		repo, err = repository.NewRepository(ctx, cfg.Database.URL)
		if err != nil {
			observability.Warn("failed to initialize database, run history disabled", "error", err)
			repo = nil
		}
	} else {
		observability.Info("DATABASE_URL not set, run history disabled")
	}
	if repo != nil {
		defer repo.Close()
	}

	if !cfg.HasAlpaca() {
		observability.Fatal("ALPACA_API_KEY and ALPACA_API_SECRET are required")
	}
	source := services.NewAlpacaQuoteSource(cfg.Alpaca.APIKey, cfg.Alpaca.APISecret, cfg.Alpaca.BaseURL)

	orch := screener.NewOrchestrator(source, nil, &cfg.Screener)
	eval := screener.NewEvaluator(screener.UnknownConditionPolicy(cfg.Screener.UnknownCondition))

	var runRepo screener.RunRepository
	if repo != nil {
		runRepo = repo
	}
	pipeline := screener.NewPipeline(orch, eval, runRepo)

	var health api.HealthChecker
	if repo != nil {
		health = repo
	}
	handler := api.NewHandler(pipeline, health, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
	}

	// Start server in goroutine
	go func() {
		observability.Info("starting screener server", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			observability.Fatal("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	observability.Info("shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		observability.Fatal("server forced to shutdown", "error", err)
	}

	observability.Info("server stopped")
}
