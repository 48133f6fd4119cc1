package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/attacksurface/sentinel/internal/config"
	"github.com/attacksurface/sentinel/internal/enumerator"
	"github.com/attacksurface/sentinel/internal/exposure"
	"github.com/attacksurface/sentinel/internal/limits"
	"github.com/attacksurface/sentinel/internal/llm"
	"github.com/attacksurface/sentinel/internal/orchestrator"
	"github.com/attacksurface/sentinel/internal/resolver"
	"github.com/attacksurface/sentinel/internal/store"
	transporthttp "github.com/attacksurface/sentinel/internal/transport/http"
	"github.com/attacksurface/sentinel/internal/wsprogress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	summaryProvider := newSummaryProvider(cfg)
	postureProvider := newPostureProvider(ctx, cfg)
	gateway := llm.NewGateway(summaryProvider, postureProvider)

	runLimits := limits.DefaultRunLimits()
	runLimits.MaxSubdomains = cfg.MaxSubdomains
	runLimits.ResolverWorkers = cfg.ResolverWorkers
	runLimits.ExposureWorkers = cfg.ExposureWorkers
	limiter := limits.NewRunLimiter(runLimits)

	enum := enumerator.New(enumerator.NetResolver{})
	exposureClient := exposure.New(cfg.ShodanAPIKey, runLimits.ExposureCacheTTL)

	recon := orchestrator.New(enum, exposureClient, resolver.NetResolver{}, limiter)

	scanStore := newScanStore(cfg)

	progress := wsprogress.NewHub()
	go progress.Run()
	recon.Progress = progress

	server := transporthttp.NewServer(recon, scanStore, gateway, progress)
	router := server.Router()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func newSummaryProvider(cfg *config.Config) llm.Provider {
	provider, err := llm.NewGroqProvider(cfg.GroqAPIKey)
	if err != nil {
		log.Printf("groq provider unavailable: %v", err)
		return llm.NoopProvider{Reason: err.Error()}
	}
	return provider
}

func newPostureProvider(ctx context.Context, cfg *config.Config) llm.Provider {
	provider, err := llm.NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Printf("gemini provider unavailable: %v", err)
		return llm.NoopProvider{Reason: err.Error()}
	}
	return provider
}

func newScanStore(cfg *config.Config) store.ScanStore {
	if cfg.MongoURI == "" {
		log.Println("MONGO_URI not set, using in-memory scan store")
		return store.NewMemory()
	}
	return store.NewMongo(cfg.MongoURI, cfg.DBName, cfg.DBSelectTimeout)
}
