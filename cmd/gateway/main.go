package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/voicebank/gateway/internal/bank"
	"github.com/voicebank/gateway/internal/branding"
	"github.com/voicebank/gateway/internal/faq"
	"github.com/voicebank/gateway/internal/httpx"
	"github.com/voicebank/gateway/internal/prompts"
	"github.com/voicebank/gateway/internal/trace"
	"github.com/voicebank/gateway/internal/upstream"
	"github.com/voicebank/gateway/internal/ws"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env")
	}

	cfg := loadConfig()

	if cfg.databaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	bankPG, err := bank.Open(cfg.databaseURL)
	if err != nil {
		slog.Error("bank store open", "error", err)
		os.Exit(1)
	}
	defer bankPG.Close()
	bankSvc := bank.NewService(bankPG)

	// Tracing shares the bank database unless pointed elsewhere. The ring
	// always runs so /api/events works even without a trace store.
	var traceStore *trace.Store
	traceDB := cfg.traceDBURL
	if traceDB == "" {
		traceDB = cfg.databaseURL
	}
	traceStore, err = trace.Open(traceDB)
	if err != nil {
		slog.Warn("trace store unavailable, tracing to ring only", "error", err)
		traceStore = nil
	} else {
		defer traceStore.Close()
	}
	eventRing := trace.NewRing(cfg.eventRingSize)

	faqCfg := faq.Config{Collection: cfg.faqCollection, TopK: cfg.faqTopK, ScoreThreshold: cfg.faqThreshold}
	if cfg.qdrantURL != "" {
		embedClient := faq.NewEmbeddingClient(cfg.ollamaURL, cfg.embeddingModel, cfg.qdrantPoolSize)
		qdrantClient := faq.NewQdrantClient(cfg.qdrantURL, cfg.qdrantPoolSize)

		initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := qdrantClient.EnsureCollection(initCtx, cfg.faqCollection, cfg.vectorSize); err != nil {
			slog.Warn("qdrant faq collection", "error", err)
		}
		initCancel()

		faqCfg.Embedder = embedClient
		faqCfg.Qdrant = qdrantClient
		slog.Info("faq search enabled", "qdrant", cfg.qdrantURL, "embedding_model", cfg.embeddingModel)
	}
	faqClient := faq.NewClient(faqCfg)

	dirStore, err := branding.NewDirStore(cfg.brandingDir)
	if err != nil {
		slog.Error("branding dir", "error", err)
		os.Exit(1)
	}
	var brandStore branding.ObjectStore = dirStore
	if cfg.objectStoreURL != "" {
		httpStore := branding.NewHTTPStore(cfg.objectStoreURL, cfg.objectStoreBucket,
			httpx.NewPooledClient(cfg.objectPoolSize, 30*time.Second))
		brandStore = branding.NewFallbackStore(httpStore, dirStore)
	}
	brandSvc := branding.NewService(brandStore)

	wsHandler := ws.NewHandler(ws.HandlerConfig{
		Upstream: upstream.Config{
			URL:               cfg.engineURL,
			APIKey:            cfg.engineAPIKey,
			Model:             cfg.engineModel,
			SystemInstruction: prompts.ForSession(cfg.systemPrompt, cfg.demoUserID, cfg.demoBiller),
		},
		Bank:          bankSvc,
		FAQ:           faqClient,
		TraceStore:    traceStore,
		TraceRing:     eventRing,
		UserID:        cfg.demoUserID,
		MaxConcurrent: cfg.maxConcurrent,
		PollInterval:  time.Duration(cfg.sessionPollMS) * time.Millisecond,
	})

	mux := http.NewServeMux()
	registerRoutes(mux, deps{
		wsHandler:  wsHandler,
		branding:   brandSvc,
		traceStore: traceStore,
		eventRing:  eventRing,
	})

	addr := ":" + cfg.port
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("gateway starting", "addr", addr, "max_concurrent", cfg.maxConcurrent, "engine_model", cfg.engineModel)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}

	slog.Info("gateway stopped")
}
