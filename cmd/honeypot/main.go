package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/archive"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/callback"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/config"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/detector"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/events"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/honeypot"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/httpapi"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/intel"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/observability"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/persona"
	"github.com/Aayushmaan-24/Agentic-Honey-Pot-for-Scam-Detection-Intelligence-Extraction/internal/session"
)

func main() {
	// .env keeps the shared secret out of shell history; absence is fine.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load skipped: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	reports, err := archive.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("report archive init failed: %v", err)
	}
	defer reports.Close()
	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		log.Printf("report archive: postgres")
	} else {
		log.Printf("report archive: in-memory")
	}

	det, err := detector.New(detector.Config{
		Mode:     cfg.DetectorMode,
		ModelURL: cfg.DetectorModelURL,
	})
	if err != nil {
		log.Fatalf("detector init failed: %v", err)
	}
	if strings.TrimSpace(cfg.DetectorModelURL) != "" {
		log.Printf("detector: %s (model endpoint %s)", cfg.DetectorMode, cfg.DetectorModelURL)
	} else {
		log.Printf("detector: %s (keyword)", cfg.DetectorMode)
	}

	mem := persona.NewMemory()
	gen, err := persona.New(persona.Config{
		Mode:        cfg.PersonaMode,
		OllamaURL:   cfg.OllamaURL,
		Model:       cfg.OllamaModel,
		Temperature: cfg.OllamaTemperature,
	}, mem)
	if err != nil {
		log.Fatalf("persona init failed: %v", err)
	}
	if strings.TrimSpace(cfg.OllamaURL) != "" {
		log.Printf("persona: %s (ollama %s, model %s)", cfg.PersonaMode, cfg.OllamaURL, cfg.OllamaModel)
	} else {
		log.Printf("persona: %s (mock)", cfg.PersonaMode)
	}

	sessions := session.NewManager()
	hub := events.NewHub()
	sink := callback.NewHTTPSink(cfg.CallbackURL, cfg.CallbackTimeout)

	orchestrator := honeypot.New(
		honeypot.Config{
			ActivationThreshold: cfg.ActivationThreshold,
			ConfidenceDamping:   cfg.ConfidenceDamping,
			FinalizeMinMessages: cfg.FinalizeMinMessages,
			CallbackTimeout:     cfg.CallbackTimeout,
			SessionIdleTimeout:  cfg.SessionIdleTimeout,
		},
		sessions,
		det,
		gen,
		mem,
		intel.NewRegexExtractor(),
		sink,
		reports,
		hub,
		metrics,
	)

	api := httpapi.New(cfg, sessions, orchestrator, reports, hub, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, cfg.JanitorInterval, cfg.SessionIdleTimeout)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
