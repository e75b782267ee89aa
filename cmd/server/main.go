package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dgallion1/examscope/internal/api"
	"github.com/dgallion1/examscope/internal/chunker"
	"github.com/dgallion1/examscope/internal/classify"
	"github.com/dgallion1/examscope/internal/config"
	"github.com/dgallion1/examscope/internal/keywords"
	"github.com/dgallion1/examscope/internal/observability"
	"github.com/dgallion1/examscope/internal/ocr"
	"github.com/dgallion1/examscope/internal/ocr/fitz"
	"github.com/dgallion1/examscope/internal/ocr/tesseract"
	"github.com/dgallion1/examscope/internal/ocr/vision"
	"github.com/dgallion1/examscope/internal/parser"
	"github.com/dgallion1/examscope/internal/pipeline"
	"github.com/dgallion1/examscope/internal/provider"
)

var version = "dev"

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing := observability.Init(ctx, observability.Config{
		Enabled:     cfg.OTelEnabled,
		ServiceName: "examscope",
		Version:     version,
		Endpoint:    cfg.OTelEndpoint,
		Headers:     cfg.OTelHeaders,
		Insecure:    cfg.OTelInsecure,
		SampleRatio: cfg.OTelSampleRatio,
	}, log)

	// Keyword dictionary.
	dict := keywords.Default()
	if cfg.KeywordsFile != "" {
		d, err := keywords.Load(cfg.KeywordsFile)
		if err != nil {
			log.Error("failed to load keyword dictionary", "path", cfg.KeywordsFile, "error", err)
			os.Exit(1)
		}
		dict = d
	}
	dictionary := keywords.NewStore(dict, log)
	if cfg.KeywordsFile != "" && cfg.KeywordsWatch {
		if err := dictionary.Watch(ctx, cfg.KeywordsFile); err != nil {
			log.Warn("keyword dictionary hot reload disabled", "error", err)
		}
	}

	// OCR.
	engine, closeEngine := buildEngine(ctx, cfg, log)
	defer closeEngine()
	fallback := ocr.NewFallback(engine, buildRasterizer(cfg, log), ocr.Options{
		DPI:          cfg.OCRDPI,
		MinPageChars: cfg.OCRMinPageChars,
		Concurrency:  cfg.OCRConcurrency,
		Timeout:      cfg.OCRTimeout,
		MaxDimension: cfg.OCRMaxDimension,
	}, log)

	// Providers and classification.
	selector := provider.NewSelector(provider.Options{
		GeminiModel:    cfg.GeminiModel,
		OpenAIModel:    cfg.OpenAIModel,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		AnthropicModel: cfg.AnthropicModel,
		Timeout:        cfg.ProviderTimeout,
	}, nil, log)
	stats := provider.NewStats(time.Hour)

	heuristic := classify.NewHeuristic(dictionary, classify.HeuristicOptions{
		TopicCount:     cfg.TopicCount,
		TopicMinLength: cfg.TopicMinLength,
	})
	chunking := chunker.DefaultConfig()
	chunking.BatchSize = cfg.BatchSize
	chunking.MaxTokens = cfg.MaxBatchTokens
	chunking.CharLimit = cfg.QuestionCharLimit
	cascade := classify.NewCascade(selector, heuristic, classify.NewPacer(cfg.ProviderRPS), stats, classify.CascadeOptions{
		Chunking:    chunking,
		Concurrency: cfg.AIConcurrency,
		CallTimeout: cfg.ProviderTimeout,
	}, log)

	// Pipeline.
	analyzer := pipeline.NewAnalyzer(pipeline.AnalyzerConfig{
		Parser: parser.Options{
			MinPageChars:      cfg.OCRMinPageChars,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		},
		SampleCount: cfg.SampleCount,
	}, fallback, selector, cascade, log)

	orch := pipeline.NewOrchestrator(pipeline.OrchestratorConfig{
		WorkerCount:  cfg.WorkerCount,
		MaxQueueSize: cfg.MaxQueueSize,
		JobTTL:       cfg.JobTTL,
		SampleCount:  cfg.SampleCount,
	}, analyzer, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(analyzer, orch, selector, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(srv, "examscope"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		selector.Close()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	st := selector.Status()
	log.Info("starting examscope",
		"port", cfg.Port,
		"version", version,
		"default_provider", st.Default,
		"available_providers", st.Available,
		"ocr_available", fallback.Available(),
		"ocr_engine", fallback.EngineName(),
		"chapters", len(dictionary.Get().Chapters),
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

// buildEngine returns nil when OCR is disabled or the engine is missing;
// the fallback then reports OCR as unavailable.
func buildEngine(ctx context.Context, cfg config.Config, log *slog.Logger) (ocr.Engine, func()) {
	noop := func() {}
	switch cfg.OCREngine {
	case "tesseract":
		e, err := tesseract.New(cfg.OCRLanguage, cfg.OCRDPI)
		if err != nil {
			logUnavailable(log, err)
			return nil, noop
		}
		return e, noop
	case "vision":
		e, err := vision.New(ctx, cfg.GoogleCredentials, visionHints(cfg.OCRLanguage))
		if err != nil {
			logUnavailable(log, err)
			return nil, noop
		}
		return e, func() { e.Close() }
	}
	log.Info("OCR disabled")
	return nil, noop
}

func buildRasterizer(cfg config.Config, log *slog.Logger) ocr.Rasterizer {
	if cfg.OCRRasterizer == "pdftoppm" {
		r, err := ocr.NewPdftoppm()
		if err != nil {
			logUnavailable(log, err)
			return nil
		}
		return r
	}
	return fitz.New()
}

// visionHints keeps only two-letter codes; Tesseract names such as "eng"
// are not valid Vision language hints.
func visionHints(language string) []string {
	var hints []string
	for _, l := range strings.Split(language, "+") {
		if l = strings.TrimSpace(l); len(l) == 2 {
			hints = append(hints, strings.ToLower(l))
		}
	}
	return hints
}

func logUnavailable(log *slog.Logger, err error) {
	var unavailable *ocr.UnavailableError
	if errors.As(err, &unavailable) {
		log.Warn("OCR component unavailable", "component", unavailable.Component, "reason", unavailable.Reason, "error", unavailable.Err)
		return
	}
	log.Warn("OCR component unavailable", "error", err)
}
