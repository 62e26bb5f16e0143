package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"geotale/internal/api"
	"geotale/pkg/cache"
	"geotale/pkg/config"
	"geotale/pkg/db"
	"geotale/pkg/facts"
	"geotale/pkg/history"
	"geotale/pkg/llm"
	"geotale/pkg/llm/gemini"
	"geotale/pkg/llm/mock"
	"geotale/pkg/llm/openai"
	"geotale/pkg/logging"
	"geotale/pkg/narrator"
	"geotale/pkg/overpass"
	"geotale/pkg/places"
	"geotale/pkg/poi"
	"geotale/pkg/request"
	"geotale/pkg/store"
	"geotale/pkg/taste"
	"geotale/pkg/tracker"
	"geotale/pkg/tts/openaitts"
	"geotale/pkg/version"
	"geotale/pkg/wikidata"
	"geotale/pkg/wikipedia"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Geotale starting", "version", version.Version, "port", cfg.Port)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	tr := tracker.New(registry)

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	rc := request.New(cfg.HTTPTimeout, cfg.UserAgent, tr)
	llmRC := request.New(cfg.LLMTimeout, cfg.UserAgent, tr)

	provider, err := newLLMProvider(ctx, cfg, llmRC, tr)
	if err != nil {
		return fmt.Errorf("failed to initialize llm provider: %w", err)
	}

	synth, err := openaitts.New(llmRC, cfg.OpenAIKey, cfg.OpenAIBaseURL, "", "")
	if err != nil {
		return fmt.Errorf("failed to initialize tts: %w", err)
	}

	graph := wikidata.NewClient(rc)
	wiki := wikipedia.NewClient(rc)

	sources := []poi.Source{
		overpass.NewClient(rc, cfg.OverpassBaseURL),
		graph,
	}
	// The paid endpoint only fires when the open sources find nothing.
	var fallback poi.Source
	if placesClient := places.NewClient(rc, cfg.PlacesKey); placesClient.Enabled() {
		fallback = placesClient
	}

	ttlCache := cache.New(cfg.GeoCacheTTL)

	var poiCache store.POICacheStore
	var exposure store.ExposureStore
	var histStore store.HistoryStore
	var tasteStore store.TasteStore
	if st != nil {
		poiCache, exposure, histStore, tasteStore = st, st, st, st
	}

	pipeline := poi.NewPipeline(sources, fallback, ttlCache, poiCache, tr, cfg.GeoCacheTTL)
	factSvc := facts.NewService(graph, wiki, provider, ttlCache, cfg.Denylists, cfg.MaxFacts, cfg.GeoCacheTTL)
	histSvc := history.New(histStore)
	tasteSvc := taste.New(tasteStore)
	gen := narrator.NewGenerator(provider, cfg.Denylists)
	orch := narrator.NewOrchestrator(pipeline, factSvc, histSvc, gen, synth, exposure, tr, cfg)

	server := api.NewServer(":"+cfg.Port,
		api.NewStoryHandler(orch, tasteSvc),
		api.NewTasteHandler(tasteSvc),
		cfg.CORSAllowOrigins,
		registry,
	)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openStore opens the sqlite-backed store, or returns nil for
// memory-only operation when no DB_PATH is configured.
func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.DBPath == "" {
		slog.Warn("DB_PATH not set; history, exposure log and taste profiles are memory-only")
		return nil, nil
	}
	conn, err := db.Init(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store.NewSQLiteStore(conn), nil
}

func newLLMProvider(ctx context.Context, cfg *config.Config, rc *request.Client, tr *tracker.Tracker) (llm.Provider, error) {
	switch cfg.LLMProvider {
	case "openai", "":
		return openai.NewClient(rc, cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
	case "gemini":
		return gemini.NewClient(ctx, cfg.GeminiKey, cfg.LLMModel, tr)
	case "mock":
		// Offline development mode: every story request refuses.
		m := mock.New()
		m.SetFallback("NO_STORY")
		return m, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}
}
