package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"homework-hero/internal/cache"
	"homework-hero/internal/config"
	"homework-hero/internal/dataset"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/observability"
	"homework-hero/internal/pipeline"
	"homework-hero/internal/reference"
	"homework-hero/internal/render"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON (default uses "+config.EnvConfigPath+" env var)")
	addr := flag.String("addr", "", "Listen address (overrides config listen_addr)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := observability.NewLogger(observability.LoggerConfig{
		Level:      slog.LevelInfo,
		Output:     os.Stderr,
		JSONFormat: true,
	})

	srv, err := newServer(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}

	listenAddr := cfg.ListenAddr
	if *addr != "" {
		listenAddr = *addr
	}
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestIDMiddleware(), loggingMiddleware(logger))
	srv.registerRoutes(router)

	logger.Info("listening", "addr", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// newServer wires the pipeline and its collaborators from config.
func newServer(cfg *config.Config, logger *observability.Logger) (*server, error) {
	reg, err := reference.Load(cfg.ReferenceData)
	if err != nil {
		return nil, err
	}

	prompt, err := os.ReadFile(cfg.PromptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}

	var datasets dataset.Store
	if cfg.PostgresURL != "" {
		pg, err := dataset.NewPostgresStore(context.Background(), cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		datasets = pg
	} else {
		datasets = dataset.NewFileStore(cfg.SourceDatasets)
	}

	var generator llm.Generator
	if cfg.OpenAIBaseURL != "" {
		generator = llm.NewOpenAIGenerator(cfg.OpenAIBaseURL, os.Getenv("OPENAI_API_KEY"))
	} else {
		generator, err = llm.NewOllamaGenerator(cfg.OllamaHost)
		if err != nil {
			return nil, err
		}
	}

	codec := identifier.NewCodec(reg)
	worksheets := cache.NewStore(cfg.WorksheetsDatastore)

	orch := pipeline.New(pipeline.Options{
		Codec:          codec,
		Datasets:       datasets,
		Generator:      generator,
		Renderer:       render.NewRenderer(cfg.LinkBaseURL),
		Responses:      cache.NewStore(cfg.ResponsesDatastore),
		Worksheets:     worksheets,
		PromptTemplate: string(prompt),
		ThemesDir:      cfg.ThemesDir,
		Logger:         logger,
	})

	return &server{
		orch:       orch,
		codec:      codec,
		registry:   reg,
		worksheets: worksheets,
		logger:     logger,
	}, nil
}
