package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	json "github.com/goccy/go-json"

	"homework-hero/internal/cache"
	"homework-hero/internal/config"
	"homework-hero/internal/dataset"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/models"
	"homework-hero/internal/pipeline"
	"homework-hero/internal/reference"
	"homework-hero/internal/render"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON (default uses "+config.EnvConfigPath+" env var)")
	phase := flag.String("phase", "run", "Phase to execute: run, lookup, extract, generate, render")
	output := flag.String("o", "", "Output file (default stdout)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	orch, err := buildOrchestrator(cfg)
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	out := io.Writer(os.Stdout)
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := runPhase(context.Background(), orch, *phase, os.Stdin, out); err != nil {
		log.Fatalf("Phase %s failed: %v", *phase, err)
	}
}

// buildOrchestrator wires the pipeline from config: reference registry,
// codec, dataset store, generator, renderer and both cache layers.
func buildOrchestrator(cfg *config.Config) (*pipeline.Orchestrator, error) {
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

	return pipeline.New(pipeline.Options{
		Codec:          identifier.NewCodec(reg),
		Datasets:       datasets,
		Generator:      generator,
		Renderer:       render.NewRenderer(cfg.LinkBaseURL),
		Responses:      cache.NewStore(cfg.ResponsesDatastore),
		Worksheets:     cache.NewStore(cfg.WorksheetsDatastore),
		PromptTemplate: string(prompt),
		ThemesDir:      cfg.ThemesDir,
	}), nil
}

// runPhase reads one JSON document from in, executes the phase, and
// writes the resulting document (or PDF bytes) to out. Phases compose
// over pipes: extract | generate | render.
func runPhase(ctx context.Context, orch *pipeline.Orchestrator, phase string, in io.Reader, out io.Writer) error {
	switch phase {
	case "run":
		req, err := readRequest(in)
		if err != nil {
			return err
		}
		result, err := orch.Generate(ctx, req)
		if err != nil {
			return err
		}
		_, err = out.Write(result.PDF)
		return err

	case "lookup":
		req, err := readRequest(in)
		if err != nil {
			return err
		}
		doc, err := orch.LookupDocument(ctx, req)
		if err != nil {
			return err
		}
		return writeDocument(out, doc)

	case "extract":
		req, err := readRequest(in)
		if err != nil {
			return err
		}
		doc, err := orch.ExtractDocument(ctx, req)
		if err != nil {
			return err
		}
		return writeDocument(out, doc)

	case "generate":
		doc, err := readDocument(in)
		if err != nil {
			return err
		}
		if _, err := orch.GenerateSentences(ctx, doc); err != nil {
			return err
		}
		return writeDocument(out, doc)

	case "render":
		doc, err := readDocument(in)
		if err != nil {
			return err
		}
		pdf, err := orch.RenderWorksheet(ctx, doc)
		if err != nil {
			return err
		}
		_, err = out.Write(pdf)
		return err

	default:
		return fmt.Errorf("unknown phase %q", phase)
	}
}

func readRequest(in io.Reader) (*models.Request, error) {
	var req models.Request
	if err := json.NewDecoder(in).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to parse request JSON from input: %w", err)
	}
	return &req, nil
}

func readDocument(in io.Reader) (*models.BuildDocument, error) {
	var doc models.BuildDocument
	if err := json.NewDecoder(in).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse document JSON from input: %w", err)
	}
	return &doc, nil
}

func writeDocument(out io.Writer, doc *models.BuildDocument) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
