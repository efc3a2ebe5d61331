// Package pipeline sequences worksheet generation through its phases:
// Validated, Identified, ExtractedOrCached, Completed. Two independent
// cache layers gate the expensive work: rendered PDFs keyed by worksheet
// identifier short-circuit the whole pipeline, and AI responses keyed by
// content checksum short-circuit the generation phase.
package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"homework-hero/internal/cache"
	"homework-hero/internal/dataset"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/models"
	"homework-hero/internal/observability"
	"homework-hero/internal/render"
)

// Orchestrator runs the pipeline. It holds no per-request state; all
// shared state lives behind the cache stores' key space, so one
// orchestrator serves concurrent requests.
type Orchestrator struct {
	codec      *identifier.Codec
	datasets   dataset.Store
	generator  llm.Generator
	renderer   *render.Renderer
	responses  *cache.Store
	worksheets *cache.Store

	promptTemplate string
	themesDir      string
	logger         *observability.Logger
}

// Options configures an Orchestrator.
type Options struct {
	Codec      *identifier.Codec
	Datasets   dataset.Store
	Generator  llm.Generator
	Renderer   *render.Renderer
	Responses  *cache.Store
	Worksheets *cache.Store

	// PromptTemplate is the raw system prompt with a {reading_level}
	// placeholder.
	PromptTemplate string
	// ThemesDir holds {theme}.txt context files.
	ThemesDir string

	Logger *observability.Logger
}

// New creates an orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.LoggerConfig{
			Level:  slog.LevelError,
			Output: io.Discard,
		})
	}
	return &Orchestrator{
		codec:          opts.Codec,
		datasets:       opts.Datasets,
		generator:      opts.Generator,
		renderer:       opts.Renderer,
		responses:      opts.Responses,
		worksheets:     opts.Worksheets,
		promptTemplate: opts.PromptTemplate,
		themesDir:      opts.ThemesDir,
		logger:         logger,
	}
}

// Result is the outcome of a full pipeline run.
type Result struct {
	WorksheetID       string `json:"worksheet_id"`
	PDF               []byte `json:"-"`
	PDFFromCache      bool   `json:"pdf_from_cache"`
	ResponseFromCache bool   `json:"response_from_cache"`
}

// Generate runs the full pipeline for one request. A cached PDF
// short-circuits everything: extraction, generation and rendering never
// run. Otherwise the content checksum decides whether the AI call can be
// skipped, and the rendered PDF is cached before returning.
func (o *Orchestrator) Generate(ctx context.Context, req *models.Request) (*Result, error) {
	if err := o.Validate(req); err != nil {
		return nil, err
	}

	id, err := o.Identify(req)
	if err != nil {
		return nil, err
	}

	pdfKey := cache.WorksheetKey(req, id.String())
	if pdf, err := o.worksheets.Get(pdfKey); err == nil {
		o.logger.WithRequestID(ctx).Info("worksheet served from cache", "worksheet_id", id.String())
		return &Result{WorksheetID: id.String(), PDF: pdf, PDFFromCache: true}, nil
	} else {
		var nf *cache.NotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	doc, err := o.ExtractDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	fromCache, err := o.GenerateSentences(ctx, doc)
	if err != nil {
		return nil, err
	}

	pdf, err := o.RenderWorksheet(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &Result{
		WorksheetID:       doc.WorksheetID,
		PDF:               pdf,
		ResponseFromCache: fromCache,
	}, nil
}
