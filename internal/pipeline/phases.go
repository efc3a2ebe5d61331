package pipeline

import (
	"context"
	"errors"

	json "github.com/goccy/go-json"

	"homework-hero/internal/cache"
	"homework-hero/internal/checksum"
	"homework-hero/internal/identifier"
	"homework-hero/internal/llm"
	"homework-hero/internal/models"
	"homework-hero/internal/render"
)

// Validate checks the request schema. It is the first phase; failures are
// terminal and never retried.
func (o *Orchestrator) Validate(req *models.Request) error {
	switch {
	case req == nil:
		return &ValidationError{Field: "request", Reason: "missing request document"}
	case req.Dataset == "":
		return &ValidationError{Field: "source_dataset", Reason: "required"}
	case req.ReadingLevel.System == "" || req.ReadingLevel.Level == "":
		return &ValidationError{Field: "reading_level", Reason: "must contain system and level"}
	case req.Section < 1:
		return &ValidationError{Field: "section", Reason: "must be positive"}
	case req.Theme == "":
		return &ValidationError{Field: "theme", Reason: "required"}
	case req.Model == "":
		return &ValidationError{Field: "model", Reason: "required"}
	case req.Sequence < 0:
		return &ValidationError{Field: "seed", Reason: "must not be negative"}
	}
	return nil
}

// Identify derives the worksheet identifier from the request. A
// caller-supplied identifier is validated instead of trusted: it must
// decode to exactly the request's fields.
func (o *Orchestrator) Identify(req *models.Request) (identifier.ID, error) {
	id, err := o.codec.Encode(identifier.FieldsFromRequest(req))
	if err != nil {
		return 0, err
	}

	if req.WorksheetID != "" {
		supplied, err := identifier.Parse(req.WorksheetID)
		if err != nil {
			return 0, err
		}
		if supplied != id {
			return 0, &ValidationError{Field: "worksheet_id", Reason: "does not match the request parameters"}
		}
	}
	return id, nil
}

// ExtractDocument runs validation, identification and vocabulary
// extraction, producing the build document with its content checksum and
// per-entry correlation checksums.
func (o *Orchestrator) ExtractDocument(ctx context.Context, req *models.Request) (*models.BuildDocument, error) {
	if err := o.Validate(req); err != nil {
		return nil, err
	}
	id, err := o.Identify(req)
	if err != nil {
		return nil, err
	}

	content, err := o.datasets.LoadSection(ctx, req.Dataset, req.Section, req.ReadingLevel)
	if err != nil {
		return nil, err
	}

	docChecksum := checksum.Content(content.Entries)
	data := make([]models.BuildEntry, len(content.Entries))
	for i, e := range content.Entries {
		data[i] = models.BuildEntry{
			Entry:    e,
			Key:      checksum.EntryKey(docChecksum, e),
			Checksum: checksum.Entry(docChecksum, e),
		}
	}

	return &models.BuildDocument{
		Type:         "build_request",
		Dataset:      req.Dataset,
		ReadingLevel: req.ReadingLevel,
		Section:      req.Section,
		Theme:        req.Theme,
		Model:        req.Model,
		Sequence:     req.Sequence,
		WorksheetID:  id.String(),
		DocChecksum:  docChecksum,
		Metadata:     metadataWithDefaults(req.Metadata),
		Data:         data,
	}, nil
}

// GenerateSentences fills the document's sentence outputs, reusing the
// cached AI response for the document's content checksum when one exists.
// A fresh response is only persisted after it passes correlation, so a
// failed generation never leaves a cache artifact. Returns whether the
// response came from cache.
func (o *Orchestrator) GenerateSentences(ctx context.Context, doc *models.BuildDocument) (bool, error) {
	key := cache.ResponseKey(doc)

	if raw, err := o.responses.Get(key); err == nil {
		var resp models.SentenceResponse
		if err := json.Unmarshal(raw, &resp); err == nil {
			if err := llm.CorrelateResponse(doc, &resp); err == nil {
				return true, nil
			}
		}
		// A cached artifact that no longer correlates is ignored, not
		// trusted; generation proceeds as a miss.
		o.logger.WithRequestID(ctx).Warn("ignoring uncorrelatable cached response", "key", key.String())
	} else {
		var nf *cache.NotFoundError
		if !errors.As(err, &nf) {
			return false, err
		}
	}

	systemPrompt, err := llm.ExpandSystemPrompt(o.promptTemplate, doc.ReadingLevel)
	if err != nil {
		return false, &llm.GenerationError{Model: doc.Model, Message: "failed to expand system prompt", Err: err}
	}
	themeContext, err := llm.LoadThemeContext(o.themesDir, doc.Theme)
	if err != nil {
		return false, &llm.GenerationError{Model: doc.Model, Message: "failed to load theme context", Err: err}
	}

	resp, err := o.generator.Generate(ctx, doc, systemPrompt, themeContext)
	if err != nil {
		return false, err
	}
	if err := llm.CorrelateResponse(doc, resp); err != nil {
		return false, &llm.GenerationError{Model: doc.Model, Message: "response failed correlation", Err: err}
	}

	encoded, err := json.Marshal(resp)
	if err != nil {
		return false, &llm.GenerationError{Model: doc.Model, Message: "failed to encode response", Err: err}
	}
	if err := o.responses.Put(key, encoded); err != nil {
		// A dropped write costs a redundant future AI call, not
		// incorrect output.
		o.logger.WithRequestID(ctx).Error("failed to cache AI response", "key", key.String(), "error", err)
	}
	return false, nil
}

// RenderWorksheet renders the completed document and caches the PDF under
// the worksheet identifier before returning the bytes.
func (o *Orchestrator) RenderWorksheet(ctx context.Context, doc *models.BuildDocument) ([]byte, error) {
	ws, err := worksheetFromDocument(doc)
	if err != nil {
		return nil, err
	}

	pdf, err := o.renderer.Render(ws)
	if err != nil {
		return nil, err
	}

	key := cache.WorksheetKeyFromDocument(doc)
	if err := o.worksheets.Put(key, pdf); err != nil {
		o.logger.WithRequestID(ctx).Error("failed to cache worksheet", "key", key.String(), "error", err)
	}
	return pdf, nil
}

// LookupDocument serves the staged short-circuit: it derives the
// document for a request and fills it from the response cache without
// ever invoking the generator. Absence surfaces as the cache's not-found
// error so later phases can be started directly with the result.
func (o *Orchestrator) LookupDocument(ctx context.Context, req *models.Request) (*models.BuildDocument, error) {
	doc, err := o.ExtractDocument(ctx, req)
	if err != nil {
		return nil, err
	}

	key := cache.ResponseKey(doc)
	raw, err := o.responses.Get(key)
	if err != nil {
		return nil, err
	}

	var resp models.SentenceResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, &cache.NotFoundError{Key: key}
	}
	if err := llm.CorrelateResponse(doc, &resp); err != nil {
		return nil, &llm.GenerationError{Model: doc.Model, Message: "cached response failed correlation", Err: err}
	}
	return doc, nil
}

// worksheetFromDocument flattens a completed build document into the
// renderer's input form.
func worksheetFromDocument(doc *models.BuildDocument) (*models.Worksheet, error) {
	if doc.Output == nil {
		return nil, &render.RenderError{Reason: "document has no generation output"}
	}

	entries := make([]models.WorksheetEntry, len(doc.Data))
	for i, be := range doc.Data {
		if be.Output == nil {
			return nil, &render.RenderError{Reason: "entry " + be.Word + " has no generated sentence"}
		}
		entries[i] = models.WorksheetEntry{
			Word:         be.Word,
			PartOfSpeech: be.PartOfSpeech,
			Definition:   be.Definition,
			Sentence:     be.Output.Sentence,
		}
	}

	return &models.Worksheet{
		Header:          doc.Metadata.Header,
		Footer:          doc.Metadata.Footer,
		AnswerKeyFooter: doc.Metadata.AnswerKeyFooter,
		Subtitle:        doc.Output.Subtitle,
		Dataset:         doc.Dataset,
		ReadingLevel:    doc.ReadingLevel,
		Section:         doc.Section,
		Model:           doc.Model,
		Sequence:        doc.Sequence,
		WorksheetID:     doc.WorksheetID,
		Entries:         entries,
	}, nil
}

// Default presentation strings used when a request carries no metadata.
const (
	defaultHeader          = "Vocabulary Worksheet - Section {section}"
	defaultFooter          = "Section {section} | Level {reading_system}-{reading_level} | Episode {seed}"
	defaultAnswerKeyFooter = "Worksheet {worksheet_id} | Episode {seed}"
)

func metadataWithDefaults(md *models.RequestMetadata) models.RequestMetadata {
	out := models.RequestMetadata{
		Header:          defaultHeader,
		Footer:          defaultFooter,
		AnswerKeyFooter: defaultAnswerKeyFooter,
	}
	if md != nil {
		if md.Header != "" {
			out.Header = md.Header
		}
		if md.Footer != "" {
			out.Footer = md.Footer
		}
		if md.AnswerKeyFooter != "" {
			out.AnswerKeyFooter = md.AnswerKeyFooter
		}
	}
	return out
}
