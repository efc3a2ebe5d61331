// Package llm generates themed sentence completions for a build document.
// The provider call is the only expensive, non-idempotent phase of the
// pipeline; callers gate it behind the content-checksum cache layer.
package llm

import (
	"context"
	"fmt"

	"homework-hero/internal/models"
)

// Generator produces a structured sentence response for a build document.
// Implementations must not mutate the document.
type Generator interface {
	Generate(ctx context.Context, doc *models.BuildDocument, systemPrompt, themeContext string) (*models.SentenceResponse, error)
}

// GenerationError reports a provider failure or a response that fails
// correlation. It is fatal for the request; there is no automatic retry.
type GenerationError struct {
	Provider string
	Model    string
	Message  string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (provider=%s, model=%s): %s: %v", e.Provider, e.Model, e.Message, e.Err)
	}
	return fmt.Sprintf("generation failed (provider=%s, model=%s): %s", e.Provider, e.Model, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}
