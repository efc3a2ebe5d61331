package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/ollama/ollama/api"
	"github.com/ollama/ollama/envconfig"

	"homework-hero/internal/models"
)

// OllamaGenerator runs sentence generation against a local Ollama server.
type OllamaGenerator struct {
	Client *api.Client
}

// NewOllamaGenerator creates a new Ollama-backed generator. An empty host
// falls back to the OLLAMA_HOST environment configuration.
func NewOllamaGenerator(host string) (*OllamaGenerator, error) {
	hostURL := envconfig.Host()
	if host != "" {
		parsed, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("invalid ollama host %q: %w", host, err)
		}
		hostURL = parsed
	}
	client := api.NewClient(hostURL, http.DefaultClient)

	return &OllamaGenerator{Client: client}, nil
}

// Generate implements Generator. The response is streamed and accumulated,
// then parsed as a sentence document.
func (g *OllamaGenerator) Generate(ctx context.Context, doc *models.BuildDocument, systemPrompt, themeContext string) (*models.SentenceResponse, error) {
	userInput, err := BuildUserInput(doc, themeContext)
	if err != nil {
		return nil, g.fail(doc.Model, "failed to build model input", err)
	}

	req := api.GenerateRequest{
		Model:  doc.Model,
		System: systemPrompt,
		Prompt: userInput,
		Options: map[string]interface{}{
			"temperature": openAITemperature,
		},
	}

	var responseBuilder strings.Builder
	err = g.Client.Generate(ctx, &req, func(resp api.GenerateResponse) error {
		_, err := responseBuilder.WriteString(resp.Response)
		return err
	})
	if err != nil {
		return nil, g.fail(doc.Model, "provider call failed", err)
	}

	var sentences models.SentenceResponse
	if err := json.Unmarshal([]byte(responseBuilder.String()), &sentences); err != nil {
		return nil, g.fail(doc.Model, "response is not a valid sentence document", err)
	}
	return &sentences, nil
}

func (g *OllamaGenerator) fail(model, message string, err error) *GenerationError {
	return &GenerationError{Provider: "ollama", Model: model, Message: message, Err: err}
}
