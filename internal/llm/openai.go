package llm

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"homework-hero/internal/models"
)

// Temperature used for sentence generation.
const openAITemperature = 1.0

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIGenerator calls an OpenAI-compatible chat-completions endpoint.
type OpenAIGenerator struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewOpenAIGenerator creates a generator against baseURL, e.g.
// "https://api.openai.com/v1".
func NewOpenAIGenerator(baseURL, apiKey string) *OpenAIGenerator {
	return &OpenAIGenerator{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, doc *models.BuildDocument, systemPrompt, themeContext string) (*models.SentenceResponse, error) {
	userInput, err := BuildUserInput(doc, themeContext)
	if err != nil {
		return nil, g.fail(doc.Model, "failed to build model input", err)
	}

	payload := chatRequest{
		Model: doc.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userInput},
		},
		Temperature:    openAITemperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, g.fail(doc.Model, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, g.fail(doc.Model, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, g.fail(doc.Model, "provider call failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.fail(doc.Model, "failed to read provider response", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, g.fail(doc.Model, "failed to parse provider response", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("provider returned status %d", resp.StatusCode)
		if parsed.Error != nil {
			msg = fmt.Sprintf("%s: %s", msg, parsed.Error.Message)
		}
		return nil, g.fail(doc.Model, msg, nil)
	}
	if len(parsed.Choices) == 0 {
		return nil, g.fail(doc.Model, "provider returned no choices", nil)
	}

	var sentences models.SentenceResponse
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &sentences); err != nil {
		return nil, g.fail(doc.Model, "response is not a valid sentence document", err)
	}
	return &sentences, nil
}

func (g *OpenAIGenerator) fail(model, message string, err error) *GenerationError {
	return &GenerationError{Provider: "openai", Model: model, Message: message, Err: err}
}
