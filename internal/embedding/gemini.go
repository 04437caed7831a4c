package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/biolinker/grantindex/pkg/utils"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiDimensions maps embedding models to their output size.
var geminiDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// GeminiEmbedder calls the Gemini embedContent API over HTTP. Same contract
// as OpenAIEmbedder: truncated input, no internal retries.
type GeminiEmbedder struct {
	apiKey     string
	model      string
	maxChars   int
	endpoint   string
	dimensions int
	httpClient *http.Client
}

// NewGeminiEmbedder creates a Gemini embedding client.
func NewGeminiEmbedder(apiKey, model string, maxChars int, timeout time.Duration) *GeminiEmbedder {
	dims, ok := geminiDimensions[model]
	if !ok {
		dims = 768
	}
	return &GeminiEmbedder{
		apiKey:     apiKey,
		model:      model,
		maxChars:   maxChars,
		endpoint:   geminiEndpoint,
		dimensions: dims,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geminiRequest struct {
	Content struct {
		Parts []struct {
			Text string `json:"text"`
		} `json:"parts"`
	} `json:"content"`
}

type geminiResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

// Embed returns the embedding vector for text.
func (c *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var payload geminiRequest
	payload.Content.Parts = []struct {
		Text string `json:"text"`
	}{{Text: utils.Head(text, c.maxChars)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:embedContent?key=%s", c.endpoint, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("gemini embed: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("gemini embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gemini embed: status %d", resp.StatusCode)
	}

	var result geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Embedding.Values) == 0 {
		return nil, fmt.Errorf("gemini returned empty embedding")
	}
	return result.Embedding.Values, nil
}

// Dimensions returns the embedding dimension for the configured model.
func (c *GeminiEmbedder) Dimensions() int {
	return c.dimensions
}

// Provider returns ProviderGemini.
func (c *GeminiEmbedder) Provider() Provider {
	return ProviderGemini
}

// Close is a no-op for the HTTP client.
func (c *GeminiEmbedder) Close() error {
	return nil
}
