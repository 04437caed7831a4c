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

const openAIEndpoint = "https://api.openai.com/v1/embeddings"

// openAIDimensions maps embedding models to their output size.
var openAIDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// OpenAIEmbedder calls the OpenAI embeddings API over HTTP. Input is
// truncated to maxChars before submission to bound cost and respect the
// backend's token limit. Calls are not retried internally; failures
// propagate to the caller.
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	maxChars   int
	endpoint   string
	dimensions int
	httpClient *http.Client
}

// NewOpenAIEmbedder creates an OpenAI embedding client.
func NewOpenAIEmbedder(apiKey, model string, maxChars int, timeout time.Duration) *OpenAIEmbedder {
	dims, ok := openAIDimensions[model]
	if !ok {
		dims = 1536
	}
	return &OpenAIEmbedder{
		apiKey:     apiKey,
		model:      model,
		maxChars:   maxChars,
		endpoint:   openAIEndpoint,
		dimensions: dims,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type openAIRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type openAIResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding vector for text.
func (c *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(openAIRequest{Model: c.model, Input: utils.Head(text, c.maxChars)})
	if err != nil {
		return nil, fmt.Errorf("marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("openai embed: %w", ErrTimeout)
		}
		return nil, fmt.Errorf("openai embed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai embed: status %d", resp.StatusCode)
	}

	var result openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode embed response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai returned empty embedding")
	}
	return result.Data[0].Embedding, nil
}

// Dimensions returns the embedding dimension for the configured model.
func (c *OpenAIEmbedder) Dimensions() int {
	return c.dimensions
}

// Provider returns ProviderOpenAI.
func (c *OpenAIEmbedder) Provider() Provider {
	return ProviderOpenAI
}

// Close is a no-op for the HTTP client.
func (c *OpenAIEmbedder) Close() error {
	return nil
}
