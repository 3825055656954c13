package embeddings

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	json "github.com/goccy/go-json"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/medstream-ai/pipeline/pkg/common/config"
)

// Embedder is the external-model boundary: given text, return a fixed-length
// numeric vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Client talks to an OpenAI-compatible embedding endpoint. Authentication is
// either a static API key or an OAuth2 client-credentials grant when a token
// URL is configured.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

func NewClient(cfg *config.Config) *Client {
	base := &http.Client{Timeout: cfg.EmbedTimeout}

	httpClient := base
	if cfg.EmbedTokenURL != "" {
		credentialsCfg := clientcredentials.Config{
			ClientID:     cfg.EmbedClientID,
			ClientSecret: cfg.EmbedClientSecret,
			TokenURL:     cfg.EmbedTokenURL,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, base)
		httpClient = credentialsCfg.Client(ctx)
		httpClient.Timeout = cfg.EmbedTimeout
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.EmbedBaseURL,
		model:      cfg.EmbedModelName,
		apiKey:     cfg.EmbedAPIKey,
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding endpoint returned %d: %s", resp.StatusCode, payload)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}
	if len(decoded.Data) == 0 || len(decoded.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding endpoint returned no vector")
	}

	return decoded.Data[0].Embedding, nil
}
