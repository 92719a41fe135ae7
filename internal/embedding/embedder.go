package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultEmbedderURL = "http://localhost:8000"

// Tensor is a normalized face crop in CHW layout (3 channels), with pixel
// intensities rescaled to [-1, 1].
type Tensor struct {
	Data   []float32 `json:"data"`
	Width  int       `json:"width"`
	Height int       `json:"height"`
}

// Embedder computes a raw identity vector from a preprocessed face crop.
// The model itself is opaque; callers only rely on a fixed output dimension.
type Embedder interface {
	Embed(ctx context.Context, face Tensor) ([]float32, error)
}

// EmbedderFunc adapts a function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, face Tensor) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, face Tensor) ([]float32, error) {
	return f(ctx, face)
}

// Client computes face embeddings using the embedding server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new embedding client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultEmbedderURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// embedResponse represents the response from the embedding server.
type embedResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float32 `json:"embedding"`
}

func (c *Client) Embed(ctx context.Context, face Tensor) ([]float32, error) {
	body, err := json.Marshal(face)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, msg)
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	if er.Dim != 0 && er.Dim != len(er.Embedding) {
		return nil, fmt.Errorf("embedding server dim mismatch: dim=%d len=%d", er.Dim, len(er.Embedding))
	}
	if len(er.Embedding) == 0 {
		return nil, fmt.Errorf("embedding server returned empty embedding")
	}

	return er.Embedding, nil
}
