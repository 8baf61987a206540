// Package infer implements the ai.Embedder interface against a local HTTP
// inference service that runs the sentence embedding model. The service
// accepts pre-tokenized input so the model sees exactly the sequence the
// tokenizer produced.
package infer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/feedscope/feedscope/ai"
)

// Embedder implements ai.Embedder over the inference service HTTP API.
type Embedder struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewEmbedder creates an embedding client from the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newEmbedder(config), nil
}

func newEmbedder(config *ai.Config) *Embedder {
	return &Embedder{
		baseURL: strings.TrimRight(config.EmbedderHost, "/"),
		model:   config.EmbedderModel,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: slog.Default().With("component", "infer-embedder"),
	}
}

// IsRunning returns true if the inference service responds to GET /health
// with 200.
func (e *Embedder) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// embedRequest is the JSON body for POST /embed.
type embedRequest struct {
	Model         string `json:"model"`
	InputIDs      []int  `json:"input_ids"`
	AttentionMask []int  `json:"attention_mask"`
}

// embedResponse is the JSON returned by POST /embed.
type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// EmbedTokens sends a tokenized sequence to the inference service and
// returns the sentence embedding.
func (e *Embedder) EmbedTokens(ctx context.Context, ids, mask []int) ([]float32, error) {
	if len(ids) != len(mask) {
		return nil, fmt.Errorf("embed: ids length %d does not match mask length %d", len(ids), len(mask))
	}

	body, err := json.Marshal(embedRequest{Model: e.model, InputIDs: ids, AttentionMask: mask})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ai.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: embed: status %d", ai.ErrModelUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("embed: unexpected status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if len(result.Embedding) == 0 {
		return nil, fmt.Errorf("embed: empty embedding")
	}
	return result.Embedding, nil
}
