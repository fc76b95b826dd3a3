// Package embeddings requests text embeddings from a provider's embeddings endpoint.
package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

// Usage is the token usage of an embeddings request.
type Usage struct {
	TotalTokens int `json:"total_tokens"`
}

// Embedding is the vector of one input.
type Embedding struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

// Embedded is the embeddings response.
type Embedded struct {
	Object string      `json:"object"`
	Data   []Embedding `json:"data"`
	Model  string      `json:"model"`
	Usage  Usage       `json:"usage"`
}

// Request is an embeddings request.
type Request struct {
	Provider provider.Kind    `json:"-"`
	APIKey   string           `json:"-"`
	Server   *provider.Server `json:"-"`

	Model string   `json:"model"`
	Input []string `json:"input"`

	httpClient *http.Client
	logger     *zap.Logger
}

// Option configures a Request.
type Option func(*Request)

// New creates an embeddings request for provider kind.
func New(kind provider.Kind, apiKey, model string, opts ...Option) *Request {
	r := &Request{
		Provider:   kind,
		APIKey:     apiKey,
		Model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// WithServer replaces the provider host, keeping its embeddings path.
func WithServer(addr string, https bool) Option {
	return func(r *Request) {
		r.Server = &provider.Server{Addr: addr, HTTPS: https}
	}
}

// WithHTTPClient sets the transport used to send the request.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Request) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Request) {
		if l != nil {
			r.logger = l
		}
	}
}

// AddInput appends a text to embed.
func (r *Request) AddInput(input ...string) {
	r.Input = append(r.Input, input...)
}

// Send posts the request and decodes the embeddings.
func (r *Request) Send(ctx context.Context) (*Embedded, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}

	url := r.Provider.EmbeddingsURL(r.Server)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+r.APIKey)
	}

	r.logger.Debug("sending embeddings request",
		zap.String("provider", string(r.Provider)),
		zap.String("url", url),
		zap.String("model", r.Model),
		zap.Int("inputs", len(r.Input)),
	)

	resp, err := r.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := llm.ErrorMessage(raw)
		return nil, &llm.APIError{StatusCode: resp.StatusCode, Message: msg, Raw: raw}
	}

	var out Embedded
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}
	return &out, nil
}
