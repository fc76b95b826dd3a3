// Package proxy provides an HTTP gateway that streams completions from any
// configured provider as normalized NDJSON chunks.
package proxy

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/completions"
	"github.com/papercomputeco/lmstream/pkg/config"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

// Proxy is a stateless gateway in front of LLM providers. Clients send one
// provider independent request; the proxy composes it for the profile's
// provider and re-publishes the normalized stream line by line.
type Proxy struct {
	config   Config
	profiles atomic.Pointer[config.Config]
	logger   *zap.Logger
	server   *fiber.App
}

// New creates a new Proxy.
func New(cfg Config, logger *zap.Logger) (*Proxy, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("proxy requires profiles")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	p := &Proxy{
		config: cfg,
		logger: logger,
		server: app,
	}
	p.profiles.Store(cfg.Profiles)
	p.routes(app)

	return p, nil
}

func (p *Proxy) routes(app *fiber.App) {
	app.Post("/v1/stream", p.handleStream)
	app.Post("/v1/embeddings", p.handleEmbeddings)
	app.Get("/v1/providers", p.handleProviders)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// SetProfiles replaces the profiles used by new requests. Requests already
// streaming keep the profile they started with.
func (p *Proxy) SetProfiles(c *config.Config) {
	if c != nil {
		p.profiles.Store(c)
	}
}

// Run starts the proxy server on the given listening address
func (p *Proxy) Run() error {
	p.logger.Info("starting gateway server",
		zap.String("listen", p.config.ListenAddr),
		zap.Strings("profiles", p.profiles.Load().ProfileNames()),
	)

	return p.server.Listen(p.config.ListenAddr)
}

// Close shuts down the server, waiting for in-flight requests.
func (p *Proxy) Close() error {
	return p.server.Shutdown()
}

// StreamRequest is the provider independent body of POST /v1/stream.
type StreamRequest struct {
	// Profile names the configured profile; empty selects the default one.
	Profile  string        `json:"profile,omitempty"`
	Messages []llm.Message `json:"messages"`
	Tools    []llm.Tool    `json:"tools,omitempty"`
	Schema   *llm.Schema   `json:"schema,omitempty"`

	// MaxTokens and Temperature override the profile when set.
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// EmbeddingsRequest is the body of POST /v1/embeddings.
type EmbeddingsRequest struct {
	Profile string   `json:"profile,omitempty"`
	Input   []string `json:"input"`
}

// Line is one NDJSON line of a stream response.
type Line struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx gateway answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ProviderInfo describes one entry of the protocol table.
type ProviderInfo struct {
	Name            string `json:"name"`
	Family          string `json:"family"`
	Host            string `json:"host"`
	CompletionsPath string `json:"completions_path"`
	EmbeddingsPath  string `json:"embeddings_path"`
}

// ProvidersResponse is the body of GET /v1/providers.
type ProvidersResponse struct {
	Providers []ProviderInfo `json:"providers"`
	Profiles  []string       `json:"profiles"`
}

func chunkLine(c llm.Chunk) Line {
	return Line{Type: string(c.Kind), Text: c.Text, Name: c.Name, Arguments: c.Arguments}
}

func errorLine(err error) Line {
	return Line{Type: "error", Error: err.Error()}
}

// handleStream sends the request to the profile's provider and streams the
// normalized chunks back as NDJSON. Failures before the first byte of the
// upstream stream are answered with a JSON error status; failures after it
// become error lines.
func (p *Proxy) handleStream(c *fiber.Ctx) error {
	startTime := time.Now()
	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))
	c.Set("X-Request-Id", requestID)

	var in StreamRequest
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		log.Error("failed to parse request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	profile, err := p.profiles.Load().Profile(in.Profile)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	req, err := buildRequest(profile, &in, log)
	if err != nil {
		log.Warn("rejected request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	log.Debug("received stream request",
		zap.String("profile", in.Profile),
		zap.String("provider", string(req.Provider)),
		zap.String("model", req.Model),
		zap.Int("message_count", len(req.Messages)),
		zap.Int("tools", len(req.Tools)),
	)

	// The stream outlives this handler; it is cancelled once the body writer
	// is done.
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := req.Send(ctx)
	if err != nil {
		cancel()
		return p.sendError(c, log, err)
	}

	c.Set("Content-Type", "application/x-ndjson")
	c.Set("Transfer-Encoding", "chunked")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer stream.Close()

		enc := json.NewEncoder(w)
		chunks, errs := 0, 0
		for {
			chunk, err := stream.Next(ctx)
			if errors.Is(err, io.EOF) {
				break
			}

			line := chunkLine(chunk)
			if err != nil {
				errs++
				log.Warn("stream error", zap.Error(err))
				line = errorLine(err)
			} else {
				chunks++
			}

			if err := enc.Encode(line); err != nil {
				log.Debug("client went away", zap.Error(err))
				return
			}
			if err := w.Flush(); err != nil {
				log.Debug("client went away", zap.Error(err))
				return
			}
		}

		log.Info("stream complete",
			zap.Int("chunks", chunks),
			zap.Int("errors", errs),
			zap.Duration("duration", time.Since(startTime)),
		)
	}))

	return nil
}

// buildRequest applies a gateway request on top of a profile.
func buildRequest(profile config.Profile, in *StreamRequest, logger *zap.Logger) (*completions.Request, error) {
	var opts []completions.Option
	if in.MaxTokens != nil {
		opts = append(opts, completions.WithMaxTokens(*in.MaxTokens))
	}
	if in.Temperature != nil {
		opts = append(opts, completions.WithTemperature(*in.Temperature))
	}
	if in.Schema != nil {
		opts = append(opts, completions.WithSchema(in.Schema))
	}
	if len(in.Tools) > 0 {
		opts = append(opts, completions.WithTools(in.Tools...))
	}

	req, err := profile.Request(logger, opts...)
	if err != nil {
		return nil, err
	}

	for i, msg := range in.Messages {
		if !msg.Role.IsSystem() && !msg.Role.IsUser() && !msg.Role.IsAssistant() {
			return nil, fmt.Errorf("message %d: unknown role %q", i, msg.Role)
		}
		for _, part := range msg.Content {
			if part.Kind != llm.ContentImage {
				continue
			}
			if _, err := llm.ImageURL(part.ImageURL, part.Detail); err != nil {
				return nil, fmt.Errorf("message %d: %w", i, err)
			}
		}
		req.AddMessage(msg.Role, msg.Content...)
	}
	return req, nil
}

// sendError maps a failed send onto a gateway status.
func (p *Proxy) sendError(c *fiber.Ctx, log *zap.Logger, err error) error {
	if errors.Is(err, llm.ErrIncorrectContext) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	}

	if apiErr, ok := llm.AsAPIError(err); ok {
		log.Error("provider returned error", zap.Int("status", apiErr.StatusCode), zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: apiErr.Error()})
	}

	log.Error("upstream request failed", zap.Error(err))
	return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "upstream request failed"})
}

// handleEmbeddings forwards an embeddings request to the profile's provider.
func (p *Proxy) handleEmbeddings(c *fiber.Ctx) error {
	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))
	c.Set("X-Request-Id", requestID)

	var in EmbeddingsRequest
	if err := json.Unmarshal(c.Body(), &in); err != nil || len(in.Input) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	profile, err := p.profiles.Load().Profile(in.Profile)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	}

	req, err := profile.Embeddings(log)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	req.AddInput(in.Input...)

	out, err := req.Send(c.UserContext())
	if err != nil {
		return p.sendError(c, log, err)
	}
	return c.JSON(out)
}

// handleProviders lists the protocol table and the configured profiles.
func (p *Proxy) handleProviders(c *fiber.Ctx) error {
	resp := ProvidersResponse{Profiles: p.profiles.Load().ProfileNames()}
	for _, k := range provider.All() {
		resp.Providers = append(resp.Providers, ProviderInfo{
			Name:            string(k),
			Family:          k.Family().String(),
			Host:            k.Host(),
			CompletionsPath: k.CompletionsPath(),
			EmbeddingsPath:  k.EmbeddingsPath(),
		})
	}
	return c.JSON(resp)
}
