// Package completions sends streamed chat completion requests and republishes
// the provider's stream as normalized llm.Chunk values.
package completions

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
	"github.com/papercomputeco/lmstream/pkg/sse"
	"github.com/papercomputeco/lmstream/pkg/tokens"
)

const (
	// DefaultAPIVersion is sent as "anthropic-version" to event family providers.
	DefaultAPIVersion = "2023-06-01"

	// DefaultTemperature is the generation temperature of new requests.
	DefaultTemperature = 0.6

	// defaultEventMaxTokens is sent when the event family's required
	// max_tokens is not configured.
	defaultEventMaxTokens = 8096
)

// Request is a chat completions request and its conversation state.
//
// TokensCount always equals the sum of the cached Tokens of Messages; use the
// Add* methods rather than appending to Messages directly.
type Request struct {
	Provider   provider.Kind
	APIKey     string
	APIVersion string
	// Server overrides the provider's default host when set.
	Server *provider.Server

	Model       string
	Messages    []llm.Message
	TokensCount int
	// MaxTokens is the token budget of the conversation. Values <= 0 disable it.
	MaxTokens   int
	Temperature float64
	// Schema requests a structured output matching it.
	Schema *llm.Schema
	Tools  []llm.Tool

	// DonePolicy decides whether "[DONE]" ends the stream or is skipped.
	DonePolicy sse.DonePolicy

	httpClient *http.Client
	counter    tokens.Counter
	logger     *zap.Logger
}

// Option configures a Request.
type Option func(*Request)

// New creates a request for provider kind.
func New(kind provider.Kind, apiKey, model string, opts ...Option) *Request {
	r := &Request{
		Provider:    kind,
		APIKey:      apiKey,
		Model:       model,
		Temperature: DefaultTemperature,
		httpClient: &http.Client{
			// Streams can be slow, especially with long generations
			Timeout: 5 * time.Minute,
		},
		counter: tokens.Heuristic,
		logger:  zap.NewNop(),
	}
	if kind.Family() == provider.FamilyEvent {
		r.APIVersion = DefaultAPIVersion
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenAI creates an OpenAI API request.
func OpenAI(apiKey, model string, opts ...Option) *Request {
	return New(provider.OpenAI, apiKey, model, opts...)
}

// Anthropic creates an Anthropic API request.
func Anthropic(apiKey, model string, opts ...Option) *Request {
	return New(provider.Anthropic, apiKey, model, opts...)
}

// Claude creates a Claude request.
func Claude(apiKey, model string, opts ...Option) *Request {
	return New(provider.Claude, apiKey, model, opts...)
}

// ChatGPT creates a ChatGPT request.
func ChatGPT(apiKey, model string, opts ...Option) *Request {
	return New(provider.ChatGPT, apiKey, model, opts...)
}

// Cerebras creates a Cerebras request.
func Cerebras(apiKey, model string, opts ...Option) *Request {
	return New(provider.Cerebras, apiKey, model, opts...)
}

// OpenRouter creates an OpenRouter request.
func OpenRouter(apiKey, model string, opts ...Option) *Request {
	return New(provider.OpenRouter, apiKey, model, opts...)
}

// Perplexity creates a Perplexity request.
func Perplexity(apiKey, model string, opts ...Option) *Request {
	return New(provider.Perplexity, apiKey, model, opts...)
}

// LMStudio creates a request for a local LM Studio server on port.
func LMStudio(port int, model string, opts ...Option) *Request {
	opts = append([]Option{WithServer(fmt.Sprintf("127.0.0.1:%d", port), false)}, opts...)
	return New(provider.LMStudio, "", model, opts...)
}

// WithServer replaces the provider host, keeping its paths and wire family.
func WithServer(addr string, https bool) Option {
	return func(r *Request) {
		r.Server = &provider.Server{Addr: addr, HTTPS: https}
	}
}

// WithAPIVersion sets the "anthropic-version" header value.
func WithAPIVersion(version string) Option {
	return func(r *Request) { r.APIVersion = version }
}

// WithMaxTokens sets the conversation token budget.
func WithMaxTokens(n int) Option {
	return func(r *Request) { r.MaxTokens = n }
}

// WithTemperature sets the generation temperature.
func WithTemperature(t float64) Option {
	return func(r *Request) { r.Temperature = t }
}

// WithSchema requests a structured output.
func WithSchema(s *llm.Schema) Option {
	return func(r *Request) { r.Schema = s }
}

// WithTools adds tool definitions.
func WithTools(tools ...llm.Tool) Option {
	return func(r *Request) { r.Tools = append(r.Tools, tools...) }
}

// WithDonePolicy sets what a "[DONE]" payload does to the stream.
func WithDonePolicy(p sse.DonePolicy) Option {
	return func(r *Request) { r.DonePolicy = p }
}

// WithHTTPClient sets the transport used to send the request. Timeouts,
// proxies and TLS settings belong to this client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Request) {
		if c != nil {
			r.httpClient = c
		}
	}
}

// WithTokenCounter sets the counter used to price messages as they are added.
func WithTokenCounter(c tokens.Counter) Option {
	return func(r *Request) {
		if c != nil {
			r.counter = c
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

// AddMessage appends a message, pricing it once with the request's counter.
func (r *Request) AddMessage(role llm.Role, content ...llm.Content) {
	msg := llm.NewMessage(role, r.counter, content...)
	r.TokensCount += msg.Tokens
	r.Messages = append(r.Messages, msg)
}

// AddSystemMessage appends a system prompt message.
func (r *Request) AddSystemMessage(content ...llm.Content) {
	r.AddMessage(llm.RoleSystem, content...)
}

// AddUserMessage appends a user message.
func (r *Request) AddUserMessage(content ...llm.Content) {
	r.AddMessage(llm.RoleUser, content...)
}

// AddAssistantMessage appends an assistant message.
func (r *Request) AddAssistantMessage(content ...llm.Content) {
	r.AddMessage(llm.RoleAssistant, content...)
}

// AddTool appends a tool definition.
func (r *Request) AddTool(tool llm.Tool) {
	r.Tools = append(r.Tools, tool)
}
