// Package provider maps provider identifiers onto their endpoints and wire family.
package provider

import (
	"fmt"
	"strings"
)

// Kind identifies an LLM API provider.
type Kind string

const (
	// API standards
	OpenAI    Kind = "openai"
	Anthropic Kind = "anthropic"

	// Hosted services speaking one of the standards
	LMStudio   Kind = "lmstudio"
	Claude     Kind = "claude"
	Cerebras   Kind = "cerebras"
	OpenRouter Kind = "openrouter"
	ChatGPT    Kind = "chatgpt"
	Perplexity Kind = "perplexity"
	Voyage     Kind = "voyage"
)

// Family is the streaming wire protocol a provider speaks.
type Family int

const (
	// FamilyDelta is the OpenAI style "choices[].delta" stream.
	FamilyDelta Family = iota
	// FamilyEvent is the Anthropic style typed event stream.
	FamilyEvent
)

func (f Family) String() string {
	if f == FamilyEvent {
		return "event"
	}
	return "delta"
}

// All returns every known provider.
func All() []Kind {
	return []Kind{OpenAI, Anthropic, LMStudio, Claude, Cerebras, OpenRouter, ChatGPT, Perplexity, Voyage}
}

// Parse maps a case-insensitive identifier onto a Kind.
func Parse(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range All() {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// Host returns the default API host.
func (k Kind) Host() string {
	switch k {
	case Anthropic, Claude:
		return "https://api.anthropic.com"
	case LMStudio:
		return "http://localhost:1234"
	case Cerebras:
		return "https://api.cerebras.ai"
	case OpenRouter:
		return "https://openrouter.ai/api"
	case Perplexity:
		return "https://api.perplexity.ai"
	case Voyage:
		return "https://api.voyageai.com"
	default:
		return "https://api.openai.com"
	}
}

// Family returns the wire family of the provider's completions stream.
func (k Kind) Family() Family {
	switch k {
	case Anthropic, Claude:
		return FamilyEvent
	default:
		return FamilyDelta
	}
}

// CompletionsPath returns the chat completions path.
func (k Kind) CompletionsPath() string {
	if k.Family() == FamilyEvent {
		return "v1/messages"
	}
	return "v1/chat/completions"
}

// EmbeddingsPath returns the embeddings path.
func (k Kind) EmbeddingsPath() string {
	return "v1/embeddings"
}

// Server overrides the provider's default host.
type Server struct {
	// Addr is a host[:port] address, e.g. "127.0.0.1:1234".
	Addr  string
	HTTPS bool
}

func (s *Server) base() string {
	scheme := "http"
	if s.HTTPS {
		scheme = "https"
	}
	return scheme + "://" + strings.TrimRight(s.Addr, "/")
}

// CompletionsURL returns the completions endpoint, on server when it is set.
func (k Kind) CompletionsURL(server *Server) string {
	return k.url(server, k.CompletionsPath())
}

// EmbeddingsURL returns the embeddings endpoint, on server when it is set.
func (k Kind) EmbeddingsURL(server *Server) string {
	return k.url(server, k.EmbeddingsPath())
}

func (k Kind) url(server *Server, path string) string {
	host := k.Host()
	if server != nil {
		host = server.base()
	}
	return host + "/" + path
}
