package completions

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/lmstream/pkg/image"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

// Delta (OpenAI style) wire body.

type deltaBody struct {
	Model          string          `json:"model"`
	Messages       []deltaMessage  `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	Stream         bool            `json:"stream"`
	Tools          []deltaTool     `json:"tools,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type deltaMessage struct {
	Role    llm.Role    `json:"role"`
	Content []deltaPart `json:"content"`
}

type deltaPart struct {
	Type     string         `json:"type"`
	Text     *string        `json:"text,omitempty"`
	ImageURL *deltaImageURL `json:"image_url,omitempty"`
}

type deltaImageURL struct {
	URL    string     `json:"url"`
	Detail llm.Detail `json:"detail,omitempty"`
}

type deltaTool struct {
	Type     string   `json:"type"`
	Function llm.Tool `json:"function"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string      `json:"name"`
	Schema *llm.Schema `json:"schema"`
	Strict bool        `json:"strict"`
}

// Event (Anthropic style) wire body.

type eventBody struct {
	Model        string         `json:"model"`
	System       string         `json:"system,omitempty"`
	Messages     []eventMessage `json:"messages"`
	MaxTokens    int            `json:"max_tokens"`
	Temperature  float64        `json:"temperature"`
	Stream       bool           `json:"stream"`
	Tools        []eventTool    `json:"tools,omitempty"`
	OutputConfig *outputConfig  `json:"output_config,omitempty"`
}

type eventMessage struct {
	Role    llm.Role    `json:"role"`
	Content []eventPart `json:"content"`
}

type eventPart struct {
	Type   string       `json:"type"`
	Text   *string      `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type eventTool struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema *llm.Schema `json:"input_schema"`
}

type outputConfig struct {
	Format outputFormat `json:"format"`
}

type outputFormat struct {
	Type   string      `json:"type"`
	Schema *llm.Schema `json:"schema"`
}

// compose serializes the request body for the provider's wire family.
// Token bookkeeping never reaches the wire.
func (r *Request) compose() ([]byte, error) {
	var body any
	var err error
	if r.Provider.Family() == provider.FamilyEvent {
		body, err = r.composeEvent()
	} else {
		body, err = r.composeDelta()
	}
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request: %w", err)
	}
	return data, nil
}

func (r *Request) composeDelta() (*deltaBody, error) {
	body := &deltaBody{
		Model:       r.Model,
		Messages:    make([]deltaMessage, 0, len(r.Messages)),
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		Stream:      true,
	}
	if body.MaxTokens < 0 {
		body.MaxTokens = 0
	}

	for _, msg := range r.Messages {
		parts := make([]deltaPart, 0, len(msg.Content))
		for _, c := range msg.Content {
			switch c.Kind {
			case llm.ContentText:
				text := c.Text
				parts = append(parts, deltaPart{Type: "text", Text: &text})
			case llm.ContentImage:
				parts = append(parts, deltaPart{
					Type:     "image_url",
					ImageURL: &deltaImageURL{URL: c.ImageURL, Detail: c.Detail},
				})
			}
		}
		body.Messages = append(body.Messages, deltaMessage{Role: msg.Role, Content: parts})
	}

	for _, tool := range r.Tools {
		body.Tools = append(body.Tools, deltaTool{Type: "function", Function: tool})
	}

	if r.Schema != nil {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   "response",
				Schema: r.Schema,
				Strict: true,
			},
		}
	}

	return body, nil
}

func (r *Request) composeEvent() (*eventBody, error) {
	body := &eventBody{
		Model:       r.Model,
		Messages:    make([]eventMessage, 0, len(r.Messages)),
		MaxTokens:   r.budget(),
		Temperature: r.Temperature,
		Stream:      true,
	}

	var system []string
	for _, msg := range r.Messages {
		// The event family takes the system prompt out of band.
		if msg.Role.IsSystem() {
			if text := msg.Text(); text != "" {
				system = append(system, text)
			}
			continue
		}

		parts := make([]eventPart, 0, len(msg.Content))
		for _, c := range msg.Content {
			switch c.Kind {
			case llm.ContentText:
				text := c.Text
				parts = append(parts, eventPart{Type: "text", Text: &text})
			case llm.ContentImage:
				mediaType, data, err := image.Parse(c.ImageURL)
				if err != nil {
					return nil, fmt.Errorf("could not encode image: %w", err)
				}
				parts = append(parts, eventPart{
					Type:   "image",
					Source: &imageSource{Type: "base64", MediaType: mediaType, Data: data},
				})
			}
		}
		body.Messages = append(body.Messages, eventMessage{Role: msg.Role, Content: parts})
	}
	body.System = strings.Join(system, "\n\n")

	for _, tool := range r.Tools {
		body.Tools = append(body.Tools, eventTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}

	if r.Schema != nil {
		body.OutputConfig = &outputConfig{
			Format: outputFormat{Type: "json_schema", Schema: r.Schema},
		}
	}

	return body, nil
}

// headers returns the request headers for the provider's wire family.
func (r *Request) headers() http.Header {
	h := make(http.Header)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "text/event-stream")

	if r.Provider.Family() == provider.FamilyEvent {
		h.Set("x-api-key", r.APIKey)
		version := r.APIVersion
		if version == "" {
			version = DefaultAPIVersion
		}
		h.Set("anthropic-version", version)
		return h
	}

	if r.APIKey != "" {
		h.Set("Authorization", "Bearer "+r.APIKey)
	}
	return h
}
