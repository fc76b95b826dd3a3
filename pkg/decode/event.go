package decode

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/llm"
)

const (
	eventBlockStart = "content_block_start"
	eventBlockDelta = "content_block_delta"

	blockToolUse = "tool_use"
)

// typedEvent is one Anthropic style stream payload.
type typedEvent struct {
	Type  string `json:"type"`
	Index int    `json:"index"`

	Delta *struct {
		Type        string  `json:"type"`
		Text        *string `json:"text"`
		PartialJSON *string `json:"partial_json"`
	} `json:"delta"`

	ContentBlock *struct {
		Type string `json:"type"`
		Name string `json:"name"`
	} `json:"content_block"`
}

// Event decodes the typed event wire family.
type Event struct {
	tools  *Assembler
	logger *zap.Logger
}

// NewEvent returns a decoder for the typed event wire family.
func NewEvent(logger *zap.Logger) *Event {
	return &Event{tools: NewAssembler(), logger: logger}
}

func (d *Event) Decode(payload []byte) ([]llm.Chunk, []error) {
	var errs []error
	if msg, ok := llm.ErrorMessage(payload); ok {
		errs = append(errs, &llm.ProviderError{Message: msg})
	}

	var ev typedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		d.logger.Debug("skipping undecodable payload",
			zap.Error(err),
			zap.String("payload", truncate(string(payload), 100)),
		)
		return nil, errs
	}

	var text string
	switch ev.Type {
	case eventBlockStart:
		if ev.ContentBlock != nil && ev.ContentBlock.Type == blockToolUse && ev.ContentBlock.Name != "" {
			d.tools.SetName(ev.Index, ev.ContentBlock.Name)
		}
	case eventBlockDelta:
		if ev.Delta == nil {
			break
		}
		if ev.Delta.Text != nil {
			text = *ev.Delta.Text
		}
		if ev.Delta.PartialJSON != nil {
			d.tools.AppendArguments(ev.Index, *ev.Delta.PartialJSON)
		}
	}

	return finish(d.tools, text), errs
}

func (d *Event) Flush() []error {
	return d.tools.Flush()
}
