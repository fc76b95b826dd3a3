package decode

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/llm"
)

// deltaChunk is one OpenAI style stream payload.
type deltaChunk struct {
	Choices []struct {
		Delta struct {
			Content   *string `json:"content"`
			ToolCalls []struct {
				Index    int `json:"index"`
				Function struct {
					Name      *string `json:"name"`
					Arguments *string `json:"arguments"`
				} `json:"function"`
			} `json:"tool_calls"`
		} `json:"delta"`
	} `json:"choices"`
}

// Delta decodes the "choices[].delta" wire family.
type Delta struct {
	tools  *Assembler
	logger *zap.Logger
}

// NewDelta returns a decoder for the delta wire family.
func NewDelta(logger *zap.Logger) *Delta {
	return &Delta{tools: NewAssembler(), logger: logger}
}

func (d *Delta) Decode(payload []byte) ([]llm.Chunk, []error) {
	var errs []error
	// The delta family error is a plain string, though OpenAI compatible
	// servers commonly send {"message": ...} instead.
	if msg, ok := llm.ErrorMessage(payload); ok {
		errs = append(errs, &llm.ProviderError{Message: msg})
	}

	var chunk deltaChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		d.logger.Debug("skipping undecodable payload",
			zap.Error(err),
			zap.String("payload", truncate(string(payload), 100)),
		)
		return nil, errs
	}

	var text strings.Builder
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != nil {
			text.WriteString(*choice.Delta.Content)
		}

		for _, tc := range choice.Delta.ToolCalls {
			if tc.Function.Name != nil {
				d.tools.SetName(tc.Index, *tc.Function.Name)
			}
			if tc.Function.Arguments != nil {
				d.tools.AppendArguments(tc.Index, *tc.Function.Arguments)
			}
		}
	}

	return finish(d.tools, text.String()), errs
}

func (d *Delta) Flush() []error {
	return d.tools.Flush()
}
