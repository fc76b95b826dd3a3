// Package decode turns single SSE payloads of either wire family into
// normalized chunks, reassembling fragmented tool calls along the way.
package decode

import (
	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

// Decoder decodes the payloads of one stream, in arrival order.
// A Decoder holds per-stream tool call state and must not be shared between streams.
type Decoder interface {
	// Decode returns the chunks completed by payload and any provider reported
	// errors it carries. Malformed payloads yield nothing.
	Decode(payload []byte) ([]llm.Chunk, []error)

	// Flush reports the tool calls which never completed. Call it once, at stream end.
	Flush() []error
}

// New returns the decoder for a wire family.
func New(family provider.Family, logger *zap.Logger) Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}

	if family == provider.FamilyEvent {
		return NewEvent(logger)
	}
	return NewDelta(logger)
}

// finish drains completed tool calls, then appends the text chunk if any.
func finish(tools *Assembler, text string) []llm.Chunk {
	chunks := tools.Drain()
	if text != "" {
		chunks = append(chunks, llm.TextChunk(text))
	}
	return chunks
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
