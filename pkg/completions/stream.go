package completions

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/decode"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/sse"
)

// Stream is the consumer side of a streamed completion.
//
// Items arrive in wire order. Provider errors and incomplete tool calls are
// delivered between chunks and the stream continues; a transport failure is
// delivered once and the stream then ends.
type Stream struct {
	items  <-chan item
	detach chan struct{}
	once   sync.Once
}

// Open starts a producer reading body and returns its stream. The producer owns
// body and closes it when done. Send uses Open on the provider's response; it
// is exported to stream from any event-stream source.
func Open(body io.ReadCloser, decoder decode.Decoder, policy sse.DonePolicy, logger *zap.Logger) *Stream {
	if logger == nil {
		logger = zap.NewNop()
	}

	detach := make(chan struct{})
	in, out := pipe(detach)

	p := &producer{
		body:    body,
		decoder: decoder,
		policy:  policy,
		out:     in,
		logger:  logger,
	}
	go p.run()

	return &Stream{items: out, detach: detach}
}

// Next waits for the next chunk. It returns io.EOF once the producer has
// finished and every item has been read, a non-nil error for error items, and
// ctx.Err() if ctx ends first. A closed stream reads as io.EOF.
func (s *Stream) Next(ctx context.Context) (llm.Chunk, error) {
	select {
	case <-s.detach:
		return llm.Chunk{}, io.EOF
	default:
	}

	select {
	case it, ok := <-s.items:
		if !ok {
			return llm.Chunk{}, io.EOF
		}
		return it.chunk, it.err
	case <-ctx.Done():
		return llm.Chunk{}, ctx.Err()
	}
}

// Close detaches the consumer. Unread items are discarded; the producer still
// runs until its source ends.
func (s *Stream) Close() error {
	s.once.Do(func() { close(s.detach) })
	return nil
}

// Result is a fully read stream.
type Result struct {
	Text      string
	ToolCalls []llm.ToolCall

	// Errors holds the non-terminal error items, in order.
	Errors []error
}

// Collect reads s to the end. A transport failure or ctx ending is returned
// as the error alongside everything read until then.
func Collect(ctx context.Context, s *Stream) (*Result, error) {
	defer s.Close()

	var text strings.Builder
	res := &Result{}
	for {
		c, err := s.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				res.Text = text.String()
				return res, nil
			}

			var te *llm.TransportError
			if errors.As(err, &te) || ctx.Err() != nil {
				res.Text = text.String()
				return res, err
			}

			res.Errors = append(res.Errors, err)
			continue
		}

		switch c.Kind {
		case llm.ChunkText:
			text.WriteString(c.Text)
		case llm.ChunkToolCall:
			res.ToolCalls = append(res.ToolCalls, llm.ToolCall{Name: c.Name, Arguments: c.Arguments})
		}
	}
}
