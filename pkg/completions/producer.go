package completions

import (
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/lmstream/pkg/decode"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/sse"
)

// readSize is the size of a single read from the response body.
const readSize = 32 * 1024

// producer owns the response body, the frame buffer and the decoder state of
// one stream. None of it is visible to the consumer.
type producer struct {
	body     io.ReadCloser
	splitter sse.Splitter
	decoder  decode.Decoder
	policy   sse.DonePolicy
	out      chan<- item
	logger   *zap.Logger

	chunks int
}

func (p *producer) run() {
	defer close(p.out)
	defer p.body.Close()

	start := time.Now()
	buf := make([]byte, readSize)
	for {
		n, err := p.body.Read(buf)
		if n > 0 && p.feed(buf[:n]) {
			p.logger.Debug("stream done marker received",
				zap.Int("chunks", p.chunks),
				zap.Int("discarded_bytes", p.splitter.Pending()),
				zap.Duration("duration", time.Since(start)),
			)
			p.flush()
			return
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Debug("stream complete",
					zap.Int("chunks", p.chunks),
					zap.Duration("duration", time.Since(start)),
				)
				p.flush()
				return
			}

			p.logger.Error("error reading stream", zap.Error(err))
			p.out <- item{err: &llm.TransportError{Err: err}}
			return
		}
	}
}

// feed runs one raw fragment through the splitter and decoder. It returns true
// when the stream must stop.
func (p *producer) feed(fragment []byte) bool {
	for _, frame := range p.splitter.Feed(fragment) {
		if frame.Done {
			if p.policy == sse.StopOnDone {
				return true
			}
			continue
		}

		chunks, errs := p.decoder.Decode([]byte(frame.Data))
		for _, err := range errs {
			p.out <- item{err: err}
		}
		for _, c := range chunks {
			p.chunks++
			p.out <- item{chunk: c}
		}
	}
	return false
}

// flush reports tool calls left incomplete at the end of the stream.
func (p *producer) flush() {
	for _, err := range p.decoder.Flush() {
		p.logger.Warn("incomplete tool call at end of stream", zap.Error(err))
		p.out <- item{err: err}
	}
}
