// Package tokens provides the token counters used to price conversation messages.
package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// DefaultEncoding is the BPE encoding used by NewTiktoken when none is given.
const DefaultEncoding = "cl100k_base"

// Counter returns the number of tokens in a text.
type Counter interface {
	Count(text string) int
}

// CounterFunc adapts a plain function to a Counter.
type CounterFunc func(text string) int

func (f CounterFunc) Count(text string) int { return f(text) }

// Heuristic estimates tokens without a tokenizer: a blend of the word count
// and the GPT-style ~4 characters per token ratio.
var Heuristic Counter = CounterFunc(estimate)

func estimate(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	chars := len(text)
	n := (words + chars/4) / 2
	if n == 0 {
		n = 1
	}
	return n
}

var loaderOnce sync.Once

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktoken returns an exact BPE counter for encoding (e.g. "cl100k_base").
// Encodings are loaded from the embedded offline loader, never the network.
func NewTiktoken(encoding string) (Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("could not load encoding %s: %w", encoding, err)
	}
	return &tiktokenCounter{enc: enc}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, []string{"all"}, nil))
}
