package decode

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/papercomputeco/lmstream/pkg/llm"
)

type toolEntry struct {
	name string
	args strings.Builder
}

// Assembler accumulates tool call fragments keyed by the provider's index.
//
// Entries are created by the first fragment referencing an index and removed
// as soon as their arguments parse as JSON. Empty arguments never complete:
// a provider must send at least "{}".
type Assembler struct {
	entries map[int]*toolEntry
}

// NewAssembler returns an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{entries: make(map[int]*toolEntry)}
}

func (a *Assembler) entry(index int) *toolEntry {
	e, ok := a.entries[index]
	if !ok {
		e = &toolEntry{}
		a.entries[index] = e
	}
	return e
}

// SetName records the tool name for index, replacing any earlier one.
func (a *Assembler) SetName(index int, name string) {
	a.entry(index).name = name
}

// AppendArguments appends an argument fragment for index.
func (a *Assembler) AppendArguments(index int, fragment string) {
	a.entry(index).args.WriteString(fragment)
}

// Len returns the number of buffered, incomplete tool calls.
func (a *Assembler) Len() int {
	return len(a.entries)
}

// Drain removes every entry whose arguments are valid JSON and returns them as
// tool call chunks in ascending index order.
func (a *Assembler) Drain() []llm.Chunk {
	var done []int
	for idx, e := range a.entries {
		if json.Valid([]byte(e.args.String())) {
			done = append(done, idx)
		}
	}
	if len(done) == 0 {
		return nil
	}
	sort.Ints(done)

	chunks := make([]llm.Chunk, 0, len(done))
	for _, idx := range done {
		e := a.entries[idx]
		chunks = append(chunks, llm.ToolCallChunk(e.name, e.args.String()))
		delete(a.entries, idx)
	}
	return chunks
}

// Flush removes every remaining entry and reports each as an
// *llm.IncompleteToolCallError, in ascending index order.
func (a *Assembler) Flush() []error {
	if len(a.entries) == 0 {
		return nil
	}

	idxs := make([]int, 0, len(a.entries))
	for idx := range a.entries {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	errs := make([]error, 0, len(idxs))
	for _, idx := range idxs {
		e := a.entries[idx]
		errs = append(errs, &llm.IncompleteToolCallError{
			Index:     idx,
			Name:      e.name,
			Arguments: e.args.String(),
		})
		delete(a.entries, idx)
	}
	return errs
}
