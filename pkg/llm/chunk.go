package llm

// ChunkKind tags a normalized stream Chunk.
type ChunkKind string

const (
	ChunkText     ChunkKind = "text"
	ChunkToolCall ChunkKind = "tool_call"
)

// Chunk is a single provider-agnostic item of a streamed completion.
//
// Text chunks carry incremental text which concatenates into the full reply.
// ToolCall chunks are emitted once per invocation and always carry complete,
// parseable JSON arguments.
type Chunk struct {
	Kind ChunkKind `json:"type"`

	Text string `json:"text,omitempty"`

	// Tool call fields
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// TextChunk creates a text chunk.
func TextChunk(text string) Chunk {
	return Chunk{Kind: ChunkText, Text: text}
}

// ToolCallChunk creates a tool call chunk.
func ToolCallChunk(name, arguments string) Chunk {
	return Chunk{Kind: ChunkToolCall, Name: name, Arguments: arguments}
}

// IsText returns true for text chunks.
func (c Chunk) IsText() bool { return c.Kind == ChunkText }

// IsToolCall returns true for tool call chunks.
func (c Chunk) IsToolCall() bool { return c.Kind == ChunkToolCall }

// ToolCall is a complete tool invocation collected from a stream.
type ToolCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}
