package llm

import (
	"strings"

	"github.com/papercomputeco/lmstream/pkg/tokens"
)

// Role is the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsSystem returns true for the system prompt role.
func (r Role) IsSystem() bool { return r == RoleSystem }

// IsUser returns true for the user role.
func (r Role) IsUser() bool { return r == RoleUser }

// IsAssistant returns true for the assistant role.
func (r Role) IsAssistant() bool { return r == RoleAssistant }

// Message represents a single message in a conversation.
type Message struct {
	Role    Role      `json:"role"`    // "system", "user", "assistant"
	Content []Content `json:"content"` // Ordered content parts

	// Tokens is the cost of the message, computed once when the message is created.
	// It is bookkeeping only and never sent to a provider.
	Tokens int `json:"-"`
}

// NewMessage creates a message and caches its token cost using counter.
// Text parts are measured with counter, image parts use the fixed detail lookup.
func NewMessage(role Role, counter tokens.Counter, content ...Content) Message {
	total := 0
	for _, c := range content {
		switch c.Kind {
		case ContentText:
			total += counter.Count(c.Text)
		case ContentImage:
			total += ImageTokens(c.Detail)
		}
	}

	return Message{
		Role:    role,
		Content: content,
		Tokens:  total,
	}
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, c := range m.Content {
		if c.Kind == ContentText {
			b.WriteString(c.Text)
		}
	}
	return b.String()
}
