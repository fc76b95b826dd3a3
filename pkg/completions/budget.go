package completions

import (
	"slices"

	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

// budget returns the effective token budget, 0 when disabled.
func (r *Request) budget() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	if r.Provider.Family() == provider.FamilyEvent {
		return defaultEventMaxTokens
	}
	return 0
}

// trim evicts the oldest non-system messages until the conversation fits the
// budget or only the final message is left. The budget is advisory: the final
// message is never evicted even when it alone exceeds it.
//
// The conversation must end on a user turn afterwards.
func (r *Request) trim() error {
	if budget := r.budget(); budget > 0 {
		idx := 0
		for r.TokensCount > budget && idx < len(r.Messages)-1 {
			msg := r.Messages[idx]
			if msg.Role.IsSystem() {
				idx++
				continue
			}

			r.TokensCount -= msg.Tokens
			r.Messages = slices.Delete(r.Messages, idx, idx+1)
		}
	}

	if len(r.Messages) == 0 || r.Messages[len(r.Messages)-1].Role.IsAssistant() {
		return llm.ErrIncorrectContext
	}
	return nil
}
