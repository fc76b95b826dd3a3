package completions

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
	"github.com/papercomputeco/lmstream/pkg/tokens"
)

// byteCounter prices text at one token per byte.
var byteCounter = tokens.CounterFunc(func(text string) int { return len(text) })

func roles(msgs []llm.Message) []llm.Role {
	out := make([]llm.Role, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Role)
	}
	return out
}

func sumTokens(msgs []llm.Message) int {
	total := 0
	for _, m := range msgs {
		total += m.Tokens
	}
	return total
}

var _ = Describe("Token budget", func() {
	newRequest := func(kind provider.Kind, maxTokens int) *Request {
		return New(kind, "key", "model", WithTokenCounter(byteCounter), WithMaxTokens(maxTokens))
	}

	It("evicts the oldest non-system messages until the conversation fits", func() {
		r := newRequest(provider.OpenAI, 10)
		r.AddSystemMessage(llm.Text("ss"))
		r.AddUserMessage(llm.Text("aaaa"))
		r.AddAssistantMessage(llm.Text("bbbb"))
		r.AddUserMessage(llm.Text("cccc"))
		Expect(r.TokensCount).To(Equal(14))

		Expect(r.trim()).To(Succeed())

		Expect(roles(r.Messages)).To(Equal([]llm.Role{llm.RoleSystem, llm.RoleAssistant, llm.RoleUser}))
		Expect(r.TokensCount).To(Equal(10))
	})

	It("never evicts system messages", func() {
		r := newRequest(provider.OpenAI, 3)
		r.AddSystemMessage(llm.Text("ssss"))
		r.AddUserMessage(llm.Text("u"))

		Expect(r.trim()).To(Succeed())

		Expect(roles(r.Messages)).To(Equal([]llm.Role{llm.RoleSystem, llm.RoleUser}))
		Expect(r.TokensCount).To(Equal(5))
	})

	It("keeps the final message even when it alone exceeds the budget", func() {
		r := newRequest(provider.OpenAI, 2)
		r.AddUserMessage(llm.Text("old"))
		r.AddUserMessage(llm.Text("far too long"))

		Expect(r.trim()).To(Succeed())

		Expect(r.Messages).To(HaveLen(1))
		Expect(r.Messages[0].Text()).To(Equal("far too long"))
		Expect(r.TokensCount).To(Equal(len("far too long")))
	})

	It("leaves the conversation alone when the budget is disabled", func() {
		r := newRequest(provider.OpenAI, 0)
		for i := 0; i < 50; i++ {
			r.AddUserMessage(llm.Text("message"))
		}

		Expect(r.trim()).To(Succeed())
		Expect(r.Messages).To(HaveLen(50))
	})

	It("defaults the budget of the event family", func() {
		Expect(newRequest(provider.Anthropic, 0).budget()).To(Equal(defaultEventMaxTokens))
		Expect(newRequest(provider.Anthropic, 100).budget()).To(Equal(100))
		Expect(newRequest(provider.OpenAI, 0).budget()).To(BeZero())
	})

	It("prices images by detail", func() {
		r := newRequest(provider.OpenAI, 0)
		img := llm.Content{Kind: llm.ContentImage, ImageURL: "data:image/png;base64,AA==", Detail: llm.DetailHigh}
		r.AddUserMessage(llm.Text("abc"), img)

		Expect(r.TokensCount).To(Equal(3 + 170))
	})

	It("rejects a conversation ending on an assistant turn", func() {
		r := newRequest(provider.OpenAI, 0)
		r.AddUserMessage(llm.Text("hi"))
		r.AddAssistantMessage(llm.Text("hello"))

		Expect(r.trim()).To(MatchError(llm.ErrIncorrectContext))
	})

	It("rejects an empty conversation", func() {
		Expect(newRequest(provider.OpenAI, 10).trim()).To(MatchError(llm.ErrIncorrectContext))
	})

	It("rejects a conversation whose user turns were all evicted", func() {
		r := newRequest(provider.OpenAI, 5)
		r.AddUserMessage(llm.Text("question"))
		r.AddAssistantMessage(llm.Text("answer"))

		Expect(r.trim()).To(MatchError(llm.ErrIncorrectContext))
		Expect(roles(r.Messages)).To(Equal([]llm.Role{llm.RoleAssistant}))
	})

	It("keeps its bookkeeping consistent on random conversations", func() {
		rng := rand.New(rand.NewSource(42))
		allRoles := []llm.Role{llm.RoleSystem, llm.RoleUser, llm.RoleAssistant}

		for round := 0; round < 200; round++ {
			budget := 1 + rng.Intn(60)
			r := newRequest(provider.OpenAI, budget)

			n := 1 + rng.Intn(12)
			for i := 0; i < n; i++ {
				role := allRoles[rng.Intn(len(allRoles))]
				if i == n-1 {
					role = llm.RoleUser
				}
				text := make([]byte, 1+rng.Intn(15))
				for j := range text {
					text[j] = 'a'
				}
				r.AddMessage(role, llm.Text(string(text)))
			}
			systems := 0
			for _, m := range r.Messages {
				if m.Role.IsSystem() {
					systems++
				}
			}

			Expect(r.trim()).To(Succeed())
			Expect(r.TokensCount).To(Equal(sumTokens(r.Messages)))
			Expect(r.Messages[len(r.Messages)-1].Role).To(Equal(llm.RoleUser))

			kept := 0
			for _, m := range r.Messages {
				if m.Role.IsSystem() {
					kept++
				}
			}
			Expect(kept).To(Equal(systems))

			if r.TokensCount > budget {
				// Only system messages and the final message may remain.
				Expect(len(r.Messages)).To(Equal(systems + 1))
			}
		}
	})
})
