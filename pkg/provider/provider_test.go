package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lmstream/pkg/provider"
)

var _ = Describe("Kind", func() {
	DescribeTable("protocol table",
		func(k provider.Kind, family provider.Family, completions string) {
			Expect(k.Family()).To(Equal(family))
			Expect(k.CompletionsURL(nil)).To(Equal(completions))
		},
		Entry("openai", provider.OpenAI, provider.FamilyDelta, "https://api.openai.com/v1/chat/completions"),
		Entry("chatgpt", provider.ChatGPT, provider.FamilyDelta, "https://api.openai.com/v1/chat/completions"),
		Entry("anthropic", provider.Anthropic, provider.FamilyEvent, "https://api.anthropic.com/v1/messages"),
		Entry("claude", provider.Claude, provider.FamilyEvent, "https://api.anthropic.com/v1/messages"),
		Entry("lmstudio", provider.LMStudio, provider.FamilyDelta, "http://localhost:1234/v1/chat/completions"),
		Entry("cerebras", provider.Cerebras, provider.FamilyDelta, "https://api.cerebras.ai/v1/chat/completions"),
		Entry("openrouter", provider.OpenRouter, provider.FamilyDelta, "https://openrouter.ai/api/v1/chat/completions"),
		Entry("perplexity", provider.Perplexity, provider.FamilyDelta, "https://api.perplexity.ai/v1/chat/completions"),
	)

	It("builds embeddings urls", func() {
		Expect(provider.Voyage.EmbeddingsURL(nil)).To(Equal("https://api.voyageai.com/v1/embeddings"))
		Expect(provider.OpenAI.EmbeddingsURL(nil)).To(Equal("https://api.openai.com/v1/embeddings"))
	})

	It("replaces the host with a custom server", func() {
		Expect(provider.Anthropic.CompletionsURL(&provider.Server{Addr: "10.0.0.2:8443", HTTPS: true})).
			To(Equal("https://10.0.0.2:8443/v1/messages"))
		Expect(provider.OpenAI.CompletionsURL(&provider.Server{Addr: "127.0.0.1:1234/"})).
			To(Equal("http://127.0.0.1:1234/v1/chat/completions"))
	})

	It("parses identifiers case-insensitively", func() {
		k, err := provider.Parse(" OpenRouter ")
		Expect(err).NotTo(HaveOccurred())
		Expect(k).To(Equal(provider.OpenRouter))

		_, err = provider.Parse("ollama")
		Expect(err).To(MatchError(`unknown provider "ollama"`))
	})

	It("lists every provider", func() {
		Expect(provider.All()).To(HaveLen(9))
		Expect(provider.All()).To(ContainElements(provider.Voyage, provider.Claude))
	})

	It("names families", func() {
		Expect(provider.FamilyDelta.String()).To(Equal("delta"))
		Expect(provider.FamilyEvent.String()).To(Equal("event"))
	})
})
