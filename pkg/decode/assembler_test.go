package decode_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lmstream/pkg/decode"
	"github.com/papercomputeco/lmstream/pkg/llm"
)

var _ = Describe("Assembler", func() {
	var a *decode.Assembler

	BeforeEach(func() {
		a = decode.NewAssembler()
	})

	It("holds a tool call until its arguments parse", func() {
		a.SetName(0, "get_weather")
		a.AppendArguments(0, `{"city":`)

		Expect(a.Drain()).To(BeEmpty())
		Expect(a.Len()).To(Equal(1))

		a.AppendArguments(0, `"Paris"}`)
		Expect(a.Drain()).To(Equal([]llm.Chunk{llm.ToolCallChunk("get_weather", `{"city":"Paris"}`)}))
		Expect(a.Len()).To(BeZero())
	})

	It("never completes empty arguments", func() {
		a.SetName(0, "noop")

		Expect(a.Drain()).To(BeEmpty())
		Expect(a.Len()).To(Equal(1))
	})

	It("completes empty object arguments", func() {
		a.SetName(0, "noop")
		a.AppendArguments(0, "{}")

		Expect(a.Drain()).To(Equal([]llm.Chunk{llm.ToolCallChunk("noop", "{}")}))
	})

	It("drains completed calls in index order", func() {
		a.SetName(2, "second")
		a.AppendArguments(2, `{}`)
		a.SetName(1, "first")
		a.AppendArguments(1, `{"x":1}`)
		a.SetName(3, "pending")
		a.AppendArguments(3, `{"y":`)

		chunks := a.Drain()
		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0].Name).To(Equal("first"))
		Expect(chunks[1].Name).To(Equal("second"))
		Expect(a.Len()).To(Equal(1))
	})

	It("starts over after an index completes", func() {
		a.SetName(0, "one")
		a.AppendArguments(0, "{}")
		Expect(a.Drain()).To(HaveLen(1))

		a.AppendArguments(0, `{"again":true}`)
		chunks := a.Drain()
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].Name).To(BeEmpty())
	})

	It("reports leftovers on flush", func() {
		a.SetName(1, "b")
		a.AppendArguments(1, `{"half"`)
		a.SetName(0, "a")

		errs := a.Flush()
		Expect(errs).To(HaveLen(2))

		var first *llm.IncompleteToolCallError
		Expect(errs[0]).To(BeAssignableToTypeOf(first))
		Expect(errs[0].(*llm.IncompleteToolCallError).Name).To(Equal("a"))
		Expect(errs[1].(*llm.IncompleteToolCallError).Arguments).To(Equal(`{"half"`))
		Expect(a.Len()).To(BeZero())
		Expect(a.Flush()).To(BeEmpty())
	})
})
