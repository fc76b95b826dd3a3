package decode_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lmstream/pkg/decode"
	"github.com/papercomputeco/lmstream/pkg/llm"
	"github.com/papercomputeco/lmstream/pkg/provider"
)

var _ = Describe("Delta decoder", func() {
	var d decode.Decoder

	BeforeEach(func() {
		d = decode.New(provider.FamilyDelta, nil)
	})

	It("decodes text deltas", func() {
		chunks, errs := d.Decode([]byte(`{"choices":[{"delta":{"content":"Hello"}}]}`))

		Expect(errs).To(BeEmpty())
		Expect(chunks).To(Equal([]llm.Chunk{llm.TextChunk("Hello")}))
	})

	It("ignores empty content and role-only deltas", func() {
		chunks, errs := d.Decode([]byte(`{"choices":[{"delta":{"role":"assistant","content":""}}]}`))

		Expect(errs).To(BeEmpty())
		Expect(chunks).To(BeEmpty())
	})

	It("assembles a tool call fragmented over three payloads", func() {
		payloads := []string{
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"get_weather","arguments":""}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"city\":"}}]}}]}`,
			`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"Paris\"}"}}]}}]}`,
		}

		var chunks []llm.Chunk
		for i, p := range payloads {
			out, errs := d.Decode([]byte(p))
			Expect(errs).To(BeEmpty())
			if i < 2 {
				Expect(out).To(BeEmpty())
			}
			chunks = append(chunks, out...)
		}

		Expect(chunks).To(Equal([]llm.Chunk{llm.ToolCallChunk("get_weather", `{"city":"Paris"}`)}))
		Expect(d.Flush()).To(BeEmpty())
	})

	It("emits a completed tool call before the text of the same payload", func() {
		chunks, _ := d.Decode([]byte(`{"choices":[{"delta":{"content":"ok","tool_calls":[{"index":0,"function":{"name":"noop","arguments":"{}"}}]}}]}`))

		Expect(chunks).To(Equal([]llm.Chunk{
			llm.ToolCallChunk("noop", "{}"),
			llm.TextChunk("ok"),
		}))
	})

	It("skips malformed payloads without failing the stream", func() {
		chunks, errs := d.Decode([]byte(`{"choices":[`))
		Expect(chunks).To(BeEmpty())
		Expect(errs).To(BeEmpty())

		chunks, _ = d.Decode([]byte(`{"choices":[{"delta":{"content":"after"}}]}`))
		Expect(chunks).To(Equal([]llm.Chunk{llm.TextChunk("after")}))
	})

	It("reports string error envelopes", func() {
		_, errs := d.Decode([]byte(`{"error":"rate limited"}`))

		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(MatchError("provider error: rate limited"))
	})

	It("reports object error envelopes", func() {
		_, errs := d.Decode([]byte(`{"error":{"message":"context too long","type":"invalid_request_error"}}`))

		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(MatchError("provider error: context too long"))
	})

	It("reports incomplete tool calls on flush", func() {
		_, _ = d.Decode([]byte(`{"choices":[{"delta":{"tool_calls":[{"index":0,"function":{"name":"search","arguments":"{\"q\""}}]}}]}`))

		errs := d.Flush()
		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(MatchError(ContainSubstring(`"search"`)))
	})
})

var _ = Describe("Event decoder", func() {
	var d decode.Decoder

	BeforeEach(func() {
		d = decode.New(provider.FamilyEvent, nil)
	})

	It("decodes text deltas", func() {
		chunks, errs := d.Decode([]byte(`{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hi"}}`))

		Expect(errs).To(BeEmpty())
		Expect(chunks).To(Equal([]llm.Chunk{llm.TextChunk("Hi")}))
	})

	It("ignores lifecycle events", func() {
		for _, p := range []string{
			`{"type":"message_start","message":{"id":"msg_1"}}`,
			`{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`,
			`{"type":"content_block_stop","index":0}`,
			`{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`,
			`{"type":"message_stop"}`,
			`{"type":"ping"}`,
		} {
			chunks, errs := d.Decode([]byte(p))
			Expect(chunks).To(BeEmpty(), p)
			Expect(errs).To(BeEmpty(), p)
		}
	})

	It("assembles tool use blocks from partial JSON", func() {
		_, _ = d.Decode([]byte(`{"type":"content_block_start","index":1,"content_block":{"type":"tool_use","id":"toolu_1","name":"get_weather","input":{}}}`))

		chunks, _ := d.Decode([]byte(`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{\"city\": \"Pa"}}`))
		Expect(chunks).To(BeEmpty())

		chunks, _ = d.Decode([]byte(`{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"ris\"}"}}`))
		Expect(chunks).To(Equal([]llm.Chunk{llm.ToolCallChunk("get_weather", `{"city": "Paris"}`)}))
	})

	It("reports error events", func() {
		_, errs := d.Decode([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))

		Expect(errs).To(HaveLen(1))
		Expect(errs[0]).To(MatchError("provider error: Overloaded"))
	})

	It("reports tool use blocks without arguments on flush", func() {
		_, _ = d.Decode([]byte(`{"type":"content_block_start","index":0,"content_block":{"type":"tool_use","name":"noop"}}`))

		errs := d.Flush()
		Expect(errs).To(HaveLen(1))
		Expect(errs[0].(*llm.IncompleteToolCallError).Name).To(Equal("noop"))
	})
})
