package embedcmder

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Embed Command", func() {
	var (
		server *httptest.Server
		out    *bytes.Buffer
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = io.WriteString(w, `{"object":"list","data":[{"object":"embedding","index":0,"embedding":[1,2,3]},{"object":"embedding","index":1,"embedding":[4,5,6]}],"model":"embed-test","usage":{"total_tokens":4}}`)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	run := func(args ...string) error {
		cmd := NewEmbedCmd()
		base := []string{"--provider", "openai", "--model", "embed-test", "--server", strings.TrimPrefix(server.URL, "http://")}
		cmd.SetArgs(append(base, args...))
		cmd.SetOut(out)
		cmd.SetErr(io.Discard)
		return cmd.Execute()
	}

	It("prints the response as JSON", func() {
		Expect(run("one", "two")).To(Succeed())

		Expect(out.String()).To(ContainSubstring(`"model": "embed-test"`))
		Expect(out.String()).To(ContainSubstring(`"total_tokens": 4`))
	})

	It("summarizes the vectors", func() {
		Expect(run("--summary", "one", "two")).To(Succeed())

		Expect(out.String()).To(Equal("0\t3 dimensions\tone\n1\t3 dimensions\ttwo\nmodel embed-test, 4 tokens\n"))
	})

	It("fails when the counts differ", func() {
		Expect(run("only one")).To(MatchError(ContainSubstring("different number")))
	})

	It("requires an input", func() {
		Expect(run()).To(HaveOccurred())
	})
})
