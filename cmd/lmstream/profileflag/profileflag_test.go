package profileflag_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/lmstream/cmd/lmstream/profileflag"
)

var _ = Describe("Flags", func() {
	var (
		tmpDir string
		path   string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "lmstream-profileflag-test-*")
		Expect(err).NotTo(HaveOccurred())
		path = filepath.Join(tmpDir, "config.toml")
		Expect(os.WriteFile(path, []byte(`
[server]
default_profile = "main"

[profiles.main]
provider = "openai"
model = "gpt-4o"
api_key = "sk-file"

[profiles.local]
provider = "lmstudio"
model = "qwen3"
server = "127.0.0.1:1234"
`), 0o600)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("loads the default profile", func() {
		f := &profileflag.Flags{ConfigPath: path}

		p, err := f.Resolve()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Model).To(Equal("gpt-4o"))
		Expect(p.Key()).To(Equal("sk-file"))
	})

	It("overrides the profile with flags", func() {
		f := &profileflag.Flags{ConfigPath: path, Profile: "local", Model: "llama", Server: "10.0.0.5:1234", HTTPS: true}

		p, err := f.Resolve()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Provider).To(Equal("lmstudio"))
		Expect(p.Model).To(Equal("llama"))
		Expect(p.Server).To(Equal("10.0.0.5:1234"))
		Expect(p.HTTPS).To(BeTrue())
	})

	It("replaces the file key with an environment key", func() {
		os.Setenv("LMSTREAM_TEST_KEY", "sk-env")
		defer os.Unsetenv("LMSTREAM_TEST_KEY")

		f := &profileflag.Flags{ConfigPath: path, APIKeyEnv: "LMSTREAM_TEST_KEY"}

		p, err := f.Resolve()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Key()).To(Equal("sk-env"))
	})

	It("skips the config file with --provider", func() {
		f := &profileflag.Flags{ConfigPath: filepath.Join(tmpDir, "missing.toml"), Provider: "anthropic", Model: "claude"}

		p, err := f.Resolve()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Provider).To(Equal("anthropic"))
	})

	It("requires a model", func() {
		f := &profileflag.Flags{Provider: "openai"}

		_, err := f.Resolve()
		Expect(err).To(MatchError(ContainSubstring("--model")))
	})

	It("explains a missing config file", func() {
		f := &profileflag.Flags{ConfigPath: filepath.Join(tmpDir, "missing.toml")}

		_, err := f.Resolve()
		Expect(err).To(MatchError(ContainSubstring("pass --provider")))
	})

	It("fails for unknown profiles", func() {
		f := &profileflag.Flags{ConfigPath: path, Profile: "other"}

		_, err := f.Resolve()
		Expect(err).To(MatchError(ContainSubstring(`profile "other" not found`)))
	})
})
