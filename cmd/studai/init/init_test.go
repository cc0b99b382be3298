package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/studai/cmd/studai/init"
	"github.com/papercomputeco/studai/pkg/config"
)

var _ = Describe("init", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
	)

	run := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		out = &bytes.Buffer{}
		cmd.SetOut(out)
		cmd.SetErr(out)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "studai-init-test-*")
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tmpDir)
	})

	It("creates the local .studai directory", func() {
		Expect(run()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".studai"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())
		Expect(out.String()).To(ContainSubstring("Initialized"))
	})

	It("is a no-op when already initialized", func() {
		Expect(run()).To(Succeed())
		Expect(run()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))
	})

	It("writes a preset config", func() {
		Expect(run("--preset", "ollama")).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".studai", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Embedding.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		Expect(cfg.Chat.Provider).To(Equal("ollama"))
	})

	It("refuses to overwrite a config without --force", func() {
		Expect(run("--preset", "openai")).To(Succeed())
		Expect(run("--preset", "ollama")).To(MatchError(ContainSubstring("--force")))
		Expect(run("--preset", "ollama", "--force")).To(Succeed())
	})

	It("rejects unknown presets", func() {
		Expect(run("--preset", "mainframe")).To(MatchError(ContainSubstring("unknown preset")))
	})
})
