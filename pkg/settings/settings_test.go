package settings_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatcbt/pkg/llm"
	"github.com/papercomputeco/chatcbt/pkg/prompts"
	"github.com/papercomputeco/chatcbt/pkg/settings"
)

var _ = Describe("Settings", func() {
	var (
		path  string
		store *settings.Store
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "chatcbt", "settings.toml")
		store = settings.NewStore(path, zap.NewNop())
	})

	writeFile := func(content string) {
		Expect(os.MkdirAll(filepath.Dir(path), 0o700)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	}

	It("returns defaults when the file does not exist", func() {
		s, err := store.Load()
		Expect(err).NotTo(HaveOccurred())

		Expect(s).To(Equal(settings.Defaults()))
		Expect(s.Prompt).To(Equal(prompts.DefaultSystem))
		Expect(s.AssistantName).To(Equal("ChatCBT"))

		_, err = os.Stat(path)
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("round-trips through Save and Load", func() {
		s := settings.Defaults()
		s.OpenRouterModel = "anthropic/claude-3.5-sonnet"
		s.Language = "Spanish"
		s.CustomPrompts = []settings.CustomPrompt{{ID: "1", Name: "Gratitude", Prompt: "List three good things."}}
		Expect(store.Save(s)).To(Succeed())

		loaded, err := store.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(s))
	})

	It("keeps defaults for keys missing from the file", func() {
		writeFile(`language = "German"`)

		s, err := store.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Language).To(Equal("German"))
		Expect(s.Prompt).To(Equal(prompts.DefaultSystem))
		Expect(s.Mode).To(Equal(llm.ModeOpenRouter))
	})

	It("falls back to the default assistant name when blank", func() {
		writeFile(`assistant_name = "   "`)

		s, err := store.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(s.AssistantName).To(Equal("ChatCBT"))
	})

	It("reports a malformed file", func() {
		writeFile(`language = `)

		_, err := store.Load()
		Expect(err).To(MatchError(ContainSubstring("could not parse settings")))
	})

	Describe("migration", func() {
		It("forces the mode to openrouter and saves", func() {
			writeFile(`mode = "openai"`)

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Mode).To(Equal(llm.ModeOpenRouter))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring(`mode = "openrouter"`))
		})

		It("adopts a legacy OpenAI key before a DeepSeek key", func() {
			writeFile("openai_api_key = \"sk-openai\"\ndeepseek_api_key = \"sk-deepseek\"")

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.OpenRouterAPIKey).To(Equal("sk-openai"))
		})

		It("adopts a legacy DeepSeek key", func() {
			writeFile(`deepseek_api_key = "sk-deepseek"`)

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.OpenRouterAPIKey).To(Equal("sk-deepseek"))
		})

		It("does not overwrite an existing OpenRouter key", func() {
			writeFile("openrouter_api_key = \"sk-or\"\nopenai_api_key = \"sk-openai\"")

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.OpenRouterAPIKey).To(Equal("sk-or"))
		})

		It("prefixes a legacy OpenAI model", func() {
			writeFile(`openai_model = "gpt-4o"`)

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.OpenRouterModel).To(Equal("openai/gpt-4o"))
		})

		It("keeps a legacy model that already names its vendor", func() {
			writeFile(`openai_model = "mistral/large"`)

			s, err := store.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(s.OpenRouterModel).To(Equal("mistral/large"))
		})
	})

	Describe("FindCustomPrompt", func() {
		It("matches by id, then by name ignoring case", func() {
			s := settings.Defaults()
			s.CustomPrompts = []settings.CustomPrompt{
				{ID: "a1", Name: "Gratitude", Prompt: "List three good things."},
				{ID: "b2", Name: "Reframe", Prompt: "Help me reframe."},
			}

			p, ok := s.FindCustomPrompt("b2")
			Expect(ok).To(BeTrue())
			Expect(p.Name).To(Equal("Reframe"))

			p, ok = s.FindCustomPrompt("gratitude")
			Expect(ok).To(BeTrue())
			Expect(p.ID).To(Equal("a1"))

			_, ok = s.FindCustomPrompt("missing")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("ApplyEnv", func() {
		It("overrides the key, model and endpoint", func() {
			GinkgoT().Setenv(settings.EnvAPIKey, "sk-env")
			GinkgoT().Setenv(settings.EnvModel, "meta/llama")
			GinkgoT().Setenv(settings.EnvEndpoint, "http://localhost:9999/v1/chat/completions")

			s := settings.Defaults()
			s.ApplyEnv()
			Expect(s.OpenRouterAPIKey).To(Equal("sk-env"))
			Expect(s.OpenRouterModel).To(Equal("meta/llama"))
			Expect(s.Endpoint).To(Equal("http://localhost:9999/v1/chat/completions"))
		})
	})
})
