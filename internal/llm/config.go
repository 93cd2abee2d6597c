package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

type Config struct {
	Provider string

	Anthropic ProviderConfig
	OpenAI    ProviderConfig
	Gemini    ProviderConfig
	Retry     RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

// ProviderConfig carries the credentials and model for one provider.
// BaseURL is honored by the OpenAI and Anthropic clients.
type ProviderConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

func DefaultConfig() Config {
	return Config{
		Provider:  ProviderOpenAI,
		Anthropic: ProviderConfig{Model: "claude-haiku"},
		OpenAI:    ProviderConfig{Model: "gpt-4o-mini"},
		Gemini:    ProviderConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 45 * time.Second,
	}
}

// ConfigFromEnv reads TUTORAI_LLM_* and the standard provider key
// variables. When TUTORAI_LLM_PROVIDER is unset the first provider with a
// key wins, in the order OpenAI, Anthropic, Gemini. ok is false when no
// provider could be selected.
func ConfigFromEnv() (cfg Config, ok bool) {
	cfg = DefaultConfig()

	cfg.OpenAI.APIKey = firstEnv("TUTORAI_OPENAI_API_KEY", "OPENAI_API_KEY")
	cfg.Anthropic.APIKey = firstEnv("TUTORAI_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY")
	cfg.Gemini.APIKey = firstEnv("TUTORAI_GEMINI_API_KEY", "GEMINI_API_KEY")

	setIf(&cfg.OpenAI.Model, "TUTORAI_OPENAI_MODEL")
	setIf(&cfg.OpenAI.BaseURL, "TUTORAI_OPENAI_BASE_URL")
	setIf(&cfg.Anthropic.Model, "TUTORAI_ANTHROPIC_MODEL")
	setIf(&cfg.Gemini.Model, "TUTORAI_GEMINI_MODEL")

	if p := os.Getenv("TUTORAI_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
		return cfg, true
	}

	switch {
	case cfg.OpenAI.APIKey != "":
		cfg.Provider = ProviderOpenAI
	case cfg.Anthropic.APIKey != "":
		cfg.Provider = ProviderAnthropic
	case cfg.Gemini.APIKey != "":
		cfg.Provider = ProviderGemini
	default:
		return cfg, false
	}
	return cfg, true
}

// Validate checks that the selected provider has a key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown model provider %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s provider selected but no API key is set", c.Provider)
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

func setIf(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
