package llm

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Default budget and token limits applied when the config omits them.
const (
	DefaultRunBudget       = 40
	DefaultMaxOutputTokens = 300
	DefaultCooldownSeconds = 300
)

// Config is the top-level provider fallback configuration.
type Config struct {
	RunBudget       int              `yaml:"run_budget"`
	MaxOutputTokens int              `yaml:"max_output_tokens"`
	CooldownSeconds int              `yaml:"cooldown_seconds"`
	Providers       []ProviderConfig `yaml:"providers"`
}

// ProviderConfig defines one provider and its models in fallback order.
// BaseURL and APIKeyEnv are only needed for OpenAI-compatible providers
// that are not built in (groq and openrouter have known endpoints).
type ProviderConfig struct {
	Name      string   `yaml:"name"`
	Models    []string `yaml:"models"`
	BaseURL   string   `yaml:"base_url,omitempty"`
	APIKeyEnv string   `yaml:"api_key_env,omitempty"`
}

// DefaultConfig returns the built-in provider lineup: Anthropic first for
// quality, then Groq and OpenRouter free tiers as fallbacks.
func DefaultConfig() Config {
	return Config{
		RunBudget:       DefaultRunBudget,
		MaxOutputTokens: DefaultMaxOutputTokens,
		CooldownSeconds: DefaultCooldownSeconds,
		Providers: []ProviderConfig{
			{Name: "anthropic", Models: []string{"claude-haiku-4-5-20251001"}},
			{Name: "groq", Models: []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}},
			{Name: "openrouter", Models: []string{"meta-llama/llama-3.3-70b-instruct:free"}},
		},
	}
}

// LoadConfig reads provider fallback config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "llm: read config %s", path)
	}

	// The YAML has a top-level "llm" key
	var wrapper struct {
		LLM Config `yaml:"llm"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "llm: parse config")
	}

	cfg := &wrapper.LLM
	if cfg.RunBudget == 0 {
		cfg.RunBudget = DefaultRunBudget
	}
	if cfg.MaxOutputTokens == 0 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.CooldownSeconds == 0 {
		cfg.CooldownSeconds = DefaultCooldownSeconds
	}
	if len(cfg.Providers) == 0 {
		cfg.Providers = DefaultConfig().Providers
	}

	return cfg, nil
}
