package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Sources    SourcesConfig    `yaml:"sources" mapstructure:"sources"`
	Filter     FilterConfig     `yaml:"filter" mapstructure:"filter"`
	Thresholds ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
	Geo        GeoConfig        `yaml:"geo" mapstructure:"geo"`
	Crawl      CrawlConfig      `yaml:"crawl" mapstructure:"crawl"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl" mapstructure:"firecrawl"`
	Notify     NotifyConfig     `yaml:"notify" mapstructure:"notify"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver string     `yaml:"driver" mapstructure:"driver"`
	DSN    string     `yaml:"dsn" mapstructure:"dsn"`
	Pool   PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PoolConfig tunes the Postgres connection pool.
type PoolConfig struct {
	MaxConns int `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int `yaml:"min_conns" mapstructure:"min_conns"`
}

// SourcesConfig toggles and configures the lead sources.
type SourcesConfig struct {
	Greenhouse GreenhouseConfig `yaml:"greenhouse" mapstructure:"greenhouse"`
	Lever      LeverConfig      `yaml:"lever" mapstructure:"lever"`
	Feeds      FeedsConfig      `yaml:"feeds" mapstructure:"feeds"`
	FTP        FTPConfig        `yaml:"ftp" mapstructure:"ftp"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
}

// GreenhouseConfig lists the Greenhouse boards to poll.
type GreenhouseConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Boards  []BoardConfig `yaml:"boards" mapstructure:"boards"`
}

// BoardConfig identifies one Greenhouse board.
type BoardConfig struct {
	Company string `yaml:"company" mapstructure:"company"`
	Board   string `yaml:"board" mapstructure:"board"`
}

// LeverConfig lists the Lever sites to poll.
type LeverConfig struct {
	Enabled bool         `yaml:"enabled" mapstructure:"enabled"`
	Sites   []SiteConfig `yaml:"sites" mapstructure:"sites"`
}

// SiteConfig identifies one Lever posting site.
type SiteConfig struct {
	Company string `yaml:"company" mapstructure:"company"`
	Site    string `yaml:"site" mapstructure:"site"`
}

// FeedsConfig lists RSS/XML job feeds.
type FeedsConfig struct {
	Enabled bool         `yaml:"enabled" mapstructure:"enabled"`
	Feeds   []FeedConfig `yaml:"feeds" mapstructure:"feeds"`
}

// FeedConfig identifies one job feed.
type FeedConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	URL     string `yaml:"url" mapstructure:"url"`
	Company string `yaml:"company" mapstructure:"company"`
}

// FTPConfig configures the FTP CSV drop source.
type FTPConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	URL     string `yaml:"url" mapstructure:"url"`
}

// SearchConfig configures the web search source.
type SearchConfig struct {
	Enabled   bool     `yaml:"enabled" mapstructure:"enabled"`
	Diversify bool     `yaml:"diversify" mapstructure:"diversify"`
	Queries   []string `yaml:"queries" mapstructure:"queries"`
	Keywords  []string `yaml:"keywords" mapstructure:"keywords"`
}

// FilterConfig holds the keyword screening lists. Empty lists fall back
// to the filter package defaults.
type FilterConfig struct {
	IncludeKeywords []string `yaml:"include_keywords" mapstructure:"include_keywords"`
	ExcludeKeywords []string `yaml:"exclude_keywords" mapstructure:"exclude_keywords"`
	NoMatchScore    float64  `yaml:"no_match_score" mapstructure:"no_match_score"`
}

// ThresholdsConfig holds the pipeline scoring gates.
type ThresholdsConfig struct {
	Precrawl   float64 `yaml:"precrawl" mapstructure:"precrawl"`
	Final      float64 `yaml:"final" mapstructure:"final"`
	Alert      float64 `yaml:"alert" mapstructure:"alert"`
	DigestSize int     `yaml:"digest_size" mapstructure:"digest_size"`
}

// GeoConfig extends the built-in location lists.
type GeoConfig struct {
	ExtraAllowed []string `yaml:"extra_allowed" mapstructure:"extra_allowed"`
	ExtraBlocked []string `yaml:"extra_blocked" mapstructure:"extra_blocked"`
}

// CrawlConfig configures the enrichment crawl phase.
type CrawlConfig struct {
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size"`
	DelaySecs int `yaml:"delay_secs" mapstructure:"delay_secs"`
}

// LLMConfig points at the provider fallback configuration.
type LLMConfig struct {
	ProvidersFile string `yaml:"providers_file" mapstructure:"providers_file"`
}

// JinaConfig holds Jina Reader and Search settings.
type JinaConfig struct {
	APIKey        string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	SearchBaseURL string `yaml:"search_base_url" mapstructure:"search_base_url"`
}

// FirecrawlConfig holds Firecrawl API settings.
type FirecrawlConfig struct {
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NotifyConfig configures the notification sinks.
type NotifyConfig struct {
	Discord DiscordConfig     `yaml:"discord" mapstructure:"discord"`
	Email   EmailNotifyConfig `yaml:"email" mapstructure:"email"`
	Notion  NotionConfig      `yaml:"notion" mapstructure:"notion"`
}

// DiscordConfig configures the Discord webhook sink.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// EmailNotifyConfig configures the SMTP digest sink.
type EmailNotifyConfig struct {
	Enabled     bool     `yaml:"enabled" mapstructure:"enabled"`
	Host        string   `yaml:"host" mapstructure:"host"`
	Port        int      `yaml:"port" mapstructure:"port"`
	Username    string   `yaml:"username" mapstructure:"username"`
	Password    string   `yaml:"password" mapstructure:"password"`
	From        string   `yaml:"from" mapstructure:"from"`
	To          []string `yaml:"to" mapstructure:"to"`
	SendInstant bool     `yaml:"send_instant" mapstructure:"send_instant"`
}

// NotionConfig configures the Notion tracker sink.
type NotionConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Token   string `yaml:"token" mapstructure:"token"`
	LeadDB  string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ServerConfig configures the status HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.scout-cli")

	// Environment
	v.SetEnvPrefix("SCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets keep their documented env names regardless of key path.
	_ = v.BindEnv("notify.discord.webhook_url", "SCOUT_DISCORD_WEBHOOK_URL")
	_ = v.BindEnv("notify.email.password", "SCOUT_SMTP_PASSWORD")
	_ = v.BindEnv("notify.notion.token", "SCOUT_NOTION_TOKEN")

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "scout.db")
	v.SetDefault("store.pool.max_conns", 10)
	v.SetDefault("store.pool.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("sources.greenhouse.enabled", true)
	v.SetDefault("sources.lever.enabled", true)
	v.SetDefault("sources.feeds.enabled", true)
	v.SetDefault("sources.ftp.enabled", false)
	v.SetDefault("sources.ftp.url", "")
	v.SetDefault("sources.search.enabled", false)
	v.SetDefault("sources.search.diversify", true)
	v.SetDefault("sources.search.queries", []string{
		`site:linkedin.com/posts "hiring" "software engineer" "united states"`,
		`site:linkedin.com/jobs "software engineer" "united states"`,
	})
	v.SetDefault("sources.search.keywords", []string{})
	v.SetDefault("filter.include_keywords", []string{})
	v.SetDefault("filter.exclude_keywords", []string{})
	v.SetDefault("filter.no_match_score", 0.1)
	v.SetDefault("thresholds.precrawl", 0.1)
	v.SetDefault("thresholds.final", 0.6)
	v.SetDefault("thresholds.alert", 0.85)
	v.SetDefault("thresholds.digest_size", 20)
	v.SetDefault("geo.extra_allowed", []string{})
	v.SetDefault("geo.extra_blocked", []string{})
	v.SetDefault("crawl.batch_size", 3)
	v.SetDefault("crawl.delay_secs", 2)
	v.SetDefault("llm.providers_file", "providers.yaml")
	v.SetDefault("jina.api_key", "")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("jina.search_base_url", "https://s.jina.ai")
	v.SetDefault("firecrawl.api_key", "")
	v.SetDefault("firecrawl.base_url", "https://api.firecrawl.dev/v2")
	v.SetDefault("notify.discord.enabled", false)
	v.SetDefault("notify.discord.webhook_url", "")
	v.SetDefault("notify.email.enabled", false)
	v.SetDefault("notify.email.host", "smtp.gmail.com")
	v.SetDefault("notify.email.port", 587)
	v.SetDefault("notify.email.username", "")
	v.SetDefault("notify.email.password", "")
	v.SetDefault("notify.email.from", "")
	v.SetDefault("notify.email.to", []string{})
	v.SetDefault("notify.email.send_instant", false)
	v.SetDefault("notify.notion.enabled", false)
	v.SetDefault("notify.notion.token", "")
	v.SetDefault("notify.notion.lead_db", "")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for values no run could work with.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.Driver == "postgres" && c.Store.DSN == "" {
		problems = append(problems, "store.dsn is required for postgres")
	}

	for _, t := range []struct {
		name  string
		value float64
	}{
		{"thresholds.precrawl", c.Thresholds.Precrawl},
		{"thresholds.final", c.Thresholds.Final},
		{"thresholds.alert", c.Thresholds.Alert},
		{"filter.no_match_score", c.Filter.NoMatchScore},
	} {
		if t.value < 0 || t.value > 1 {
			problems = append(problems, fmt.Sprintf("%s must be between 0 and 1, got %g", t.name, t.value))
		}
	}

	if c.Thresholds.DigestSize < 1 {
		problems = append(problems, "thresholds.digest_size must be >= 1")
	}
	if c.Crawl.BatchSize < 1 {
		problems = append(problems, "crawl.batch_size must be >= 1")
	}
	if c.Crawl.DelaySecs < 0 {
		problems = append(problems, "crawl.delay_secs must be >= 0")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, "server.port must be between 1 and 65535")
	}

	if c.Notify.Discord.Enabled && c.Notify.Discord.WebhookURL == "" {
		problems = append(problems, "notify.discord.webhook_url is required when discord is enabled")
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.Host == "" {
			problems = append(problems, "notify.email.host is required when email is enabled")
		}
		if c.Notify.Email.From == "" {
			problems = append(problems, "notify.email.from is required when email is enabled")
		}
		if len(c.Notify.Email.To) == 0 {
			problems = append(problems, "notify.email.to is required when email is enabled")
		}
	}
	if c.Notify.Notion.Enabled {
		if c.Notify.Notion.Token == "" {
			problems = append(problems, "notify.notion.token is required when notion is enabled")
		}
		if c.Notify.Notion.LeadDB == "" {
			problems = append(problems, "notify.notion.lead_db is required when notion is enabled")
		}
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
