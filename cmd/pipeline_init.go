package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/crawl"
	"github.com/hiresignal/scout-cli/internal/filter"
	"github.com/hiresignal/scout-cli/internal/geo"
	"github.com/hiresignal/scout-cli/internal/llm"
	"github.com/hiresignal/scout-cli/internal/notify"
	"github.com/hiresignal/scout-cli/internal/pipeline"
	"github.com/hiresignal/scout-cli/internal/source"
	"github.com/hiresignal/scout-cli/internal/store"
	anthropicpkg "github.com/hiresignal/scout-cli/pkg/anthropic"
	"github.com/hiresignal/scout-cli/pkg/chatapi"
	"github.com/hiresignal/scout-cli/pkg/firecrawl"
	"github.com/hiresignal/scout-cli/pkg/jina"
	"github.com/hiresignal/scout-cli/pkg/notion"
)

// scoutEnv holds the initialized store, sources, clients, and assembled
// pipeline needed by the run and serve commands.
type scoutEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Manager  *llm.Manager // nil when no provider has a key
}

// Close releases resources held by the environment.
func (se *scoutEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

// initPipeline sets up the store, all API clients, the source list, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*scoutEnv, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	// Startup housekeeping: sweep cached LLM responses past their TTL.
	if n, err := st.DeleteExpiredResponses(ctx); err != nil {
		zap.L().Warn("response cache sweep failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Info("expired llm responses removed", zap.Int("count", n))
	}

	jinaOpts := []jina.Option{jina.WithBaseURL(cfg.Jina.BaseURL)}
	if cfg.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(cfg.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(cfg.Jina.APIKey, jinaOpts...)

	// Provider fallback lineup. No keys at all just means snippet-only
	// scoring: the pipeline runs, deep scoring is skipped.
	provCfg := llm.DefaultConfig()
	if loaded, err := llm.LoadConfig(cfg.LLM.ProvidersFile); err != nil {
		zap.L().Warn("provider config not loaded, using built-in lineup",
			zap.String("path", cfg.LLM.ProvidersFile),
			zap.Error(err),
		)
	} else {
		provCfg = *loaded
	}

	var (
		manager *llm.Manager
		scorer  *llm.Scorer
		calls   pipeline.CallCounter
	)
	clients := buildProviderClients(provCfg.Providers, provCfg.MaxOutputTokens)
	if len(clients) == 0 {
		zap.L().Warn("no llm provider keys set, deep scoring disabled")
	} else {
		manager = llm.NewManager(provCfg, clients)
		scorer = llm.NewScorer(manager, st)
		calls = manager
	}

	sources := buildSources(jinaClient, manager)
	if len(sources) == 0 {
		_ = st.Close()
		return nil, eris.New("no lead sources enabled")
	}

	normalizer := geo.NewNormalizer(geo.Config{
		AllowedHubs:  append(geo.DefaultAllowedHubs, cfg.Geo.ExtraAllowed...),
		BlockedTerms: append(geo.DefaultBlockedTerms, cfg.Geo.ExtraBlocked...),
	})

	screen := filter.New(filter.Config{
		IncludeKeywords: cfg.Filter.IncludeKeywords,
		ExcludeKeywords: cfg.Filter.ExcludeKeywords,
		NoMatchScore:    cfg.Filter.NoMatchScore,
	})

	// Fetch chain: Firecrawl and Jina Reader when keys are present, the
	// plain HTTP fallback always.
	var scrapers []crawl.Scraper
	if cfg.Firecrawl.APIKey != "" {
		fc := firecrawl.NewClient(cfg.Firecrawl.APIKey, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		scrapers = append(scrapers, crawl.NewFirecrawlAdapter(fc))
	}
	if cfg.Jina.APIKey != "" {
		scrapers = append(scrapers, crawl.NewJinaAdapter(jinaClient))
	}
	scrapers = append(scrapers, crawl.NewLocalScraper())
	crawler := crawl.NewCrawler(crawl.NewChain(scrapers...), crawl.Config{
		BatchSize:  cfg.Crawl.BatchSize,
		BatchDelay: time.Duration(cfg.Crawl.DelaySecs) * time.Second,
	})

	p := pipeline.New(cfg, st, sources, normalizer, screen, crawler, scorer, calls, buildSinks())

	return &scoutEnv{
		Store:    st,
		Pipeline: p,
		Manager:  manager,
	}, nil
}

// buildSources assembles the enabled lead sources. manager may be nil;
// query diversification is skipped then.
func buildSources(jinaClient jina.Client, manager *llm.Manager) []source.Source {
	fetcher := source.NewHTTPFetcher(source.HTTPOptions{
		PerHost: source.DefaultRateLimiters(),
	})

	var sources []source.Source

	if gh := cfg.Sources.Greenhouse; gh.Enabled && len(gh.Boards) > 0 {
		boards := make([]source.GreenhouseBoard, 0, len(gh.Boards))
		for _, b := range gh.Boards {
			boards = append(boards, source.GreenhouseBoard{Company: b.Company, Board: b.Board})
		}
		sources = append(sources, source.NewGreenhouseSource(fetcher, boards))
	}

	if lv := cfg.Sources.Lever; lv.Enabled && len(lv.Sites) > 0 {
		sites := make([]source.LeverSite, 0, len(lv.Sites))
		for _, s := range lv.Sites {
			sites = append(sites, source.LeverSite{Company: s.Company, Site: s.Site})
		}
		sources = append(sources, source.NewLeverSource(fetcher, sites))
	}

	if fd := cfg.Sources.Feeds; fd.Enabled && len(fd.Feeds) > 0 {
		feeds := make([]source.FeedConfig, 0, len(fd.Feeds))
		for _, f := range fd.Feeds {
			feeds = append(feeds, source.FeedConfig{Name: f.Name, URL: f.URL, Company: f.Company})
		}
		sources = append(sources, source.NewFeedSource(fetcher, feeds))
	}

	if cfg.Sources.FTP.Enabled && cfg.Sources.FTP.URL != "" {
		sources = append(sources, source.NewFTPDropSource(source.FTPDropConfig{URL: cfg.Sources.FTP.URL}))
	}

	if sc := cfg.Sources.Search; sc.Enabled {
		if cfg.Jina.APIKey == "" {
			zap.L().Warn("search source enabled but SCOUT_JINA_API_KEY not set, skipping")
		} else {
			var expander source.QueryExpander
			if sc.Diversify && manager != nil {
				expander = llm.NewDiversifier(manager)
			}
			sources = append(sources, source.NewSearchSource(jinaClient, expander, source.SearchConfig{
				Queries:  sc.Queries,
				Keywords: sc.Keywords,
			}))
		}
	}

	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	zap.L().Info("sources configured", zap.Strings("sources", names))

	return sources
}

// buildProviderClients creates API clients for every provider in the
// lineup that has a key. Providers without keys are skipped, not errors;
// the fallback chain just gets shorter.
func buildProviderClients(providers []llm.ProviderConfig, maxTokens int) []llm.ProviderClient {
	var clients []llm.ProviderClient
	for _, pc := range providers {
		key := providerKey(pc)
		if key == "" {
			zap.L().Debug("llm provider key not set, skipping", zap.String("provider", pc.Name))
			continue
		}

		switch pc.Name {
		case "anthropic":
			clients = append(clients, llm.NewAnthropicProvider(anthropicpkg.NewClient(key), maxTokens))
		case "groq":
			clients = append(clients, llm.NewChatProvider(pc.Name, chatapi.NewClient(key, chatapi.GroqBaseURL), maxTokens))
		case "openrouter":
			clients = append(clients, llm.NewChatProvider(pc.Name, chatapi.NewClient(key, chatapi.OpenRouterBaseURL), maxTokens))
		default:
			if pc.BaseURL == "" {
				zap.L().Warn("llm provider has no base_url, skipping", zap.String("provider", pc.Name))
				continue
			}
			clients = append(clients, llm.NewChatProvider(pc.Name, chatapi.NewClient(key, pc.BaseURL), maxTokens))
		}
	}
	return clients
}

// providerKey resolves the API key for a provider: an explicit
// api_key_env wins, then the documented SCOUT_* names.
func providerKey(pc llm.ProviderConfig) string {
	if pc.APIKeyEnv != "" {
		return os.Getenv(pc.APIKeyEnv)
	}
	switch pc.Name {
	case "anthropic":
		return os.Getenv("SCOUT_ANTHROPIC_API_KEY")
	case "groq":
		return os.Getenv("SCOUT_GROQ_API_KEY")
	case "openrouter":
		return os.Getenv("SCOUT_OPENROUTER_API_KEY")
	}
	return ""
}

// buildSinks assembles the enabled notification sinks behind one
// fan-out Notifier. Zero enabled sinks is fine; delivery becomes a
// no-op and the digest only shows up in logs and the store.
func buildSinks() notify.Notifier {
	var sinks []notify.Notifier

	if d := cfg.Notify.Discord; d.Enabled {
		sinks = append(sinks, notify.NewWebhook(d.WebhookURL))
	}

	if e := cfg.Notify.Email; e.Enabled {
		sinks = append(sinks, notify.NewEmail(notify.EmailConfig{
			Host:        e.Host,
			Port:        e.Port,
			Username:    e.Username,
			Password:    e.Password,
			From:        e.From,
			To:          e.To,
			SendInstant: e.SendInstant,
		}))
	}

	if n := cfg.Notify.Notion; n.Enabled {
		sinks = append(sinks, notify.NewNotionTracker(notion.NewClient(n.Token), n.LeadDB))
	}

	if len(sinks) == 0 {
		zap.L().Info("no notification sinks enabled")
	}

	return notify.NewMulti(sinks...)
}
