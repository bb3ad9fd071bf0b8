package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hiresignal/scout-cli/internal/llm"
)

var suggestCount int

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Preview diversified search queries for the configured role keywords",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		provCfg := llm.DefaultConfig()
		if loaded, err := llm.LoadConfig(cfg.LLM.ProvidersFile); err != nil {
			zap.L().Warn("provider config not loaded, using built-in lineup",
				zap.String("path", cfg.LLM.ProvidersFile),
				zap.Error(err),
			)
		} else {
			provCfg = *loaded
		}

		clients := buildProviderClients(provCfg.Providers, provCfg.MaxOutputTokens)
		if len(clients) == 0 {
			return eris.New("suggest: no llm provider keys set")
		}

		keywords := cfg.Sources.Search.Keywords
		if len(keywords) == 0 {
			return eris.New("suggest: no role keywords configured (sources.search.keywords)")
		}

		fmt.Println("Stock queries:")
		for _, q := range cfg.Sources.Search.Queries {
			fmt.Printf("  %s\n", q)
		}

		div := llm.NewDiversifier(llm.NewManager(provCfg, clients))
		queries := div.Diversify(ctx, keywords)
		if suggestCount > 0 && len(queries) > suggestCount {
			queries = queries[:suggestCount]
		}
		if len(queries) == 0 {
			fmt.Fprintln(os.Stderr, "No diversified queries returned.")
			return nil
		}

		fmt.Println("Diversified:")
		for _, q := range queries {
			fmt.Printf("  %s\n", q)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVar(&suggestCount, "count", 0, "cap printed diversified queries (0 = all returned)")
	rootCmd.AddCommand(suggestCmd)
}
