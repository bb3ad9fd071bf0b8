package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/hiresignal/scout-cli/internal/pipeline"
)

var (
	runDryRun bool
	runSource string
	runLimit  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full intake pass over all enabled sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := env.Pipeline.Run(ctx, pipeline.RunOptions{
			DryRun: runDryRun,
			Source: runSource,
			Limit:  runLimit,
		})
		if err != nil {
			return eris.Wrap(err, "intake run")
		}

		// Print the funnel counts to stdout
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "fetch and score but skip persistence and notifications")
	runCmd.Flags().StringVar(&runSource, "source", "", "restrict the run to one source (greenhouse, lever, feed, ftpdrop, search)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "cap fetched leads entering the run (0 = no cap)")
	rootCmd.AddCommand(runCmd)
}
