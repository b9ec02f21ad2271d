package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/todmy/moments-analyzer/internal/corpus"
	"github.com/todmy/moments-analyzer/internal/pipeline"
)

func (c *CLI) newClusterCommand() *cobra.Command {
	var skipTopics bool

	cmd := &cobra.Command{
		Use:   "cluster <processed.csv>",
		Short: "Partition a processed corpus with k-means and LDA",
		Args:  cobra.ExactArgs(1),
		Example: `  moments cluster out/processed.csv --k 4 --topics 4
  moments cluster out/processed.csv --skip-topics --store-driver sqlite --store-dsn results.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			_, docs, err := corpus.ReadProcessedFile(args[0])
			if err != nil {
				return err
			}
			slog.Info("Processed corpus loaded", "path", args[0], "documents", len(docs))

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			start := time.Now()
			a, err := pipeline.NewService(cfg, store).Analyze(cmd.Context(), pipeline.CommandCluster, docs, !skipTopics)
			if err != nil {
				return err
			}
			slog.Debug("Analysis completed", "duration", time.Since(start))

			return pipeline.WriteAnalysis(cfg.Output.Dir, a, cfg.Topics.TopTerms)
		},
	}

	c.addModelFlags(cmd)
	cmd.Flags().BoolVar(&skipTopics, "skip-topics", false, "Skip LDA topic modelling")
	return cmd
}
