package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/todmy/moments-analyzer/internal/corpus"
	"github.com/todmy/moments-analyzer/internal/pipeline"
)

func (c *CLI) newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input.csv>",
		Short: "Clean, cluster and topic-model the raw corpus in one pass",
		Args:  cobra.ExactArgs(1),
		Example: `  moments run cleaned_hm.csv -o out
  moments run cleaned_hm.csv -c configs/default.yaml --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}

			table, err := corpus.ReadFile(args[0], cfg.ReadOptions())
			if err != nil {
				return err
			}
			slog.Info("Corpus loaded", "path", args[0], "documents", len(table.Documents))

			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			start := time.Now()
			a, err := pipeline.NewService(cfg, store).Run(cmd.Context(), table.Documents)
			if err != nil {
				return err
			}
			slog.Debug("Run completed", "duration", time.Since(start))

			if err := pipeline.WriteProcessed(cfg.Output.Dir, table.MetaHeader, a.Documents); err != nil {
				return err
			}
			return pipeline.WriteAnalysis(cfg.Output.Dir, a, cfg.Topics.TopTerms)
		},
	}

	c.addInputFlags(cmd)
	c.addModelFlags(cmd)
	return cmd
}
