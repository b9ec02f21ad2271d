package cli

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/todmy/moments-analyzer/internal/corpus"
	"github.com/todmy/moments-analyzer/internal/pipeline"
)

func (c *CLI) newCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <input.csv>",
		Short: "Normalize, stem and stem-complete the raw corpus",
		Args:  cobra.ExactArgs(1),
		Example: `  moments clean cleaned_hm.csv -o out
  moments clean cleaned_hm.csv --stemmer porter -v`,
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

			start := time.Now()
			completion, err := pipeline.NewService(cfg, nil).Clean(table.Documents)
			if err != nil {
				return err
			}
			slog.Debug("Cleaning completed", "duration", time.Since(start))

			if err := pipeline.WriteProcessed(cfg.Output.Dir, table.MetaHeader, completion.Documents); err != nil {
				return err
			}
			slog.Info("Processed corpus saved", "dir", cfg.Output.Dir, "file", pipeline.FileProcessed)
			return nil
		},
	}

	c.addInputFlags(cmd)
	return cmd
}
