package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/todmy/moments-analyzer/internal/config"
	"github.com/todmy/moments-analyzer/internal/storage"
)

// CLI encapsulates the command-line interface with its dependencies.
type CLI struct {
	version     string
	verbose     bool
	silent      bool
	initialized bool
	configPath  string
	flags       flagValues
	rootCmd     *cobra.Command
}

// flagValues are parameters that override the configuration file when set
type flagValues struct {
	seed           int64
	output         string
	textColumn     string
	stemmer        string
	k              int
	topics         int
	minDocFraction float64
	nInit          int
	maxIter        int
	outliers       bool
	storeDriver    string
	storeDSN       string
}

// New creates a new CLI instance with the given version string.
func New(version string) *CLI {
	c := &CLI{version: version}
	c.setupCommands()
	return c
}

// setupCommands initializes all CLI commands and their configurations.
func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:           "moments",
		Short:         "Clean, cluster and topic-model happy moment narratives",
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.initApp()
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	pf := c.rootCmd.PersistentFlags()
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "Enable verbose/debug output")
	pf.BoolVarP(&c.silent, "silent", "s", false, "Suppress all logging")
	pf.StringVarP(&c.configPath, "config", "c", "", "Path to YAML configuration")
	pf.Int64Var(&c.flags.seed, "seed", 1, "Random seed for k-means and LDA")
	pf.StringVarP(&c.flags.output, "output", "o", "out", "Output directory")
	pf.StringVar(&c.flags.storeDriver, "store-driver", "", "Results store driver (postgres or sqlite)")
	pf.StringVar(&c.flags.storeDSN, "store-dsn", "", "Results store DSN (defaults to $DATABASE_URL)")

	c.rootCmd.AddCommand(c.newCleanCommand())
	c.rootCmd.AddCommand(c.newClusterCommand())
	c.rootCmd.AddCommand(c.newRunCommand())
}

// Run executes the CLI and returns any error.
func (c *CLI) Run() error {
	return c.rootCmd.Execute()
}

// initApp initializes logging.
func (c *CLI) initApp() {
	if c.initialized {
		return
	}
	c.initialized = true

	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	if c.silent {
		level = slog.Level(100)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set on cmd
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if c.configPath != "" {
		loaded, err := config.Load(c.configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("seed") {
		cfg.Seed = c.flags.seed
	}
	if changed("output") {
		cfg.Output.Dir = c.flags.output
	}
	if changed("text-column") {
		cfg.Input.TextColumn = c.flags.textColumn
	}
	if changed("stemmer") {
		cfg.Text.Stemmer = c.flags.stemmer
	}
	if changed("k") {
		cfg.Clustering.K = c.flags.k
	}
	if changed("topics") {
		cfg.Topics.K = c.flags.topics
	}
	if changed("min-doc-fraction") {
		cfg.DTM.MinDocFraction = c.flags.minDocFraction
	}
	if changed("n-init") {
		cfg.Clustering.NInit = c.flags.nInit
	}
	if changed("max-iter") {
		cfg.Clustering.MaxIter = c.flags.maxIter
	}
	if changed("outliers") {
		cfg.Outliers.Enabled = c.flags.outliers
	}
	if changed("store-driver") {
		cfg.Store.Driver = c.flags.storeDriver
	}
	if changed("store-dsn") {
		cfg.Store.DSN = c.flags.storeDSN
	}
	if cfg.Store.Driver != "" && cfg.Store.DSN == "" {
		cfg.Store.DSN = os.Getenv("DATABASE_URL")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("configuration loaded", "path", c.configPath, "seed", cfg.Seed, "output", cfg.Output.Dir)
	return &cfg, nil
}

// openStore connects to the configured results store. It returns a nil
// repository when storage is disabled.
func openStore(ctx context.Context, cfg *config.Config) (storage.ResultRepository, func(), error) {
	if cfg.Store.Driver == "" {
		return nil, func() {}, nil
	}

	db, dialect, err := storage.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	repo := storage.NewResultRepository(db, dialect)
	if err := repo.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	slog.Debug("results store ready", "driver", cfg.Store.Driver)
	return repo, func() { db.Close() }, nil
}

// addModelFlags registers the partitioning parameters on cmd
func (c *CLI) addModelFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&c.flags.k, "k", 4, "Number of k-means clusters (0 picks k by the elbow method)")
	cmd.Flags().IntVar(&c.flags.topics, "topics", 4, "Number of LDA topics")
	cmd.Flags().Float64Var(&c.flags.minDocFraction, "min-doc-fraction", 0.01, "Minimum fraction of documents a term must appear in")
	cmd.Flags().IntVar(&c.flags.nInit, "n-init", 20, "Number of k-means restarts")
	cmd.Flags().IntVar(&c.flags.maxIter, "max-iter", 25, "Maximum k-means iterations per restart")
	cmd.Flags().BoolVar(&c.flags.outliers, "outliers", false, "Score outlier documents (off by default)")
}

// addInputFlags registers the raw table parameters on cmd
func (c *CLI) addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.flags.textColumn, "text-column", "cleaned_hm", "Name of the text column")
	cmd.Flags().StringVar(&c.flags.stemmer, "stemmer", "snowball", "Stemming algorithm (snowball or porter)")
}
