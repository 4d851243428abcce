// Package cli implements the klumpen command-line interface.
//
// Commands:
//   - analyze: summarize one or more bundle reports by package
//   - treemap: lay out a report's packages, or one package's files
//   - why: show the import chain that pulls a module into the bundle
//   - graph: export the import graph as DOT
//   - serve: run the HTTP API
//   - history: list and delete stored analyses
//   - cache: inspect and clear the local result cache
//
// Settings come from klumpen.toml and KLUMPEN_* variables (see
// internal/config); flags override both.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/klumpen/internal/config"
	"github.com/matzehuels/klumpen/pkg/buildinfo"
	"github.com/matzehuels/klumpen/pkg/cache"
	"github.com/matzehuels/klumpen/pkg/pipeline"
	"github.com/matzehuels/klumpen/pkg/storage"
)

const appName = "klumpen"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config *config.Config

	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Klumpen shows what makes a JavaScript bundle heavy",
		Long: `Klumpen reads a bundler's module report, groups the bundled files into
npm packages, workspace packages and local source folders, and shows where
the bytes go: as a package table, as a treemap, and as the import chain that
pulled each dependency in.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.Config = cfg
			if cfg.Path != "" {
				c.Logger.Debug("loaded config", "path", cfg.Path)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default ./klumpen.toml or ~/.config/klumpen/config.toml)")

	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.treemapCommand())
	root.AddCommand(c.whyCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.historyCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// config returns the loaded configuration, or the defaults when a command
// runs without the root pre-run.
func (c *CLI) config() *config.Config {
	if c.Config == nil {
		c.Config = config.Default()
	}
	return c.Config
}

// baseOptions seeds pipeline options from the configuration.
func (c *CLI) baseOptions() pipeline.Options {
	cfg := c.config()
	return pipeline.Options{
		MonorepoDirs: cfg.Classify.MonorepoDirs,
		Width:        cfg.Treemap.Width,
		Height:       cfg.Treemap.Height,
	}
}

// newRunner creates a pipeline runner for CLI use. The caller closes the
// runner's cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	r := pipeline.NewRunner(cc, nil, c.Logger)
	r.TTL = c.config().Cache.TTL.Duration
	return r, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cfg := c.config().Cache
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(cfg.Entries)
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, cfg.Prefix)
		if err != nil {
			return nil, fmt.Errorf("connect cache: %w", err)
		}
		return rc, nil
	}
	fc, err := cache.NewFileCache(cfg.Dir)
	if err != nil {
		c.Logger.Warn("file cache unavailable, caching disabled", "dir", cfg.Dir, "error", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newStore opens the configured analysis history.
func (c *CLI) newStore(ctx context.Context) (storage.Store, error) {
	cfg := c.config().Storage
	switch cfg.Backend {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageMongo:
		ms, err := storage.NewMongoStore(ctx, cfg.MongoURI, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		return ms, nil
	}
	fs, err := storage.NewFileStore(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	return fs, nil
}

// stdout is where command results go; tests swap it via cmd.SetOut.
func stdout(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}
