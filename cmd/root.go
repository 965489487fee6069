package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tweetgraph/hunter/internal/config"
	"tweetgraph/hunter/internal/crawl"
	"tweetgraph/hunter/internal/db"
	"tweetgraph/hunter/internal/logging"
	"tweetgraph/hunter/internal/provider"
	"tweetgraph/hunter/internal/retry"
)

const dbFileName = ".hunter.db"

var (
	dbPath   string
	cfgFile  string
	logLevel string

	// Set by PersistentPreRunE for every command.
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:          "hunter",
	Short:        "Discover coordinated accounts by crawling the follow graph around known ones",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading .env: %w", err)
		}

		c, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Logger.Level = logLevel
		}
		l, err := logging.New(c.Logger, zapcore.Lock(os.Stderr))
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to .hunter.db database")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./hunter.yaml or ~/.config/hunter/hunter.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logger.level (debug, info, warn, error)")
}

// DiscoverDB finds the database path using priority: env > flag > config >
// walk-up > ./.hunter.db. The returned file may not exist yet.
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("HUNTER_DB"); envPath != "" {
		return homedir.Expand(envPath)
	}

	// 2. CLI flag
	if dbPath != "" {
		return homedir.Expand(dbPath)
	}

	// 3. Config file
	if cfg != nil && cfg.Database.Path != "" {
		return cfg.Database.Path, nil
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	start := dir
	for {
		candidate := filepath.Join(dir, dbFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	// 5. Fresh database in the working directory
	return filepath.Join(start, dbFileName), nil
}

// OpenDatabase discovers and opens the database
func OpenDatabase() (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	logger.Debug("opening database", zap.String("path", path))
	return db.OpenDB(path)
}

func newFetcher() (provider.Fetcher, error) {
	if err := cfg.ValidateProvider(); err != nil {
		return nil, err
	}
	p := cfg.Provider
	return provider.NewTwitterClient(provider.TwitterConfig{
		BaseURL:           p.BaseURL,
		BearerToken:       p.BearerToken,
		ConsumerKey:       p.ConsumerKey,
		ConsumerSecret:    p.ConsumerSecret,
		RequestsPerWindow: p.RequestsPerWindow,
		Window:            p.Window,
		Timeout:           p.Timeout,
	}, logger), nil
}

func newRetryPolicy() retry.Policy {
	return retry.Policy{
		TransientDelay: cfg.Retry.TransientDelay,
		RateLimitDelay: cfg.Retry.RateLimitDelay,
		Logger:         logger.Named("retry"),
	}
}

func newScheduler(d *db.DB, fetcher provider.Fetcher) (*crawl.Scheduler, error) {
	cutoff, err := cfg.Crawl.Cutoff()
	if err != nil {
		return nil, err
	}
	filter := crawl.Filter{CreatedAfter: cutoff, MaxFollowers: cfg.Crawl.MaxFollowers}
	return crawl.NewScheduler(d, fetcher, newRetryPolicy(), filter, crawl.Config{PageSize: cfg.Crawl.PageSize}, logger), nil
}
