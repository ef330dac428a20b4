// Command wikidex builds and queries a random access index over a
// Wikipedia multistream dump, and builds analysis subsets on top of it.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dustin/go-wikiindex"
	"github.com/dustin/go-wikiindex/config"
	"github.com/dustin/go-wikiindex/subset"
	"github.com/dustin/go-wikiindex/wikimedia"
)

var (
	ConfigFile string
	LogLevel   string
	Pretty     bool

	cfg *config.Config
	log = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wikidex",
		Short:         "Random access to Wikipedia dumps",
		Long:          "Index a Wikipedia multistream dump for random access and build analysis subsets of its articles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ConfigFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&LogLevel, "log-level", "l", "", "Log level (overrides log.level)")
	rootCmd.PersistentFlags().BoolVar(&Pretty, "pretty", false, "Human friendly log output")

	rootCmd.AddCommand(
		newCatalogCmd(),
		newBuildCmd(),
		newLookupCmd(),
		newTextCmd(),
		newLinksCmd(),
		newSubsetCmd(),
	)
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("wikidex failed")
	}
}

func setup(cmd *cobra.Command) error {
	var err error
	if cfg, err = config.LoadConfig(ConfigFile); err != nil {
		return err
	}
	level := cfg.Log.Level
	if LogLevel != "" {
		level = LogLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}

	if Pretty || cfg.Log.Pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	log = log.Level(lvl).With().Timestamp().Logger()
	wikiindex.SetLogger(log)
	return nil
}

func loadCatalog() (*wikiindex.Catalog, error) {
	return wikiindex.BuildCatalog(cfg.Dump.Dir, cfg.Dump.Prefix)
}

func openStore() (*wikiindex.Store, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return wikiindex.OpenStore(c, wikiindex.WithStoreIndexDir(cfg.Dump.IndexDir))
}

// openSubset opens a subset by name.  Child subsets are named by their
// path from the top, e.g. "math/Algebra".
func openSubset(store *wikiindex.Store, name string) (*subset.Subset, error) {
	dir := cfg.Subsets.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.Dump.Dir, dir)
	}
	name = filepath.Clean(name)
	if name == "." || strings.HasPrefix(name, "..") {
		return nil, fmt.Errorf("invalid subset name %q", name)
	}
	return subset.Open(dir, name, store,
		subset.WithTaskPool(wikiindex.NewTaskPool(cfg.Subsets.Workers, cfg.Subsets.MaxAttempts)))
}

func newClient() (*wikimedia.Client, error) {
	start, end, since, err := cfg.API.Dates()
	if err != nil {
		return nil, err
	}
	return wikimedia.NewClient(
		wikimedia.WithUserAgent(cfg.API.UserAgent),
		wikimedia.WithRESTBase(cfg.API.RESTBase),
		wikimedia.WithActionBase(cfg.API.ActionBase),
		wikimedia.WithSiteBase(cfg.API.SiteBase),
		wikimedia.WithViewWindow(start, end),
		wikimedia.WithEditsSince(since),
		wikimedia.WithRateLimit(cfg.API.RequestsPerSecond),
		wikimedia.WithLogger(log),
	), nil
}

// withStore runs fn on an opened store and closes it after.
func withStore(fn func(*wikiindex.Store) error) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// withSubset runs fn on the named subset of an opened store.
func withSubset(name string, fn func(*wikiindex.Store, *subset.Subset) error) error {
	return withStore(func(store *wikiindex.Store) error {
		s, err := openSubset(store, name)
		if err != nil {
			return err
		}
		return fn(store, s)
	})
}

func emitJSON(x any) error {
	bs, err := json.MarshalIndent(x, "", "    ")
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", string(bs))
	return nil
}
