// Package config loads wikidex settings from a YAML file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dustin/go-wikiindex"
)

// DateLayout is how dates are written in the api section.
const DateLayout = "2006-01-02"

// Config is every wikidex setting.
type Config struct {
	Dump    DumpConfig    `mapstructure:"dump"`
	Subsets SubsetsConfig `mapstructure:"subsets"`
	API     APIConfig     `mapstructure:"api"`
	Log     LogConfig     `mapstructure:"log"`
}

// DumpConfig locates the dump and its index.
type DumpConfig struct {
	Dir      string `mapstructure:"dir"`
	Prefix   string `mapstructure:"prefix"`
	IndexDir string `mapstructure:"indexDir"`
	Buckets  uint32 `mapstructure:"buckets"`
}

// SubsetsConfig controls subset building.
type SubsetsConfig struct {
	Dir          string `mapstructure:"dir"`
	Workers      int    `mapstructure:"workers"`
	MaxAttempts  int    `mapstructure:"maxAttempts"`
	MinChildSize int    `mapstructure:"minChildSize"`
}

// APIConfig controls the Wikimedia clients.
type APIConfig struct {
	UserAgent         string  `mapstructure:"userAgent"`
	RESTBase          string  `mapstructure:"restBase"`
	ActionBase        string  `mapstructure:"actionBase"`
	SiteBase          string  `mapstructure:"siteBase"`
	ViewStart         string  `mapstructure:"viewStart"`
	ViewEnd           string  `mapstructure:"viewEnd"`
	EditsSince        string  `mapstructure:"editsSince"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Dates parses the view window and the edit cutoff.
func (a APIConfig) Dates() (viewStart, viewEnd, editsSince time.Time, err error) {
	if viewStart, err = time.Parse(DateLayout, a.ViewStart); err != nil {
		return viewStart, viewEnd, editsSince, fmt.Errorf("api.viewStart: %w", err)
	}
	if viewEnd, err = time.Parse(DateLayout, a.ViewEnd); err != nil {
		return viewStart, viewEnd, editsSince, fmt.Errorf("api.viewEnd: %w", err)
	}
	if editsSince, err = time.Parse(DateLayout, a.EditsSince); err != nil {
		return viewStart, viewEnd, editsSince, fmt.Errorf("api.editsSince: %w", err)
	}
	if viewEnd.Before(viewStart) {
		err = fmt.Errorf("api.viewEnd %v is before api.viewStart %v", a.ViewEnd, a.ViewStart)
	}
	return viewStart, viewEnd, editsSince, err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("dump.dir", ".")
	v.SetDefault("dump.prefix", "enwiki-20200301")
	v.SetDefault("dump.indexDir", wikiindex.DefaultIndexDir)
	v.SetDefault("dump.buckets", wikiindex.DefaultBucketCount)

	v.SetDefault("subsets.dir", "SubIndexes")
	v.SetDefault("subsets.workers", wikiindex.DefaultWorkers)
	v.SetDefault("subsets.maxAttempts", wikiindex.DefaultMaxAttempts)
	v.SetDefault("subsets.minChildSize", 100)

	v.SetDefault("api.userAgent", "go-wikiindex/1.0 (https://github.com/dustin/go-wikiindex)")
	v.SetDefault("api.restBase", "https://wikimedia.org/api/rest_v1")
	v.SetDefault("api.actionBase", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("api.siteBase", "https://en.wikipedia.org")
	v.SetDefault("api.viewStart", "2015-07-01")
	v.SetDefault("api.viewEnd", "2020-03-31")
	v.SetDefault("api.editsSince", "2015-01-01")
	v.SetDefault("api.requestsPerSecond", 50.0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}

// LoadConfig reads the config file at path, or config.yaml from the
// working directory or ~/.config/wikidex when path is empty.  A
// missing search path file is not an error.  Environment variables
// override the file, e.g. DUMP_DIR for dump.dir.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "wikidex"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}
