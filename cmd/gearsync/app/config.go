package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bmedia/gearsync/pkg/catalog"
	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/errors"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// EnvPrefix prefixes every environment variable read into the config.
const EnvPrefix = "GEARSYNC"

// DefaultHistoryPath is the run journal, relative to the site root.
const DefaultHistoryPath = ".gearsync/history.db"

// Config holds the application configuration loaded from config files,
// environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Catalog site
	SourceURL     string
	SiteRoot      string
	CatalogPath   string
	CatalogFormat string
	ImagesDir     string
	ExtrasPath    string
	HistoryPath   string

	// Reconciliation
	Threshold      float64
	MatchStrategy  string
	CanonicalOrder []string
	Exclusions     catalog.Exclusions
	PickMarker     string

	Download DownloadConfig
	Browser  BrowserConfig

	// Logging configuration. LogLevel is the --log-level flag;
	// EnvLogLevel comes from LOG_LEVEL.
	LogLevel    string
	EnvLogLevel string
	LogFormat   string
	LogOutput   string
}

// DownloadConfig configures image downloads.
type DownloadConfig struct {
	Workers   int
	Timeout   time.Duration
	Rate      float64
	UserAgent string
}

// BrowserConfig configures the headless browser that renders the link page.
type BrowserConfig struct {
	Bin      string
	Settle   time.Duration
	Headless bool
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables (GEARSYNC_*)
// 3. .env files
// 4. Config file (./.gearsync.yaml or ~/.gearsync.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile(os.Getenv(EnvPrefix + "_CONFIG"))
}

// LoadConfigFile is LoadConfig with an explicit config file. An empty path
// searches the standard locations; a missing explicit file is an error.
func LoadConfigFile(configFile string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+configFile, err)
		}
	} else {
		v.SetConfigName(".gearsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot read config file", err)
			}
		}
	}

	config := &Config{
		// Global flags (may be overridden by cobra flags later)
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color") || os.Getenv("NO_COLOR") != "",
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		SourceURL:     v.GetString("source_url"),
		SiteRoot:      v.GetString("site_root"),
		CatalogPath:   v.GetString("catalog_path"),
		CatalogFormat: v.GetString("catalog_format"),
		ImagesDir:     v.GetString("images_dir"),
		ExtrasPath:    v.GetString("extras_path"),
		HistoryPath:   v.GetString("history_path"),

		Threshold:      v.GetFloat64("threshold"),
		MatchStrategy:  v.GetString("match_strategy"),
		CanonicalOrder: v.GetStringSlice("canonical_order"),
		Exclusions: catalog.Exclusions{
			Categories: v.GetStringSlice("exclude.categories"),
			Items:      v.GetStringMapStringSlice("exclude.items"),
		},
		PickMarker: v.GetString("pick_marker"),

		Download: DownloadConfig{
			Workers:   v.GetInt("download.workers"),
			Timeout:   v.GetDuration("download.timeout"),
			Rate:      v.GetFloat64("download.rate"),
			UserAgent: v.GetString("download.user_agent"),
		},
		Browser: BrowserConfig{
			Bin:      v.GetString("browser.bin"),
			Settle:   v.GetDuration("browser.settle"),
			Headless: v.GetBool("browser.headless"),
		},

		EnvLogLevel: getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat:   getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:   getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	defaults := catalog.DefaultExclusions()

	v.SetDefault("source_url", constants.DefaultSourceURL)
	v.SetDefault("site_root", ".")
	v.SetDefault("catalog_path", constants.DefaultCatalogPath)
	v.SetDefault("catalog_format", "")
	v.SetDefault("images_dir", constants.DefaultImagesDir)
	v.SetDefault("extras_path", constants.DefaultExtrasPath)
	v.SetDefault("history_path", DefaultHistoryPath)
	v.SetDefault("threshold", matcher.DefaultThreshold)
	v.SetDefault("match_strategy", string(matcher.StrategyBest))
	v.SetDefault("canonical_order", []string{})
	v.SetDefault("exclude.categories", defaults.Categories)
	v.SetDefault("exclude.items", defaults.Items)
	v.SetDefault("pick_marker", constants.PickMarker)
	v.SetDefault("download.workers", constants.DefaultDownloadWorkers)
	v.SetDefault("download.timeout", constants.DefaultDownloadTimeout)
	v.SetDefault("download.rate", constants.DefaultDownloadRate)
	v.SetDefault("download.user_agent", constants.UserAgent)
	v.SetDefault("browser.bin", "")
	v.SetDefault("browser.settle", constants.DefaultSettleDelay)
	v.SetDefault("browser.headless", true)
}

// Validate checks values that would otherwise fail deep inside a sync.
func (c *Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return errors.NewValidationError("threshold", c.Threshold, "must be in (0, 1]")
	}
	if _, err := matcher.ParseStrategy(c.MatchStrategy); err != nil {
		return err
	}
	if c.Download.Workers < 0 {
		return errors.NewValidationError("download.workers", c.Download.Workers, "must not be negative")
	}
	return nil
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// SitePath resolves p against the site root unless it is absolute or empty.
func (c *Config) SitePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.SiteRoot, p)
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment are never overridden, so
// .env.local is loaded first to win over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
