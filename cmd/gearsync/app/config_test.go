package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bmedia/gearsync/pkg/constants"
	"github.com/bmedia/gearsync/pkg/matcher"
)

// TestLoadConfig verifies defaults when no file or environment is set.
func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.SourceURL != constants.DefaultSourceURL {
		t.Errorf("SourceURL = %s, want %s", config.SourceURL, constants.DefaultSourceURL)
	}
	if config.CatalogPath != constants.DefaultCatalogPath {
		t.Errorf("CatalogPath = %s, want %s", config.CatalogPath, constants.DefaultCatalogPath)
	}
	if config.HistoryPath != DefaultHistoryPath {
		t.Errorf("HistoryPath = %s, want %s", config.HistoryPath, DefaultHistoryPath)
	}
	if config.Threshold != matcher.DefaultThreshold {
		t.Errorf("Threshold = %v, want %v", config.Threshold, matcher.DefaultThreshold)
	}
	if !config.Browser.Headless {
		t.Error("Browser.Headless should default to true")
	}
	if len(config.Exclusions.Categories) == 0 {
		t.Error("default exclusions not loaded")
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
}

// TestConfig_EnvironmentVariables verifies GEARSYNC_* variables are read.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("GEARSYNC_SOURCE_URL", "https://linktr.ee/someone")
	t.Setenv("GEARSYNC_THRESHOLD", "0.75")
	t.Setenv("GEARSYNC_MATCH_STRATEGY", "first")
	t.Setenv("GEARSYNC_DOWNLOAD_WORKERS", "8")
	t.Setenv("GEARSYNC_DOWNLOAD_TIMEOUT", "45s")
	t.Setenv("GEARSYNC_FORMAT", "json")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.SourceURL != "https://linktr.ee/someone" {
		t.Errorf("SourceURL = %s", config.SourceURL)
	}
	if config.Threshold != 0.75 {
		t.Errorf("Threshold = %v, want 0.75", config.Threshold)
	}
	if config.MatchStrategy != "first" {
		t.Errorf("MatchStrategy = %s, want first", config.MatchStrategy)
	}
	if config.Download.Workers != 8 {
		t.Errorf("Download.Workers = %d, want 8", config.Download.Workers)
	}
	if config.Download.Timeout != 45*time.Second {
		t.Errorf("Download.Timeout = %v, want 45s", config.Download.Timeout)
	}
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
}

// TestConfig_LogEnvironment verifies the LOG_* variables.
func TestConfig_LogEnvironment(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("NO_COLOR", "1")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if config.EnvLogLevel != "debug" {
		t.Errorf("EnvLogLevel = %s, want debug", config.EnvLogLevel)
	}
	if config.LogLevel != "" {
		t.Errorf("LogLevel = %s, want empty until --log-level is given", config.LogLevel)
	}
	if config.LogFormat != "json" {
		t.Errorf("LogFormat = %s, want json", config.LogFormat)
	}
	if !config.NoColor {
		t.Error("NO_COLOR not honored")
	}
}

// TestConfig_File verifies an explicit YAML config file.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gearsync.yaml")
	content := `site_root: /srv/site
catalog_format: yaml
threshold: 0.85
canonical_order: [iems, usb-dacs]
exclude:
  categories: [socials]
download:
  workers: 2
browser:
  headless: false
  settle: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() failed: %v", err)
	}

	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}
	if config.SiteRoot != "/srv/site" {
		t.Errorf("SiteRoot = %s", config.SiteRoot)
	}
	if config.CatalogFormat != "yaml" {
		t.Errorf("CatalogFormat = %s", config.CatalogFormat)
	}
	if config.Threshold != 0.85 {
		t.Errorf("Threshold = %v", config.Threshold)
	}
	if len(config.CanonicalOrder) != 2 || config.CanonicalOrder[1] != "usb-dacs" {
		t.Errorf("CanonicalOrder = %v", config.CanonicalOrder)
	}
	if len(config.Exclusions.Categories) != 1 || config.Exclusions.Categories[0] != "socials" {
		t.Errorf("Exclusions.Categories = %v", config.Exclusions.Categories)
	}
	if config.Download.Workers != 2 {
		t.Errorf("Download.Workers = %d", config.Download.Workers)
	}
	if config.Browser.Headless {
		t.Error("Browser.Headless = true, want false")
	}
	if config.Browser.Settle != 2*time.Second {
		t.Errorf("Browser.Settle = %v", config.Browser.Settle)
	}
	if got := config.SitePath(config.HistoryPath); got != filepath.Join("/srv/site", DefaultHistoryPath) {
		t.Errorf("SitePath(HistoryPath) = %s", got)
	}
}

// TestConfig_MissingFile verifies an explicit file must exist.
func TestConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("LoadConfigFile() succeeded for a missing file")
	}
}

// TestConfig_Validate verifies invalid values are rejected.
func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		env    string
		value  string
		wantOK bool
	}{
		{"threshold too high", "GEARSYNC_THRESHOLD", "1.5", false},
		{"threshold zero", "GEARSYNC_THRESHOLD", "0", false},
		{"unknown strategy", "GEARSYNC_MATCH_STRATEGY", "fuzzy", false},
		{"negative workers", "GEARSYNC_DOWNLOAD_WORKERS", "-1", false},
		{"threshold one", "GEARSYNC_THRESHOLD", "1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.env, tt.value)
			_, err := LoadConfig()
			if (err == nil) != tt.wantOK {
				t.Errorf("LoadConfig() error = %v, wantOK %v", err, tt.wantOK)
			}
		})
	}
}

// TestConfig_UpdateFromFlags verifies flag precedence.
func TestConfig_UpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml"}

	config.UpdateFromFlags(true, false, true, "", "")
	if !config.Verbose || !config.NoColor {
		t.Error("boolean flags not applied")
	}
	if config.Format != "yaml" {
		t.Errorf("Format = %s, want yaml when the flag is empty", config.Format)
	}

	config.UpdateFromFlags(false, false, false, "json", "trace")
	if config.Format != "json" {
		t.Errorf("Format = %s, want json", config.Format)
	}
	if config.LogLevel != "trace" {
		t.Errorf("LogLevel = %s, want trace", config.LogLevel)
	}
	if !config.Verbose {
		t.Error("Verbose was reset by a later call")
	}
}

// TestConfig_SitePath verifies path resolution.
func TestConfig_SitePath(t *testing.T) {
	config := &Config{SiteRoot: "site"}
	if got := config.SitePath("js/data.js"); got != filepath.Join("site", "js", "data.js") {
		t.Errorf("SitePath() = %s", got)
	}
	if got := config.SitePath("/abs/history.db"); got != "/abs/history.db" {
		t.Errorf("SitePath() = %s, want absolute path unchanged", got)
	}
	if got := config.SitePath(""); got != "" {
		t.Errorf("SitePath(\"\") = %s, want empty", got)
	}
}
