package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the cinedex addon configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Soup      SoupConfig      `yaml:"soup"`
	Build     BuildConfig     `yaml:"build"`
	Trakt     TraktConfig     `yaml:"trakt"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds history-store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, valkey (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ArtifactsConfig locates the precomputed index artifacts.
type ArtifactsConfig struct {
	Dir string `yaml:"dir"`
}

// CatalogConfig holds catalog assembly and pagination settings.
type CatalogConfig struct {
	PageSize        int      `yaml:"page_size"`
	SeedCount       int      `yaml:"seed_count"`
	MaxExclusions   int      `yaml:"max_exclusions"`
	PriorityRegions []string `yaml:"priority_regions"`
	RecencyDecay    float64  `yaml:"recency_decay"` // 0 disables decay
}

// SoupConfig holds feature-soup term weights for the index builder.
type SoupConfig struct {
	GenreWeight    int `yaml:"genre_weight"`
	DirectorWeight int `yaml:"director_weight"`
	ActorWeight    int `yaml:"actor_weight"`
	MaxActors      int `yaml:"max_actors"`
}

// BuildConfig holds dataset ingestion settings for the index builder.
type BuildConfig struct {
	DatasetDir  string `yaml:"dataset_dir"`
	DatasetURL  string `yaml:"dataset_url"`
	MinVotes    int    `yaml:"min_votes"`
	MinYear     int    `yaml:"min_year"`
	HTTPTimeout int    `yaml:"http_timeout_sec"`
}

// TraktConfig holds Trakt watch-history sync settings. The worker is
// disabled unless both username and client_id are set.
type TraktConfig struct {
	Username        string `yaml:"username"`
	ClientID        string `yaml:"client_id"`
	BaseURL         string `yaml:"base_url"`
	PollIntervalSec int    `yaml:"poll_interval_sec"`
	PageLimit       int    `yaml:"page_limit"`
}

// Enabled reports whether the sync worker should run.
func (t TraktConfig) Enabled() bool {
	return t.Username != "" && t.ClientID != ""
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "redis"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "cinedex:"
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "data/index"
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 50
	}
	if c.Catalog.SeedCount <= 0 {
		c.Catalog.SeedCount = 5
	}
	if c.Catalog.MaxExclusions <= 0 {
		c.Catalog.MaxExclusions = 10000
	}
	if c.Catalog.PriorityRegions == nil {
		c.Catalog.PriorityRegions = []string{"IN"}
	}
	if c.Soup.GenreWeight <= 0 {
		c.Soup.GenreWeight = 3
	}
	if c.Soup.DirectorWeight <= 0 {
		c.Soup.DirectorWeight = 3
	}
	if c.Soup.ActorWeight <= 0 {
		c.Soup.ActorWeight = 2
	}
	if c.Soup.MaxActors <= 0 {
		c.Soup.MaxActors = 5
	}
	if c.Build.DatasetDir == "" {
		c.Build.DatasetDir = "data/imdb"
	}
	if c.Build.DatasetURL == "" {
		c.Build.DatasetURL = "https://datasets.imdbws.com"
	}
	if c.Build.MinVotes <= 0 {
		c.Build.MinVotes = 500
	}
	if c.Build.MinYear <= 0 {
		c.Build.MinYear = 1980
	}
	if c.Build.HTTPTimeout <= 0 {
		c.Build.HTTPTimeout = 300
	}
	if c.Trakt.BaseURL == "" {
		c.Trakt.BaseURL = "https://api.trakt.tv"
	}
	if c.Trakt.PollIntervalSec <= 0 {
		c.Trakt.PollIntervalSec = 3600
	}
	if c.Trakt.PageLimit <= 0 {
		c.Trakt.PageLimit = 100
	}
}

var regionCodeRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Database.Driver {
	case "redis", "valkey":
		// ok
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"valkey\", got %q", c.Database.Driver)
	}
	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog.page_size must be positive, got %d", c.Catalog.PageSize)
	}
	if c.Catalog.SeedCount <= 0 {
		return fmt.Errorf("catalog.seed_count must be positive, got %d", c.Catalog.SeedCount)
	}
	if c.Catalog.RecencyDecay < 0 || c.Catalog.RecencyDecay > 1 {
		return fmt.Errorf("catalog.recency_decay must be in [0, 1], got %g", c.Catalog.RecencyDecay)
	}
	for _, region := range c.Catalog.PriorityRegions {
		if !regionCodeRegex.MatchString(region) {
			return fmt.Errorf("catalog.priority_regions: %q is not a two-letter country code", region)
		}
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
