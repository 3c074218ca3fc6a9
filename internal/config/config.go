// Package config provides configuration management for the application.
// Values come from an optional config.yaml, environment variables (loaded
// from .env when present), and defaults, in increasing order of precedence
// for env over file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults.
const (
	// DefaultAssetURL is the catalog listing endpoint.
	DefaultAssetURL = "https://godotengine.org/asset-library/asset"
	// DefaultUserAgent identifies outbound browser-style requests.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36" +
		" (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	defaultServerPort     = 3001
	defaultDatabasePath   = "data/assets.db"
	defaultMaxRetries     = 3
	defaultRetryDelayBase = time.Second
	defaultItemDelay      = time.Second
	defaultCrawlSchedule  = "0 3 * * *"
)

// Config is the application configuration.
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	AI       AIConfig       `mapstructure:"ai"`
}

// ServerConfig holds HTTP API server settings.
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds sqlite storage settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// CrawlerConfig holds crawl loop and outbound HTTP settings.
type CrawlerConfig struct {
	AssetURL        string        `mapstructure:"asset_url"`
	MaxPage         int           `mapstructure:"max_page"`
	MaxAssets       int           `mapstructure:"max_assets"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryDelayBase  time.Duration `mapstructure:"retry_delay_base"`
	ItemDelay       time.Duration `mapstructure:"item_delay"`
	Proxy           string        `mapstructure:"proxy"`
	GithubToken     string        `mapstructure:"github_token"`
	GithubUserAgent string        `mapstructure:"github_user_agent"`
	GitlabToken     string        `mapstructure:"gitlab_token"`
	GitlabUserAgent string        `mapstructure:"gitlab_user_agent"`
	Schedule        string        `mapstructure:"schedule"`
}

// AIConfig holds summarization settings for the OpenAI-compatible endpoint.
type AIConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Prompt  string `mapstructure:"prompt"`
}

// envBindings maps config keys to their environment variable names.
var envBindings = map[string]string{
	"debug":                     "APP_DEBUG",
	"server.port":               "SERVER_PORT",
	"database.path":             "DATABASE_PATH",
	"crawler.asset_url":         "ASSET_URL",
	"crawler.max_page":          "MAX_PAGE",
	"crawler.max_assets":        "MAX_ASSETS",
	"crawler.max_retries":       "MAX_RETRIES",
	"crawler.retry_delay_base":  "RETRY_DELAY_BASE",
	"crawler.item_delay":        "ITEM_DELAY",
	"crawler.proxy":             "PROXY",
	"crawler.github_token":      "GITHUB_TOKEN",
	"crawler.github_user_agent": "GITHUB_USER_AGENT",
	"crawler.gitlab_token":      "GITLAB_TOKEN",
	"crawler.gitlab_user_agent": "GITLAB_USER_AGENT",
	"crawler.schedule":          "CRAWL_SCHEDULE",
	"ai.enabled":                "USE_AI",
	"ai.base_url":               "AI_BASE_URL",
	"ai.api_key":                "AI_API_KEY",
	"ai.model":                  "AI_MODEL",
	"ai.prompt":                 "SUMMARIZE_PROMPT",
}

// Load reads configuration from the optional file at path, the environment,
// and defaults. An empty path falls back to ./config.yaml when present.
func Load(path string) (*Config, error) {
	// .env first so its variables are visible to viper. Missing file is fine.
	_ = godotenv.Load()

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	setDefaults(v)

	// The config file is optional; env variables and defaults are enough.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks for values the application cannot run without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return errors.New("server.port must be positive")
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Crawler.AssetURL == "" {
		return errors.New("crawler.asset_url is required")
	}
	if c.Crawler.MaxRetries <= 0 {
		return errors.New("crawler.max_retries must be positive")
	}
	if c.AI.Enabled {
		if c.AI.BaseURL == "" {
			return errors.New("ai.base_url is required when ai.enabled is set")
		}
		if c.AI.Model == "" {
			return errors.New("ai.model is required when ai.enabled is set")
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("crawler.asset_url", DefaultAssetURL)
	v.SetDefault("crawler.max_page", 0)
	v.SetDefault("crawler.max_assets", 0)
	v.SetDefault("crawler.max_retries", defaultMaxRetries)
	v.SetDefault("crawler.retry_delay_base", defaultRetryDelayBase)
	v.SetDefault("crawler.item_delay", defaultItemDelay)
	v.SetDefault("crawler.github_user_agent", DefaultUserAgent)
	v.SetDefault("crawler.gitlab_user_agent", DefaultUserAgent)
	v.SetDefault("crawler.schedule", defaultCrawlSchedule)
}
