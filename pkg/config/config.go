// Package config loads and validates service configuration from environment
// variables, an optional YAML config file, and bound CLI flags via viper.
package config

import (
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds everything the serve and index commands need. The anon and
// service database roles are deliberately distinct DSNs: the anon role is
// read-only and must never be collapsed into the service role behind a flag.
type Config struct {
	Host string
	Port int

	DatabaseURL     string // service role, read-write
	DatabaseAnonURL string // anon role, read-only

	GitHubToken string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	ReviewModel   string

	IndexerToken       string
	IndexerConcurrency int
	IndexerChunkDelay  int // seconds between chunks
	IndexerStageTimout int // per-stage timeout in seconds

	LogLevel  string
	LogFormat string
}

// Init wires viper defaults, the SKILLHUB_ env prefix and the optional
// config file. Call once from main before Load.
func Init() {
	viper.SetEnvPrefix("SKILLHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillhub")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig()

	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", 8080)
	viper.SetDefault("review_model", "gpt-4o-mini")
	viper.SetDefault("indexer.concurrency", 2)
	viper.SetDefault("indexer.chunk_delay", 2)
	viper.SetDefault("indexer.stage_timeout", 30)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "fmt")
}

// Load materializes the current viper state into a Config.
func Load() *Config {
	return &Config{
		Host:               viper.GetString("host"),
		Port:               viper.GetInt("port"),
		DatabaseURL:        viper.GetString("database_url"),
		DatabaseAnonURL:    viper.GetString("database_anon_url"),
		GitHubToken:        viper.GetString("github_token"),
		OpenAIAPIKey:       viper.GetString("openai_api_key"),
		OpenAIBaseURL:      viper.GetString("openai_base_url"),
		ReviewModel:        viper.GetString("review_model"),
		IndexerToken:       viper.GetString("indexer.token"),
		IndexerConcurrency: viper.GetInt("indexer.concurrency"),
		IndexerChunkDelay:  viper.GetInt("indexer.chunk_delay"),
		IndexerStageTimout: viper.GetInt("indexer.stage_timeout"),
		LogLevel:           viper.GetString("log_level"),
		LogFormat:          viper.GetString("log_format"),
	}
}

// Validate reports every configuration problem at once rather than failing
// on the first one.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Port < 1 || c.Port > 65535 {
		result = multierror.Append(result, errors.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if c.DatabaseURL == "" {
		result = multierror.Append(result, errors.New("database_url is required"))
	}
	if c.IndexerConcurrency < 1 {
		result = multierror.Append(result, errors.Errorf("indexer concurrency must be at least 1, got %d", c.IndexerConcurrency))
	}
	if c.IndexerStageTimout < 1 {
		result = multierror.Append(result, errors.Errorf("indexer stage timeout must be at least 1s, got %ds", c.IndexerStageTimout))
	}

	return result.ErrorOrNil()
}
