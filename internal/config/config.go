// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// ValidFrequencies are the accepted scheduled-sync frequencies. "disabled"
// turns the scheduler off.
var ValidFrequencies = []string{"disabled", "daily", "weekly", "monthly"}

// Config holds all configuration for the application. It is assembled once
// at startup and treated as immutable afterwards.
type Config struct {
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	DBURL         string `mapstructure:"DB_URL"`
	HTTPAddr      string `mapstructure:"HTTP_ADDR"`
	GithubOrg     string `mapstructure:"GITHUB_ORG"`
	GithubToken   string `mapstructure:"GITHUB_TOKEN"`
	SkipForks     bool   `mapstructure:"SKIP_FORKS"`
	SkipArchived  bool   `mapstructure:"SKIP_ARCHIVED"`
	SyncFrequency string `mapstructure:"SYNC_FREQUENCY"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("SKIP_FORKS", true)
	viper.SetDefault("SKIP_ARCHIVED", true)
	viper.SetDefault("SYNC_FREQUENCY", "disabled")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// The org may be pasted as a full GitHub URL; keep only the org name.
	// It may legitimately be empty here: the syncer rejects an empty org
	// per run, so the token/org can be configured after first boot.
	cfg.GithubOrg = ParseOrganization(cfg.GithubOrg)

	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if !validFrequency(cfg.SyncFrequency) {
		return nil, fmt.Errorf("SYNC_FREQUENCY must be one of %s", strings.Join(ValidFrequencies, ", "))
	}

	return &cfg, nil
}

// ParseOrganization accepts either a bare organization name or a full
// github.com URL and returns the organization name.
func ParseOrganization(input string) string {
	input = strings.TrimSpace(input)

	if strings.Contains(input, "github.com") {
		raw := input
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			return input
		}
		path := strings.Trim(parsed.Path, "/")
		if path == "" {
			return ""
		}
		return strings.Split(path, "/")[0]
	}

	return input
}

func validFrequency(f string) bool {
	for _, v := range ValidFrequencies {
		if f == v {
			return true
		}
	}
	return false
}
