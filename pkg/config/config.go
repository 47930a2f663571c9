// Package config loads the process configuration once at startup.
//
// Values come from a YAML file when one is present (with ${VAR} expansion)
// and from environment variables otherwise:
//
//	cfg := config.LoadOrEnv(os.Getenv("CONFIG_PATH"))
//	id := cfg.Ebay.ClientID
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL       = "https://api.ebay.com"
	DefaultMarketplaceID = "EBAY_IT"
	DefaultScope         = "https://api.ebay.com/oauth/api_scope/buy.browse"
	DefaultLimit         = 12
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Ebay    EbayConfig    `yaml:"ebay"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port                  string `yaml:"port"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

// EbayConfig holds the upstream credentials and endpoints. RefreshToken is
// optional; when set the token cache uses the refresh_token grant.
type EbayConfig struct {
	ClientID       string `yaml:"client_id"`
	ClientSecret   string `yaml:"client_secret"`
	RefreshToken   string `yaml:"refresh_token"`
	RedirectURI    string `yaml:"redirect_uri"`
	BaseURL        string `yaml:"base_url"`
	MarketplaceID  string `yaml:"marketplace_id"`
	Scope          string `yaml:"scope"`
	DefaultLimit   int    `yaml:"default_limit"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// CacheConfig controls the search result cache. TTLMinutes of 0 disables it.
// Cache hits bypass the credential check.
type CacheConfig struct {
	DatabasePath string `yaml:"database_path"`
	TTLMinutes   int    `yaml:"ttl_minutes"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// LoadFromEnv builds the configuration from environment variables only.
func LoadFromEnv() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:                  getEnv("PORT", "9090"),
			RequestTimeoutSeconds: getEnvInt("REQUEST_TIMEOUT_SECONDS", 30),
		},
		Ebay: EbayConfig{
			ClientID:       os.Getenv("EBAY_CLIENT_ID"),
			ClientSecret:   os.Getenv("EBAY_CLIENT_SECRET"),
			RefreshToken:   os.Getenv("EBAY_REFRESH_TOKEN"),
			RedirectURI:    os.Getenv("EBAY_REDIRECT_URI"),
			BaseURL:        getEnv("EBAY_API_BASE_URL", DefaultBaseURL),
			MarketplaceID:  getEnv("EBAY_MARKETPLACE_ID", DefaultMarketplaceID),
			Scope:          getEnv("EBAY_SCOPE", DefaultScope),
			DefaultLimit:   getEnvInt("EBAY_DEFAULT_LIMIT", DefaultLimit),
			TimeoutSeconds: getEnvInt("EBAY_TIMEOUT_SECONDS", 20),
		},
		Cache: CacheConfig{
			DatabasePath: getEnv("CACHE_DB_PATH", "./cache.db"),
			TTLMinutes:   getEnvInt("CACHE_TTL_MINUTES", 15),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries the YAML file at path and falls back to the environment
// when it is missing or unreadable.
func LoadOrEnv(path string) *Config {
	if path == "" {
		path = "config.yaml"
	}
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "9090"
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = 30
	}
	if c.Ebay.BaseURL == "" {
		c.Ebay.BaseURL = DefaultBaseURL
	}
	c.Ebay.BaseURL = strings.TrimRight(c.Ebay.BaseURL, "/")
	if c.Ebay.MarketplaceID == "" {
		c.Ebay.MarketplaceID = DefaultMarketplaceID
	}
	if c.Ebay.Scope == "" {
		c.Ebay.Scope = DefaultScope
	}
	if c.Ebay.DefaultLimit <= 0 {
		c.Ebay.DefaultLimit = DefaultLimit
	}
	if c.Ebay.TimeoutSeconds <= 0 {
		c.Ebay.TimeoutSeconds = 20
	}
	if c.Cache.TTLMinutes < 0 {
		c.Cache.TTLMinutes = 0
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// TokenURL is the identity endpoint used for every grant type.
func (e EbayConfig) TokenURL() string {
	return e.BaseURL + "/identity/v1/oauth2/token"
}

// SearchURL is the Browse API item summary search endpoint.
func (e EbayConfig) SearchURL() string {
	return e.BaseURL + "/buy/browse/v1/item_summary/search"
}

// Host returns the hostname of BaseURL, used to restrict outbound requests.
func (e EbayConfig) Host() string {
	u, err := url.Parse(e.BaseURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func (e EbayConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
