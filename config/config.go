package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration (optional run-history store)
	Database DatabaseConfig

	// Market data provider configuration
	Alpaca AlpacaConfig

	// Screener configuration
	Screener ScreenerConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// AlpacaConfig holds Alpaca API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string // market data API override; empty uses the client default
}

// ScreenerConfig holds screening configuration
type ScreenerConfig struct {
	MaxUniverse      int     // Hard cap on symbols screened per request (default: 25)
	CallsPerSymbol   int     // Provider calls made for one symbol (quote + history = 2)
	RateLimitPerMin  int     // Provider call budget per minute (default: 60)
	LookbackDays     int     // Historical lookback for enrichment (default: 365)
	UnknownCondition string  // "fail-open" or "fail-closed" for unknown fields/operations
	VolumeAvgPeriod  int     // Rolling window for average volume (default: 20)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Addr               string
	APIKey             string // when set, requests must carry X-API-Key
	CORSAllowedOrigins string
	TimeoutSeconds     int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			BaseURL:   os.Getenv("ALPACA_DATA_BASE_URL"),
		},
		Screener: ScreenerConfig{
			MaxUniverse:      getEnvInt("SCREENER_MAX_UNIVERSE", 25),
			CallsPerSymbol:   getEnvInt("SCREENER_CALLS_PER_SYMBOL", 2),
			RateLimitPerMin:  getEnvInt("SCREENER_RATE_LIMIT_PER_MIN", 60),
			LookbackDays:     getEnvInt("SCREENER_LOOKBACK_DAYS", 365),
			UnknownCondition: getEnvString("SCREENER_UNKNOWN_CONDITION_POLICY", "fail-open"),
			VolumeAvgPeriod:  getEnvInt("SCREENER_VOLUME_AVG_PERIOD", 20),
		},
		HTTP: HTTPConfig{
			Addr:               getEnvString("HTTP_ADDR", ":8080"),
			APIKey:             os.Getenv("SCREENER_API_KEY"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
			TimeoutSeconds:     getEnvInt("HTTP_TIMEOUT_SECONDS", 120),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Screener.MaxUniverse <= 0 {
		return fmt.Errorf("SCREENER_MAX_UNIVERSE must be positive, got %d", c.Screener.MaxUniverse)
	}
	if c.Screener.CallsPerSymbol <= 0 {
		return fmt.Errorf("SCREENER_CALLS_PER_SYMBOL must be positive, got %d", c.Screener.CallsPerSymbol)
	}
	if c.Screener.RateLimitPerMin <= 0 {
		return fmt.Errorf("SCREENER_RATE_LIMIT_PER_MIN must be positive, got %d", c.Screener.RateLimitPerMin)
	}
	if c.Screener.LookbackDays <= 0 {
		return fmt.Errorf("SCREENER_LOOKBACK_DAYS must be positive, got %d", c.Screener.LookbackDays)
	}
	if p := c.Screener.UnknownCondition; p != "fail-open" && p != "fail-closed" {
		return fmt.Errorf("SCREENER_UNKNOWN_CONDITION_POLICY must be fail-open or fail-closed, got %q", p)
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Alpaca: AlpacaConfig{
			APIKey:    "test-key",
			APISecret: "test-secret",
		},
		Screener: ScreenerConfig{
			MaxUniverse:      25,
			CallsPerSymbol:   2,
			RateLimitPerMin:  60,
			LookbackDays:     365,
			UnknownCondition: "fail-open",
			VolumeAvgPeriod:  20,
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			CORSAllowedOrigins: "*",
			TimeoutSeconds:     120,
		},
	}
}
