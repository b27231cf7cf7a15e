package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environment variables read on top of the config file
const (
	EnvAPIKey    = "BINANCE_API_KEY"
	EnvSecretKey = "BINANCE_SECRET_KEY"
	EnvLogLevel  = "FUTURESBOT_LOG_LEVEL"
	EnvProvider  = "FUTURESBOT_PROVIDER"
	EnvListen    = "FUTURESBOT_LISTEN"
	EnvDebug     = "FUTURESBOT_DEBUG"
)

// Exchange endpoints
const (
	BinanceFuturesURL        = "https://fapi.binance.com"
	BinanceFuturesTestnetURL = "https://testnet.binancefuture.com"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `json:"app" yaml:"app"`
	Exchange   ExchangeConfig   `json:"exchange" yaml:"exchange"`
	Orders     OrdersConfig     `json:"orders" yaml:"orders"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// AppConfig contains basic application configuration
type AppConfig struct {
	Name        string `json:"name" yaml:"name"`
	Version     string `json:"version" yaml:"version"`
	Environment string `json:"environment" yaml:"environment"` // "development", "production", "test"
	Debug       bool   `json:"debug" yaml:"debug"`
}

// ExchangeConfig selects and configures the exchange gateway
type ExchangeConfig struct {
	Provider        string        `json:"provider" yaml:"provider"` // "binance", "simulation"
	BaseURL         string        `json:"base_url" yaml:"base_url"` // empty picks from Testnet
	Testnet         bool          `json:"testnet" yaml:"testnet"`
	RecvWindow      time.Duration `json:"recv_window" yaml:"recv_window"`
	Timeout         time.Duration `json:"timeout" yaml:"timeout"`
	RateLimitPerSec int           `json:"rate_limit_per_sec" yaml:"rate_limit_per_sec"`

	// Secrets never live in the config file
	APIKey    string `json:"-" yaml:"-"`
	APISecret string `json:"-" yaml:"-"`
}

// OrdersConfig contains fill tracking defaults
type OrdersConfig struct {
	PollInterval   time.Duration `json:"poll_interval" yaml:"poll_interval"`
	DefaultTimeout time.Duration `json:"default_timeout" yaml:"default_timeout"`
	MaxPollRetries int           `json:"max_poll_retries" yaml:"max_poll_retries"`
	DefaultSymbol  string        `json:"default_symbol" yaml:"default_symbol"`
}

// SimulationConfig configures the in-memory paper exchange
type SimulationConfig struct {
	InitialBalance   float64            `json:"initial_balance" yaml:"initial_balance"`
	MarkPrices       map[string]float64 `json:"mark_prices" yaml:"mark_prices"`
	DefaultMarkPrice float64            `json:"default_mark_price" yaml:"default_mark_price"`
	Commission       float64            `json:"commission" yaml:"commission"`
	Slippage         float64            `json:"slippage" yaml:"slippage"`
	Leverage         int                `json:"leverage" yaml:"leverage"`
	Latency          time.Duration      `json:"latency" yaml:"latency"`
	FillProbability  float64            `json:"fill_probability" yaml:"fill_probability"`
	RejectionRate    float64            `json:"rejection_rate" yaml:"rejection_rate"`
	Seed             int64              `json:"seed" yaml:"seed"`
}

// ServerConfig contains the dashboard HTTP server configuration
type ServerConfig struct {
	ListenAddr        string        `json:"listen_addr" yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `json:"level" yaml:"level"`         // "debug", "info", "warn", "error"
	Format    string `json:"format" yaml:"format"`       // "json", "text"
	Output    string `json:"output" yaml:"output"`       // "stdout", "stderr", "file", "both"
	Directory string `json:"directory" yaml:"directory"` // Log file directory

	// File rotation
	MaxSize    int  `json:"max_size" yaml:"max_size"`       // Max MB per file
	MaxBackups int  `json:"max_backups" yaml:"max_backups"` // Max number of old files
	MaxAge     int  `json:"max_age" yaml:"max_age"`         // Max days to retain
	Compress   bool `json:"compress" yaml:"compress"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "Futures Trading Bot",
			Version:     "1.0.0",
			Environment: "development",
		},
		Exchange: ExchangeConfig{
			Provider:        "binance",
			Testnet:         true,
			RecvWindow:      5 * time.Second,
			Timeout:         10 * time.Second,
			RateLimitPerSec: 10,
		},
		Orders: OrdersConfig{
			PollInterval:   2 * time.Second,
			DefaultTimeout: 20 * time.Second,
			MaxPollRetries: 2,
			DefaultSymbol:  "BTCUSDT",
		},
		Simulation: SimulationConfig{
			InitialBalance: 10000.0,
			MarkPrices: map[string]float64{
				"BTCUSDT": 50000.0,
				"ETHUSDT": 3000.0,
			},
			DefaultMarkPrice: 100.0,
			Commission:       0.0004, // 0.04%
			Leverage:         20,
			Latency:          500 * time.Millisecond,
			FillProbability:  0.8,
			RejectionRate:    0.0,
		},
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "both",
			Directory:  "./logs",
			MaxSize:    100, // MB
			MaxBackups: 10,
			MaxAge:     30, // days
			Compress:   true,
		},
	}
}

// LoadConfig loads configuration from file, creating it with defaults when it
// does not exist. JSON and YAML are picked by file extension.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		defaultConfig := DefaultConfig()
		if err := SaveConfig(defaultConfig, configPath); err != nil {
			return nil, errors.Wrap(err, "failed to create default config")
		}
		return defaultConfig, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := DefaultConfig()
	if isYAML(configPath) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	var (
		data []byte
		err  error
	)
	if isYAML(configPath) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadEnv loads a .env file if present and applies secrets and overrides from
// the environment.
func (c *Config) LoadEnv(files ...string) {
	_ = godotenv.Load(files...)

	c.Exchange.APIKey = GetEnv(EnvAPIKey, c.Exchange.APIKey)
	c.Exchange.APISecret = GetEnv(EnvSecretKey, c.Exchange.APISecret)
	c.Exchange.Provider = GetEnv(EnvProvider, c.Exchange.Provider)
	c.Logging.Level = GetEnv(EnvLogLevel, c.Logging.Level)
	c.Server.ListenAddr = GetEnv(EnvListen, c.Server.ListenAddr)
}

// ResolveBaseURL returns the configured base URL or the default for the network
func (e ExchangeConfig) ResolveBaseURL() string {
	if e.BaseURL != "" {
		return strings.TrimSuffix(e.BaseURL, "/")
	}
	if e.Testnet {
		return BinanceFuturesTestnetURL
	}
	return BinanceFuturesURL
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return errors.New("app name is required")
	}

	switch c.Exchange.Provider {
	case "binance", "simulation":
	default:
		return errors.Errorf("unsupported exchange provider: %s", c.Exchange.Provider)
	}
	if c.Exchange.RateLimitPerSec <= 0 {
		return errors.New("rate limit per second must be positive")
	}

	if c.Orders.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.Orders.DefaultTimeout <= 0 {
		return errors.New("default timeout must be positive")
	}
	if c.Orders.MaxPollRetries < 0 {
		return errors.New("max poll retries cannot be negative")
	}

	if c.Simulation.FillProbability < 0 || c.Simulation.FillProbability > 1 {
		return errors.New("fill probability must be between 0 and 1")
	}
	if c.Simulation.RejectionRate < 0 || c.Simulation.RejectionRate > 1 {
		return errors.New("rejection rate must be between 0 and 1")
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return errors.Errorf("invalid log level: %s", c.Logging.Level)
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		return errors.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ValidateCredentials checks that a live gateway has keys to sign with
func (c *Config) ValidateCredentials() error {
	if c.Exchange.Provider != "binance" {
		return nil
	}
	if c.Exchange.APIKey == "" || c.Exchange.APISecret == "" {
		return errors.Errorf("API keys not found: set %s and %s (or a .env file)", EnvAPIKey, EnvSecretKey)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// GetEnv returns environment variable with default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool returns boolean environment variable with default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}
