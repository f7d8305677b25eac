package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

// Minimum history needed for one defined 200-day average on each of the two
// rows the change detector compares.
const MinLookbackDays = 202

// Price providers
const (
	ProviderYahoo      = "yahoo"
	ProviderExchange   = "exchange"
	ProviderClickHouse = "clickhouse"
)

// Channel sources
const (
	ChannelSourceStatic   = "static"
	ChannelSourcePostgres = "postgres"
)

// Config represents application configuration
type Config struct {
	Signal     SignalConfig     `envconfig:"SIGNAL"`
	Price      PriceConfig      `envconfig:"PRICE"`
	Exchange   ExchangeConfig   `envconfig:"EXCHANGE"`
	FearGreed  FearGreedConfig  `envconfig:"FNG"`
	Retry      RetryConfig      `envconfig:"RETRY"`
	Telegram   TelegramConfig   `envconfig:"TELEGRAM"`
	Database   DatabaseConfig   `envconfig:"DATABASE"`
	ClickHouse ClickHouseConfig `envconfig:"CLICKHOUSE"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Schedule   ScheduleConfig   `envconfig:"SCHEDULE"`
	Health     HealthConfig     `envconfig:"HEALTH"`
	Logging    LoggingConfig    `envconfig:"LOG"`
}

// SignalConfig represents the run parameters
type SignalConfig struct {
	Ticker        string `envconfig:"TICKER" default:"SPY"`
	LookbackDays  int    `envconfig:"LOOKBACK_DAYS" default:"250"`
	Strategy      string `envconfig:"STRATEGY" default:"threshold"`
	NotifyAlways  bool   `envconfig:"NOTIFY_ALWAYS" default:"false"`
	DryRun        bool   `envconfig:"DRY_RUN" default:"false"`
	SentimentDays int    `envconfig:"SENTIMENT_DAYS" default:"30"`
}

// PriceConfig selects the price history provider
type PriceConfig struct {
	Provider string        `envconfig:"PROVIDER" default:"yahoo"`
	BaseURL  string        `envconfig:"BASE_URL" default:"https://query1.finance.yahoo.com"`
	Timeout  time.Duration `envconfig:"TIMEOUT" default:"15s"`
}

// ExchangeConfig represents ccxt exchange configuration
type ExchangeConfig struct {
	Name    string `envconfig:"NAME" default:"binance"`
	Quote   string `envconfig:"QUOTE" default:"USDT"`
	APIKey  string `envconfig:"API_KEY" required:"false"`
	Secret  string `envconfig:"SECRET" required:"false"`
	Testnet bool   `envconfig:"TESTNET" default:"false"`
}

// FearGreedConfig represents the CNN Fear & Greed endpoint
type FearGreedConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" default:"https://production.dataviz.cnn.io"`
	UserAgent string        `envconfig:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"1h"`
}

// RetryConfig bounds transient-failure retries of external fetches
type RetryConfig struct {
	Attempts  int           `envconfig:"ATTEMPTS" default:"3"`
	BaseDelay time.Duration `envconfig:"BASE_DELAY" default:"1s"`
}

// TelegramConfig represents Telegram bot configuration
type TelegramConfig struct {
	BotToken      string   `envconfig:"BOT_TOKEN"`
	APIEndpoint   string   `envconfig:"API_ENDPOINT" default:"https://api.telegram.org/bot%s/%s"`
	Channels      []string `envconfig:"CHANNELS"`
	DebugChannels []string `envconfig:"DEBUG_CHANNELS"`
	ParseMode     string   `envconfig:"PARSE_MODE" default:""`
	ChannelSource string   `envconfig:"CHANNEL_SOURCE" default:"static"`
}

// DatabaseConfig represents database connection parameters
type DatabaseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"5432"`
	Name     string `envconfig:"NAME" default:"signal"`
	User     string `envconfig:"USER" default:"signal"`
	Password string `envconfig:"PASSWORD" default:""`
	SSLMode  string `envconfig:"SSLMODE" default:"disable"`
}

// ClickHouseConfig represents ClickHouse connection parameters
type ClickHouseConfig struct {
	Host     string `envconfig:"HOST" default:"localhost"`
	Port     int    `envconfig:"PORT" default:"9000"`
	Database string `envconfig:"DATABASE" default:"market"`
	User     string `envconfig:"USER" default:"default"`
	Password string `envconfig:"PASSWORD" default:""`
}

// RedisConfig represents Redis connection parameters
type RedisConfig struct {
	Enabled   bool          `envconfig:"ENABLED" default:"false"`
	Host      string        `envconfig:"HOST" default:"localhost"`
	Port      int           `envconfig:"PORT" default:"6379"`
	Password  string        `envconfig:"PASSWORD" default:""`
	DB        int           `envconfig:"DB" default:"0"`
	LockTTL   time.Duration `envconfig:"LOCK_TTL" default:"12h"`
	KeyPrefix string        `envconfig:"KEY_PREFIX" default:"fng-signal:"`
}

// ScheduleConfig represents serve-mode scheduling
type ScheduleConfig struct {
	Cron     string `envconfig:"CRON" default:"0 22 * * 1-5"`
	Timezone string `envconfig:"TIMEZONE" default:"America/New_York"`
}

// HealthConfig represents the serve-mode probe server
type HealthConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"false"`
	Addr    string `envconfig:"ADDR" default:":8080"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	File   string `envconfig:"FILE" default:"logs/signal.log"`
	Format string `envconfig:"FORMAT" default:"console"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg, err := Parse()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse reads configuration from environment variables without validating,
// so callers can apply command line overrides first
func Parse() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Signal.Ticker) == "" {
		return fmt.Errorf("ticker is required")
	}

	switch c.Signal.Strategy {
	case "threshold", "decision_table":
	default:
		return fmt.Errorf("strategy must be threshold or decision_table, got %q", c.Signal.Strategy)
	}

	if c.Signal.LookbackDays < MinLookbackDays {
		return fmt.Errorf("lookback_days must be at least %d, got %d", MinLookbackDays, c.Signal.LookbackDays)
	}
	if c.Signal.SentimentDays < 2 {
		return fmt.Errorf("sentiment_days must be at least 2")
	}

	switch c.Price.Provider {
	case ProviderYahoo, ProviderExchange, ProviderClickHouse:
	default:
		return fmt.Errorf("unknown price provider %q", c.Price.Provider)
	}

	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry attempts must be at least 1")
	}

	switch c.Telegram.ChannelSource {
	case ChannelSourceStatic:
		if len(c.Telegram.Channels) == 0 && len(c.Telegram.DebugChannels) == 0 {
			return fmt.Errorf("at least one telegram channel is required")
		}
	case ChannelSourcePostgres:
	default:
		return fmt.Errorf("unknown channel source %q", c.Telegram.ChannelSource)
	}

	if c.Telegram.BotToken == "" && !c.Signal.DryRun {
		return fmt.Errorf("telegram bot token is required")
	}

	if _, err := time.LoadLocation(c.Schedule.Timezone); err != nil {
		return fmt.Errorf("invalid schedule timezone %q: %w", c.Schedule.Timezone, err)
	}

	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// GetDSN returns ClickHouse connection string
func (c *ClickHouseConfig) GetDSN() string {
	return fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s", c.User, c.Password, c.Host, c.Port, c.Database)
}

// Addr returns host:port of the Redis server
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
