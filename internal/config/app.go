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

const (
	StorageDriverPostgres = "postgres"
	StorageDriverBolt     = "bolt"
	StorageDriverRedis    = "redis"
)

type HTTPServer struct {
	Port                     string `mapstructure:"port"`
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	ShutdownTimeoutSeconds   int    `mapstructure:"shutdown_timeout_seconds"`
}

func (h HTTPServer) ReadHeaderTimeout() time.Duration {
	return time.Duration(h.ReadHeaderTimeoutSeconds) * time.Second
}

func (h HTTPServer) ShutdownTimeout() time.Duration {
	return time.Duration(h.ShutdownTimeoutSeconds) * time.Second
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type HTTPClient struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type RateFeed struct {
	URL           string `mapstructure:"url"`
	PivotCurrency string `mapstructure:"pivot_currency"`
}

type Sync struct {
	Enabled              bool `mapstructure:"enabled"`
	IntervalSeconds      int  `mapstructure:"interval_seconds"`
	MaxAttempts          int  `mapstructure:"max_attempts"`
	BackoffBaseMs        int  `mapstructure:"backoff_base_ms"`
	RetentionDays        int  `mapstructure:"retention_days"`
	StartupAttempts      int  `mapstructure:"startup_attempts"`
	StartupDelaySeconds  int  `mapstructure:"startup_delay_seconds"`
	PurgeIntervalSeconds int  `mapstructure:"purge_interval_seconds"`
}

func (s Sync) Interval() time.Duration { return time.Duration(s.IntervalSeconds) * time.Second }

func (s Sync) BackoffBase() time.Duration { return time.Duration(s.BackoffBaseMs) * time.Millisecond }

func (s Sync) Retention() time.Duration { return time.Duration(s.RetentionDays) * 24 * time.Hour }

func (s Sync) StartupDelay() time.Duration { return time.Duration(s.StartupDelaySeconds) * time.Second }

func (s Sync) PurgeInterval() time.Duration {
	return time.Duration(s.PurgeIntervalSeconds) * time.Second
}

type Redis struct {
	Addr      string `mapstructure:"addr"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type Storage struct {
	Driver   string `mapstructure:"driver"`
	BoltPath string `mapstructure:"bolt_path"`
	Redis    Redis  `mapstructure:"redis"`
}

type Cache struct {
	MaxItems int64 `mapstructure:"max_items"`
}

type RateLimit struct {
	Sync string `mapstructure:"sync"`
}

type AppConfig struct {
	ServiceVersion string     `mapstructure:"service_version"`
	HTTPServer     HTTPServer `mapstructure:"http_server"`
	DbServer       DbServer   `mapstructure:"db_server"`
	HTTPClient     HTTPClient `mapstructure:"http_client"`
	Logging        Logging    `mapstructure:"logging"`
	RateFeed       RateFeed   `mapstructure:"rate_feed"`
	Sync           Sync       `mapstructure:"sync"`
	Storage        Storage    `mapstructure:"storage"`
	Cache          Cache      `mapstructure:"cache"`
	RateLimit      RateLimit  `mapstructure:"rate_limit"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_version", "1.0.0")
	v.SetDefault("http_server.port", "8080")
	v.SetDefault("http_server.read_header_timeout_seconds", 5)
	v.SetDefault("http_server.shutdown_timeout_seconds", 10)
	v.SetDefault("db_server.max_conns", 10)
	v.SetDefault("http_client.timeout_seconds", 30)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("rate_feed.url", "https://api.frankfurter.app/latest")
	v.SetDefault("rate_feed.pivot_currency", "EUR")
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.interval_seconds", 3600)
	v.SetDefault("sync.max_attempts", 3)
	v.SetDefault("sync.backoff_base_ms", 1000)
	v.SetDefault("sync.retention_days", 30)
	v.SetDefault("sync.startup_attempts", 10)
	v.SetDefault("sync.startup_delay_seconds", 30)
	v.SetDefault("sync.purge_interval_seconds", 86400)
	v.SetDefault("storage.driver", StorageDriverPostgres)
	v.SetDefault("storage.bolt_path", "ratelock.db")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "ratelock:")
	v.SetDefault("cache.max_items", 10000)
	v.SetDefault("rate_limit.sync", "5-M")
}

func bindEnv(v *viper.Viper) {
	// db server env vars
	_ = v.BindEnv("db_server.host", "DB_HOST")
	_ = v.BindEnv("db_server.port", "DB_PORT")
	_ = v.BindEnv("db_server.user", "DB_USER")
	_ = v.BindEnv("db_server.pass", "DB_PASS")
	_ = v.BindEnv("db_server.name", "DB_NAME")
	_ = v.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// http env vars
	_ = v.BindEnv("http_server.port", "HTTP_PORT")
	_ = v.BindEnv("http_client.timeout_seconds", "HTTP_CLIENT_TIMEOUT_SECONDS")

	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
	_ = v.BindEnv("rate_feed.url", "RATE_FEED_URL")
	_ = v.BindEnv("sync.enabled", "SYNC_ENABLED")
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.bolt_path", "BOLT_PATH")
	_ = v.BindEnv("storage.redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("storage.redis.db", "REDIS_DB")
}

// Init loads configuration from an optional .env file, the YAML file at
// CONFIG_PATH (config.yaml by default) and environment variables.
func Init() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return Load(path)
}

// Load reads configuration from path. A missing file is not an error:
// defaults and environment variables still apply.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}
	cfg.RateFeed.PivotCurrency = strings.ToUpper(strings.TrimSpace(cfg.RateFeed.PivotCurrency))
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverBolt, StorageDriverRedis:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if len(c.RateFeed.PivotCurrency) != 3 {
		return fmt.Errorf("pivot currency must be a 3 letter code, got %q", c.RateFeed.PivotCurrency)
	}
	if c.RateFeed.URL == "" {
		return errors.New("rate feed url is required")
	}
	if c.Sync.MaxAttempts < 1 {
		return fmt.Errorf("sync.max_attempts must be at least 1, got %d", c.Sync.MaxAttempts)
	}
	if c.Sync.RetentionDays < 0 {
		return fmt.Errorf("sync.retention_days must not be negative, got %d", c.Sync.RetentionDays)
	}
	if c.Storage.Driver == StorageDriverBolt && c.Storage.BoltPath == "" {
		return errors.New("storage.bolt_path is required for the bolt driver")
	}
	return nil
}
