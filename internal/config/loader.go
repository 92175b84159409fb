// internal/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderLog = "log"
	ProviderSNS = "sns"
	ProviderSES = "ses"
	ProviderAWS = "aws"
)

// Load reads .env, configs/config.yaml and configs/config.<env>.yaml, then
// lets environment variables override any key (database.postgres.host ->
// DATABASE_POSTGRES_HOST).
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}
	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig()

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that
// are absent from the yaml files.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "dripline")
	v.SetDefault("app.environment", "development")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.database", "dripline")
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_connections", 25)
	v.SetDefault("database.postgres.max_idle", 5)
	v.SetDefault("database.postgres.conn_max_lifetime", "30m")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.dedupe_ttl", "24h")
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.topics.replies", "reply_events")
	v.SetDefault("amqp.topics.stage_changes", "stage_change_events")
	v.SetDefault("amqp.topics.lead_requests", "lead_requests")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("dispatch.interval", "60s")
	v.SetDefault("dispatch.batch_size", 20)
	v.SetDefault("dispatch.daily_limit", 40)
	v.SetDefault("dispatch.quota_timezone", "UTC")
	v.SetDefault("dispatch.window_retry", "15m")
	v.SetDefault("dispatch.send_timeout", "30s")
	v.SetDefault("channel.provider", ProviderLog)
	v.SetDefault("channel.region", "us-east-1")
	v.SetDefault("channel.from_email", "")
	v.SetDefault("channel.email_subject", "")
	v.SetDefault("channel.sms_sender_id", "")
	v.SetDefault("channel.rate_per_sec", 10)
	v.SetDefault("channel.burst", 1)
}

// applyDefaults repairs zero values that slipped through from yaml.
func applyDefaults(cfg *Config) {
	if cfg.Dispatch.Interval <= 0 {
		cfg.Dispatch.Interval = 60 * time.Second
	}
	if cfg.Dispatch.BatchSize <= 0 {
		cfg.Dispatch.BatchSize = 20
	}
	if cfg.Dispatch.WindowRetry <= 0 {
		cfg.Dispatch.WindowRetry = 15 * time.Minute
	}
	if cfg.Dispatch.QuotaTimezone == "" {
		cfg.Dispatch.QuotaTimezone = "UTC"
	}
	if cfg.Redis.DedupeTTL <= 0 {
		cfg.Redis.DedupeTTL = 24 * time.Hour
	}
	if cfg.Channel.Provider == "" {
		cfg.Channel.Provider = ProviderLog
	}
	cfg.Channel.Provider = strings.ToLower(cfg.Channel.Provider)
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Database.Postgres.User == "" {
		return fmt.Errorf("database.postgres.user is required")
	}
	if _, err := time.LoadLocation(cfg.Dispatch.QuotaTimezone); err != nil {
		return fmt.Errorf("dispatch.quota_timezone: %w", err)
	}
	switch cfg.Channel.Provider {
	case ProviderLog, ProviderSNS:
	case ProviderSES, ProviderAWS:
		if cfg.Channel.FromEmail == "" {
			return fmt.Errorf("channel.from_email is required for provider %q", cfg.Channel.Provider)
		}
	default:
		return fmt.Errorf("unknown channel.provider %q", cfg.Channel.Provider)
	}
	return nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}
	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
