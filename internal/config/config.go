// internal/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	AMQP     AMQPConfig     `mapstructure:"amqp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	Channel  ChannelConfig  `mapstructure:"channel"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MaxIdle         int           `mapstructure:"max_idle"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig is optional. An empty address disables reply de-duplication.
type RedisConfig struct {
	Address   string        `mapstructure:"address"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	DedupeTTL time.Duration `mapstructure:"dedupe_ttl"`
}

// AMQPConfig is optional. An empty URL falls back to the in-memory queue.
type AMQPConfig struct {
	URL    string       `mapstructure:"url"`
	Topics TopicsConfig `mapstructure:"topics"`
}

type TopicsConfig struct {
	Replies      string `mapstructure:"replies"`
	StageChanges string `mapstructure:"stage_changes"`
	LeadRequests string `mapstructure:"lead_requests"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DispatchConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	BatchSize     int           `mapstructure:"batch_size"`
	DailyLimit    int           `mapstructure:"daily_limit"`
	QuotaTimezone string        `mapstructure:"quota_timezone"`
	WindowRetry   time.Duration `mapstructure:"window_retry"`
	SendTimeout   time.Duration `mapstructure:"send_timeout"`
}

// QuotaLocation is the calendar used for "sends today".
func (d DispatchConfig) QuotaLocation() *time.Location {
	loc, err := time.LoadLocation(d.QuotaTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ChannelConfig struct {
	Provider      string  `mapstructure:"provider"`
	Region        string  `mapstructure:"region"`
	FromEmail     string  `mapstructure:"from_email"`
	EmailSubject  string  `mapstructure:"email_subject"`
	SMSSenderID   string  `mapstructure:"sms_sender_id"`
	RatePerSecond float64 `mapstructure:"rate_per_sec"`
	Burst         int     `mapstructure:"burst"`
}
