package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Драйверы хранилища
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// ErrInvalidConfig возвращается, когда конфигурация не прошла проверку
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config конфигурация сервиса
type Config struct {
	Server          ServerConfig          `toml:"server"`
	Database        DatabaseConfig        `toml:"database"`
	Storage         StorageConfig         `toml:"storage"`
	Logs            LogsConfig            `toml:"logs"`
	Metrics         MetricsConfig         `toml:"metrics"`
	IdentityService IdentityServiceConfig `toml:"identity_service"`
	VehicleService  VehicleServiceConfig  `toml:"vehicle_service"`
	Redis           RedisConfig           `toml:"redis"`
	Kafka           KafkaConfig           `toml:"kafka"`
	Payment         PaymentConfig         `toml:"payment"`
	Poller          PollerConfig          `toml:"poller"`
}

// ServerConfig настройки HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig настройки PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"` // секунды
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// StorageConfig выбор хранилища
type StorageConfig struct {
	Driver string `toml:"driver"` // postgres | memory
}

// LogsConfig настройки логирования
type LogsConfig struct {
	File  string `toml:"file"` // пусто - stdout
	Level string `toml:"level"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// IdentityServiceConfig клиент сервиса пользователей
type IdentityServiceConfig struct {
	URL      string `toml:"url"`
	Timeout  int    `toml:"timeout"`   // секунды
	ActorTTL int    `toml:"actor_ttl"` // секунды, кэш пользователя
}

// VehicleServiceConfig клиент справочника машин
type VehicleServiceConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// RedisConfig кэш тарифов, пустой addr отключает кэш
type RedisConfig struct {
	Addr        string `toml:"addr"`
	Password    string `toml:"password"`
	DB          int    `toml:"db"`
	RateCardTTL int    `toml:"rate_card_ttl"` // секунды
}

// KafkaConfig уведомления, пустой список брокеров отключает отправку
type KafkaConfig struct {
	Brokers      []string `toml:"brokers"`
	Topic        string   `toml:"topic"`
	WriteTimeout int      `toml:"write_timeout"` // секунды
}

// PaymentConfig платежный провайдер
type PaymentConfig struct {
	StripeSecretKey     string `toml:"stripe_secret_key"`
	StripeWebhookSecret string `toml:"stripe_webhook_secret"`
	Currency            string `toml:"currency"`
	ConfirmTimeout      int    `toml:"confirm_timeout"` // секунды
}

// PollerConfig поллер депозитов
type PollerConfig struct {
	Enabled           bool    `toml:"enabled"`
	Schedule          string  `toml:"schedule"`
	BatchSize         int     `toml:"batch_size"`
	Workers           int     `toml:"workers"`
	MaxAttempts       int     `toml:"max_attempts"`
	BaseBackoffMs     int     `toml:"base_backoff_ms"`
	MaxBackoffMs      int     `toml:"max_backoff_ms"`
	SweepTimeout      int     `toml:"sweep_timeout"` // секунды
	ProviderRateLimit float64 `toml:"provider_rate_limit"`
	ProviderRateBurst int     `toml:"provider_rate_burst"`
}

// Load читает конфигурацию из TOML файла
// Секреты можно передать через переменные окружения, они имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "rental_service",
		},
		IdentityService: IdentityServiceConfig{Timeout: 5, ActorTTL: 30},
		VehicleService:  VehicleServiceConfig{Timeout: 5},
		Redis:           RedisConfig{RateCardTTL: 300},
		Kafka:           KafkaConfig{Topic: "rental.booking-events", WriteTimeout: 5},
		Payment: PaymentConfig{
			Currency:       "usd",
			ConfirmTimeout: 10,
		},
		Poller: PollerConfig{
			Enabled:           true,
			Schedule:          "0 */1 * * * *",
			BatchSize:         100,
			Workers:           4,
			MaxAttempts:       5,
			BaseBackoffMs:     1000,
			MaxBackoffMs:      30000,
			SweepTimeout:      300,
			ProviderRateLimit: 10,
			ProviderRateBurst: 1,
		},
	}
}

func (c *Config) overrideWithEnv() {
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("STRIPE_SECRET_KEY"); val != "" {
		c.Payment.StripeSecretKey = val
	}
	if val := os.Getenv("STRIPE_WEBHOOK_SECRET"); val != "" {
		c.Payment.StripeWebhookSecret = val
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, fmt.Sprintf("invalid server.http_port: %d", c.Server.HTTPPort))
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres:
		if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
			problems = append(problems, "database.host, database.user and database.dbname are required for postgres storage")
		}
	case StorageDriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.driver %q", c.Storage.Driver))
	}

	if c.IdentityService.URL == "" {
		problems = append(problems, "identity_service.url is required")
	}
	if c.VehicleService.URL == "" {
		problems = append(problems, "vehicle_service.url is required")
	}

	if c.Payment.StripeSecretKey == "" {
		problems = append(problems, "payment.stripe_secret_key is required")
	}
	if !isCurrencyCode(c.Payment.Currency) {
		problems = append(problems, fmt.Sprintf("payment.currency must be an ISO 4217 code, got %q", c.Payment.Currency))
	}
	if c.Payment.ConfirmTimeout <= 0 {
		problems = append(problems, "payment.confirm_timeout must be positive")
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		problems = append(problems, "kafka.topic is required when brokers are set")
	}

	if c.Poller.Enabled {
		if c.Poller.MaxAttempts <= 0 {
			problems = append(problems, "poller.max_attempts must be positive")
		}
		if c.Poller.BaseBackoffMs <= 0 || c.Poller.MaxBackoffMs < c.Poller.BaseBackoffMs {
			problems = append(problems, "poller backoff must satisfy 0 < base_backoff_ms <= max_backoff_ms")
		}
		if c.Poller.ProviderRateLimit <= 0 {
			problems = append(problems, "poller.provider_rate_limit must be positive")
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// Seconds переводит целые секунды конфигурации в time.Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Milliseconds переводит миллисекунды конфигурации в time.Duration
func Milliseconds(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
