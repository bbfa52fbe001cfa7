package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-WellnessBooking/internal/domain"
)

var (
	// ErrInvalidConfig возвращается, когда конфигурация не проходит валидацию
	ErrInvalidConfig = errors.New("config: invalid configuration")
)

// Config конфигурация сервиса
type Config struct {
	Server         ServerConfig        `toml:"server"`
	Database       DatabaseConfig      `toml:"database"`
	Logs           LogsConfig          `toml:"logs"`
	Metrics        MetricsConfig       `toml:"metrics"`
	CatalogService IntegrationConfig   `toml:"catalog_service"`
	PromoService   IntegrationConfig   `toml:"promo_service"`
	Cache          CacheConfig         `toml:"cache"`
	Notifications  NotificationsConfig `toml:"notifications"`
	Booking        BookingConfig       `toml:"booking"`
	Bonus          BonusConfig         `toml:"bonus"`
	Sweeper        SweeperConfig       `toml:"sweeper"`
}

// ServerConfig настройки HTTP сервера, таймауты в секундах
type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

// DatabaseConfig подключение к PostgreSQL
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
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки Prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// IntegrationConfig внешний HTTP сервис
type IntegrationConfig struct {
	URL     string `toml:"url"`
	Timeout int    `toml:"timeout"` // секунды
}

// TimeoutDuration таймаут клиента
func (c IntegrationConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// CacheConfig кеш каталога услуг в Redis
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// TTL время жизни записи кеша
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// NotificationsConfig публикация событий о записях
type NotificationsConfig struct {
	Enabled   bool     `toml:"enabled"`
	Brokers   []string `toml:"brokers"`
	Topic     string   `toml:"topic"`
	QueueSize int      `toml:"queue_size"`
}

// BookingConfig правила бронирования
type BookingConfig struct {
	SlotGranularityMinutes int    `toml:"slot_granularity_minutes"`
	MinNoticeMinutes       int    `toml:"min_notice_minutes"`
	AdvanceDays            int    `toml:"advance_days"` // 0 = без ограничения
	Timezone               string `toml:"timezone"`
}

// Location часовой пояс центра, в котором заданы расписания
func (c BookingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// BonusConfig правила бонусной программы
type BonusConfig struct {
	ReferralAmount int64 `toml:"referral_amount"`
}

// SweeperConfig фоновое завершение прошедших записей
type SweeperConfig struct {
	Enabled bool   `toml:"enabled"`
	Cron    string `toml:"cron"`
}

// Load читает .env (если есть), TOML файл и переменные окружения
// Переменные окружения имеют приоритет над файлом
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.HTTPPort, 8080)
	setDefault(&c.Server.ReadTimeout, 15)
	setDefault(&c.Server.WriteTimeout, 15)
	setDefault(&c.Server.IdleTimeout, 60)
	setDefault(&c.Server.ShutdownTimeout, 10)

	setDefault(&c.Database.Port, 5432)
	setDefault(&c.Database.MaxOpenConns, 25)
	setDefault(&c.Database.MaxIdleConns, 5)
	setDefault(&c.Database.ConnMaxLifetime, 300)
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Metrics.ServiceName == "" {
		c.Metrics.ServiceName = "wellness_booking"
	}

	setDefault(&c.CatalogService.Timeout, 5)
	setDefault(&c.PromoService.Timeout, 5)

	setDefault(&c.Cache.TTLSeconds, 300)
	if c.Cache.Addr == "" {
		c.Cache.Addr = "localhost:6379"
	}

	setDefault(&c.Notifications.QueueSize, 256)
	if c.Notifications.Topic == "" {
		c.Notifications.Topic = "appointments"
	}

	setDefault(&c.Booking.SlotGranularityMinutes, domain.DefaultSlotGranularityMinutes)
	setDefault(&c.Booking.MinNoticeMinutes, domain.DefaultMinBookingNoticeMinutes)
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = "UTC"
	}

	if c.Sweeper.Cron == "" {
		c.Sweeper.Cron = "*/5 * * * *"
	}
}

func (c *Config) applyEnv() error {
	overrideString(&c.Database.Host, "DB_HOST")
	overrideString(&c.Database.User, "DB_USER")
	overrideString(&c.Database.Password, "DB_PASSWORD")
	overrideString(&c.Database.DBName, "DB_NAME")
	overrideString(&c.Cache.Addr, "REDIS_ADDR")

	if v, ok := os.LookupEnv("DB_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: DB_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		c.Database.Port = port
	}

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		brokers := make([]string, 0)
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
		c.Notifications.Brokers = brokers
	}

	return nil
}

// Validate проверяет обязательные поля и диапазоны
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("%w: server.http_port must be in 1..65535", ErrInvalidConfig)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("%w: database.host is required", ErrInvalidConfig)
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("%w: database.port must be positive", ErrInvalidConfig)
	}
	if c.Database.User == "" {
		return fmt.Errorf("%w: database.user is required", ErrInvalidConfig)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("%w: database.dbname is required", ErrInvalidConfig)
	}

	switch strings.ToLower(c.Logs.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logs.level %q is unknown", ErrInvalidConfig, c.Logs.Level)
	}

	if c.CatalogService.URL == "" {
		return fmt.Errorf("%w: catalog_service.url is required", ErrInvalidConfig)
	}
	if c.PromoService.URL == "" {
		return fmt.Errorf("%w: promo_service.url is required", ErrInvalidConfig)
	}

	if c.Notifications.Enabled && len(c.Notifications.Brokers) == 0 {
		return fmt.Errorf("%w: notifications.brokers is required when notifications are enabled", ErrInvalidConfig)
	}

	g := c.Booking.SlotGranularityMinutes
	if g < domain.MinSlotGranularityMinutes || g > domain.MaxSlotGranularityMinutes {
		return fmt.Errorf("%w: booking.slot_granularity_minutes must be in %d..%d",
			ErrInvalidConfig, domain.MinSlotGranularityMinutes, domain.MaxSlotGranularityMinutes)
	}
	if c.Booking.MinNoticeMinutes < 0 {
		return fmt.Errorf("%w: booking.min_notice_minutes must not be negative", ErrInvalidConfig)
	}
	if c.Booking.AdvanceDays < 0 {
		return fmt.Errorf("%w: booking.advance_days must not be negative", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("%w: booking.timezone %q: %v", ErrInvalidConfig, c.Booking.Timezone, err)
	}

	if c.Bonus.ReferralAmount < 0 {
		return fmt.Errorf("%w: bonus.referral_amount must not be negative", ErrInvalidConfig)
	}

	return nil
}

func setDefault(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func overrideString(field *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*field = v
	}
}
