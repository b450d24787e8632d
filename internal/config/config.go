package config

import (
	"fmt"
	"time"

	"invoicedesk/internal/logger"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/random"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Minio     MinioConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	Log       logger.LogConfig
}

type AppConfig struct {
	Port     string
	Currency string
}

type DatabaseConfig struct {
	URL string
}

type JWTConfig struct {
	Secret  string
	JWKSURL string
	Expiry  time.Duration
}

type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	EventsChannel string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// AuditConfig controls the periodic ledger audit. A zero interval disables it.
type AuditConfig struct {
	Interval time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("CURRENCY", "USD")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_EVENTS_CHANNEL", "invoicedesk:events")
	v.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	v.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	v.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	v.SetDefault("MINIO_USE_SSL", false)
	v.SetDefault("MINIO_BUCKET", "invoices")
	v.SetDefault("RATE_LIMIT_RPS", 20.0)
	v.SetDefault("RATE_LIMIT_BURST", 40)
	v.SetDefault("LEDGER_AUDIT_INTERVAL", "0s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("LOG_OUTPUT", "stdout")
}

// Load reads configuration from the environment, after loading .env when it
// exists
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Port:     v.GetString("APP_PORT"),
			Currency: v.GetString("CURRENCY"),
		},
		Database: DatabaseConfig{
			URL: v.GetString("DATABASE_URL"),
		},
		JWT: JWTConfig{
			Secret:  v.GetString("JWT_SECRET"),
			JWKSURL: v.GetString("JWT_JWKS_URL"),
			Expiry:  time.Duration(v.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
		},
		Redis: RedisConfig{
			Addr:          v.GetString("REDIS_ADDR"),
			Password:      v.GetString("REDIS_PASSWORD"),
			DB:            v.GetInt("REDIS_DB"),
			EventsChannel: v.GetString("REDIS_EVENTS_CHANNEL"),
		},
		Minio: MinioConfig{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			UseSSL:    v.GetBool("MINIO_USE_SSL"),
			Bucket:    v.GetString("MINIO_BUCKET"),
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
		Audit: AuditConfig{
			Interval: v.GetDuration("LEDGER_AUDIT_INTERVAL"),
		},
		Log: logger.LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			TimeFormat: time.RFC3339,
			Output:     v.GetString("LOG_OUTPUT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY_HOURS must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.Audit.Interval < 0 {
		return fmt.Errorf("LEDGER_AUDIT_INTERVAL must not be negative")
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = random.String(32)
		log := logger.WithComponent("config")
		log.Warn().Msg("JWT_SECRET not set, using a generated secret; tokens will not survive a restart")
	}
	return nil
}
