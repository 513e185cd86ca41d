package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort      string        `env:"SERVER_PORT" envDefault:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"json"`
	SwaggerHost     string        `env:"SWAGGER_HOST"`
	PublicURL       string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	ResetDB         bool          `env:"RESET_DB"`

	DB      DBConfig      `envPrefix:"DB_"`
	Redis   RedisConfig   `envPrefix:"REDIS_"`
	JWT     JWTConfig     `envPrefix:"JWT_"`
	Stripe  StripeConfig  `envPrefix:"STRIPE_"`
	Storage StorageConfig `envPrefix:"S3_"`
	SMTP    SMTPConfig    `envPrefix:"SMTP_"`
}

// DBConfig selects the gorm driver and its DSN.
type DBConfig struct {
	Driver string `env:"DRIVER" envDefault:"mysql"`
	DSN    string `env:"DSN" envDefault:"user:password@tcp(localhost:3306)/cardshop?charset=utf8mb4&parseTime=True&loc=Local"`
}

type RedisConfig struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type JWTConfig struct {
	Secret string `env:"SECRET" envDefault:"change-me"`
}

type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	Currency      string `env:"CURRENCY" envDefault:"eur"`
}

type StorageConfig struct {
	Endpoint  string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string        `env:"ACCESS_KEY"`
	SecretKey string        `env:"SECRET_KEY"`
	Bucket    string        `env:"BUCKET" envDefault:"cardshop"`
	Region    string        `env:"REGION" envDefault:"us-east-1"`
	UseSSL    bool          `env:"USE_SSL"`
	URLTTL    time.Duration `env:"URL_TTL" envDefault:"1h"`
}

type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT" envDefault:"587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM"`
	FromName string `env:"FROM_NAME" envDefault:"Card Shop"`
	Inbox    string `env:"INBOX"`
	TLS      bool   `env:"TLS" envDefault:"true"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	switch cfg.DB.Driver {
	case "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
	}

	return cfg, nil
}
