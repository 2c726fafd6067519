// Package config binds environment variables into a typed Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTP        HTTPServer
	Log         Log

	Mongo   Mongo   `envPrefix:"MONGO_"`
	Session Session `envPrefix:"SESSION_"`
	Stripe  Stripe  `envPrefix:"STRIPE_"`
	Email   Email   `envPrefix:"EMAIL_"`
	Redis   Redis   `envPrefix:"REDIS_"`
	Kafka   Kafka   `envPrefix:"KAFKA_"`
	Shop    Shop    `envPrefix:"SHOP_"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"PORT" envDefault:"8000"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Mongo struct {
	URI      string `env:"URI" envDefault:"mongodb://localhost:27017"`
	Database string `env:"DATABASE" envDefault:"teashop"`
}

type Session struct {
	Secret     string        `env:"SECRET,required,notEmpty"`
	CookieName string        `env:"COOKIE_NAME" envDefault:"session"`
	TTL        time.Duration `env:"TTL" envDefault:"168h"`
	Secure     bool          `env:"SECURE" envDefault:"true"`
}

type Stripe struct {
	SecretKey string `env:"SECRET_KEY"`
	Currency  string `env:"CURRENCY" envDefault:"aud"`
}

type Email struct {
	Provider      string `env:"PROVIDER" envDefault:"postmark"`
	PostmarkToken string `env:"POSTMARK_TOKEN"`
	SendgridKey   string `env:"SENDGRID_KEY"`
	Sender        string `env:"SENDER" envDefault:"orders@teashop.example"`
	SenderName    string `env:"SENDER_NAME" envDefault:"Tea Shop"`
}

type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"shop.orders"`
}

type Shop struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000"`
	Postage string `env:"POSTAGE" envDefault:"10.00"`
	Name    string `env:"NAME" envDefault:"teashop-api"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// a missing .env is fine in production
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Email.Provider = strings.ToLower(strings.TrimSpace(cfg.Email.Provider))
	if cfg.Email.Provider != "postmark" && cfg.Email.Provider != "sendgrid" && cfg.Email.Provider != "log" {
		return nil, fmt.Errorf("unknown email provider %q", cfg.Email.Provider)
	}
	return cfg, nil
}
