package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Port            string        `env:"PORT" envDefault:"8080" validate:"required,numeric"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s" validate:"gt=0"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*" validate:"min=1"`

	// DatabaseURL empty selects the in-memory repositories.
	DatabaseURL    string `env:"DATABASE_URL"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"file://migrations" validate:"required"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`

	ModelPath          string        `env:"MODEL_PATH" validate:"excluded_with=ModelURL"`
	ModelURL           string        `env:"MODEL_URL" validate:"omitempty,url"`
	ModelTimeout       time.Duration `env:"MODEL_TIMEOUT" envDefault:"2s" validate:"gt=0"`
	BreakerMaxFailures uint32        `env:"BREAKER_MAX_FAILURES" envDefault:"5" validate:"gte=1"`
	BreakerOpenTimeout time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s" validate:"gt=0"`

	TelegramToken  string `env:"TELEGRAM_BOT_TOKEN"`
	DoctorChatID   int64  `env:"DOCTOR_CHAT_ID"`
	ReportFontPath string `env:"REPORT_FONT_PATH"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// ReportsEnabled reports whether journal entries can be shared with a clinician.
func (c *Config) ReportsEnabled() bool {
	return c.TelegramToken != "" && c.DoctorChatID != 0
}
