package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	GroqAPIKey       string        `env:"GROQ_API_KEY,required,notEmpty"`
	GroqModel        string        `env:"GROQ_MODEL"         envDefault:"llama-3.1-8b-instant"`
	GroqBaseURL      string        `env:"GROQ_BASE_URL"      envDefault:"https://api.groq.com/openai/v1"`
	SummaryWordCount int           `env:"SUMMARY_WORD_COUNT" envDefault:"300"`
	MaxContentChars  int           `env:"MAX_CONTENT_CHARS"  envDefault:"120000"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT"    envDefault:"30s"`
	HTTPAddr         string        `env:"HTTP_ADDR"          envDefault:":8501"`
	LogLevel         string        `env:"LOG_LEVEL"          envDefault:"info"`
	TelegramToken    string        `env:"TELEGRAM_TOKEN"`
	AllowedUsers     []int64       `env:"ALLOWED_USERS"`
}

func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.SummaryWordCount <= 0 {
		return Config{}, fmt.Errorf("SUMMARY_WORD_COUNT must be positive, got %d", cfg.SummaryWordCount)
	}
	if cfg.MaxContentChars <= 0 {
		return Config{}, fmt.Errorf("MAX_CONTENT_CHARS must be positive, got %d", cfg.MaxContentChars)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", cfg.RequestTimeout)
	}

	return cfg, nil
}

// BotEnabled reports whether the Telegram surface should run.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}
