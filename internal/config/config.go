package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/mountainquiz.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	MountixBaseURL string `env:"MOUNTIX_BASE_URL"`
	MountixAPIKey  string `env:"MOUNTIX_API_KEY"`

	OverpassEndpoint string        `env:"OVERPASS_ENDPOINT"`
	OverpassCacheTTL time.Duration `env:"OVERPASS_CACHE_TTL" envDefault:"5m"`

	WikipediaBaseURL  string        `env:"WIKIPEDIA_BASE_URL"`
	WikipediaImageTTL time.Duration `env:"WIKIPEDIA_IMAGE_TTL" envDefault:"720h"`

	OpenMeteoBaseURL string `env:"OPENMETEO_BASE_URL"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	QuizDir         string        `env:"QUIZ_DIR" envDefault:"data/quizzes"`
	SessionIdleTTL  time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	QuizSetMaxAge   time.Duration `env:"QUIZ_SET_MAX_AGE" envDefault:"24h"`
	RankingPageSize int           `env:"RANKING_PAGE_SIZE" envDefault:"10"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
