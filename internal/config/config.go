package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"dev"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	// Пустой REDIS_URL - режим одного узла: рассылка в памяти, без черного списка токенов
	RedisURL string `env:"REDIS_URL"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	WSSendBuffer    int           `env:"WS_SEND_BUFFER" envDefault:"256"`
	HistoryPageSize int           `env:"HISTORY_PAGE_SIZE" envDefault:"50"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LoadDotEnv подгружает .env.local или .env, если они есть
func LoadDotEnv() {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Info().Msg(".env not found, using environment variables")
		}
	}
}

// Load читает конфигурацию из переменных окружения
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WSSendBuffer <= 0 {
		return Config{}, fmt.Errorf("parse env: WS_SEND_BUFFER must be positive, got %d", cfg.WSSendBuffer)
	}
	if cfg.HistoryPageSize <= 0 {
		return Config{}, fmt.Errorf("parse env: HISTORY_PAGE_SIZE must be positive, got %d", cfg.HistoryPageSize)
	}
	return cfg, nil
}
