package config

import (
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"log"
	"time"
)

type Config struct {
	HTTPServer HTTPServer
	Upstream   Upstream
	RateLimit  RateLimit
	Redis      Redis
	Log        Log
}

type HTTPServer struct {
	Port          string        `env:"HTTP_PORT" env-default:"8082"`
	Timeout       time.Duration `env:"HTTP_TIMEOUT" env-default:"2m"`
	IdleTimeout   time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL"`
}

type Upstream struct {
	URL     string        `env:"UPSTREAM_URL" env-default:"https://www.bankofcanada.ca/valet"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT" env-default:"10s"`
}

type RateLimit struct {
	Enabled bool   `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	Rate    string `env:"RATE_LIMIT" env-default:"120-M"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" env-default:"debug"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

func NewConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal("Error reading env: ", err)
	}

	return cfg
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load(".env")

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
