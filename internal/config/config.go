// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is everything the server needs at start-up.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/registry.db"`

	SessionSecret string        `env:"SESSION_SECRET,required"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SecureCookies bool          `env:"SECURE_COOKIES" envDefault:"false"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads Config from the given variables instead of the process
// environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("config: PORT %d out of range", cfg.Port)
	}
	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/authorize", cfg.Port)
	}
	return cfg, nil
}
