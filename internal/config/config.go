// Package config loads the server configuration from the environment.
//
// Every knob is an environment variable parsed into the Config struct
// via struct tags. A .env file in the working directory is honored when
// present (local development); in production the variables come from the
// deployment environment and the missing file is not an error.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start. JWTSecret is the
// only required variable; the rest default to sensible local values.
type Config struct {
	Port   int    `env:"PORT" envDefault:"3333"`
	DBPath string `env:"DB_PATH" envDefault:"data/copa.db"`

	// JWTSecret signs session tokens. At least 16 characters; generate
	// with `openssl rand -hex 32`.
	JWTSecret string `env:"JWT_SECRET,required,notEmpty"`

	// GoogleUserInfoURL is overridable so tests can stub the provider.
	GoogleUserInfoURL string `env:"GOOGLE_USERINFO_URL" envDefault:"https://www.googleapis.com/oauth2/v2/userinfo"`

	// AllowedOrigins feeds the CORS middleware. The default covers the
	// NLW Copa web client running locally.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// AuthRateLimit caps requests per minute per IP on the credential
	// endpoints (/user, /login, /google-auth/user).
	AuthRateLimit int `env:"AUTH_RATE_LIMIT" envDefault:"20"`
}

// Load reads .env (if present) and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}

	return cfg, nil
}
