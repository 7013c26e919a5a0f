// Package config loads service configuration from the environment using koanf.
// Precedence: environment variables (BOUNTYHUB_*) over built-in defaults.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variable names before mapping them to
// config paths: BOUNTYHUB_HTTP_ADDR -> http.addr.
const EnvPrefix = "BOUNTYHUB_"

// Config holds all runtime configuration for the API server.
type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	DB        DBConfig        `koanf:"db"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
	Log       LogConfig       `koanf:"log"`
}

// HTTPConfig configures the HTTP listener.
type HTTPConfig struct {
	Addr            string        `koanf:"addr"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	MaxBodyBytes    int64         `koanf:"max_body_bytes"`
}

// DBConfig configures the Postgres connection. An empty DSN selects the
// in-memory store.
type DBConfig struct {
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// AuthConfig configures token issuance. The signing secret itself is read by
// the auth package from BOUNTYHUB_AUTH_SECRET and never passes through here.
type AuthConfig struct {
	TokenTTL time.Duration `koanf:"token_ttl"`

	// AllowRoleSelect permits clients to pick their own role (including
	// ADMIN) at registration, matching the upstream behavior. Integrators
	// who do not want self-service ADMIN accounts must disable this; every
	// registration is then created as a researcher.
	AllowRoleSelect bool `koanf:"allow_role_select"`
}

// RateLimitConfig holds the global switch for request rate limiting.
// Per-endpoint-class windows are fixed policy, not configuration.
type RateLimitConfig struct {
	Disabled bool `koanf:"disabled"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    1 << 20,
		},
		DB: DBConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    10,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL:        time.Hour,
			AllowRoleSelect: true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults overlaid with environment
// variables.
func Load() (Config, error) {
	k := koanf.New(".")

	def := defaults()
	if err := k.Load(structs.Provider(def, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envToPath), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Auth.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("auth.token_ttl must be positive")
	}
	return cfg, nil
}

// envToPath maps BOUNTYHUB_DB_MAX_OPEN_CONNS to db.max_open_conns. The first
// underscore separates the section; the rest of the name keeps its underscores.
func envToPath(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	section, rest, found := strings.Cut(name, "_")
	if !found {
		return section
	}
	return section + "." + rest
}
