// Package config loads process configuration from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr string `env:"FILMDB_HTTP_ADDR, default=:8080"`
	GRPCAddr string `env:"FILMDB_GRPC_ADDR, default=:9090"`
	Store    string `env:"FILMDB_STORE, default=postgres"`
	PGDSN    string `env:"FILMDB_PG_DSN"`

	Session SessionConfig
	Lockout LockoutConfig
	Limits  LimitsConfig
	Log     LogConfig
}

type SessionConfig struct {
	Secret      string        `env:"FILMDB_SESSION_SECRET"`
	TTL         time.Duration `env:"FILMDB_SESSION_TTL, default=8h"`
	IdleTimeout time.Duration `env:"FILMDB_SESSION_IDLE, default=30m"`
	Origin      string        `env:"FILMDB_LOGIN_ORIGIN, default=Streamlit Dashboard"`
}

// LockoutConfig is applied to the memory store directly and written to
// auth_settings by the migrate tool for PostgreSQL.
type LockoutConfig struct {
	Threshold int           `env:"FILMDB_LOCKOUT_THRESHOLD, default=5"`
	Duration  time.Duration `env:"FILMDB_LOCKOUT_DURATION, default=0s"`
}

type LimitsConfig struct {
	LoginRate    float64  `env:"FILMDB_LOGIN_RATE, default=1"`
	LoginBurst   int      `env:"FILMDB_LOGIN_BURST, default=5"`
	MaxBodyBytes int64    `env:"FILMDB_MAX_BODY_BYTES, default=1048576"`
	CORSOrigins  []string `env:"FILMDB_CORS_ORIGINS"`
	// TrustedProxies lists the addresses or CIDR ranges whose
	// X-Forwarded-For header is believed.
	TrustedProxies []string `env:"FILMDB_TRUSTED_PROXIES"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL, default=info"`
	Pretty bool   `env:"LOG_PRETTY, default=false"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

// LoadFrom reads the configuration from a fixed map. Tests use it.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	return load(ctx, envconfig.MapLookuper(env))
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// GRPCEnabled reports whether the gRPC health listener should start. An
// empty address or "off" disables it.
func (c *Config) GRPCEnabled() bool {
	addr := strings.TrimSpace(c.GRPCAddr)
	return addr != "" && !strings.EqualFold(addr, "off")
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if strings.TrimSpace(c.PGDSN) == "" {
			errs = append(errs, errors.New("FILMDB_PG_DSN is required for the postgres store"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("FILMDB_STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if strings.TrimSpace(c.Session.Secret) == "" {
		errs = append(errs, errors.New("FILMDB_SESSION_SECRET is required"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("FILMDB_SESSION_TTL must be positive"))
	}
	if c.Lockout.Threshold <= 0 {
		errs = append(errs, errors.New("FILMDB_LOCKOUT_THRESHOLD must be positive"))
	}
	if c.Lockout.Duration < 0 {
		errs = append(errs, errors.New("FILMDB_LOCKOUT_DURATION must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
