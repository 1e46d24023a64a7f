package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"FILMDB_PG_DSN":         "postgres://localhost/filmdb",
		"FILMDB_SESSION_SECRET": "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, 8*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "Streamlit Dashboard", cfg.Session.Origin)
	assert.Equal(t, 5, cfg.Lockout.Threshold)
	assert.Equal(t, time.Duration(0), cfg.Lockout.Duration)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadMemoryStore(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"FILMDB_STORE":             "Memory",
		"FILMDB_SESSION_SECRET":    "s3cret",
		"FILMDB_LOCKOUT_THRESHOLD": "3",
		"FILMDB_LOCKOUT_DURATION":  "15m",
		"FILMDB_CORS_ORIGINS":      "http://localhost:8501,http://example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 3, cfg.Lockout.Threshold)
	assert.Equal(t, 15*time.Minute, cfg.Lockout.Duration)
	assert.Equal(t, []string{"http://localhost:8501", "http://example.com"}, cfg.Limits.CORSOrigins)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"FILMDB_STORE": "memory"}},
		{"missing dsn", map[string]string{"FILMDB_SESSION_SECRET": "x"}},
		{"unknown store", map[string]string{"FILMDB_STORE": "mysql", "FILMDB_SESSION_SECRET": "x"}},
		{"zero threshold", map[string]string{"FILMDB_STORE": "memory", "FILMDB_SESSION_SECRET": "x", "FILMDB_LOCKOUT_THRESHOLD": "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), tt.env)
			assert.Error(t, err)
		})
	}
}

func TestGRPCCanBeDisabled(t *testing.T) {
	base := map[string]string{"FILMDB_STORE": "memory", "FILMDB_SESSION_SECRET": "s3cret"}

	cfg, err := LoadFrom(context.Background(), base)
	require.NoError(t, err)
	assert.True(t, cfg.GRPCEnabled())
	assert.Equal(t, ":9090", cfg.GRPCAddr)

	base["FILMDB_GRPC_ADDR"] = "off"
	cfg, err = LoadFrom(context.Background(), base)
	require.NoError(t, err)
	assert.False(t, cfg.GRPCEnabled())

	assert.False(t, (&Config{GRPCAddr: "  "}).GRPCEnabled())
	assert.True(t, (&Config{GRPCAddr: "127.0.0.1:9191"}).GRPCEnabled())
}

func TestTrustedProxies(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), map[string]string{
		"FILMDB_STORE":           "memory",
		"FILMDB_SESSION_SECRET":  "s3cret",
		"FILMDB_TRUSTED_PROXIES": "10.0.0.0/8,127.0.0.1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "127.0.0.1"}, cfg.Limits.TrustedProxies)
}
