package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_USER", "postgres")
	t.Setenv("POSTGRES_PASSWORD", "secret")
}

func TestNew_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := New()
	require.NoError(t, err)

	require.Equal(t, "localhost", cfg.Server.Host)
	require.Equal(t, 3000, cfg.Server.Port)
	require.Equal(t, "after_school_db", cfg.Postgres.Name)
	require.Equal(t, 5432, cfg.Postgres.Port)
	require.Equal(t, "disable", cfg.Postgres.SSLMode)
	require.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	require.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestNew_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("POSTGRES_DB", "lessons")
	t.Setenv("REDIS_ADDR", "redis:6379")

	cfg, err := New()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, "lessons", cfg.Postgres.Name)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
}

func TestNew_MissingRequiredUser(t *testing.T) {
	t.Setenv("POSTGRES_USER", "")
	t.Setenv("POSTGRES_PASSWORD", "secret")

	_, err := New()
	require.ErrorContains(t, err, "POSTGRES_USER")
}

func TestNew_InvalidServerPort(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "not-a-port")

	_, err := New()
	require.Error(t, err)
}
