package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults apply when only the database url is set", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/explorer")

		cfg, err := Load()
		require.NoError(t, err)

		require.Equal(t, "8080", cfg.ServerPort)
		require.Equal(t, 10, cfg.PrefetchCount)
		require.Equal(t, 3, cfg.MaxRetries)
		require.Equal(t, 5*time.Second, cfg.RetryDelay)
		require.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
		require.Equal(t, 300*time.Second, cfg.TreeCacheTTL)
		require.Equal(t, 7, cfg.EventRetentionDays)
		require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	})

	t.Run("missing database url fails validation", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")

		_, err := Load()
		require.Error(t, err)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/explorer")
		t.Setenv("PREFETCH_COUNT", "25")
		t.Setenv("RETRY_DELAY", "500ms")
		t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 25, cfg.PrefetchCount)
		require.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
		require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	})

	t.Run("malformed numbers fall back to defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/explorer")
		t.Setenv("MAX_RETRIES", "many")
		t.Setenv("SHUTDOWN_TIMEOUT", "soon")

		cfg, err := Load()
		require.NoError(t, err)
		require.Equal(t, 3, cfg.MaxRetries)
		require.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	})

	t.Run("zero prefetch is rejected", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/explorer")
		t.Setenv("PREFETCH_COUNT", "0")

		_, err := Load()
		require.Error(t, err)
	})
}
