package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/internal/config"
)

func TestInitConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		datadir := t.TempDir()
		t.Setenv("EXECD_DATADIR", datadir)

		require.NoError(t, config.InitConfig())

		require.Equal(t, 3000, config.GetInt(config.HTTPListeningPortKey))
		require.Equal(t, 10, config.GetInt(config.WorkerConcurrencyKey))
		require.Equal(t, 100, config.GetInt(config.RateLimitMaxKey))
		require.Equal(t, time.Minute, config.GetDuration(config.RateLimitWindowKey))
		require.Equal(t, []string{"raydium", "meteora"}, config.GetStringSlice(config.VenuesKey))
		require.Equal(t, filepath.Join(datadir, config.DbLocation), config.GetDbDir())

		jobPolicy := config.GetJobRetryPolicy()
		require.Equal(t, 3, jobPolicy.MaxAttempts)
		require.Equal(t, 2*time.Second, jobPolicy.BaseDelay)

		quotePolicy := config.GetQuoteRetryPolicy()
		require.Equal(t, 3, quotePolicy.MaxAttempts)
		require.Equal(t, 200*time.Millisecond, quotePolicy.BaseDelay)
		require.Equal(t, 2*time.Second, quotePolicy.MaxDelay)

		_, err := os.Stat(filepath.Join(datadir, config.DbLocation))
		require.NoError(t, err)
	})

	t.Run("FromEnv", func(t *testing.T) {
		t.Setenv("EXECD_DATADIR", t.TempDir())
		t.Setenv("EXECD_DB_TYPE", "inmemory")
		t.Setenv("EXECD_WORKER_CONCURRENCY", "4")
		t.Setenv("EXECD_QUOTE_BACKOFF_BASE", "50ms")
		t.Setenv("EXECD_VENUES", "raydium, meteora")
		t.Setenv("EXECD_DEFAULT_VENUE", "meteora")

		require.NoError(t, config.InitConfig())

		require.Equal(t, 4, config.GetInt(config.WorkerConcurrencyKey))
		require.Equal(t, 50*time.Millisecond, config.GetQuoteRetryPolicy().BaseDelay)
		require.Equal(t, []string{"raydium", "meteora"}, config.GetStringSlice(config.VenuesKey))
		require.Empty(t, config.GetDbDir())
	})

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name  string
			key   string
			value string
		}{
			{"unknown db type", "EXECD_DB_TYPE", "postgres"},
			{"zero concurrency", "EXECD_WORKER_CONCURRENCY", "0"},
			{"zero job attempts", "EXECD_JOB_MAX_ATTEMPTS", "0"},
			{"retry budget too large", "EXECD_JOB_MAX_ATTEMPTS", "50"},
			{"unknown default venue", "EXECD_DEFAULT_VENUE", "orca"},
			{"invalid failure rate", "EXECD_MOCK_QUOTE_FAILURE_RATE", "2"},
			{"invalid port", "EXECD_HTTP_LISTENING_PORT", "70000"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Setenv("EXECD_DATADIR", t.TempDir())
				t.Setenv(tt.key, tt.value)
				require.Error(t, config.InitConfig())
			})
		}
	})
}
