package stats_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/tdex-execd/pkg/stats"
)

func TestDumpMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter_total",
		Help: "Test counter.",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	path := filepath.Join(t.TempDir(), "stats")
	require.NoError(t, stats.DumpMetrics(reg, path))
	require.NoError(t, stats.DumpMetrics(reg, path))

	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(buf), "test_counter_total")
}
