package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/novabuf/internal/bufferpool"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "novabuf.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "novabuf", cfg.AppName)
	require.Equal(t, bufferpool.DefaultCapacity, cfg.BufferPool.Capacity)
	require.Equal(t, "lru-k", cfg.BufferPool.Policy)
	require.Equal(t, 2, cfg.BufferPool.K)
	require.Equal(t, bufferpool.DefaultPageSize, cfg.BufferPool.PageSize)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfig(t, `
app_name: replay
buffer_pool:
  capacity: 16
  policy: clock
  k: 3
log:
  level: debug
  format: json
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "replay", cfg.AppName)
	require.Equal(t, 16, cfg.BufferPool.Capacity)
	require.Equal(t, "clock", cfg.BufferPool.Policy)
	require.Equal(t, 3, cfg.BufferPool.K)
	require.Equal(t, "json", cfg.Log.Format)

	opts := cfg.PoolOptions(nil)
	require.Equal(t, bufferpool.PolicyClock, opts.Policy)
	require.Equal(t, 16, opts.Capacity)
	require.Equal(t, 3, opts.K)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("NOVASQL_BUFFER_POOL_K", "5")

	cfg, err := LoadConfig(writeConfig(t, "buffer_pool:\n  k: 3\n"))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.BufferPool.K)
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"zero k":       "buffer_pool:\n  k: 0\n",
		"zero cap":     "buffer_pool:\n  capacity: 0\n",
		"bad policy":   "buffer_pool:\n  policy: mru\n",
		"bad level":    "log:\n  level: loud\n",
		"bad format":   "log:\n  format: xml\n",
		"bad pagesize": "buffer_pool:\n  page_size: -1\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestConfig_NewLogger(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "log:\n  level: warn\n  format: json\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)

	logger.Info("dropped")
	require.Empty(t, buf.String())

	logger.Warn("kept", "frame", 3)
	require.Contains(t, buf.String(), `"msg":"kept"`)
	require.Contains(t, buf.String(), `"frame":3`)
	require.Contains(t, buf.String(), `"app":"novabuf"`)
}
