package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, "http://127.0.0.1:5000/api", c.LANURL)
	assert.Equal(t, "http://localhost:5000/api", c.TunnelURL)
	assert.Equal(t, 2*time.Second, c.HealthTimeout)
	assert.Equal(t, 5*time.Second, c.RequestTimeout)
	assert.Equal(t, 2*time.Minute, c.AutoSyncInterval)
	assert.Equal(t, 10*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, "data", c.DataDir)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "http://127.0.0.1:5000/api", cfg.LANURL)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin", "-d", "/tmp/flagdir"}

	t.Setenv("CRAMODORO_TUNNEL_URL", "https://tunnel.example/api")
	t.Setenv("CRAMODORO_DATA_DIR", "/tmp/envdir")

	cfg := LoadConfig()

	assert.Equal(t, "https://tunnel.example/api", cfg.TunnelURL)
	assert.Equal(t, "/tmp/flagdir", cfg.DataDir, "flags win over env")
}

func TestParseEnv(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		expected    *Config
		expectPanic bool
	}{
		{
			name:     "nothing set keeps values",
			env:      map[string]string{},
			expected: defaults(),
		},
		{
			name: "overrides",
			env: map[string]string{
				"CRAMODORO_LAN_URL":            "http://10.0.0.2:5000/api",
				"CRAMODORO_AUTO_SYNC_INTERVAL": "30s",
				"CRAMODORO_LOG_LEVEL":          "debug",
				"LAN_URL":                      "ignored without prefix",
			},
			expected: func() *Config {
				c := defaults()
				c.LANURL = "http://10.0.0.2:5000/api"
				c.AutoSyncInterval = 30 * time.Second
				c.LogLevel = "debug"
				return c
			}(),
		},
		{
			name:        "bad duration",
			env:         map[string]string{"CRAMODORO_REQUEST_TIMEOUT": "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			l := envconfig.MapLookuper(tt.env)
			if tt.expectPanic {
				require.Panics(t, func() { parseEnv(cfg, l) })
				return
			}
			require.NotPanics(t, func() { parseEnv(cfg, l) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
