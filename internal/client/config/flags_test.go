package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "Test1 OK", args: []string{"cmd", "-l", "http://10.0.0.2:5000/api", "-t", "https://t.example/api", "-s", "60", "-i", "10", "-d", "/var/lib/cramodoro"}, expectPanic: false,
			expected: &Config{LANURL: "http://10.0.0.2:5000/api", TunnelURL: "https://t.example/api", AutoSyncInterval: time.Minute, OnlineCheckInterval: 10 * time.Second, DataDir: "/var/lib/cramodoro"}},
		{name: "Test2 config flag ignored", args: []string{"cmd", "-c", "cfg.json", "-i", "3"}, expectPanic: false,
			expected: &Config{OnlineCheckInterval: 3 * time.Second}},
		{name: "Test3 incorrect check interval", args: []string{"cmd", "-i", "abc"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
