package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/cramodoro/internal/client/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_ReturnsSetupErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, base string) string
	}{
		{
			name: "data dir is a file",
			setup: func(t *testing.T, base string) string {
				p := filepath.Join(base, "plain")
				require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
				return filepath.Join(p, "data")
			},
		},
		{
			name: "log file is a directory",
			setup: func(t *testing.T, base string) string {
				require.NoError(t, os.Mkdir(filepath.Join(base, LogFile), 0o700))
				return base
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.LoadDefaults()
			cfg.DataDir = tt.setup(t, t.TempDir())

			err := run(context.Background(), cfg)
			require.Error(t, err)
			assert.NoFileExists(t, filepath.Join(cfg.DataDir, "cramodoro.db"))
		})
	}
}
