package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix is prepended to every variable name, e.g. CRAMODORO_LAN_URL.
const EnvPrefix = "CRAMODORO_"

func osLookuper() envconfig.Lookuper {
	return envconfig.OsLookuper()
}

// parseEnv overlays Config with CRAMODORO_* variables found by l. Unset
// variables leave the current value alone. Malformed values panic, like the
// other loaders.
func parseEnv(cfg *Config, l envconfig.Lookuper) {
	if err := envconfig.ProcessWith(context.Background(), cfg, envconfig.PrefixLookuper(EnvPrefix, l)); err != nil {
		panic(err)
	}
}
