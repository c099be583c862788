package config

import "time"

// Config holds runtime settings for the cramodoro CLI.
//
// Fields:
//   - LANURL / TunnelURL: base URLs of the remote API. The tunnel URL also
//     serves the health probe.
//   - HealthTimeout / RequestTimeout: per-probe and per-attempt deadlines.
//   - AutoSyncInterval: period of the background sync drain.
//   - OnlineCheckInterval: how often network reachability is re-checked.
//   - DataDir: directory holding the local database.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	LANURL              string        `env:"LAN_URL,overwrite"`
	TunnelURL           string        `env:"TUNNEL_URL,overwrite"`
	HealthTimeout       time.Duration `env:"HEALTH_TIMEOUT,overwrite"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT,overwrite"`
	AutoSyncInterval    time.Duration `env:"AUTO_SYNC_INTERVAL,overwrite"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL,overwrite"`
	DataDir             string        `env:"DATA_DIR,overwrite"`
	LogLevel            string        `env:"LOG_LEVEL,overwrite"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.LANURL = "http://127.0.0.1:5000/api"
	c.TunnelURL = "http://localhost:5000/api"
	c.HealthTimeout = 2 * time.Second
	c.RequestTimeout = 5 * time.Second
	c.AutoSyncInterval = 2 * time.Minute
	c.OnlineCheckInterval = 10 * time.Second
	c.DataDir = "data"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, osLookuper())
	parseFlags(cfg)
	return cfg
}
