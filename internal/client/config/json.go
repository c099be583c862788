package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/cramodoro/internal/flagx"
	"github.com/dmitrijs2005/cramodoro/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// may be strings like "3s" or integer nanoseconds. Pointers tell absent
// keys from zero values so a partial file only overrides what it names.
type JsonConfig struct {
	LANURL              *string         `json:"lan_url"`
	TunnelURL           *string         `json:"tunnel_url"`
	HealthTimeout       *timex.Duration `json:"health_timeout"`
	RequestTimeout      *timex.Duration `json:"request_timeout"`
	AutoSyncInterval    *timex.Duration `json:"auto_sync_interval"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	DataDir             *string         `json:"data_dir"`
	LogLevel            *string         `json:"log_level"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag it does nothing. Read or unmarshal
// errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.LANURL, jc.LANURL)
	setString(&cfg.TunnelURL, jc.TunnelURL)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.HealthTimeout != nil {
		cfg.HealthTimeout = jc.HealthTimeout.Duration
	}
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.AutoSyncInterval != nil {
		cfg.AutoSyncInterval = jc.AutoSyncInterval.Duration
	}
	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
