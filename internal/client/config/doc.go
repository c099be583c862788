// Package config loads runtime configuration for the cramodoro CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. CRAMODORO_* environment variables (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-l string   LAN base URL of the API
//	-t string   tunnel base URL of the API
//	-s int      auto-sync interval (seconds)
//	-i int      online status check interval (seconds)
//	-d string   data directory
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds. Every key is optional:
//
//	{
//	  "lan_url": "http://192.168.1.10:5000/api",
//	  "tunnel_url": "https://cramodoro.example.com/api",
//	  "health_timeout": "2s",
//	  "request_timeout": "5s",
//	  "auto_sync_interval": "2m",
//	  "online_check_interval": "10s",
//	  "data_dir": "data",
//	  "log_level": "info"
//	}
//
// # Environment
//
// CRAMODORO_LAN_URL, CRAMODORO_TUNNEL_URL, CRAMODORO_HEALTH_TIMEOUT,
// CRAMODORO_REQUEST_TIMEOUT, CRAMODORO_AUTO_SYNC_INTERVAL,
// CRAMODORO_ONLINE_CHECK_INTERVAL, CRAMODORO_DATA_DIR and
// CRAMODORO_LOG_LEVEL. Durations use time.ParseDuration syntax.
package config
