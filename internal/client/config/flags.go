package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-l string   LAN base URL of the API
//	-t string   tunnel base URL of the API
//	-s int      auto-sync interval in seconds
//	-i int      online check interval in seconds
//	-d string   data directory
//
// os.Args is filtered with flagx.FilterArgs first so that -c/-config and
// flags owned by other components do not trip the parser.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-l", "-t", "-s", "-i", "-d"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.LANURL, "l", cfg.LANURL, "LAN base URL of the API")
	fs.StringVar(&cfg.TunnelURL, "t", cfg.TunnelURL, "tunnel base URL of the API")
	autoSyncInterval := fs.Int("s", int(cfg.AutoSyncInterval.Seconds()), "auto-sync interval (in seconds)")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.AutoSyncInterval = time.Duration(*autoSyncInterval) * time.Second
	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
