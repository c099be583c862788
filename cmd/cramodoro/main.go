package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/cramodoro/internal/buildinfo"
	"github.com/dmitrijs2005/cramodoro/internal/client/cli"
	"github.com/dmitrijs2005/cramodoro/internal/client/config"
	"github.com/dmitrijs2005/cramodoro/internal/filex"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

// LogFile receives structured logs so they do not interleave with the REPL.
const LogFile = "cramodoro.log"

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, config.LoadConfig())
	stop()
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	dir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := logging.New(cfg.LogLevel, "text", f)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	app.Run(ctx)
	return nil
}
