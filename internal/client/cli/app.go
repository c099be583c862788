package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/config"
	"github.com/dmitrijs2005/cramodoro/internal/client/health"
	"github.com/dmitrijs2005/cramodoro/internal/client/localauth"
	"github.com/dmitrijs2005/cramodoro/internal/client/netstate"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/client/services"
	"github.com/dmitrijs2005/cramodoro/internal/filex"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

// DatabaseFile is the name of the local store inside the data directory.
const DatabaseFile = "cramodoro.db"

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

type App struct {
	config *config.Config
	log    logging.Logger
	db     *sql.DB

	api     client.Client
	prober  *health.Prober
	watcher *netstate.Watcher
	vault   *localauth.Vault

	authService    services.AuthService
	deckService    services.DeckService
	syncService    services.SyncService
	profileService services.ProfileService

	modeMu sync.RWMutex
	Mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

// NewApp opens the local store under c.DataDir and wires the services.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, DatabaseFile))
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	return newApp(c, log, db), nil
}

func newApp(c *config.Config, log logging.Logger, db *sql.DB) *App {
	store := kv.NewSQLiteRepository(db)

	prober := health.NewProber(c.TunnelURL, c.HealthTimeout, log.With("component", "health"))
	api := client.NewHTTPClient(c.LANURL, c.TunnelURL, prober, c.RequestTimeout, log.With("component", "api"))
	watcher := netstate.NewWatcher(
		netstate.DialProbe([]string{c.LANURL, c.TunnelURL}, c.HealthTimeout),
		c.OnlineCheckInterval,
		log.With("component", "netstate"),
	)

	vault := localauth.NewVault(store, log.With("component", "vault"))
	decks := services.NewDeckStore(store, log.With("component", "decks"))
	syncSvc := services.NewSyncService(store, decks, api, watcher, services.SyncOptions{
		AutoSyncInterval: c.AutoSyncInterval,
	}, log)
	authSvc := services.NewAuthService(store, vault, api, prober, syncSvc, decks, log)

	return &App{
		config:         c,
		log:            log,
		db:             db,
		api:            api,
		prober:         prober,
		watcher:        watcher,
		vault:          vault,
		authService:    authSvc,
		deckService:    services.NewDeckService(store, decks, syncSvc, log),
		syncService:    syncSvc,
		profileService: services.NewProfileService(store, authSvc, vault, api, prober, syncSvc, log),
		reader:         bufio.NewReader(os.Stdin),
		out:            os.Stdout,
	}
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	if a.Mode != mode {
		a.Mode = mode
		a.log.Info(context.Background(), "switched mode", "mode", string(mode))
	}
}

func (a *App) mode() Mode {
	a.modeMu.RLock()
	defer a.modeMu.RUnlock()
	return a.Mode
}

// Run restores the previous session, starts the connectivity watcher and
// blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		a.authService.Close()
		_ = a.api.Close()
		_ = a.db.Close()
	}()

	if sess, err := a.authService.Restore(ctx); err != nil {
		a.log.Warn(ctx, "restoring session failed", "error", err)
	} else if sess != nil {
		fmt.Fprintf(a.out, "Welcome back, %s\n", displayName(sess.User))
	}

	go a.watcher.Run(ctx)
	go a.StartOnlineStatusWatcher(ctx)

	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.authService.Current() != nil
}

// StartOnlineStatusWatcher mirrors connectivity changes into Mode until ctx
// is done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context) {
	updates := a.watcher.Subscribe(ctx)
	for {
		select {
		case st, ok := <-updates:
			if !ok {
				return
			}
			a.applyState(st)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) applyState(st netstate.State) {
	switch {
	case st.Online():
		a.setMode(ModeOnline)
	case st.Connected:
		a.setMode(ModeOffline)
	default:
		a.setMode(ModeDisabled)
	}
}
