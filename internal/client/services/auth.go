package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/localauth"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

// HealthChecker is the part of the health prober the orchestrator needs.
type HealthChecker interface {
	Check(ctx context.Context) bool
	Reset()
}

// AuthService decides per attempt whether to authenticate remotely or
// against the local vault, and sets up the session that follows.
//
// Contract:
//   - Login / Signup: validate input, probe the backend, try remote auth and
//     fall back to the vault. On success the session is persisted, the deck
//     working set is replaced with the identity's decks and, for a fresh
//     remote session, auto-sync is started.
//   - Restore: resume the persisted session, if any.
//   - Refresh: reload the session after a profile change rewrote it.
//   - Logout: stop auto-sync and drop the session and working set.
type AuthService interface {
	Login(ctx context.Context, identifier, password string) (models.Session, error)
	Signup(ctx context.Context, email, password, confirmPassword string) (models.Session, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (*models.Session, error)
	Refresh(ctx context.Context) error
	Current() *models.Session
	Close()
}

type authService struct {
	store  kv.Repository
	vault  *localauth.Vault
	api    client.Client
	health HealthChecker
	sync   SyncService
	decks  *DeckStore
	log    logging.Logger

	mu       sync.Mutex
	session  *models.Session
	stopSync func()
}

func NewAuthService(store kv.Repository, vault *localauth.Vault, api client.Client, health HealthChecker, syncSvc SyncService, decks *DeckStore, log logging.Logger) AuthService {
	return &authService{
		store:  store,
		vault:  vault,
		api:    api,
		health: health,
		sync:   syncSvc,
		decks:  decks,
		log:    log.With("component", "auth"),
	}
}

func (a *authService) Login(ctx context.Context, identifier, password string) (models.Session, error) {
	identifier = strings.TrimSpace(identifier)
	if err := validateLogin(identifier, password); err != nil {
		return models.Session{}, err
	}

	var remoteErr error
	if a.health.Check(ctx) {
		resp, err := a.api.Login(ctx, identifier, password)
		if err == nil {
			resp.User = a.mergeProfile(ctx, resp)
			if err := a.vault.CacheBackendUser(ctx, identifier, password, resp); err != nil {
				a.log.Warn(ctx, "caching remote account failed", "error", err)
			}
			return a.establish(ctx, resp, true)
		}
		remoteErr = err
		a.log.Warn(ctx, "remote login failed, trying local account", "error", err)
	}

	resp, err := a.vault.Login(ctx, identifier, password)
	if err != nil {
		return models.Session{}, surfaceAuthError(remoteErr, err)
	}
	return a.establish(ctx, resp, false)
}

func (a *authService) Signup(ctx context.Context, email, password, confirmPassword string) (models.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateSignup(email, password, confirmPassword); err != nil {
		return models.Session{}, err
	}

	var remoteErr error
	if a.health.Check(ctx) {
		resp, err := a.api.Signup(ctx, email, password, confirmPassword)
		if err == nil {
			if err := a.vault.CacheBackendUser(ctx, email, password, resp); err != nil {
				a.log.Warn(ctx, "caching remote account failed", "error", err)
			}
			return a.establish(ctx, resp, true)
		}
		remoteErr = err
		a.log.Warn(ctx, "remote signup failed, creating local account", "error", err)
	}

	resp, err := a.vault.Signup(ctx, email, password, confirmPassword)
	if err != nil {
		return models.Session{}, surfaceAuthError(remoteErr, err)
	}
	return a.establish(ctx, resp, false)
}

// surfaceAuthError picks the single error shown to the user. A remote
// rejection wins when the vault simply has no such account.
func surfaceAuthError(remoteErr, localErr error) error {
	var rej *client.RemoteRejection
	if errors.As(remoteErr, &rej) && errors.Is(localErr, common.ErrorNotFound) {
		return remoteErr
	}
	return localErr
}

// mergeProfile overlays the full profile on the auth response user. bio and
// profile picture are not part of the auth response. Errors keep the basic
// data.
func (a *authService) mergeProfile(ctx context.Context, resp models.AuthResponse) models.User {
	profile, err := a.api.GetProfile(ctx, resp.Token)
	if err != nil {
		a.log.Warn(ctx, "profile fetch after login failed", "error", err)
		return resp.User
	}
	merged := resp.User
	b, err := json.Marshal(profile)
	if err == nil {
		err = json.Unmarshal(b, &merged)
	}
	if err != nil {
		a.log.Warn(ctx, "profile merge failed", "error", err)
		return resp.User
	}
	if merged.Email == "" {
		merged.Email = resp.User.Email
	}
	return merged
}

// establish persists the session and swaps in the identity's decks.
func (a *authService) establish(ctx context.Context, resp models.AuthResponse, freshRemote bool) (models.Session, error) {
	sess := models.Session{Token: resp.Token, User: resp.User}

	a.stopAutoSync()

	err := a.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		if err := tx.Set(ctx, models.KeyAuthToken, []byte(sess.Token)); err != nil {
			return err
		}
		if err := kv.SetJSON(ctx, tx, models.KeyUserData, sess.User); err != nil {
			return err
		}
		return a.decks.clearCurrent(ctx, tx)
	})
	if err != nil {
		return models.Session{}, fmt.Errorf("persist session: %w", err)
	}

	email := sess.User.Email
	if e, ok := models.EmailFromOfflineToken(sess.Token); ok {
		email = e
	}

	if sess.Offline() {
		if _, err := a.decks.LoadUserDecks(ctx, email); err != nil {
			a.log.Warn(ctx, "loading local decks failed", "email", email, "error", err)
		}
	} else {
		a.loadRemoteDecks(ctx, sess.Token, email)
	}

	if freshRemote {
		if n, err := a.vault.ClearOtherCachedAccounts(ctx, email); err != nil {
			a.log.Warn(ctx, "clearing other cached accounts failed", "error", err)
		} else if n > 0 {
			a.log.Info(ctx, "cleared other cached accounts", "count", n)
		}
		if err := a.sync.Clear(ctx); err != nil {
			a.log.Warn(ctx, "clearing sync queue failed", "error", err)
		}
	}

	a.mu.Lock()
	a.session = &sess
	a.mu.Unlock()

	if freshRemote {
		a.startAutoSync(ctx, sess.Token)
	}

	a.log.Info(ctx, "signed in", "email", email, "offline", sess.Offline())
	return sess, nil
}

func (a *authService) loadRemoteDecks(ctx context.Context, token, email string) {
	remote, err := a.api.ListDecks(ctx, token)
	if err != nil {
		a.log.Warn(ctx, "fetching decks failed, using local copy", "error", err)
		if _, err := a.decks.LoadUserDecks(ctx, email); err != nil {
			a.log.Warn(ctx, "loading local decks failed", "email", email, "error", err)
		}
		return
	}
	decks := make([]models.Deck, 0, len(remote))
	for _, r := range remote {
		decks = append(decks, r.ToDeck())
	}
	if err := a.decks.SaveCurrentUserDecks(ctx, decks); err != nil {
		a.log.Warn(ctx, "saving fetched decks failed", "error", err)
	}
}

func (a *authService) startAutoSync(ctx context.Context, token string) {
	stop := a.sync.StartAutoSync(context.WithoutCancel(ctx), token)
	a.mu.Lock()
	a.stopSync = stop
	a.mu.Unlock()
}

func (a *authService) stopAutoSync() {
	a.mu.Lock()
	stop := a.stopSync
	a.stopSync = nil
	a.mu.Unlock()
	if stop != nil {
		stop()
	}
}

func (a *authService) Logout(ctx context.Context) error {
	a.stopAutoSync()

	err := a.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		if err := tx.MultiDelete(ctx, []string{models.KeyAuthToken, models.KeyUserData}); err != nil {
			return err
		}
		return a.decks.clearCurrent(ctx, tx)
	})
	a.health.Reset()

	a.mu.Lock()
	a.session = nil
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info(ctx, "signed out")
	return nil
}

func (a *authService) Restore(ctx context.Context) (*models.Session, error) {
	sess, err := a.readSession(ctx)
	if err != nil || sess == nil {
		return nil, err
	}

	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()

	if !sess.Offline() {
		a.startAutoSync(ctx, sess.Token)
	}
	out := *sess
	return &out, nil
}

func (a *authService) Refresh(ctx context.Context) error {
	sess, err := a.readSession(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.session = sess
	a.mu.Unlock()
	return nil
}

// readSession loads the persisted token and user snapshot. No token means
// no session.
func (a *authService) readSession(ctx context.Context) (*models.Session, error) {
	tok, err := a.store.Get(ctx, models.KeyAuthToken)
	if err != nil {
		return nil, err
	}
	if len(tok) == 0 {
		return nil, nil
	}
	var u models.User
	if _, err := kv.GetJSON(ctx, a.store, models.KeyUserData, &u); err != nil {
		return nil, err
	}
	return &models.Session{Token: string(tok), User: u}, nil
}

func (a *authService) Current() *models.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return nil
	}
	s := *a.session
	return &s
}

func (a *authService) Close() {
	a.stopAutoSync()
}
