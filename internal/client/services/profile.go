package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/localauth"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

type ProfileService interface {
	Get(ctx context.Context) (models.User, error)
	Update(ctx context.Context, upd models.ProfileUpdate) (models.User, error)
	DeleteAccount(ctx context.Context) error
}

type profileService struct {
	store  kv.Repository
	auth   AuthService
	vault  *localauth.Vault
	api    client.Client
	health HealthChecker
	sync   SyncService
	log    logging.Logger
	now    func() time.Time
}

func NewProfileService(store kv.Repository, auth AuthService, vault *localauth.Vault, api client.Client, health HealthChecker, syncSvc SyncService, log logging.Logger) ProfileService {
	return &profileService{
		store:  store,
		auth:   auth,
		vault:  vault,
		api:    api,
		health: health,
		sync:   syncSvc,
		log:    log.With("component", "profile"),
		now:    time.Now,
	}
}

var errNotSignedIn = fmt.Errorf("%w: not signed in", common.ErrorInvalidToken)

func (p *profileService) session() (*models.Session, error) {
	s := p.auth.Current()
	if s == nil {
		return nil, errNotSignedIn
	}
	return s, nil
}

func (p *profileService) Get(ctx context.Context) (models.User, error) {
	s, err := p.session()
	if err != nil {
		return models.User{}, err
	}
	if s.Offline() || !p.health.Check(ctx) {
		return p.vault.GetProfile(ctx, s.Token)
	}

	u, err := p.api.GetProfile(ctx, s.Token)
	if err != nil {
		p.log.Warn(ctx, "remote profile fetch failed, using local copy", "error", err)
		return p.vault.GetProfile(ctx, s.Token)
	}
	if err := kv.SetJSON(ctx, p.store, models.KeyUserData, u); err != nil {
		p.log.Warn(ctx, "caching profile failed", "error", err)
	}
	return u, nil
}

func (p *profileService) Update(ctx context.Context, upd models.ProfileUpdate) (models.User, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len([]rune(name)) > maxProfileNameLength {
			return models.User{}, fmt.Errorf("%w: name must be 1-%d characters", common.ErrorValidation, maxProfileNameLength)
		}
		upd.Name = &name
	}
	s, err := p.session()
	if err != nil {
		return models.User{}, err
	}

	var snap models.User
	err = p.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		oldEmail, err := p.vault.AccountEmail(ctx, tx, s.Token)
		if err != nil {
			return err
		}
		local, err := p.vault.UpdateProfile(ctx, tx, s.Token, upd)
		if err != nil {
			return err
		}

		if _, err := kv.GetJSON(ctx, tx, models.KeyUserData, &snap); err != nil {
			return err
		}
		if snap.Email == "" {
			snap = local
		}
		upd.Apply(&snap)
		if upd.Email != nil {
			snap.Email = local.Email
		}
		if upd.Username != nil {
			snap.Username = local.Username
		}
		if err := kv.SetJSON(ctx, tx, models.KeyUserData, snap); err != nil {
			return err
		}

		if local.Email != oldEmail {
			if err := p.moveIdentity(ctx, tx, s.Token, oldEmail, local.Email); err != nil {
				return err
			}
		}

		remote := upd.Remote()
		if remote == (models.ProfileUpdate{}) {
			return nil
		}
		return p.sync.EnqueueIn(ctx, tx, models.ItemTypeProfile, models.ActionUpdate, remote, "")
	})
	if err != nil {
		return models.User{}, err
	}

	if err := p.auth.Refresh(ctx); err != nil {
		p.log.Warn(ctx, "reloading session failed", "error", err)
	}
	return snap, nil
}

// moveIdentity carries the per-user deck copy over to a changed email and
// re-issues an offline token so it names the new account.
func (p *profileService) moveIdentity(ctx context.Context, tx kv.Repository, token, from, to string) error {
	raw, err := tx.Get(ctx, models.UserDecksKey(from))
	if err != nil {
		return err
	}
	if raw != nil {
		if err := tx.Set(ctx, models.UserDecksKey(to), raw); err != nil {
			return err
		}
		if err := tx.Delete(ctx, models.UserDecksKey(from)); err != nil {
			return err
		}
	}
	if models.IsOfflineToken(token) {
		if err := tx.Set(ctx, models.KeyAuthToken, []byte(models.NewOfflineToken(to, p.now()))); err != nil {
			return err
		}
	}
	p.log.Info(ctx, "account email changed", "from", from, "to", to)
	return nil
}

func (p *profileService) DeleteAccount(ctx context.Context) error {
	s, err := p.session()
	if err != nil {
		return err
	}
	if !s.Offline() {
		if err := p.api.DeleteProfile(ctx, s.Token); err != nil {
			return fmt.Errorf("delete remote account: %w", err)
		}
	}
	email := s.User.Email
	if e, ok := models.EmailFromOfflineToken(s.Token); ok {
		email = e
	}
	if err := p.vault.DeleteAccount(ctx, s.Token); err != nil {
		return err
	}
	if email != "" {
		if err := p.store.Delete(ctx, models.UserDecksKey(email)); err != nil {
			return err
		}
	}
	return p.auth.Logout(ctx)
}
