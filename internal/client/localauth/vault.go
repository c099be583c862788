// Package localauth keeps device-local copies of user accounts so a user can
// sign in while the backend is unreachable.
//
// Each account is one record under models.LocalUserKey(email). A secondary
// index models.LocalUserAliasKey(username) -> email is written in the same
// transaction as the record, so the two never disagree.
package localauth

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/cryptox"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

const MinPasswordLength = 6

type Vault struct {
	store kv.Repository
	log   logging.Logger
	now   func() time.Time
}

func NewVault(store kv.Repository, log logging.Logger) *Vault {
	return &Vault{store: store, log: log, now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func getRecord(ctx context.Context, r kv.Repository, email string) (*models.LocalUser, error) {
	var u models.LocalUser
	ok, err := kv.GetJSON(ctx, r, models.LocalUserKey(email), &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func putRecord(ctx context.Context, r kv.Repository, u *models.LocalUser) error {
	if err := kv.SetJSON(ctx, r, models.LocalUserKey(u.Email), u); err != nil {
		return err
	}
	if u.Username == "" || u.Username == u.Email {
		return nil
	}
	return r.Set(ctx, models.LocalUserAliasKey(u.Username), []byte(u.Email))
}

// dropAlias removes username's index entry if it still points at email.
func dropAlias(ctx context.Context, r kv.Repository, username, email string) error {
	if username == "" {
		return nil
	}
	key := models.LocalUserAliasKey(username)
	cur, err := r.Get(ctx, key)
	if err != nil {
		return err
	}
	if cur != nil && string(cur) == email {
		return r.Delete(ctx, key)
	}
	return nil
}

// Signup creates a new local account and returns an offline session.
func (v *Vault) Signup(ctx context.Context, email, password, confirmPassword string) (models.AuthResponse, error) {
	if password != confirmPassword {
		return models.AuthResponse{}, fmt.Errorf("%w: passwords do not match", common.ErrorValidation)
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return models.AuthResponse{}, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	email = normalizeEmail(email)
	if email == "" {
		return models.AuthResponse{}, fmt.Errorf("%w: email is required", common.ErrorValidation)
	}

	now := v.now()
	rec := &models.LocalUser{
		Email:        email,
		Username:     usernameFromEmail(email),
		PasswordHash: cryptox.HashPassword(password),
		CreatedAt:    now,
	}

	err := v.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		existing, err := getRecord(ctx, tx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: an account with this email already exists", common.ErrorAlreadyExists)
		}
		return putRecord(ctx, tx, rec)
	})
	if err != nil {
		return models.AuthResponse{}, err
	}

	v.log.Info(ctx, "local account created", "email", email)
	return models.AuthResponse{Token: models.NewOfflineToken(email, now), User: rec.Public()}, nil
}

// Login authenticates against the cached accounts. identifier is an email or
// a username.
func (v *Vault) Login(ctx context.Context, identifier, password string) (models.AuthResponse, error) {
	rec, err := v.lookup(ctx, strings.TrimSpace(identifier))
	if err != nil {
		return models.AuthResponse{}, err
	}
	if rec == nil {
		return models.AuthResponse{}, fmt.Errorf("%w: no local account for %s", common.ErrorNotFound, identifier)
	}
	if !cryptox.VerifyPassword(password, rec.PasswordHash) {
		return models.AuthResponse{}, fmt.Errorf("%w: invalid password", common.ErrorInvalidLoginPassword)
	}
	return models.AuthResponse{Token: models.NewOfflineToken(rec.Email, v.now()), User: rec.Public()}, nil
}

func (v *Vault) lookup(ctx context.Context, identifier string) (*models.LocalUser, error) {
	if strings.Contains(identifier, "@") {
		return getRecord(ctx, v.store, normalizeEmail(identifier))
	}

	if rec, err := getRecord(ctx, v.store, identifier); rec != nil || err != nil {
		return rec, err
	}

	email, err := v.store.Get(ctx, models.LocalUserAliasKey(identifier))
	if err != nil {
		return nil, err
	}
	if email != nil {
		rec, err := getRecord(ctx, v.store, string(email))
		if rec != nil || err != nil {
			return rec, err
		}
	}

	accounts, err := v.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Username == identifier {
			return &accounts[i], nil
		}
	}
	return nil, nil
}

func sessionSnapshot(ctx context.Context, r kv.Repository) (*models.User, error) {
	var u models.User
	ok, err := kv.GetJSON(ctx, r, models.KeyUserData, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

// resolveEmail finds the identity owning token: parsed from offline tokens,
// otherwise taken from the session snapshot. An offline token whose account
// has since moved to the snapshot's email resolves to the snapshot.
func resolveEmail(ctx context.Context, r kv.Repository, token string) (string, *models.User, error) {
	snap, err := sessionSnapshot(ctx, r)
	if err != nil {
		return "", nil, err
	}
	if email, ok := models.EmailFromOfflineToken(token); ok {
		email = normalizeEmail(email)
		if snap == nil || snap.Email == "" || normalizeEmail(snap.Email) == email {
			return email, snap, nil
		}
		rec, err := getRecord(ctx, r, email)
		if err != nil {
			return "", nil, err
		}
		if rec == nil {
			return normalizeEmail(snap.Email), snap, nil
		}
		return email, snap, nil
	}
	if snap != nil && snap.Email != "" {
		return normalizeEmail(snap.Email), snap, nil
	}
	return "", snap, fmt.Errorf("%w: cannot resolve account for token", common.ErrorNotFound)
}

// fromSnapshot materialises a record for email from the session snapshot.
// The result carries no password hash.
func (v *Vault) fromSnapshot(email string, snap *models.User) *models.LocalUser {
	if snap == nil || normalizeEmail(snap.Email) != email {
		return nil
	}
	username := snap.Username
	if username == "" {
		username = usernameFromEmail(email)
	}
	created := v.now()
	if snap.CreatedAt != nil {
		created = *snap.CreatedAt
	}
	return &models.LocalUser{
		Email:          email,
		Username:       username,
		CreatedAt:      created,
		Name:           snap.Name,
		Bio:            snap.Bio,
		ProfilePicture: snap.ProfilePicture,
	}
}

func (v *Vault) GetProfile(ctx context.Context, token string) (models.User, error) {
	email, snap, err := resolveEmail(ctx, v.store, token)
	if err != nil {
		return models.User{}, err
	}
	rec, err := getRecord(ctx, v.store, email)
	if err != nil {
		return models.User{}, err
	}
	if rec != nil {
		return rec.Public(), nil
	}
	if synth := v.fromSnapshot(email, snap); synth != nil {
		u := synth.Public()
		u.ID = snap.ID
		u.FontSize = snap.FontSize
		return u, nil
	}
	return models.User{}, fmt.Errorf("%w: no local account for %s", common.ErrorNotFound, email)
}

// AccountEmail returns the normalised email of the account owning token.
func (v *Vault) AccountEmail(ctx context.Context, r kv.Repository, token string) (string, error) {
	email, _, err := resolveEmail(ctx, r, token)
	return email, err
}

// UpdateProfile merges upd into the token's account inside tx. A changed
// email moves the record to its new key.
func (v *Vault) UpdateProfile(ctx context.Context, tx kv.Repository, token string, upd models.ProfileUpdate) (models.User, error) {
	if upd.Username != nil && strings.TrimSpace(*upd.Username) == "" {
		return models.User{}, fmt.Errorf("%w: username cannot be empty", common.ErrorValidation)
	}
	if upd.Email != nil && !strings.Contains(*upd.Email, "@") {
		return models.User{}, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}

	rec, err := v.updateRecord(ctx, tx, token, upd)
	if err != nil {
		return models.User{}, err
	}
	return rec.Public(), nil
}

func (v *Vault) updateRecord(ctx context.Context, tx kv.Repository, token string, upd models.ProfileUpdate) (*models.LocalUser, error) {
	email, snap, err := resolveEmail(ctx, tx, token)
	if err != nil {
		return nil, err
	}
	rec, err := getRecord(ctx, tx, email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = v.fromSnapshot(email, snap)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: no local account for %s", common.ErrorNotFound, email)
	}

	oldEmail, oldUsername := rec.Email, rec.Username
	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Bio != nil {
		rec.Bio = *upd.Bio
	}
	if upd.ProfilePicture != nil {
		rec.ProfilePicture = *upd.ProfilePicture
	}
	if upd.Username != nil {
		rec.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.Email != nil {
		rec.Email = normalizeEmail(*upd.Email)
	}

	if rec.Email != oldEmail {
		taken, err := getRecord(ctx, tx, rec.Email)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, fmt.Errorf("%w: an account with this email already exists", common.ErrorAlreadyExists)
		}
		if err := tx.Delete(ctx, models.LocalUserKey(oldEmail)); err != nil {
			return nil, err
		}
	}
	if rec.Email != oldEmail || rec.Username != oldUsername {
		if err := dropAlias(ctx, tx, oldUsername, oldEmail); err != nil {
			return nil, err
		}
	}
	if err := putRecord(ctx, tx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CacheBackendUser stores an account the backend just authenticated. The
// remote response replaces any previous local copy instead of merging with it.
func (v *Vault) CacheBackendUser(ctx context.Context, identifier, password string, resp models.AuthResponse) error {
	identifier = strings.TrimSpace(identifier)

	email := normalizeEmail(resp.User.Email)
	if email == "" && strings.Contains(identifier, "@") {
		email = normalizeEmail(identifier)
	}
	if email == "" {
		return fmt.Errorf("%w: remote response carries no email", common.ErrorValidation)
	}

	username := resp.User.Username
	if username == "" {
		if identifier != "" && !strings.Contains(identifier, "@") {
			username = identifier
		} else {
			username = usernameFromEmail(email)
		}
	}

	created := v.now()
	if resp.User.CreatedAt != nil {
		created = *resp.User.CreatedAt
	}
	rec := &models.LocalUser{
		Email:          email,
		Username:       username,
		PasswordHash:   cryptox.HashPassword(password),
		CreatedAt:      created,
		Name:           resp.User.Name,
		Bio:            resp.User.Bio,
		ProfilePicture: resp.User.ProfilePicture,
	}

	return v.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		prev, err := getRecord(ctx, tx, email)
		if err != nil {
			return err
		}
		if prev != nil && prev.Username != username {
			if err := dropAlias(ctx, tx, prev.Username, email); err != nil {
				return err
			}
		}
		return putRecord(ctx, tx, rec)
	})
}

func (v *Vault) ListAccounts(ctx context.Context) ([]models.LocalUser, error) {
	all, err := v.store.List(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		if strings.HasPrefix(k, models.LocalUserPrefix()) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := make([]models.LocalUser, 0, len(keys))
	for _, k := range keys {
		var u models.LocalUser
		if err := json.Unmarshal(all[k], &u); err != nil {
			v.log.Warn(ctx, "skipping unreadable local account", "key", k, "error", err)
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// ClearAllCachedAccounts removes every cached account and returns how many
// were removed.
func (v *Vault) ClearAllCachedAccounts(ctx context.Context) (int, error) {
	return v.clearAccounts(ctx, "")
}

// ClearOtherCachedAccounts removes every cached account except keepEmail.
func (v *Vault) ClearOtherCachedAccounts(ctx context.Context, keepEmail string) (int, error) {
	return v.clearAccounts(ctx, normalizeEmail(keepEmail))
}

func (v *Vault) clearAccounts(ctx context.Context, keepEmail string) (int, error) {
	removed := 0
	err := v.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		removed = 0
		keys, err := tx.Keys(ctx)
		if err != nil {
			return err
		}
		var doomed []string
		for _, k := range keys {
			switch {
			case strings.HasPrefix(k, models.LocalUserAliasPrefix()):
				if keepEmail != "" {
					target, err := tx.Get(ctx, k)
					if err != nil {
						return err
					}
					if string(target) == keepEmail {
						continue
					}
				}
				doomed = append(doomed, k)
			case strings.HasPrefix(k, models.LocalUserPrefix()):
				if keepEmail != "" && k == models.LocalUserKey(keepEmail) {
					continue
				}
				doomed = append(doomed, k)
				removed++
			}
		}
		return tx.MultiDelete(ctx, doomed)
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		v.log.Info(ctx, "cleared cached accounts", "count", removed)
	}
	return removed, nil
}

// DeleteAccount removes the account owning token.
func (v *Vault) DeleteAccount(ctx context.Context, token string) error {
	return v.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		email, _, err := resolveEmail(ctx, tx, token)
		if err != nil {
			return err
		}
		rec, err := getRecord(ctx, tx, email)
		if err != nil {
			return err
		}
		if rec == nil {
			return nil
		}
		if err := dropAlias(ctx, tx, rec.Username, email); err != nil {
			return err
		}
		return tx.Delete(ctx, models.LocalUserKey(email))
	})
}
