package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup prompts for an email and a password twice and creates an account,
// remotely when the server is reachable and locally otherwise.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(a.out, "Confirm password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	sess, err := a.authService.Signup(ctx, email, string(password), string(confirm))
	if err != nil {
		return friendlyAuthError(err)
	}

	a.announceSession(sess)
	return nil
}

// Login prompts for an email or username and a password. The auth service
// decides between the server and the local vault; the resulting session
// kind is reported back to the user.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	sess, err := a.authService.Login(ctx, identifier, string(password))
	if err != nil {
		a.log.Info(ctx, "login unsuccessful", "error", err)
		return friendlyAuthError(err)
	}

	a.announceSession(sess)
	return nil
}

func (a *App) announceSession(sess models.Session) {
	if sess.Offline() {
		fmt.Fprintf(a.out, "Signed in as %s (offline, changes will sync later)\n", displayName(sess.User))
		return
	}
	fmt.Fprintf(a.out, "Signed in as %s\n", displayName(sess.User))
}

func friendlyAuthError(err error) error {
	var rej *client.RemoteRejection
	switch {
	case errors.As(err, &rej):
		return errors.New(rej.Message)
	case errors.Is(err, common.ErrorNotFound):
		return errors.New("no account found for these credentials")
	case errors.Is(err, common.ErrorInvalidLoginPassword):
		return errors.New("invalid credentials")
	}
	return err
}

// Logout ends the session. Cached accounts and per-user decks stay on disk.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// Accounts lists the cached accounts usable offline.
func (a *App) Accounts(ctx context.Context) error {
	accounts, err := a.vault.ListAccounts(ctx)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(a.out, "No cached accounts")
		return nil
	}
	for _, u := range accounts {
		fmt.Fprintf(a.out, "%s\t%s\tcreated %s\n", u.Email, u.Username, u.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// ClearAccounts removes every cached account after confirmation.
func (a *App) ClearAccounts(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Remove all cached accounts? (yes/no)", a.out)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	n, err := a.vault.ClearAllCachedAccounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d account(s)\n", n)
	return nil
}
