package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
)

func (a *App) Profile(ctx context.Context) error {
	u, err := a.profileService.Get(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Email:    %s\n", u.Email)
	fmt.Fprintf(a.out, "Username: %s\n", u.Username)
	fmt.Fprintf(a.out, "Name:     %s\n", u.Name)
	if u.Bio != "" {
		fmt.Fprintf(a.out, "Bio:      %s\n", u.Bio)
	}
	if u.FontSize != "" {
		fmt.Fprintf(a.out, "Font:     %s\n", u.FontSize)
	}
	return nil
}

// EditProfile asks for each editable field; empty answers keep the value.
func (a *App) EditProfile(ctx context.Context) error {
	u, err := a.profileService.Get(ctx)
	if err != nil {
		return err
	}

	var upd models.ProfileUpdate
	fields := []struct {
		prompt string
		cur    string
		dst    **string
	}{
		{"Name", u.Name, &upd.Name},
		{"Bio", u.Bio, &upd.Bio},
		{"Font size (small, medium, large)", u.FontSize, &upd.FontSize},
	}
	for _, f := range fields {
		v, err := getOptionalText(a.reader, f.prompt, f.cur, a.out)
		if err != nil {
			return err
		}
		if v != f.cur {
			*f.dst = &v
		}
	}
	if upd == (models.ProfileUpdate{}) {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}

	if _, err := a.profileService.Update(ctx, upd); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated")
	return nil
}

func (a *App) DeleteAccount(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Type DELETE to remove your account and its decks", a.out)
	if err != nil {
		return err
	}
	if strings.TrimSpace(answer) != "DELETE" {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.profileService.DeleteAccount(ctx); err != nil {
		a.log.Warn(ctx, "account deletion failed", "error", err)
		return friendlyRemoteError(err)
	}
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

// friendlyRemoteError rewrites failures of operations that need the server.
func friendlyRemoteError(err error) error {
	switch {
	case errors.Is(err, client.ErrUnavailable):
		return errors.New("server unreachable, try again when online")
	case errors.Is(err, client.ErrUnauthorized):
		return errors.New("session expired, please log in again")
	}
	return err
}
