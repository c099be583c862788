package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
)

func displayName(u models.User) string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Username != "":
		return u.Username
	default:
		return u.Email
	}
}

func (a *App) getStatus() string {
	s := ""
	if a.authService != nil {
		if sess := a.authService.Current(); sess != nil {
			s = displayName(sess.User) + " "
		}
	}
	if m := a.mode(); m != "" {
		s = s + string(m)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to cramodoro CLI (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.reader)
}
