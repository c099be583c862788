package cli

import (
	"context"
	"fmt"
)

// Sync drains the outbox now instead of waiting for auto-sync.
func (a *App) Sync(ctx context.Context) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNeedLogin
	}
	if sess.Offline() {
		fmt.Fprintln(a.out, "Offline session: log in while the server is reachable to sync")
		return nil
	}
	res, err := a.syncService.Drain(ctx, sess.Token)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Synced %d change(s), %d failed\n", res.Success, res.Failed)
	if res.Failed > 0 {
		fmt.Fprintln(a.out, "Pending changes were kept and will be retried")
	}
	return nil
}

// Status prints connectivity, session and outbox state.
func (a *App) Status(ctx context.Context) error {
	mode := a.mode()
	if mode == "" {
		mode = "unknown"
	}
	fmt.Fprintf(a.out, "Network:  %s\n", mode)
	fmt.Fprintf(a.out, "Server:   %s\n", a.prober.Status())

	if sess := a.authService.Current(); sess != nil {
		kind := "online"
		if sess.Offline() {
			kind = "offline"
		}
		fmt.Fprintf(a.out, "Session:  %s (%s)\n", sess.User.Email, kind)
	} else {
		fmt.Fprintln(a.out, "Session:  none")
	}

	pending, err := a.syncService.Pending(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Pending:  %d\n", len(pending))

	last, err := a.syncService.LastSyncTime(ctx)
	if err != nil {
		return err
	}
	if last != nil {
		fmt.Fprintf(a.out, "Synced:   %s\n", last.Local().Format("2006-01-02 15:04:05"))
	} else {
		fmt.Fprintln(a.out, "Synced:   never")
	}
	return nil
}
