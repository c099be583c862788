// Package cli provides the interactive cramodoro command-line client.
//
// It wires configuration, the local store, the remote API client and the
// services into a REPL that keeps working without a network. Typical flow:
// restore the previous session, start the connectivity watcher, and execute
// user commands.
//
// Key features:
//   - Signup / Login (remote with local vault fallback) / Logout
//   - Decks and cards: list, show, add, edit, delete, study
//   - Profile view and edit, account deletion
//   - Manual sync and a status view of the outbox
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
