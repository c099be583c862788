// Package models defines the records persisted in the local store and the
// documents exchanged with the remote API: decks and cards, the session user
// snapshot, cached local accounts, identity tokens and sync queue entries.
package models
