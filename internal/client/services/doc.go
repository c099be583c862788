// Package services contains the application services of the Cramodoro
// client: authentication across the remote and local account stores, the
// durable sync queue and its drain, per-identity deck storage, and the deck
// and profile actions the CLI exposes.
//
// Every mutation goes to the local store first. Anything the server should
// learn about is appended to the sync queue in the same transaction and
// replayed later by the drain.
package services
