// Package client contains the client-side building blocks that talk to the
// outside world.
//
// # Overview
//
//  1. Client: the remote API contract (auth, profile, decks) and HTTPClient,
//     its net/http implementation. Every call is tried against two base URLs,
//     LAN and tunnel, ordered by a URLPreference (the health prober). Each
//     attempt is bounded by a per-request timeout. Only network failures move
//     on to the next URL; a non-2xx answer is returned immediately.
//  2. InitDatabase and RunMigrations, which open the local SQLite store and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// Network failures surface as *NetworkError, which matches ErrUnavailable.
// Rejections surface as *RemoteRejection carrying the server message;
// 401/403 match ErrUnauthorized and 404 matches common.ErrorNotFound.
package client
