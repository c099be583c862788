// Package cryptox holds the hashing used by the local credential vault.
//
// The vault is an offline fallback only: a device-local copy of credentials
// that the remote backend has already accepted, or that were created while
// the backend was unreachable. It uses a single SHA-256 round over the
// password and an application-wide salt. Nothing here is ever sent to the
// server.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// LocalSalt is appended to every password before hashing.
const LocalSalt = "cramodoro-salt-2026-secure"

// HashPassword returns the lower-case hex SHA-256 digest of password+LocalSalt.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + LocalSalt))
	return hex.EncodeToString(sum[:])
}

// VerifyPassword reports whether password hashes to storedHash.
// An empty stored hash never matches (records materialised from a remote
// session snapshot carry no cached password).
func VerifyPassword(password, storedHash string) bool {
	if storedHash == "" {
		return false
	}
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(storedHash)) == 1
}
