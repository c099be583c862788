// Package common defines shared constants and sentinel errors used across
// the client layers of Cramodoro. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Input rejected before any storage or network I/O. Never retried.
	ErrorValidation = errors.New("validation error")

	// Duplicate signup.
	ErrorAlreadyExists = errors.New("already exists")

	// Credential mismatch against a known identity.
	ErrorInvalidLoginPassword = errors.New("invalid credentials")

	// A token that cannot be resolved to an owning identity.
	ErrorInvalidToken = errors.New("invalid token")
)
