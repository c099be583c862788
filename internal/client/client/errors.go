package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/cramodoro/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
)

// NetworkError is a transport level failure: refused connection, abort or
// timeout. The request may or may not have reached the server.
type NetworkError struct {
	Method  string
	Path    string
	URL     string
	Timeout bool
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s %s: request timed out: %v", e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s %s: network request failed: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// DefaultRejectionMessage is used when the error body carries no message.
const DefaultRejectionMessage = "Something went wrong"

// RemoteRejection is a non-2xx answer from the server.
type RemoteRejection struct {
	Status  int
	Message string
}

func (e *RemoteRejection) Error() string { return e.Message }

func (e *RemoteRejection) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case common.ErrorNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
