package client

import (
	"context"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
)

type Client interface {
	Close() error
	Signup(ctx context.Context, email, password, confirmPassword string) (models.AuthResponse, error)
	Login(ctx context.Context, usernameOrEmail, password string) (models.AuthResponse, error)
	GetProfile(ctx context.Context, token string) (models.User, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error)
	DeleteProfile(ctx context.Context, token string) error
	ListDecks(ctx context.Context, token string) ([]models.RemoteDeck, error)
	// CreateDeck sends idempotencyKey so a create replayed after a lost
	// response is not duplicated by a server that honours the header.
	CreateDeck(ctx context.Context, token string, deck models.DeckPayload, idempotencyKey string) (models.RemoteDeck, error)
	UpdateDeck(ctx context.Context, token, id string, deck models.DeckPayload) (models.RemoteDeck, error)
	DeleteDeck(ctx context.Context, token, id string) error
}

// URLPreference decides which base URL is tried first.
type URLPreference interface {
	PreferTunnel() bool
}
