package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_NotSignedIn(t *testing.T) {
	h := newHarness(t, false, offline())
	_, err := h.profile.Get(context.Background())
	require.ErrorIs(t, err, common.ErrorInvalidToken)
}

func TestProfile_OfflineGetAndUpdate(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	u, err := h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)

	u, err = h.profile.Update(ctx, models.ProfileUpdate{Name: ptr("  Ann  "), Bio: ptr("hi")})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "hi", u.Bio)

	var snap models.User
	_, err = kv.GetJSON(ctx, h.store, models.KeyUserData, &snap)
	require.NoError(t, err)
	assert.Equal(t, "Ann", snap.Name)

	u, err = h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, q, 1)
	assert.Equal(t, "profile/update", q[0].Kind())
}

func TestProfile_UpdateRejectsBadName(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	_, err := h.profile.Update(ctx, models.ProfileUpdate{Name: ptr(" ")})
	require.ErrorIs(t, err, common.ErrorValidation)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, q)
}

func TestProfile_RemoteGet(t *testing.T) {
	h := newHarness(t, true, online())
	ctx := context.Background()
	h.api.LoginRet = models.AuthResponse{Token: "jwt-1", User: models.User{Email: "ann@example.com"}}
	_, err := h.auth.Login(ctx, "ann@example.com", goodPassword)
	require.NoError(t, err)

	h.api.ProfileRet = models.User{Email: "ann@example.com", Name: "Remote Ann"}
	u, err := h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Remote Ann", u.Name)

	h.api.ProfileErr = &client.NetworkError{Method: "GET", Path: "/users/profile", Err: errors.New("refused")}
	u, err = h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
}

func TestProfile_DeleteAccount(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()
	_, err := h.deckSvc.Create(ctx, "deck", 25, 5)
	require.NoError(t, err)

	require.NoError(t, h.profile.DeleteAccount(ctx))
	assert.Nil(t, h.auth.Current())
	assert.False(t, h.api.called("DeleteProfile"))

	accounts, err := h.vault.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, accounts)
	own, err := h.decks.UserDecks(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestProfile_OfflineEmailChangeMovesIdentity(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()
	_, err := h.deckSvc.Create(ctx, "Spanish", 25, 5)
	require.NoError(t, err)

	u, err := h.profile.Update(ctx, models.ProfileUpdate{Email: ptr("  New@Example.com ")})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	sess := h.auth.Current()
	require.NotNil(t, sess)
	email, ok := models.EmailFromOfflineToken(sess.Token)
	require.True(t, ok)
	assert.Equal(t, "new@example.com", email)
	assert.Equal(t, "new@example.com", sess.User.Email)

	u, err = h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	u, err = h.profile.Update(ctx, models.ProfileUpdate{Bio: ptr("hola")})
	require.NoError(t, err)
	assert.Equal(t, "hola", u.Bio)

	moved, err := h.decks.UserDecks(ctx, "new@example.com")
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, "Spanish", moved[0].Name)
	old, err := h.decks.UserDecks(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Empty(t, old)

	require.NoError(t, h.auth.Logout(ctx))
	_, err = h.auth.Login(ctx, "ann@example.com", goodPassword)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = h.auth.Login(ctx, "new@example.com", goodPassword)
	require.NoError(t, err)
	decks, err := h.deckSvc.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "Spanish", decks[0].Name)
}

func TestProfile_EmailChangeToTakenEmailChangesNothing(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()
	_, err := h.vault.Signup(ctx, "bob@example.com", goodPassword, goodPassword)
	require.NoError(t, err)
	before := h.auth.Current()

	_, err = h.profile.Update(ctx, models.ProfileUpdate{Email: ptr("bob@example.com"), Bio: ptr("x")})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	assert.Equal(t, before, h.auth.Current())
	u, err := h.profile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Empty(t, u.Bio)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, q)
}
