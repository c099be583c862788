package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedInOffline(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, false, offline())
	_, err := h.auth.Signup(context.Background(), "ann@example.com", goodPassword, goodPassword)
	require.NoError(t, err)
	return h
}

func kinds(q []models.SyncItem) []string {
	out := make([]string, 0, len(q))
	for _, it := range q {
		out = append(out, it.Kind())
	}
	return out
}

func TestDeckService_CreateUpdateDelete(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	d, err := h.deckSvc.Create(ctx, "  Spanish ", 25, 5)
	require.NoError(t, err)
	assert.Equal(t, "Spanish", d.Name)
	assert.NotEmpty(t, d.ID)
	assert.NotNil(t, d.Cards)

	d2, err := h.deckSvc.Create(ctx, "French", 30, 0)
	require.NoError(t, err)
	assert.NotEqual(t, d.ID, d2.ID)

	_, err = h.deckSvc.Update(ctx, d.ID, "Spanish A1", 20, 5)
	require.NoError(t, err)
	got, err := h.deckSvc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spanish A1", got.Name)
	assert.Equal(t, 20, got.PomodoroMinutes)

	require.NoError(t, h.deckSvc.Delete(ctx, d2.ID))
	_, err = h.deckSvc.Get(ctx, d2.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deck/create", "deck/create", "deck/update", "deck/delete"}, kinds(q))
	assert.Equal(t, d.ID, q[0].DeckID)

	var created models.Deck
	require.NoError(t, json.Unmarshal(q[0].Data, &created))
	assert.Equal(t, d.ID, created.ID)

	own, err := h.decks.UserDecks(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Len(t, own, 1)
}

func TestDeckService_Validation(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	_, err := h.deckSvc.Create(ctx, " ", 25, 5)
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = h.deckSvc.Create(ctx, "x", 0, 5)
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = h.deckSvc.Create(ctx, "x", 25, -1)
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = h.deckSvc.Update(ctx, "missing", "x", 25, 5)
	require.ErrorIs(t, err, common.ErrorNotFound)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, q, "rejected edits queue nothing")
}

func TestDeckService_Cards(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	d, err := h.deckSvc.Create(ctx, "Spanish", 25, 5)
	require.NoError(t, err)

	d, err = h.deckSvc.AddCard(ctx, d.ID, models.Card{Question: "hola", Answer: "hello"})
	require.NoError(t, err)
	d, err = h.deckSvc.AddCard(ctx, d.ID, models.Card{Question: "adios", Answer: "bye"})
	require.NoError(t, err)
	require.Len(t, d.Cards, 2)

	d, err = h.deckSvc.UpdateCard(ctx, d.ID, 1, models.Card{Question: "adiós", Answer: "goodbye"})
	require.NoError(t, err)
	assert.Equal(t, "goodbye", d.Cards[1].Answer)

	d, err = h.deckSvc.DeleteCard(ctx, d.ID, 0)
	require.NoError(t, err)
	require.Len(t, d.Cards, 1)
	assert.Equal(t, "adiós", d.Cards[0].Question)

	_, err = h.deckSvc.DeleteCard(ctx, d.ID, 5)
	require.ErrorIs(t, err, common.ErrorValidation)
	_, err = h.deckSvc.AddCard(ctx, d.ID, models.Card{Question: "q"})
	require.ErrorIs(t, err, common.ErrorValidation)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"deck/create", "card/create", "card/create", "card/update", "card/delete"}, kinds(q))

	var removed models.Card
	require.NoError(t, json.Unmarshal(q[4].Data, &removed))
	assert.Equal(t, "hola", removed.Question)
	for _, it := range q {
		assert.Equal(t, d.ID, it.DeckID)
	}
}

func TestDeckService_MarkUsed_NotQueued(t *testing.T) {
	h := signedInOffline(t)
	ctx := context.Background()

	d, err := h.deckSvc.Create(ctx, "Spanish", 25, 5)
	require.NoError(t, err)
	require.NoError(t, h.deckSvc.MarkUsed(ctx, d.ID))

	got, err := h.deckSvc.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastUsed)

	q, err := h.sync.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, q, 1)
}

func TestOfflineEditsReplayAfterRemoteRestore(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, false, online())
	setSession(t, h.store, remoteToken, models.User{Email: "ann@example.com"})

	d, err := h.deckSvc.Create(ctx, "Spanish", 25, 5)
	require.NoError(t, err)
	_, err = h.deckSvc.AddCard(ctx, d.ID, models.Card{Question: "hola", Answer: "hello"})
	require.NoError(t, err)

	res, err := h.sync.Drain(ctx, remoteToken)
	require.NoError(t, err)
	assert.Equal(t, models.DrainResult{Success: 2}, res)

	decks := readWorkingSet(t, h.store)
	require.Len(t, decks, 1)
	assert.Equal(t, "srv-1", decks[0].ID)
	assert.Len(t, decks[0].Cards, 1)
}
