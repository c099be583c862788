package services

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

// DeckStore isolates deck collections per identity. models.KeyDecks holds
// the active working set; models.UserDecksKey(email) holds each identity's
// durable copy. Writes outside login and drain go through
// SaveCurrentUserDecks so both stay in step.
type DeckStore struct {
	store kv.Repository
	log   logging.Logger
}

func NewDeckStore(store kv.Repository, log logging.Logger) *DeckStore {
	return &DeckStore{store: store, log: log}
}

// currentEmail resolves the active identity from the session snapshot,
// falling back to an offline token.
func (d *DeckStore) currentEmail(ctx context.Context, r kv.Repository) (string, error) {
	var u models.User
	ok, err := kv.GetJSON(ctx, r, models.KeyUserData, &u)
	if err != nil {
		return "", err
	}
	if ok && u.Email != "" {
		return u.Email, nil
	}
	tok, err := r.Get(ctx, models.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if email, ok := models.EmailFromOfflineToken(string(tok)); ok {
		return email, nil
	}
	return "", nil
}

func readDecks(ctx context.Context, r kv.Repository, key string) ([]models.Deck, error) {
	decks := []models.Deck{}
	if _, err := kv.GetJSON(ctx, r, key, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

// CurrentDecks returns the working set.
func (d *DeckStore) CurrentDecks(ctx context.Context) ([]models.Deck, error) {
	return readDecks(ctx, d.store, models.KeyDecks)
}

// UserDecks returns the durable copy of email's decks without touching the
// working set.
func (d *DeckStore) UserDecks(ctx context.Context, email string) ([]models.Deck, error) {
	return readDecks(ctx, d.store, models.UserDecksKey(email))
}

func (d *DeckStore) SaveCurrentUserDecks(ctx context.Context, decks []models.Deck) error {
	return d.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		return d.saveIn(ctx, tx, decks)
	})
}

func (d *DeckStore) saveIn(ctx context.Context, r kv.Repository, decks []models.Deck) error {
	if decks == nil {
		decks = []models.Deck{}
	}
	b, err := json.Marshal(decks)
	if err != nil {
		return err
	}
	if err := r.Set(ctx, models.KeyDecks, b); err != nil {
		return err
	}
	email, err := d.currentEmail(ctx, r)
	if err != nil {
		return err
	}
	if email == "" {
		d.log.Warn(ctx, "no active identity, per-user deck copy not written")
		return nil
	}
	return r.Set(ctx, models.UserDecksKey(email), b)
}

// LoadUserDecks copies email's durable decks into the working set. An
// identity without a copy gets an empty working set.
func (d *DeckStore) LoadUserDecks(ctx context.Context, email string) ([]models.Deck, error) {
	var out []models.Deck
	err := d.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		raw, err := tx.Get(ctx, models.UserDecksKey(email))
		if err != nil {
			return err
		}
		if raw == nil {
			out = []models.Deck{}
			return tx.Delete(ctx, models.KeyDecks)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
		return tx.Set(ctx, models.KeyDecks, raw)
	})
	if err != nil {
		return nil, err
	}
	d.log.Debug(ctx, "loaded user decks", "email", email, "count", len(out))
	return out, nil
}

// clearCurrent drops the working set. Per-user copies stay.
func (d *DeckStore) clearCurrent(ctx context.Context, r kv.Repository) error {
	return r.Delete(ctx, models.KeyDecks)
}

// rewriteDeckID replaces oldID with newID in the working set, the active
// identity's copy and every queued entry. r must be a transaction.
func (d *DeckStore) rewriteDeckID(ctx context.Context, r kv.Repository, oldID, newID string) error {
	decks, err := readDecks(ctx, r, models.KeyDecks)
	if err != nil {
		return err
	}
	if i := models.FindDeck(decks, oldID); i >= 0 {
		decks[i].ID = newID
	}
	if err := d.saveIn(ctx, r, decks); err != nil {
		return err
	}

	queue, err := readQueue(ctx, r)
	if err != nil {
		return err
	}
	changed := false
	for i := range queue {
		if queue[i].DeckID == oldID {
			queue[i].DeckID = newID
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return kv.SetJSON(ctx, r, models.KeySyncQueue, queue)
}
