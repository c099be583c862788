package models

import (
	"encoding/json"
	"time"
)

type Card struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Deck is the local deck shape. Until the first successful remote create,
// ID is a client generated millisecond timestamp.
type Deck struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	PomodoroMinutes int        `json:"pomodoroMinutes"`
	RestMinutes     int        `json:"restMinutes"`
	Cards           []Card     `json:"cards"`
	LastUsed        *time.Time `json:"lastUsed,omitempty"`
}

// Payload strips local-only fields before a deck is sent to the server.
func (d Deck) Payload() DeckPayload {
	cards := d.Cards
	if cards == nil {
		cards = []Card{}
	}
	return DeckPayload{
		Name:            d.Name,
		PomodoroMinutes: d.PomodoroMinutes,
		RestMinutes:     d.RestMinutes,
		Cards:           cards,
	}
}

// DeckPayload is the request body of POST /decks and PUT /decks/:id.
type DeckPayload struct {
	Name            string `json:"name"`
	PomodoroMinutes int    `json:"pomodoroMinutes"`
	RestMinutes     int    `json:"restMinutes"`
	Cards           []Card `json:"cards"`
}

// RemoteDeck is a deck document as returned by the server.
type RemoteDeck struct {
	ID              string `json:"-"`
	Name            string `json:"name"`
	PomodoroMinutes int    `json:"pomodoroMinutes"`
	RestMinutes     int    `json:"restMinutes"`
	Cards           []Card `json:"cards"`
}

func (r *RemoteDeck) UnmarshalJSON(b []byte) error {
	type alias RemoteDeck
	aux := struct {
		*alias
		DocID string `json:"_id"`
		ID    string `json:"id"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	r.ID = aux.DocID
	if r.ID == "" {
		r.ID = aux.ID
	}
	return nil
}

// ToDeck maps a remote document to the local shape.
func (r RemoteDeck) ToDeck() Deck {
	cards := r.Cards
	if cards == nil {
		cards = []Card{}
	}
	return Deck{
		ID:              r.ID,
		Name:            r.Name,
		PomodoroMinutes: r.PomodoroMinutes,
		RestMinutes:     r.RestMinutes,
		Cards:           cards,
	}
}

// FindDeck returns the index of the deck with id, or -1.
func FindDeck(decks []Deck, id string) int {
	for i := range decks {
		if decks[i].ID == id {
			return i
		}
	}
	return -1
}
