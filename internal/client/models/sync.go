package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ItemType string

const (
	ItemTypeDeck    ItemType = "deck"
	ItemTypeCard    ItemType = "card"
	ItemTypeProfile ItemType = "profile"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// SyncItem is one queued mutation. ID doubles as the idempotency key for
// remote creates.
type SyncItem struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Type      ItemType        `json:"type"`
	Action    Action          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	DeckID    string          `json:"deckId,omitempty"`
}

// NewSyncItem marshals data and stamps a fresh id.
func NewSyncItem(t ItemType, a Action, data any, deckID string, now time.Time) (SyncItem, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return SyncItem{}, err
		}
		raw = b
	}
	return SyncItem{
		ID:        uuid.NewString(),
		Timestamp: now,
		Type:      t,
		Action:    a,
		Data:      raw,
		DeckID:    deckID,
	}, nil
}

// Kind is "<type>/<action>", used in logs and dispatch.
func (s SyncItem) Kind() string { return string(s.Type) + "/" + string(s.Action) }

type DrainResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
