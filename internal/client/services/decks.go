package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

// DeckService is the set of deck and card actions offered to the user.
// Each mutation updates the working set and queues the matching sync entry
// in one local transaction.
type DeckService interface {
	List(ctx context.Context) ([]models.Deck, error)
	Get(ctx context.Context, id string) (models.Deck, error)
	Create(ctx context.Context, name string, pomodoroMinutes, restMinutes int) (models.Deck, error)
	Update(ctx context.Context, id, name string, pomodoroMinutes, restMinutes int) (models.Deck, error)
	Delete(ctx context.Context, id string) error
	AddCard(ctx context.Context, deckID string, card models.Card) (models.Deck, error)
	UpdateCard(ctx context.Context, deckID string, index int, card models.Card) (models.Deck, error)
	DeleteCard(ctx context.Context, deckID string, index int) (models.Deck, error)
	MarkUsed(ctx context.Context, id string) error
}

type deckService struct {
	store kv.Repository
	decks *DeckStore
	sync  SyncService
	log   logging.Logger
	now   func() time.Time
}

func NewDeckService(store kv.Repository, decks *DeckStore, syncSvc SyncService, log logging.Logger) DeckService {
	return &deckService{store: store, decks: decks, sync: syncSvc, log: log, now: time.Now}
}

func validateDeck(name string, pomodoroMinutes, restMinutes int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: deck name is required", common.ErrorValidation)
	}
	if pomodoroMinutes <= 0 {
		return fmt.Errorf("%w: pomodoro minutes must be positive", common.ErrorValidation)
	}
	if restMinutes < 0 {
		return fmt.Errorf("%w: rest minutes cannot be negative", common.ErrorValidation)
	}
	return nil
}

func validateCard(c models.Card) error {
	if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.Answer) == "" {
		return fmt.Errorf("%w: question and answer are required", common.ErrorValidation)
	}
	return nil
}

func deckNotFound(id string) error {
	return fmt.Errorf("%w: deck %s", common.ErrorNotFound, id)
}

func (s *deckService) List(ctx context.Context) ([]models.Deck, error) {
	return s.decks.CurrentDecks(ctx)
}

func (s *deckService) Get(ctx context.Context, id string) (models.Deck, error) {
	decks, err := s.decks.CurrentDecks(ctx)
	if err != nil {
		return models.Deck{}, err
	}
	i := models.FindDeck(decks, id)
	if i < 0 {
		return models.Deck{}, deckNotFound(id)
	}
	return decks[i], nil
}

// newLocalID returns a millisecond timestamp not used by any deck.
func (s *deckService) newLocalID(decks []models.Deck) string {
	ms := s.now().UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if models.FindDeck(decks, id) < 0 {
			return id
		}
		ms++
	}
}

// mutate runs fn over the working set and persists the result together
// with whatever fn queued.
func (s *deckService) mutate(ctx context.Context, fn func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error)) error {
	return s.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		decks, err := readDecks(ctx, tx, models.KeyDecks)
		if err != nil {
			return err
		}
		decks, err = fn(ctx, tx, decks)
		if err != nil {
			return err
		}
		return s.decks.saveIn(ctx, tx, decks)
	})
}

func (s *deckService) Create(ctx context.Context, name string, pomodoroMinutes, restMinutes int) (models.Deck, error) {
	if err := validateDeck(name, pomodoroMinutes, restMinutes); err != nil {
		return models.Deck{}, err
	}
	var out models.Deck
	err := s.mutate(ctx, func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error) {
		out = models.Deck{
			ID:              s.newLocalID(decks),
			Name:            strings.TrimSpace(name),
			PomodoroMinutes: pomodoroMinutes,
			RestMinutes:     restMinutes,
			Cards:           []models.Card{},
		}
		if err := s.sync.EnqueueIn(ctx, tx, models.ItemTypeDeck, models.ActionCreate, out, out.ID); err != nil {
			return nil, err
		}
		return append(decks, out), nil
	})
	return out, err
}

func (s *deckService) Update(ctx context.Context, id, name string, pomodoroMinutes, restMinutes int) (models.Deck, error) {
	if err := validateDeck(name, pomodoroMinutes, restMinutes); err != nil {
		return models.Deck{}, err
	}
	var out models.Deck
	err := s.mutate(ctx, func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error) {
		i := models.FindDeck(decks, id)
		if i < 0 {
			return nil, deckNotFound(id)
		}
		decks[i].Name = strings.TrimSpace(name)
		decks[i].PomodoroMinutes = pomodoroMinutes
		decks[i].RestMinutes = restMinutes
		out = decks[i]
		if err := s.sync.EnqueueIn(ctx, tx, models.ItemTypeDeck, models.ActionUpdate, out.Payload(), id); err != nil {
			return nil, err
		}
		return decks, nil
	})
	return out, err
}

func (s *deckService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error) {
		i := models.FindDeck(decks, id)
		if i < 0 {
			return nil, deckNotFound(id)
		}
		if err := s.sync.EnqueueIn(ctx, tx, models.ItemTypeDeck, models.ActionDelete, nil, id); err != nil {
			return nil, err
		}
		return append(decks[:i], decks[i+1:]...), nil
	})
}

// cardOp applies edit to one deck and queues the card it reports.
func (s *deckService) cardOp(ctx context.Context, deckID string, action models.Action, edit func(d *models.Deck) (models.Card, error)) (models.Deck, error) {
	var out models.Deck
	err := s.mutate(ctx, func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error) {
		i := models.FindDeck(decks, deckID)
		if i < 0 {
			return nil, deckNotFound(deckID)
		}
		if decks[i].Cards == nil {
			decks[i].Cards = []models.Card{}
		}
		card, err := edit(&decks[i])
		if err != nil {
			return nil, err
		}
		out = decks[i]
		if err := s.sync.EnqueueIn(ctx, tx, models.ItemTypeCard, action, card, deckID); err != nil {
			return nil, err
		}
		return decks, nil
	})
	return out, err
}

func checkIndex(d *models.Deck, index int) error {
	if index < 0 || index >= len(d.Cards) {
		return fmt.Errorf("%w: card %d out of range", common.ErrorValidation, index+1)
	}
	return nil
}

func (s *deckService) AddCard(ctx context.Context, deckID string, card models.Card) (models.Deck, error) {
	if err := validateCard(card); err != nil {
		return models.Deck{}, err
	}
	return s.cardOp(ctx, deckID, models.ActionCreate, func(d *models.Deck) (models.Card, error) {
		d.Cards = append(d.Cards, card)
		return card, nil
	})
}

func (s *deckService) UpdateCard(ctx context.Context, deckID string, index int, card models.Card) (models.Deck, error) {
	if err := validateCard(card); err != nil {
		return models.Deck{}, err
	}
	return s.cardOp(ctx, deckID, models.ActionUpdate, func(d *models.Deck) (models.Card, error) {
		if err := checkIndex(d, index); err != nil {
			return models.Card{}, err
		}
		d.Cards[index] = card
		return card, nil
	})
}

func (s *deckService) DeleteCard(ctx context.Context, deckID string, index int) (models.Deck, error) {
	return s.cardOp(ctx, deckID, models.ActionDelete, func(d *models.Deck) (models.Card, error) {
		if err := checkIndex(d, index); err != nil {
			return models.Card{}, err
		}
		removed := d.Cards[index]
		d.Cards = append(d.Cards[:index], d.Cards[index+1:]...)
		return removed, nil
	})
}

// MarkUsed stamps lastUsed. It is local only and not queued.
func (s *deckService) MarkUsed(ctx context.Context, id string) error {
	return s.mutate(ctx, func(ctx context.Context, tx kv.Repository, decks []models.Deck) ([]models.Deck, error) {
		i := models.FindDeck(decks, id)
		if i < 0 {
			return nil, deckNotFound(id)
		}
		now := s.now()
		decks[i].LastUsed = &now
		return decks, nil
	})
}
