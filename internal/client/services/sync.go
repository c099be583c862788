package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/netstate"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const maxProfileNameLength = 50

// SyncService owns the outbox of local mutations and replays it against the
// remote API.
//
// Contract:
//   - Enqueue / EnqueueIn: append an entry; never deduplicated or coalesced.
//   - Drain: replay the queue in enqueue order. Per-entry failures are
//     logged and counted; the processed entries are removed only when the
//     whole pass succeeded. Returns an error only on local store failure.
//   - StartAutoSync: drain on reachability gain and on a fixed interval
//     until the returned stop function is called.
type SyncService interface {
	Enqueue(ctx context.Context, t models.ItemType, a models.Action, data any, deckID string) error
	EnqueueIn(ctx context.Context, tx kv.Repository, t models.ItemType, a models.Action, data any, deckID string) error
	Pending(ctx context.Context) ([]models.SyncItem, error)
	Clear(ctx context.Context) error
	LastSyncTime(ctx context.Context) (*time.Time, error)
	Drain(ctx context.Context, token string) (models.DrainResult, error)
	StartAutoSync(ctx context.Context, token string) (stop func())
}

type SyncOptions struct {
	// AutoSyncInterval is the period of the background drain.
	AutoSyncInterval time.Duration
	// MinTriggerGap limits how often reachability events start a drain.
	MinTriggerGap time.Duration
}

type syncService struct {
	store   kv.Repository
	decks   *DeckStore
	api     client.Client
	monitor netstate.Monitor
	opts    SyncOptions
	log     logging.Logger
	now     func() time.Time

	sf singleflight.Group
}

func NewSyncService(store kv.Repository, decks *DeckStore, api client.Client, monitor netstate.Monitor, opts SyncOptions, log logging.Logger) SyncService {
	if opts.AutoSyncInterval <= 0 {
		opts.AutoSyncInterval = 2 * time.Minute
	}
	if opts.MinTriggerGap <= 0 {
		opts.MinTriggerGap = 5 * time.Second
	}
	return &syncService{
		store:   store,
		decks:   decks,
		api:     api,
		monitor: monitor,
		opts:    opts,
		log:     log.With("component", "sync"),
		now:     time.Now,
	}
}

func readQueue(ctx context.Context, r kv.Repository) ([]models.SyncItem, error) {
	queue := []models.SyncItem{}
	if _, err := kv.GetJSON(ctx, r, models.KeySyncQueue, &queue); err != nil {
		return nil, err
	}
	return queue, nil
}

func (s *syncService) Enqueue(ctx context.Context, t models.ItemType, a models.Action, data any, deckID string) error {
	return s.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		return s.EnqueueIn(ctx, tx, t, a, data, deckID)
	})
}

func (s *syncService) EnqueueIn(ctx context.Context, tx kv.Repository, t models.ItemType, a models.Action, data any, deckID string) error {
	item, err := models.NewSyncItem(t, a, data, deckID, s.now())
	if err != nil {
		return fmt.Errorf("failed to build sync item: %w", err)
	}
	queue, err := readQueue(ctx, tx)
	if err != nil {
		return err
	}
	queue = append(queue, item)
	if err := kv.SetJSON(ctx, tx, models.KeySyncQueue, queue); err != nil {
		return err
	}
	s.log.Debug(ctx, "queued for sync", "kind", item.Kind(), "entry_id", item.ID, "deck_id", deckID)
	return nil
}

func (s *syncService) Pending(ctx context.Context) ([]models.SyncItem, error) {
	return readQueue(ctx, s.store)
}

func (s *syncService) Clear(ctx context.Context) error {
	return s.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		if err := tx.Delete(ctx, models.KeySyncQueue); err != nil {
			return err
		}
		return kv.SetJSON(ctx, tx, models.KeyLastSyncTime, s.now())
	})
}

func (s *syncService) LastSyncTime(ctx context.Context) (*time.Time, error) {
	var t time.Time
	ok, err := kv.GetJSON(ctx, s.store, models.KeyLastSyncTime, &t)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

// Drain is single-flight: concurrent callers share the pass in progress.
// The pass is detached from any one caller's cancellation; a caller whose
// ctx ends stops waiting while the pass runs on.
func (s *syncService) Drain(ctx context.Context, token string) (models.DrainResult, error) {
	ch := s.sf.DoChan("drain", func() (any, error) {
		return s.drain(context.WithoutCancel(ctx), token)
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return models.DrainResult{}, r.Err
		}
		return r.Val.(models.DrainResult), nil
	case <-ctx.Done():
		return models.DrainResult{}, ctx.Err()
	}
}

func (s *syncService) drain(ctx context.Context, token string) (models.DrainResult, error) {
	var res models.DrainResult

	if !s.monitor.Fetch(ctx).Connected {
		s.log.Info(ctx, "offline, drain skipped")
		return res, nil
	}
	if token == "" || models.IsOfflineToken(token) {
		s.log.Debug(ctx, "no remote session, drain skipped")
		return res, nil
	}

	queue, err := readQueue(ctx, s.store)
	if err != nil {
		return res, err
	}
	if len(queue) == 0 {
		return res, nil
	}
	s.log.Info(ctx, "draining sync queue", "pending", len(queue))

	processed := make(map[string]struct{}, len(queue))
	for i := range queue {
		item := queue[i]
		processed[item.ID] = struct{}{}

		moved, err := s.apply(ctx, token, item)
		if err != nil {
			res.Failed++
			s.log.Error(ctx, "sync entry failed", "type", item.Type, "action", item.Action, "entry_id", item.ID, "deck_id", item.DeckID, "error", err)
			continue
		}
		res.Success++

		if moved != nil {
			// later entries of this pass must see the server id
			for j := i + 1; j < len(queue); j++ {
				if queue[j].DeckID == moved.from {
					queue[j].DeckID = moved.to
				}
			}
		}
	}

	if res.Failed == 0 {
		err := s.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
			current, err := readQueue(ctx, tx)
			if err != nil {
				return err
			}
			rest := current[:0]
			for _, it := range current {
				if _, done := processed[it.ID]; !done {
					rest = append(rest, it)
				}
			}
			if len(rest) == 0 {
				if err := tx.Delete(ctx, models.KeySyncQueue); err != nil {
					return err
				}
			} else if err := kv.SetJSON(ctx, tx, models.KeySyncQueue, rest); err != nil {
				return err
			}
			return kv.SetJSON(ctx, tx, models.KeyLastSyncTime, s.now())
		})
		if err != nil {
			return res, err
		}
	}

	s.log.Info(ctx, "drain finished", "success", res.Success, "failed", res.Failed)
	return res, nil
}

type idChange struct {
	from, to string
}

// apply replays one entry. A deck create reports the id change after the
// local rewrite has been committed.
func (s *syncService) apply(ctx context.Context, token string, item models.SyncItem) (*idChange, error) {
	switch item.Type {
	case models.ItemTypeProfile:
		if item.Action != models.ActionUpdate {
			return nil, fmt.Errorf("unsupported sync entry %s", item.Kind())
		}
		return nil, s.applyProfile(ctx, token, item)

	case models.ItemTypeDeck:
		switch item.Action {
		case models.ActionCreate:
			return s.applyDeckCreate(ctx, token, item)
		case models.ActionUpdate:
			var p models.DeckPayload
			if err := json.Unmarshal(item.Data, &p); err != nil {
				return nil, fmt.Errorf("decode deck update: %w", err)
			}
			if p.Cards == nil {
				p.Cards = []models.Card{}
			}
			_, err := s.api.UpdateDeck(ctx, token, item.DeckID, p)
			return nil, err
		case models.ActionDelete:
			err := s.api.DeleteDeck(ctx, token, item.DeckID)
			if errors.Is(err, common.ErrorNotFound) {
				return nil, nil
			}
			return nil, err
		}

	case models.ItemTypeCard:
		return nil, s.applyCard(ctx, token, item)
	}
	return nil, fmt.Errorf("unsupported sync entry %s", item.Kind())
}

func (s *syncService) applyProfile(ctx context.Context, token string, item models.SyncItem) error {
	var upd models.ProfileUpdate
	if err := json.Unmarshal(item.Data, &upd); err != nil {
		return fmt.Errorf("decode profile update: %w", err)
	}
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		// the server rejects these; retrying never helps
		if name == "" || len([]rune(name)) > maxProfileNameLength {
			s.log.Warn(ctx, "dropping profile update with invalid name", "entry_id", item.ID)
			return nil
		}
	}
	_, err := s.api.UpdateProfile(ctx, token, upd)
	return err
}

func (s *syncService) applyDeckCreate(ctx context.Context, token string, item models.SyncItem) (*idChange, error) {
	var deck models.Deck
	if err := json.Unmarshal(item.Data, &deck); err != nil {
		return nil, fmt.Errorf("decode deck create: %w", err)
	}
	localID := deck.ID
	if item.DeckID != "" && localID != "" && item.DeckID != localID {
		// reconciled by an earlier pass that did not fully succeed
		return nil, nil
	}
	if localID == "" {
		localID = item.DeckID
	}

	created, err := s.api.CreateDeck(ctx, token, deck.Payload(), item.ID)
	if err != nil {
		return nil, err
	}
	if localID == "" || created.ID == localID {
		return nil, nil
	}

	err = s.store.Update(ctx, func(ctx context.Context, tx kv.Repository) error {
		return s.decks.rewriteDeckID(ctx, tx, localID, created.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("rewrite deck id %s -> %s: %w", localID, created.ID, err)
	}
	s.log.Info(ctx, "deck reconciled", "local_id", localID, "remote_id", created.ID)
	return &idChange{from: localID, to: created.ID}, nil
}

// applyCard pushes the current state of the whole deck; cards have no
// remote identity of their own.
func (s *syncService) applyCard(ctx context.Context, token string, item models.SyncItem) error {
	if item.DeckID == "" {
		return nil
	}
	decks, err := readDecks(ctx, s.store, models.KeyDecks)
	if err != nil {
		return err
	}
	i := models.FindDeck(decks, item.DeckID)
	if i < 0 {
		s.log.Warn(ctx, "deck not found locally, card sync skipped", "deck_id", item.DeckID, "entry_id", item.ID)
		return nil
	}
	_, err = s.api.UpdateDeck(ctx, token, item.DeckID, decks[i].Payload())
	return err
}

func (s *syncService) StartAutoSync(ctx context.Context, token string) func() {
	ctx, cancel := context.WithCancel(ctx)
	limiter := rate.NewLimiter(rate.Every(s.opts.MinTriggerGap), 1)
	updates := s.monitor.Subscribe(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(s.opts.AutoSyncInterval)
		defer ticker.Stop()

		s.attempt(ctx, token)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.attempt(ctx, token)
			case st, ok := <-updates:
				if !ok {
					updates = nil
					continue
				}
				if st.Online() && limiter.Allow() {
					s.log.Info(ctx, "network available, draining")
					s.drainLogged(ctx, token)
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
	}
}

// attempt drains only when connected and something is pending.
func (s *syncService) attempt(ctx context.Context, token string) {
	if !s.monitor.Fetch(ctx).Connected {
		return
	}
	pending, err := s.Pending(ctx)
	if err != nil {
		s.log.Error(ctx, "read sync queue", "error", err)
		return
	}
	if len(pending) == 0 {
		return
	}
	s.drainLogged(ctx, token)
}

func (s *syncService) drainLogged(ctx context.Context, token string) {
	if _, err := s.Drain(ctx, token); err != nil && ctx.Err() == nil {
		s.log.Error(ctx, "auto-sync drain", "error", err)
	}
}
