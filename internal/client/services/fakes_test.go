package services

import (
	"context"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/dmitrijs2005/cramodoro/internal/client/client"
	"github.com/dmitrijs2005/cramodoro/internal/client/localauth"
	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/client/netstate"
	"github.com/dmitrijs2005/cramodoro/internal/client/repositories/kv"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
	"github.com/stretchr/testify/require"
)

// ---- store ----

func setupStore(t *testing.T) *kv.SQLiteRepository {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return kv.NewSQLiteRepository(db)
}

func setSession(t *testing.T, store kv.Repository, token string, u models.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, models.KeyAuthToken, []byte(token)))
	require.NoError(t, kv.SetJSON(ctx, store, models.KeyUserData, u))
}

func readWorkingSet(t *testing.T, store kv.Repository) []models.Deck {
	t.Helper()
	d, err := readDecks(context.Background(), store, models.KeyDecks)
	require.NoError(t, err)
	return d
}

// ---- fake client ----

type deckCall struct {
	Method         string
	ID             string
	Payload        models.DeckPayload
	IdempotencyKey string
}

// fakeClient implements client.Client for service tests.
type fakeClient struct {
	mu sync.Mutex

	LoginRet  models.AuthResponse
	LoginErr  error
	SignupRet models.AuthResponse
	SignupErr error

	ProfileRet models.User
	ProfileErr error

	UpdateProfileErr error
	DeleteProfileErr error

	ListDecksRet []models.RemoteDeck
	ListDecksErr error

	// CreateDeckFn, when set, decides the result of CreateDeck.
	CreateDeckFn func(p models.DeckPayload, key string) (models.RemoteDeck, error)
	UpdateDeckFn func(id string, p models.DeckPayload) error
	DeleteDeckFn func(id string) error

	LastLoginIdentifier string
	ProfileUpdates      []models.ProfileUpdate
	DeckCalls           []deckCall
	Calls               []string
	nextID              int
}

var _ client.Client = (*fakeClient)(nil)

func (f *fakeClient) record(name string) {
	f.Calls = append(f.Calls, name)
}

func (f *fakeClient) Close() error { return nil }

func (f *fakeClient) Signup(ctx context.Context, email, password, confirmPassword string) (models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Signup")
	return f.SignupRet, f.SignupErr
}

func (f *fakeClient) Login(ctx context.Context, usernameOrEmail, password string) (models.AuthResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Login")
	f.LastLoginIdentifier = usernameOrEmail
	return f.LoginRet, f.LoginErr
}

func (f *fakeClient) GetProfile(ctx context.Context, token string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetProfile")
	return f.ProfileRet, f.ProfileErr
}

func (f *fakeClient) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateProfile")
	if f.UpdateProfileErr != nil {
		return models.User{}, f.UpdateProfileErr
	}
	f.ProfileUpdates = append(f.ProfileUpdates, upd)
	return models.User{}, nil
}

func (f *fakeClient) DeleteProfile(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteProfile")
	return f.DeleteProfileErr
}

func (f *fakeClient) ListDecks(ctx context.Context, token string) ([]models.RemoteDeck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListDecks")
	return f.ListDecksRet, f.ListDecksErr
}

func (f *fakeClient) CreateDeck(ctx context.Context, token string, p models.DeckPayload, key string) (models.RemoteDeck, error) {
	f.mu.Lock()
	fn := f.CreateDeckFn
	f.record("CreateDeck")
	f.mu.Unlock()

	var (
		d   models.RemoteDeck
		err error
	)
	if fn != nil {
		d, err = fn(p, key)
	} else {
		f.mu.Lock()
		f.nextID++
		d = models.RemoteDeck{ID: "srv-" + strconv.Itoa(f.nextID), Name: p.Name}
		f.mu.Unlock()
	}
	if err == nil {
		f.mu.Lock()
		f.DeckCalls = append(f.DeckCalls, deckCall{Method: "create", ID: d.ID, Payload: p, IdempotencyKey: key})
		f.mu.Unlock()
	}
	return d, err
}

func (f *fakeClient) UpdateDeck(ctx context.Context, token, id string, p models.DeckPayload) (models.RemoteDeck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateDeck")
	if f.UpdateDeckFn != nil {
		if err := f.UpdateDeckFn(id, p); err != nil {
			return models.RemoteDeck{}, err
		}
	}
	f.DeckCalls = append(f.DeckCalls, deckCall{Method: "update", ID: id, Payload: p})
	return models.RemoteDeck{ID: id}, nil
}

func (f *fakeClient) DeleteDeck(ctx context.Context, token, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteDeck")
	if f.DeleteDeckFn != nil {
		if err := f.DeleteDeckFn(id); err != nil {
			return err
		}
	}
	f.DeckCalls = append(f.DeckCalls, deckCall{Method: "delete", ID: id})
	return nil
}

func (f *fakeClient) deckCalls() []deckCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deckCall(nil), f.DeckCalls...)
}

func (f *fakeClient) called(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if c == name {
			return true
		}
	}
	return false
}

// ---- fake monitor ----

type fakeMonitor struct {
	mu     sync.Mutex
	state  netstate.State
	subs   []chan netstate.State
	probes int
}

func online() *fakeMonitor {
	return &fakeMonitor{state: netstate.State{Connected: true, InternetReachable: true}}
}

func offline() *fakeMonitor { return &fakeMonitor{} }

func (m *fakeMonitor) Fetch(ctx context.Context) netstate.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes++
	return m.state
}

func (m *fakeMonitor) Subscribe(ctx context.Context) <-chan netstate.State {
	ch := make(chan netstate.State, 4)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

func (m *fakeMonitor) set(s netstate.State) {
	m.mu.Lock()
	m.state = s
	subs := append([]chan netstate.State(nil), m.subs...)
	m.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// ---- fake health ----

type fakeHealth struct {
	mu     sync.Mutex
	ok     bool
	checks int
	resets int
}

func (h *fakeHealth) Check(ctx context.Context) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks++
	return h.ok
}

func (h *fakeHealth) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resets++
}

// ---- wiring ----

type harness struct {
	store   *kv.SQLiteRepository
	api     *fakeClient
	monitor *fakeMonitor
	health  *fakeHealth
	vault   *localauth.Vault
	decks   *DeckStore
	sync    SyncService
	auth    AuthService
	deckSvc DeckService
	profile ProfileService
}

func newHarness(t *testing.T, healthy bool, mon *fakeMonitor) *harness {
	t.Helper()
	log := logging.Discard()
	h := &harness{
		store:   setupStore(t),
		api:     &fakeClient{},
		monitor: mon,
		health:  &fakeHealth{ok: healthy},
	}
	h.vault = localauth.NewVault(h.store, log)
	h.decks = NewDeckStore(h.store, log)
	h.sync = NewSyncService(h.store, h.decks, h.api, h.monitor, SyncOptions{}, log)
	h.auth = NewAuthService(h.store, h.vault, h.api, h.health, h.sync, h.decks, log)
	h.deckSvc = NewDeckService(h.store, h.decks, h.sync, log)
	h.profile = NewProfileService(h.store, h.auth, h.vault, h.api, h.health, h.sync, log)
	t.Cleanup(h.auth.Close)
	return h
}
