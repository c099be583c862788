package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/common"
	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

type HTTPClient struct {
	lanURL    string
	tunnelURL string
	pref      URLPreference
	timeout   time.Duration
	http      *http.Client
	log       logging.Logger
}

func NewHTTPClient(lanURL, tunnelURL string, pref URLPreference, timeout time.Duration, log logging.Logger) *HTTPClient {
	return &HTTPClient{
		lanURL:    strings.TrimRight(lanURL, "/"),
		tunnelURL: strings.TrimRight(tunnelURL, "/"),
		pref:      pref,
		timeout:   timeout,
		http:      &http.Client{},
		log:       log,
	}
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// baseURLs returns the candidates in attempt order.
func (c *HTTPClient) baseURLs() []string {
	first, second := c.lanURL, c.tunnelURL
	if c.pref != nil && c.pref.PreferTunnel() {
		first, second = second, first
	}
	if second == "" || second == first {
		return []string{first}
	}
	if first == "" {
		return []string{second}
	}
	return []string{first, second}
}

type request struct {
	method         string
	path           string
	token          string
	idempotencyKey string
	body           any
}

func (c *HTTPClient) do(ctx context.Context, r request, out any) error {
	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		payload = b
	}

	urls := c.baseURLs()
	var lastErr error
	for i, base := range urls {
		status, body, err := c.attempt(ctx, base, r, payload)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return err
			}
			if i < len(urls)-1 {
				c.log.Warn(ctx, "request failed, trying next url", "method", r.method, "path", r.path, "url", base, "error", err)
			}
			continue
		}

		if status < 200 || status > 299 {
			return parseRejection(status, body)
		}
		if out != nil && len(bytes.TrimSpace(body)) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
			}
		}
		return nil
	}
	return lastErr
}

func (c *HTTPClient) attempt(ctx context.Context, base string, r request, payload []byte) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := base + r.path

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, reader)
	if err != nil {
		return 0, nil, &NetworkError{Method: r.method, Path: r.path, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+r.token)
	}
	if r.idempotencyKey != "" {
		req.Header.Set(common.IdempotencyKeyHeaderName, r.idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &NetworkError{Method: r.method, Path: r.path, URL: target, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Method: r.method, Path: r.path, URL: target, Timeout: isTimeout(err), Err: err}
	}
	return resp.StatusCode, body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseRejection accepts {"error":{"message","status"}} and {"message"}.
func parseRejection(status int, body []byte) error {
	var eb struct {
		Error *struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
		Message string `json:"message"`
	}
	msg := ""
	if json.Unmarshal(body, &eb) == nil {
		if eb.Error != nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		} else if eb.Message != "" {
			msg = eb.Message
		}
	}
	if msg == "" {
		msg = DefaultRejectionMessage
	}
	return &RemoteRejection{Status: status, Message: msg}
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, confirmPassword string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/signup",
		body: map[string]string{
			"email":           email,
			"password":        password,
			"confirmPassword": confirmPassword,
		},
	}, &resp)
	return resp, err
}

func (c *HTTPClient) Login(ctx context.Context, usernameOrEmail, password string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body: map[string]string{
			"usernameOrEmail": usernameOrEmail,
			"password":        password,
		},
	}, &resp)
	return resp, err
}

type userEnvelope struct {
	User models.User `json:"user"`
}

func (c *HTTPClient) GetProfile(ctx context.Context, token string) (models.User, error) {
	var resp userEnvelope
	err := c.do(ctx, request{method: http.MethodGet, path: "/users/profile", token: token}, &resp)
	return resp.User, err
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (models.User, error) {
	var resp userEnvelope
	err := c.do(ctx, request{method: http.MethodPut, path: "/users/profile", token: token, body: upd.Remote()}, &resp)
	return resp.User, err
}

func (c *HTTPClient) DeleteProfile(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/users/profile", token: token}, nil)
}

func (c *HTTPClient) ListDecks(ctx context.Context, token string) ([]models.RemoteDeck, error) {
	var resp struct {
		Decks []models.RemoteDeck `json:"decks"`
	}
	if err := c.do(ctx, request{method: http.MethodGet, path: "/decks", token: token}, &resp); err != nil {
		return nil, err
	}
	if resp.Decks == nil {
		resp.Decks = []models.RemoteDeck{}
	}
	return resp.Decks, nil
}

type deckEnvelope struct {
	Deck models.RemoteDeck `json:"deck"`
}

func (c *HTTPClient) CreateDeck(ctx context.Context, token string, deck models.DeckPayload, idempotencyKey string) (models.RemoteDeck, error) {
	var resp deckEnvelope
	err := c.do(ctx, request{
		method:         http.MethodPost,
		path:           "/decks",
		token:          token,
		idempotencyKey: idempotencyKey,
		body:           deck,
	}, &resp)
	if err == nil && resp.Deck.ID == "" {
		err = fmt.Errorf("create deck: response carries no deck id")
	}
	return resp.Deck, err
}

func (c *HTTPClient) UpdateDeck(ctx context.Context, token, id string, deck models.DeckPayload) (models.RemoteDeck, error) {
	var resp deckEnvelope
	err := c.do(ctx, request{method: http.MethodPut, path: "/decks/" + url.PathEscape(id), token: token, body: deck}, &resp)
	return resp.Deck, err
}

func (c *HTTPClient) DeleteDeck(ctx context.Context, token, id string) error {
	return c.do(ctx, request{method: http.MethodDelete, path: "/decks/" + url.PathEscape(id), token: token}, nil)
}
