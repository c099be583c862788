// Package health decides whether the remote API is reachable and remembers
// the answer until Reset is called.
//
// A Prober is created per session and injected into the API client, which
// asks it which base URL to try first.
package health

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/logging"
	"golang.org/x/sync/singleflight"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusAvailable
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type Prober struct {
	url     string
	timeout time.Duration
	http    *http.Client
	log     logging.Logger

	mu           sync.RWMutex
	status       Status
	preferTunnel bool
	generation   uint64

	sf singleflight.Group
}

// NewProber probes baseURL + "/health".
func NewProber(baseURL string, timeout time.Duration, log logging.Logger) *Prober {
	return &Prober{
		url:     strings.TrimRight(baseURL, "/") + "/health",
		timeout: timeout,
		http:    &http.Client{},
		log:     log,
	}
}

// Check reports whether the backend is reachable. A memoized answer is
// returned without network I/O; concurrent first calls share one probe.
// Failures are a normal outcome and never returned as errors.
func (p *Prober) Check(ctx context.Context) bool {
	p.mu.RLock()
	st, gen := p.status, p.generation
	p.mu.RUnlock()
	if st != StatusUnknown {
		return st == StatusAvailable
	}

	v, _, _ := p.sf.Do("probe", func() (any, error) {
		p.mu.RLock()
		st := p.status
		p.mu.RUnlock()
		if st != StatusUnknown {
			return st == StatusAvailable, nil
		}

		ok := p.probe(ctx)

		p.mu.Lock()
		defer p.mu.Unlock()
		// a Reset during the probe discards this answer
		if p.generation == gen {
			if ok {
				p.status = StatusAvailable
				p.preferTunnel = true
			} else {
				p.status = StatusUnavailable
			}
		}
		return ok, nil
	})
	return v.(bool)
}

func (p *Prober) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		p.log.Warn(ctx, "health probe: bad request", "url", p.url, "error", err)
		return false
	}
	resp, err := p.http.Do(req)
	if err != nil {
		p.log.Debug(ctx, "health probe failed", "url", p.url, "error", err)
		return false
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	p.log.Debug(ctx, "health probe", "url", p.url, "status", resp.StatusCode)
	return ok
}

// Reset forgets the memoized answer and the tunnel preference.
func (p *Prober) Reset() {
	p.mu.Lock()
	p.status = StatusUnknown
	p.preferTunnel = false
	p.generation++
	p.mu.Unlock()
}

func (p *Prober) PreferTunnel() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.preferTunnel
}

func (p *Prober) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
