// Package netstate reports device connectivity and notifies subscribers when
// it changes.
package netstate

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/cramodoro/internal/logging"
)

type State struct {
	Connected         bool
	InternetReachable bool
}

// Online is true when a drain may be attempted.
func (s State) Online() bool { return s.Connected && s.InternetReachable }

type Monitor interface {
	// Fetch performs an on-demand check.
	Fetch(ctx context.Context) State
	// Subscribe delivers state changes until ctx is done.
	Subscribe(ctx context.Context) <-chan State
}

type ProbeFunc func(ctx context.Context) State

type Watcher struct {
	probe    ProbeFunc
	interval time.Duration
	log      logging.Logger

	mu    sync.Mutex
	last  State
	known bool
	subs  map[int]chan State
	next  int
}

func NewWatcher(probe ProbeFunc, interval time.Duration, log logging.Logger) *Watcher {
	return &Watcher{
		probe:    probe,
		interval: interval,
		log:      log,
		subs:     make(map[int]chan State),
	}
}

// Run polls until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Fetch(ctx)
	for {
		select {
		case <-ticker.C:
			w.Fetch(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) Fetch(ctx context.Context) State {
	s := w.probe(ctx)
	w.publish(ctx, s)
	return s
}

func (w *Watcher) publish(ctx context.Context, s State) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.known && w.last == s {
		return
	}
	w.known = true
	w.last = s
	w.log.Info(ctx, "connectivity changed", "connected", s.Connected, "reachable", s.InternetReachable)

	for _, ch := range w.subs {
		// keep only the newest state for slow readers
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (w *Watcher) Subscribe(ctx context.Context) <-chan State {
	ch := make(chan State, 1)

	w.mu.Lock()
	id := w.next
	w.next++
	w.subs[id] = ch
	w.mu.Unlock()

	go func() {
		<-ctx.Done()
		w.mu.Lock()
		delete(w.subs, id)
		close(ch)
		w.mu.Unlock()
	}()
	return ch
}

// DialProbe treats the device as connected when a non-loopback interface is
// up, and as reachable when a TCP connection to any of the API hosts opens.
func DialProbe(baseURLs []string, timeout time.Duration) ProbeFunc {
	addrs := hostPorts(baseURLs)
	return func(ctx context.Context) State {
		if !hasActiveInterface() {
			return State{}
		}
		d := net.Dialer{Timeout: timeout}
		for _, a := range addrs {
			conn, err := d.DialContext(ctx, "tcp", a)
			if err == nil {
				_ = conn.Close()
				return State{Connected: true, InternetReachable: true}
			}
		}
		return State{Connected: true}
	}
}

func hostPorts(baseURLs []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(baseURLs))
	for _, raw := range baseURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			continue
		}
		port := u.Port()
		if port == "" {
			port = "80"
			if u.Scheme == "https" {
				port = "443"
			}
		}
		hp := net.JoinHostPort(u.Hostname(), port)
		if _, ok := seen[hp]; ok {
			continue
		}
		seen[hp] = struct{}{}
		out = append(out, hp)
	}
	return out
}

func hasActiveInterface() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp != 0 && ifc.Flags&net.FlagLoopback == 0 {
			return true
		}
	}
	// loopback-only hosts still reach a backend on localhost
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp != 0 {
			return true
		}
	}
	return false
}
