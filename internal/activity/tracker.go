package activity

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/SoarinFerret/TabWarden/internal/domain"
)

// Surface is a browsing context that can hold focus, e.g. a browser tab.
type Surface struct {
	ID  string `json:"surface"`
	URL string `json:"url"`
}

// SurfaceQuerier reports which surface currently has focus.
type SurfaceQuerier interface {
	ActiveSurface(ctx context.Context) (Surface, error)
}

// State is a snapshot of the tracker.
type State struct {
	Domain   domain.Domain `json:"domain"`
	LastTick time.Time     `json:"last_tick"`
}

// Tracker knows which trackable domain is active and when time was last
// accounted for it. Its state lives only in memory; after a restart it is
// rebuilt from a fresh surface query by Init.
type Tracker struct {
	surfaces   SurfaceQuerier
	now        func() time.Time
	maxElapsed time.Duration

	mu       sync.Mutex
	current  domain.Domain
	lastTick time.Time
}

// NewTracker creates a tracker reading focus from surfaces. Windows longer
// than maxElapsed are discarded by Account; a nil now uses time.Now.
func NewTracker(surfaces SurfaceQuerier, now func() time.Time, maxElapsed time.Duration) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		surfaces:   surfaces,
		now:        now,
		maxElapsed: maxElapsed,
	}
}

// Init rehydrates the tracker at process start.
func (t *Tracker) Init(ctx context.Context) {
	t.Refresh(ctx)
	t.mu.Lock()
	t.lastTick = t.now()
	t.mu.Unlock()
}

// Refresh re-reads the focused surface. A different domain restarts the tick
// window; no focused surface, or a failed query, clears the current domain.
func (t *Tracker) Refresh(ctx context.Context) {
	s, err := t.surfaces.ActiveSurface(ctx)

	t.mu.Lock()
	defer t.mu.Unlock()

	if err != nil {
		t.current = ""
		return
	}
	d, _ := domain.Resolve(s.URL)
	if d != t.current {
		t.current = d
		t.lastTick = t.now()
	}
}

// OnFocusChanged handles surface activation, a completed navigation on the
// active surface, regained window focus and the return from idle.
func (t *Tracker) OnFocusChanged(ctx context.Context) {
	t.Refresh(ctx)
	t.mu.Lock()
	t.lastTick = t.now()
	t.mu.Unlock()
}

// OnFocusLost stops accounting until focus returns.
func (t *Tracker) OnFocusLost() {
	t.mu.Lock()
	t.current = ""
	t.mu.Unlock()
}

// OnIdle stops accounting while the user is away.
func (t *Tracker) OnIdle() {
	t.mu.Lock()
	t.current = ""
	t.mu.Unlock()
}

// Current is the domain the open window is attributed to, empty when none.
func (t *Tracker) Current() domain.Domain {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Snapshot copies the tracker state for status reports.
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State{Domain: t.current, LastTick: t.lastTick}
}

// Account closes the tick window ending at now. It returns the domain and the
// whole seconds elapsed, with ok set only when the value lies strictly inside
// (0, maxElapsed). The window restarts at now either way.
func (t *Tracker) Account(now time.Time) (domain.Domain, int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current.IsZero() {
		return "", 0, false
	}

	elapsed := int64(math.Round(now.Sub(t.lastTick).Seconds()))
	t.lastTick = now

	if elapsed <= 0 || elapsed >= int64(t.maxElapsed/time.Second) {
		return t.current, elapsed, false
	}
	return t.current, elapsed, true
}
