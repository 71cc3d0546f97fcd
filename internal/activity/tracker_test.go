package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SoarinFerret/TabWarden/internal/domain"
)

type fakeSurfaces struct {
	surface Surface
	err     error
	calls   int
}

func (f *fakeSurfaces) ActiveSurface(ctx context.Context) (Surface, error) {
	f.calls++
	return f.surface, f.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) At(offset time.Duration) time.Time { return c.t.Add(offset) }

func newTestTracker(url string) (*Tracker, *fakeSurfaces, *fakeClock) {
	surfaces := &fakeSurfaces{surface: Surface{ID: "tab-1", URL: url}}
	clock := &fakeClock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.Local)}
	return NewTracker(surfaces, clock.Now, 120*time.Second), surfaces, clock
}

func TestTracker_InitResolvesActiveSurface(t *testing.T) {
	tr, _, clock := newTestTracker("https://www.example.com/feed")
	tr.Init(context.Background())

	st := tr.Snapshot()
	assert.Equal(t, domain.Domain("example.com"), st.Domain)
	assert.Equal(t, clock.Now(), st.LastTick)
}

func TestTracker_InitWithoutSurface(t *testing.T) {
	tr, surfaces, _ := newTestTracker("")
	surfaces.err = errors.New("no active surface")
	tr.Init(context.Background())
	assert.True(t, tr.Current().IsZero())
}

func TestTracker_AccountSanityWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int64
		wantOK  bool
	}{
		{"Zero", 0, 0, false},
		{"Rounds down to zero", 400 * time.Millisecond, 0, false},
		{"One second", time.Second, 1, true},
		{"Rounds up to one", 600 * time.Millisecond, 1, true},
		{"Normal tick", 5 * time.Second, 5, true},
		{"Just under cap", 119 * time.Second, 119, true},
		{"At cap", 120 * time.Second, 120, false},
		{"Sleep and wake", 3 * time.Hour, 10800, false},
		{"Clock went back", -30 * time.Second, -30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, _, clock := newTestTracker("https://a.com")
			tr.Init(context.Background())

			now := clock.At(tt.elapsed)
			d, secs, ok := tr.Account(now)
			assert.Equal(t, domain.Domain("a.com"), d)
			assert.Equal(t, tt.want, secs)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, now, tr.Snapshot().LastTick, "window must restart even when dropped")
		})
	}
}

func TestTracker_AccountWithoutDomain(t *testing.T) {
	tr, _, clock := newTestTracker("chrome://newtab")
	tr.Init(context.Background())
	before := tr.Snapshot().LastTick

	d, secs, ok := tr.Account(clock.At(5 * time.Second))
	assert.True(t, d.IsZero())
	assert.Zero(t, secs)
	assert.False(t, ok)
	assert.Equal(t, before, tr.Snapshot().LastTick)
}

func TestTracker_AccountDoesNotDoubleCount(t *testing.T) {
	tr, _, clock := newTestTracker("https://a.com")
	tr.Init(context.Background())

	clock.Advance(5 * time.Second)
	_, first, _ := tr.Account(clock.Now())
	clock.Advance(5 * time.Second)
	_, second, _ := tr.Account(clock.Now())

	assert.Equal(t, int64(5), first)
	assert.Equal(t, int64(5), second)
}

func TestTracker_RefreshResetsWindowOnlyOnChange(t *testing.T) {
	tr, surfaces, clock := newTestTracker("https://a.com")
	tr.Init(context.Background())
	start := clock.Now()

	clock.Advance(3 * time.Second)
	tr.Refresh(context.Background())
	assert.Equal(t, start, tr.Snapshot().LastTick, "same domain keeps the window")

	surfaces.surface.URL = "https://b.com/x"
	clock.Advance(2 * time.Second)
	tr.Refresh(context.Background())
	st := tr.Snapshot()
	assert.Equal(t, domain.Domain("b.com"), st.Domain)
	assert.Equal(t, clock.Now(), st.LastTick)
}

func TestTracker_RefreshQueryFailureClearsDomain(t *testing.T) {
	tr, surfaces, _ := newTestTracker("https://a.com")
	tr.Init(context.Background())

	surfaces.err = errors.New("browser disconnected")
	tr.Refresh(context.Background())
	assert.True(t, tr.Current().IsZero())
}

func TestTracker_FocusLostAndIdleShortCircuit(t *testing.T) {
	tr, _, clock := newTestTracker("https://a.com")
	tr.Init(context.Background())

	tr.OnFocusLost()
	assert.True(t, tr.Current().IsZero())

	clock.Advance(30 * time.Second)
	tr.OnFocusChanged(context.Background())
	assert.Equal(t, domain.Domain("a.com"), tr.Current())
	assert.Equal(t, clock.Now(), tr.Snapshot().LastTick)

	tr.OnIdle()
	_, _, ok := tr.Account(clock.At(5 * time.Second))
	assert.False(t, ok)
}

func TestTracker_FocusChangedAlwaysRestartsWindow(t *testing.T) {
	tr, _, clock := newTestTracker("https://a.com")
	tr.Init(context.Background())

	clock.Advance(4 * time.Second)
	tr.OnFocusChanged(context.Background())
	assert.Equal(t, clock.Now(), tr.Snapshot().LastTick)
}
