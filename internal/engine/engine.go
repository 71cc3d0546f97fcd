package engine

import (
	"context"
	"log"
	"time"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/config"
	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/idle"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/limits"
	"github.com/SoarinFerret/TabWarden/internal/notify"
)

// Components are the collaborators the engine drives on every tick.
type Components struct {
	Tracker    *activity.Tracker
	Ledger     *ledger.Ledger
	Limits     *limits.Engine
	Dispatcher *notify.Dispatcher
	Idle       idle.Source
}

// Engine runs the periodic tick that turns focus time into ledger entries and
// reacts to surface events between ticks.
type Engine struct {
	Components

	tickInterval  time.Duration
	idleThreshold time.Duration
	debug         bool
	now           func() time.Time
}

// NewEngine creates an engine. now may be nil to use the wall clock.
func NewEngine(c Components, cfg *config.Config, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		Components:    c,
		tickInterval:  cfg.Tracker.TickInterval.Std(),
		idleThreshold: cfg.Tracker.IdleThreshold.Std(),
		debug:         cfg.Debug,
		now:           now,
	}
}

// Run rehydrates the tracker and ticks until ctx is done. The schedule lives
// only in this process, so every start arms a fresh ticker.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	e.Tracker.Init(ctx)
	if _, err := e.Limits.NormalizeDay(ctx); err != nil {
		log.Println("Failed to normalize suppression state:", err)
	}

	log.Printf("Tick engine started - accounting every %s", e.tickInterval)

	// Run immediately on start
	e.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Tick engine shutting down...")
			return nil
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick performs one accounting step. Failures are logged and the next tick
// proceeds as usual.
func (e *Engine) Tick(ctx context.Context) {
	now := e.now()

	state, err := e.Idle.QueryState(ctx, e.idleThreshold)
	if err != nil {
		log.Println("tick: idle query failed, assuming active:", err)
		state = idle.Active
	}

	if state == idle.Active {
		d, elapsed, ok := e.Tracker.Account(now)
		switch {
		case ok:
			e.record(ctx, d, elapsed)
		case !d.IsZero():
			e.debugf("dropped implausible window of %ds for %s", elapsed, d)
		}
	} else {
		e.debugf("user is %s, not accounting", state)
		e.Tracker.OnIdle()
	}

	e.Tracker.Refresh(ctx)
}

func (e *Engine) record(ctx context.Context, d domain.Domain, seconds int64) {
	day, total, err := e.Ledger.AddSeconds(ctx, d, seconds)
	if err != nil {
		log.Printf("tick: failed to record %ds for %s: %v", seconds, d, err)
		return
	}
	e.debugf("%s: +%ds on %s, %ds today", day, seconds, d, total)

	if _, err := e.Limits.Check(ctx, d); err != nil {
		log.Println("tick:", err)
	}
}

func (e *Engine) debugf(format string, args ...any) {
	if e.debug {
		log.Printf("DEBUG: "+format, args...)
	}
}
