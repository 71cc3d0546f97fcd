package engine

import (
	"context"
	"log"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/idle"
	"github.com/SoarinFerret/TabWarden/internal/notify"
)

// SurfaceFocused covers activation, a finished navigation on the active
// surface and regained window focus.
func (e *Engine) SurfaceFocused(ctx context.Context) {
	e.Tracker.OnFocusChanged(ctx)
	e.debugf("focus moved to %q", e.Tracker.Current())
}

func (e *Engine) FocusLost(ctx context.Context) {
	e.Tracker.OnFocusLost()
	e.debugf("focus lost")
}

func (e *Engine) IdleStateChanged(ctx context.Context, state idle.State) {
	if state == idle.Active {
		e.Tracker.OnFocusChanged(ctx)
		return
	}
	e.Tracker.OnIdle()
}

func (e *Engine) CheckLimit(ctx context.Context, surfaceID string, d domain.Domain) {
	if _, err := e.Limits.CheckOnDemand(ctx, surfaceID, d); err != nil {
		log.Printf("check: on-demand check of %s failed: %v", d, err)
	}
}

func (e *Engine) UserContinued(ctx context.Context, surfaceID string, d domain.Domain) {
	e.Dispatcher.OnUserResponse(ctx, surfaceID, string(d), notify.ResponseContinue)
}

func (e *Engine) CloseRequested(ctx context.Context, surfaceID string) {
	e.Dispatcher.OnUserResponse(ctx, surfaceID, "", notify.ResponseLeave)
}
