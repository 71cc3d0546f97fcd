package notify

import (
	"context"
	"log"

	"github.com/SoarinFerret/TabWarden/internal/activity"
	"github.com/SoarinFerret/TabWarden/internal/surface"
)

// AllSites is the domain a global nudge is reported under.
const AllSites = "all sites"

// Nudge tells the user a daily budget has been used up.
type Nudge struct {
	Domain    string `json:"domain"`
	TimeSpent int64  `json:"timeSpent"`
	Limit     int64  `json:"limit"`
	Global    bool   `json:"global,omitempty"`
}

// Response is the user's answer to a nudge overlay.
type Response string

const (
	ResponseContinue Response = "continue"
	ResponseLeave    Response = "leave"
)

// Surfaces locates the focused surface and delivers messages to surfaces.
type Surfaces interface {
	ActiveSurface(ctx context.Context) (activity.Surface, error)
	Send(ctx context.Context, surfaceID string, msg surface.Message) error
}

// Sink is an additional best-effort destination for nudges.
type Sink interface {
	Notify(ctx context.Context, n Nudge) error
}

// Dispatcher delivers nudges. Delivery is best-effort: failures are logged
// and dropped, never retried.
type Dispatcher struct {
	surfaces Surfaces
	sinks    []Sink
}

func NewDispatcher(surfaces Surfaces, sinks ...Sink) *Dispatcher {
	return &Dispatcher{surfaces: surfaces, sinks: sinks}
}

// Dispatch shows n on whichever surface currently has focus.
func (d *Dispatcher) Dispatch(ctx context.Context, n Nudge) {
	d.notifySinks(ctx, n)

	s, err := d.surfaces.ActiveSurface(ctx)
	if err != nil {
		log.Printf("dispatch: nudge for %s not delivered: %v", n.Domain, err)
		return
	}
	d.show(ctx, s.ID, n)
}

// DispatchTo shows n on a specific surface.
func (d *Dispatcher) DispatchTo(ctx context.Context, surfaceID string, n Nudge) {
	d.notifySinks(ctx, n)
	d.show(ctx, surfaceID, n)
}

func (d *Dispatcher) show(ctx context.Context, surfaceID string, n Nudge) {
	err := d.surfaces.Send(ctx, surfaceID, surface.Message{
		Type:      surface.TypeShowNudge,
		Domain:    n.Domain,
		TimeSpent: n.TimeSpent,
		Limit:     n.Limit,
	})
	if err != nil {
		log.Printf("dispatch: nudge for %s not delivered to %s: %v", n.Domain, surfaceID, err)
		return
	}
	log.Printf("Nudged %s on %s: %ds spent of %ds", n.Domain, surfaceID, n.TimeSpent, n.Limit)
}

func (d *Dispatcher) notifySinks(ctx context.Context, n Nudge) {
	for _, sink := range d.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			log.Printf("dispatch: notification sink failed for %s: %v", n.Domain, err)
		}
	}
}

// Hide dismisses a nudge overlay.
func (d *Dispatcher) Hide(ctx context.Context, surfaceID string) {
	if err := d.surfaces.Send(ctx, surfaceID, surface.Message{Type: surface.TypeHideNudge}); err != nil {
		log.Printf("dispatch: hide on %s failed: %v", surfaceID, err)
	}
}

// OnUserResponse handles the user's choice on a nudge. Leaving closes the
// surface. Continuing only dismisses the overlay, which the surface already
// did itself, and leaves the day's suppression untouched.
func (d *Dispatcher) OnUserResponse(ctx context.Context, surfaceID string, domain string, r Response) {
	switch r {
	case ResponseLeave:
		if err := d.surfaces.Send(ctx, surfaceID, surface.Message{Type: surface.TypeCloseSurface}); err != nil {
			log.Printf("dispatch: close of %s failed: %v", surfaceID, err)
		}
	case ResponseContinue:
		log.Printf("User continued on %s despite the limit", domain)
	default:
		log.Printf("dispatch: ignoring unknown response %q", r)
	}
}
