package surface

import "errors"

// Inbound message types, sent by the browser extension.
const (
	TypeSurfaceActivated = "SURFACE_ACTIVATED"
	TypeSurfaceUpdated   = "SURFACE_UPDATED"
	TypeSurfaceRemoved   = "SURFACE_REMOVED"
	TypeFocusChanged     = "FOCUS_CHANGED"
	TypeIdleState        = "IDLE_STATE"
	TypeCheckLimit       = "CHECK_LIMIT"
	TypeUserContinued    = "USER_CONTINUED"
	TypeCloseTab         = "CLOSE_TAB"
)

// Outbound message types, sent by the daemon.
const (
	TypeShowNudge    = "SHOW_NUDGE"
	TypeHideNudge    = "HIDE_NUDGE"
	TypeCloseSurface = "CLOSE_SURFACE"
	// TypeIdleConfig carries the idle threshold the browser should use for
	// its IDLE_STATE reports.
	TypeIdleConfig = "IDLE_CONFIG"
)

// StatusComplete is the SURFACE_UPDATED status of a finished navigation.
const StatusComplete = "complete"

var (
	ErrNoActiveSurface = errors.New("no active surface")
	ErrUnknownSurface  = errors.New("unknown surface")
	ErrSendQueueFull   = errors.New("surface send queue full")
)

// Message is the single JSON envelope used in both directions. Surface ids
// are chosen by the extension and are unique within one connection.
type Message struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`
	URL     string `json:"url,omitempty"`
	Status  string `json:"status,omitempty"`
	Focused *bool  `json:"focused,omitempty"`
	State   string `json:"state,omitempty"`

	Domain    string `json:"domain,omitempty"`
	TimeSpent int64  `json:"timeSpent,omitempty"`
	Limit     int64  `json:"limit,omitempty"`

	IdleSeconds int64 `json:"idleSeconds,omitempty"`
}
