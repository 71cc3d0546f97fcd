package idle

import (
	"context"
	"fmt"
	"time"
)

// State mirrors the browser idle API: active, idle or locked.
type State string

const (
	Active State = "active"
	Idle   State = "idle"
	Locked State = "locked"
)

func ParseState(s string) (State, error) {
	switch State(s) {
	case Active, Idle, Locked:
		return State(s), nil
	}
	return "", fmt.Errorf("unknown idle state %q", s)
}

// Source answers whether the user has been inactive for at least threshold.
type Source interface {
	QueryState(ctx context.Context, threshold time.Duration) (State, error)
}

// FromIdleTime classifies an idle duration against threshold.
func FromIdleTime(idleFor, threshold time.Duration) State {
	if idleFor >= threshold {
		return Idle
	}
	return Active
}
