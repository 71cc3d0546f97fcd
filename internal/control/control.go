package control

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/settings"
)

// DefaultLimitMinutes is used when a limit is added without a positive duration.
const DefaultLimitMinutes = 30

var (
	ErrInvalidDomain = errors.New("invalid domain")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidRange  = errors.New("invalid day range")
)

// Service implements the user-facing configuration actions and the
// read-only usage views shared by the HTTP API and the D-Bus service.
type Service struct {
	settings *settings.Repository
	ledger   *ledger.Ledger
}

// NewService creates a service over the settings repository and ledger.
func NewService(repo *settings.Repository, l *ledger.Ledger) *Service {
	return &Service{settings: repo, ledger: l}
}

func (s *Service) Settings(ctx context.Context) (settings.Settings, error) {
	return s.settings.Load(ctx)
}

func (s *Service) SetNudgeEnabled(ctx context.Context, enabled bool) (settings.Settings, error) {
	return s.settings.Update(ctx, func(st *settings.Settings) (bool, error) {
		if st.NudgeEnabled == enabled {
			return false, nil
		}
		st.NudgeEnabled = enabled
		log.Printf("Nudges enabled: %t", enabled)
		return true, nil
	})
}

// SetGlobalLimit sets the all-sites daily budget. Zero disables it.
func (s *Service) SetGlobalLimit(ctx context.Context, hours, minutes int) (settings.Settings, error) {
	if hours < 0 || minutes < 0 {
		return settings.Settings{}, fmt.Errorf("%w: %dh %dm", ErrInvalidLimit, hours, minutes)
	}
	seconds := int64(hours)*3600 + int64(minutes)*60
	return s.settings.Update(ctx, func(st *settings.Settings) (bool, error) {
		st.GlobalDailyLimit = seconds
		return true, nil
	})
}

// AddLimit sets a daily budget for the site named by input, which may be a
// bare host or a full URL.
func (s *Service) AddLimit(ctx context.Context, input string, minutes int) (domain.Domain, error) {
	d, ok := domain.Normalize(input)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	if minutes <= 0 {
		minutes = DefaultLimitMinutes
	}
	_, err := s.settings.Update(ctx, func(st *settings.Settings) (bool, error) {
		st.Limits[d] = int64(minutes) * 60
		return true, nil
	})
	if err != nil {
		return "", err
	}
	log.Printf("Limit for %s set to %d minute(s)", d, minutes)
	return d, nil
}

func (s *Service) RemoveLimit(ctx context.Context, input string) (domain.Domain, error) {
	d, ok := domain.Normalize(input)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, input)
	}
	_, err := s.settings.Update(ctx, func(st *settings.Settings) (bool, error) {
		if _, exists := st.Limits[d]; !exists {
			return false, nil
		}
		delete(st.Limits, d)
		return true, nil
	})
	return d, err
}

// ResetToday drops today's usage. Suppression stays as it is.
func (s *Service) ResetToday(ctx context.Context) error {
	return s.ledger.Reset(ctx, s.ledger.Today())
}

// ClearAll wipes the settings record and every bucket. Each record is cleared
// under its owner's lock so an in-flight write cannot bring it back. Settings
// go first since limit checks read the ledger while holding the settings lock.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.settings.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear settings: %w", err)
	}
	if err := s.ledger.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear usage: %w", err)
	}
	log.Println("All usage data and settings cleared")
	return nil
}
