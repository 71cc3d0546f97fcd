package limits

import (
	"context"
	"fmt"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
	"github.com/SoarinFerret/TabWarden/internal/notify"
	"github.com/SoarinFerret/TabWarden/internal/settings"
)

// Dispatcher delivers nudges. Both calls are best-effort and never fail.
type Dispatcher interface {
	Dispatch(ctx context.Context, n notify.Nudge)
	DispatchTo(ctx context.Context, surfaceID string, n notify.Nudge)
}

// Engine compares today's usage with the configured budgets and nudges the
// user once per budget per day.
type Engine struct {
	settings   *settings.Repository
	ledger     *ledger.Ledger
	dispatcher Dispatcher
}

func New(repo *settings.Repository, l *ledger.Ledger, dispatcher Dispatcher) *Engine {
	return &Engine{settings: repo, ledger: l, dispatcher: dispatcher}
}

// NormalizeDay resets the suppression map when the day has changed since it
// was last written. Calling it again on the same day changes nothing.
func (e *Engine) NormalizeDay(ctx context.Context) (settings.Settings, error) {
	today := e.ledger.Today()
	return e.settings.Update(ctx, func(s *settings.Settings) (bool, error) {
		return s.NudgedToday.Normalize(today), nil
	})
}

// Check runs after time was added for d. The site budget of d and the global
// budget are evaluated independently and each fires at most once a day.
// Suppression is persisted before any nudge is dispatched.
func (e *Engine) Check(ctx context.Context, d domain.Domain) ([]notify.Nudge, error) {
	today := e.ledger.Today()
	var nudges []notify.Nudge

	_, err := e.settings.Update(ctx, func(s *settings.Settings) (bool, error) {
		if !s.NudgeEnabled {
			return false, nil
		}
		changed := s.NudgedToday.Normalize(today)

		bucket, err := e.ledger.Get(ctx, today)
		if err != nil {
			return changed, err
		}

		if limit, ok := s.Limit(d); ok && !d.IsZero() {
			spent := bucket[d]
			key := settings.Site(d)
			if spent >= limit && !s.NudgedToday.Has(key) {
				s.NudgedToday.Mark(key)
				changed = true
				nudges = append(nudges, notify.Nudge{Domain: string(d), TimeSpent: spent, Limit: limit})
			}
		}

		if s.GlobalDailyLimit > 0 {
			total := bucket.Total()
			if total >= s.GlobalDailyLimit && !s.NudgedToday.Has(settings.Global) {
				s.NudgedToday.Mark(settings.Global)
				changed = true
				nudges = append(nudges, notify.Nudge{
					Domain:    notify.AllSites,
					TimeSpent: total,
					Limit:     s.GlobalDailyLimit,
					Global:    true,
				})
			}
		}
		return changed, nil
	})
	if err != nil {
		return nil, fmt.Errorf("limit check for %s failed: %w", d, err)
	}

	for _, n := range nudges {
		e.dispatcher.Dispatch(ctx, n)
	}
	return nudges, nil
}

// CheckOnDemand answers a surface asking whether d is already over budget.
// It neither reads nor writes the suppression map, so an over-budget site is
// nudged on every visit. The nudge goes to the asking surface.
func (e *Engine) CheckOnDemand(ctx context.Context, surfaceID string, d domain.Domain) (*notify.Nudge, error) {
	s, err := e.settings.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !s.NudgeEnabled {
		return nil, nil
	}
	limit, ok := s.Limit(d)
	if !ok {
		return nil, nil
	}

	bucket, err := e.ledger.Get(ctx, e.ledger.Today())
	if err != nil {
		return nil, err
	}
	spent := bucket[d]
	if spent < limit {
		return nil, nil
	}

	n := notify.Nudge{Domain: string(d), TimeSpent: spent, Limit: limit}
	e.dispatcher.DispatchTo(ctx, surfaceID, n)
	return &n, nil
}
