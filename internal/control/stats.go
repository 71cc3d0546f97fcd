package control

import (
	"context"
	"fmt"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

const (
	// WeekDays is the length of the trailing window shown by Week.
	WeekDays = 7
	// MaxDays bounds how many days a single range or export may cover.
	MaxDays = 366
)

type SiteUsage struct {
	Domain  domain.Domain `json:"domain"`
	Seconds int64         `json:"seconds"`
	Limit   int64         `json:"limit,omitempty"`
	// Percent of the site's limit used, capped at 100. Zero without a limit.
	Percent float64 `json:"percent"`
	// Share relative to the most used site of the day.
	Share float64 `json:"share"`
}

type DayStats struct {
	Day         ledger.DayKey `json:"day"`
	Total       int64         `json:"total"`
	GlobalLimit int64         `json:"globalLimit"`
	Sites       []SiteUsage   `json:"sites"`
}

type DayTotal struct {
	Day   ledger.DayKey `json:"day"`
	Total int64         `json:"total"`
}

// Today reports today's usage, most used site first.
func (s *Service) Today(ctx context.Context) (DayStats, error) {
	return s.Day(ctx, s.ledger.Today())
}

func (s *Service) Day(ctx context.Context, day ledger.DayKey) (DayStats, error) {
	st, err := s.settings.Load(ctx)
	if err != nil {
		return DayStats{}, err
	}
	bucket, err := s.ledger.Get(ctx, day)
	if err != nil {
		return DayStats{}, err
	}

	usage := bucket.Sorted()
	stats := DayStats{
		Day:         day,
		Total:       bucket.Total(),
		GlobalLimit: st.GlobalDailyLimit,
		Sites:       make([]SiteUsage, 0, len(usage)),
	}
	var top int64
	if len(usage) > 0 {
		top = usage[0].Seconds
	}
	for _, u := range usage {
		site := SiteUsage{Domain: u.Domain, Seconds: u.Seconds}
		if limit, ok := st.Limit(u.Domain); ok {
			site.Limit = limit
			site.Percent = min(float64(u.Seconds)/float64(limit)*100, 100)
		}
		if top > 0 {
			site.Share = float64(u.Seconds) / float64(top) * 100
		}
		stats.Sites = append(stats.Sites, site)
	}
	return stats, nil
}

// Week returns the totals of the last seven days including today, oldest first.
func (s *Service) Week(ctx context.Context) ([]DayTotal, error) {
	today := s.ledger.Today()
	days, err := s.ledger.Range(ctx, today.AddDays(-(WeekDays - 1)), today)
	if err != nil {
		return nil, err
	}
	totals := make([]DayTotal, 0, len(days))
	for _, d := range days {
		totals = append(totals, DayTotal{Day: d.Key, Total: d.Bucket.Total()})
	}
	return totals, nil
}

// Range returns the buckets of [from, to].
func (s *Service) Range(ctx context.Context, from, to ledger.DayKey) ([]ledger.Day, error) {
	if to < from || from.AddDays(MaxDays) <= to {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidRange, from, to)
	}
	return s.ledger.Range(ctx, from, to)
}

// LastDays returns the buckets of the n days ending today.
func (s *Service) LastDays(ctx context.Context, n int) ([]ledger.Day, error) {
	if n <= 0 || n > MaxDays {
		return nil, fmt.Errorf("%w: day count must be between 1 and %d, got %d", ErrInvalidRange, MaxDays, n)
	}
	today := s.ledger.Today()
	return s.ledger.Range(ctx, today.AddDays(-(n - 1)), today)
}
