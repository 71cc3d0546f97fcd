package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/store"
)

// Bucket maps a domain to the active seconds accumulated on one day.
type Bucket map[domain.Domain]int64

// Total is the sum over all domains, the figure the global limit is held against.
func (b Bucket) Total() int64 {
	var total int64
	for _, s := range b {
		total += s
	}
	return total
}

type Usage struct {
	Domain  domain.Domain `json:"domain"`
	Seconds int64         `json:"seconds"`
}

// Sorted lists the bucket by time spent, largest first.
func (b Bucket) Sorted() []Usage {
	out := make([]Usage, 0, len(b))
	for d, s := range b {
		out = append(out, Usage{Domain: d, Seconds: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Seconds != out[j].Seconds {
			return out[i].Seconds > out[j].Seconds
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}

// Day is a bucket together with the day it belongs to.
type Day struct {
	Key    DayKey `json:"day"`
	Bucket Bucket `json:"sites"`
}

// Ledger is the day-partitioned record of active seconds per domain.
// Read-modify-write sequences are serialized by mu so concurrent additions
// never lose an update.
type Ledger struct {
	store store.Store
	now   func() time.Time
	mu    sync.Mutex
}

// New creates a ledger over s. A nil now uses time.Now.
func New(s store.Store, now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{store: s, now: now}
}

// Today is the key of the bucket writes currently go to.
func (l *Ledger) Today() DayKey {
	return DayKeyOf(l.now())
}

// Get returns the bucket for day, empty if nothing was recorded.
func (l *Ledger) Get(ctx context.Context, day DayKey) (Bucket, error) {
	bucket := Bucket{}
	if _, err := l.store.Get(ctx, day.StoreKey(), &bucket); err != nil {
		return nil, fmt.Errorf("failed to read bucket %s: %w", day, err)
	}
	if bucket == nil {
		bucket = Bucket{}
	}
	return bucket, nil
}

// Put replaces the whole bucket for day.
func (l *Ledger) Put(ctx context.Context, day DayKey, bucket Bucket) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.put(ctx, day, bucket)
}

func (l *Ledger) put(ctx context.Context, day DayKey, bucket Bucket) error {
	if err := l.store.Set(ctx, day.StoreKey(), bucket); err != nil {
		return fmt.Errorf("failed to write bucket %s: %w", day, err)
	}
	return nil
}

// AddSeconds adds seconds to today's bucket for d and returns the day written
// and the domain's new total.
func (l *Ledger) AddSeconds(ctx context.Context, d domain.Domain, seconds int64) (DayKey, int64, error) {
	day := l.Today()
	if d.IsZero() || seconds <= 0 {
		return day, 0, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, err := l.Get(ctx, day)
	if err != nil {
		return day, 0, err
	}
	bucket[d] += seconds
	if err := l.put(ctx, day, bucket); err != nil {
		return day, 0, err
	}
	return day, bucket[d], nil
}

// TotalSeconds sums every domain of day.
func (l *Ledger) TotalSeconds(ctx context.Context, day DayKey) (int64, error) {
	bucket, err := l.Get(ctx, day)
	if err != nil {
		return 0, err
	}
	return bucket.Total(), nil
}

// Reset drops the bucket for day.
func (l *Ledger) Reset(ctx context.Context, day DayKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Delete(ctx, day.StoreKey()); err != nil {
		return fmt.Errorf("failed to reset bucket %s: %w", day, err)
	}
	return nil
}

// Clear drops every stored bucket.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	days, err := l.Days(ctx)
	if err != nil {
		return err
	}
	for _, day := range days {
		if err := l.store.Delete(ctx, day.StoreKey()); err != nil {
			return fmt.Errorf("failed to clear bucket %s: %w", day, err)
		}
	}
	return nil
}

// Range returns one Day per calendar day in [from, to], oldest first. Days
// without data come back with an empty bucket.
func (l *Ledger) Range(ctx context.Context, from, to DayKey) ([]Day, error) {
	if to < from {
		return nil, fmt.Errorf("range end %s is before start %s", to, from)
	}
	var days []Day
	for day := from; day <= to; day = day.AddDays(1) {
		bucket, err := l.Get(ctx, day)
		if err != nil {
			return nil, err
		}
		days = append(days, Day{Key: day, Bucket: bucket})
	}
	return days, nil
}

// Days lists every day that has a stored bucket, oldest first.
func (l *Ledger) Days(ctx context.Context) ([]DayKey, error) {
	keys, err := l.store.Keys(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}
	days := make([]DayKey, 0, len(keys))
	for _, k := range keys {
		if day, ok := dayKeyFromStoreKey(k); ok {
			days = append(days, day)
		}
	}
	return days, nil
}
