package ledger

import (
	"fmt"
	"strings"
	"time"
)

const (
	dayLayout = "2006-01-02"
	keyPrefix = "tracking_"
)

// DayKey identifies one calendar day in system local time, formatted YYYY-MM-DD.
type DayKey string

// DayKeyOf returns the local calendar day t falls on.
func DayKeyOf(t time.Time) DayKey {
	return DayKey(t.Local().Format(dayLayout))
}

func ParseDayKey(s string) (DayKey, error) {
	if _, err := time.ParseInLocation(dayLayout, s, time.Local); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return DayKey(s), nil
}

// StoreKey is the key the day's bucket is persisted under.
func (k DayKey) StoreKey() string {
	return keyPrefix + string(k)
}

// Start returns local midnight at the beginning of the day.
func (k DayKey) Start() time.Time {
	t, _ := time.ParseInLocation(dayLayout, string(k), time.Local)
	return t
}

// AddDays moves n calendar days forward (or back when n is negative).
func (k DayKey) AddDays(n int) DayKey {
	return DayKeyOf(k.Start().AddDate(0, 0, n))
}

func (k DayKey) String() string {
	return string(k)
}

func dayKeyFromStoreKey(key string) (DayKey, bool) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", false
	}
	day, err := ParseDayKey(strings.TrimPrefix(key, keyPrefix))
	if err != nil {
		return "", false
	}
	return day, true
}
