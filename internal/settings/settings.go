package settings

import (
	"fmt"

	"github.com/SoarinFerret/TabWarden/internal/domain"
	"github.com/SoarinFerret/TabWarden/internal/ledger"
)

// DefaultGlobalDailyLimit is four hours.
const DefaultGlobalDailyLimit int64 = 4 * 60 * 60

// SiteKey names one entry of the suppression map: either a single domain or
// the global budget.
type SiteKey struct {
	global bool
	domain domain.Domain
}

// Global is the key of the all-sites budget.
var Global = SiteKey{global: true}

// Site is the key of a single domain's budget.
func Site(d domain.Domain) SiteKey {
	return SiteKey{domain: d}
}

func (k SiteKey) IsGlobal() bool {
	return k.global
}

func (k SiteKey) Domain() domain.Domain {
	return k.domain
}

func (k SiteKey) String() string {
	if k.global {
		return domain.GlobalSentinel
	}
	return string(k.domain)
}

func (k SiteKey) MarshalText() ([]byte, error) {
	if !k.global && k.domain.IsZero() {
		return nil, fmt.Errorf("empty site key")
	}
	return []byte(k.String()), nil
}

func (k *SiteKey) UnmarshalText(text []byte) error {
	s := string(text)
	switch s {
	case "":
		return fmt.Errorf("empty site key")
	case domain.GlobalSentinel:
		*k = Global
	default:
		*k = Site(domain.Domain(s))
	}
	return nil
}

// Suppression records which budgets already produced a nudge on Date.
type Suppression struct {
	Date  ledger.DayKey    `json:"date,omitempty"`
	Sites map[SiteKey]bool `json:"sites,omitempty"`
}

// Normalize resets a suppression map left over from another day. It reports
// whether anything changed; a second call on the same day is a no-op.
func (s *Suppression) Normalize(today ledger.DayKey) bool {
	if s.Date == today {
		if s.Sites == nil {
			s.Sites = map[SiteKey]bool{}
		}
		return false
	}
	s.Date = today
	s.Sites = map[SiteKey]bool{}
	return true
}

func (s Suppression) Has(k SiteKey) bool {
	return s.Sites[k]
}

func (s *Suppression) Mark(k SiteKey) {
	if s.Sites == nil {
		s.Sites = map[SiteKey]bool{}
	}
	s.Sites[k] = true
}

// Settings is the single persistent configuration record.
type Settings struct {
	NudgeEnabled     bool                    `json:"nudgeEnabled"`
	Limits           map[domain.Domain]int64 `json:"limits"`
	GlobalDailyLimit int64                   `json:"globalDailyLimit"`
	NudgedToday      Suppression             `json:"nudgedToday"`
}

// Defaults is what a store without a settings record reads as.
func Defaults() Settings {
	return Settings{
		NudgeEnabled:     true,
		Limits:           map[domain.Domain]int64{},
		GlobalDailyLimit: DefaultGlobalDailyLimit,
	}
}

// Limit returns the daily budget for d in seconds. A zero budget counts as unset.
func (s Settings) Limit(d domain.Domain) (int64, bool) {
	limit, ok := s.Limits[d]
	return limit, ok && limit > 0
}
