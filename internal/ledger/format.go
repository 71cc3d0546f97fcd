package ledger

import (
	"fmt"
	"strings"
)

// FormatSeconds renders a ledger amount as "1h 5m", "45s" and the like,
// leaving out units that are zero.
func FormatSeconds(seconds int64) string {
	if seconds <= 0 {
		return "0s"
	}
	h, rest := seconds/3600, seconds%3600
	m, s := rest/60, rest%60

	var parts []string
	if h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	if s > 0 {
		parts = append(parts, fmt.Sprintf("%ds", s))
	}
	return strings.Join(parts, " ")
}
