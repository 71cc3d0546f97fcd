package domain

import (
	"net/url"
	"strings"
)

// Domain is a normalized hostname. The empty Domain means "not trackable".
type Domain string

// GlobalSentinel is the persisted name of the global budget in the suppression
// map. Resolve never yields it.
const GlobalSentinel = "__global__"

// excludedSchemes are browser-internal pages that never count as browsing.
var excludedSchemes = map[string]struct{}{
	"chrome":           {},
	"chrome-extension": {},
	"chrome-search":    {},
	"chrome-untrusted": {},
	"brave":            {},
	"edge":             {},
	"opera":            {},
	"vivaldi":          {},
	"about":            {},
	"moz-extension":    {},
	"resource":         {},
	"view-source":      {},
	"devtools":         {},
	"file":             {},
	"data":             {},
	"blob":             {},
	"javascript":       {},
}

// Resolve maps a location to the trackable domain it belongs to. It never
// fails: anything unparsable or browser-internal yields ok == false.
func Resolve(location string) (Domain, bool) {
	u, err := url.Parse(strings.TrimSpace(location))
	if err != nil || u.Scheme == "" {
		return "", false
	}
	if _, excluded := excludedSchemes[strings.ToLower(u.Scheme)]; excluded {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	host = strings.TrimSuffix(host, ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" || host == GlobalSentinel {
		return "", false
	}
	return Domain(host), true
}

// Normalize turns free-form user input such as "https://www.Example.com/page"
// into the domain the limit applies to.
func Normalize(input string) (Domain, bool) {
	d := strings.ToLower(strings.TrimSpace(input))
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	if d == "" || d == GlobalSentinel {
		return "", false
	}
	return Domain(d), true
}

func (d Domain) IsZero() bool {
	return d == ""
}

func (d Domain) String() string {
	return string(d)
}
