package allowlist

import (
	"strings"

	"github.com/hostgate-io/hostgate/internal/model"
)

// Wildcard is the sentinel entry that turns a list into allow-all.
const Wildcard = "*"

// List is an immutable allow-list: either the allow-all sentinel or a
// normalized set of host/IP strings. The zero value is NOT valid; build
// lists with New or use AllowAll.
type List struct {
	allowAll bool
	hosts    map[string]struct{}
	entries  []string
}

// AllowAll is the sentinel list permitting every identity.
var AllowAll = List{allowAll: true}

// Normalize trims and case-folds one host entry.
func Normalize(host string) string {
	return strings.ToLower(strings.TrimSpace(host))
}

// New builds a List from raw entries, normalizing each. A nil or empty
// slice, a slice containing the wildcard, or a slice whose entries all
// normalize to "" yield the allow-all sentinel.
func New(hosts []string) List {
	if len(hosts) == 0 {
		return AllowAll
	}

	set := make(map[string]struct{}, len(hosts))
	var kept []string
	for _, h := range hosts {
		n := Normalize(h)
		if n == Wildcard {
			return AllowAll
		}
		if n == "" {
			continue
		}
		if _, ok := set[n]; ok {
			continue
		}
		set[n] = struct{}{}
		kept = append(kept, n)
	}

	if len(kept) == 0 {
		return AllowAll
	}
	return List{hosts: set, entries: kept}
}

// IsAllowAll reports whether this is the allow-all sentinel.
func (l List) IsAllowAll() bool {
	return l.allowAll
}

// Entries returns the normalized entries in input order, nil for allow-all.
func (l List) Entries() []string {
	if l.allowAll || len(l.entries) == 0 {
		return nil
	}
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// Contains reports membership of a single entry after normalization.
// Always true for the allow-all sentinel.
func (l List) Contains(host string) bool {
	if l.allowAll {
		return true
	}
	_, ok := l.hosts[Normalize(host)]
	return ok
}

// Decide returns the verdict for an identity. Allow-all allows every
// identity unconditionally, including an unresolvable one. Otherwise the
// identity is allowed iff any of its candidate forms is a member; an
// identity with no candidates is denied (fail closed).
func (l List) Decide(id model.Identity) model.Verdict {
	if l.allowAll {
		return model.Allow
	}
	for _, c := range id.Candidates() {
		if _, ok := l.hosts[c]; ok {
			return model.Allow
		}
	}
	return model.Deny
}

// String renders the list for diagnostics.
func (l List) String() string {
	if l.allowAll {
		return Wildcard
	}
	return "[" + strings.Join(l.entries, " ") + "]"
}
