package policy

import (
	"strings"

	"github.com/hostgate-io/hostgate/internal/allowlist"
	"github.com/hostgate-io/hostgate/internal/model"
)

// Keys consumed from the ambient settings tier.
const (
	AllowedHostsKey = "ALLOWED_HOSTS"
	OnDeniedKey     = "ALLOWED_HOSTS_ON_DENIED"
)

// Settings is a string-keyed lookup owned by the host application,
// consulted as the third precedence tier. Implementations must be safe
// for concurrent reads.
type Settings interface {
	Get(key string) (any, bool)
}

// MapSettings adapts a plain map to Settings.
type MapSettings map[string]any

func (m MapSettings) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Override carries the allow-list and denial handler of one precedence
// tier (a per-call override or an instance default). HostsSet
// distinguishes an absent allow-list (tier skipped) from a present but
// empty one (tier selected, normalizes to allow-all).
type Override struct {
	Hosts    []string
	HostsSet bool
	OnDenied model.DenyHandler
}

// Source names the precedence tier a resolved value came from.
type Source string

const (
	SourceCall     Source = "call"
	SourceInstance Source = "instance"
	SourceSettings Source = "settings"
	SourceFallback Source = "fallback"
)

// Resolution is the effective policy for a single check.
type Resolution struct {
	List          allowlist.List
	OnDenied      model.DenyHandler
	ListSource    Source
	HandlerSource Source
}

// Resolve merges the four precedence tiers into one effective policy:
// call override, then instance default, then ambient settings, then the
// fallback (allow-all, default forbidden response). The allow-list and
// the handler resolve independently; a caller may override only one of
// the two. Resolve never fails: absent values are not errors.
func Resolve(call, instance Override, ambient Settings) Resolution {
	r := Resolution{}

	switch {
	case call.HostsSet:
		r.List, r.ListSource = allowlist.New(call.Hosts), SourceCall
	case instance.HostsSet:
		r.List, r.ListSource = allowlist.New(instance.Hosts), SourceInstance
	default:
		if hosts, ok := ambientHosts(ambient); ok {
			r.List, r.ListSource = allowlist.New(hosts), SourceSettings
		} else {
			r.List, r.ListSource = allowlist.AllowAll, SourceFallback
		}
	}

	switch {
	case call.OnDenied != nil:
		r.OnDenied, r.HandlerSource = call.OnDenied, SourceCall
	case instance.OnDenied != nil:
		r.OnDenied, r.HandlerSource = instance.OnDenied, SourceInstance
	default:
		if h, ok := ambientHandler(ambient); ok {
			r.OnDenied, r.HandlerSource = h, SourceSettings
		} else {
			r.OnDenied, r.HandlerSource = model.DefaultDenied, SourceFallback
		}
	}

	return r
}

// ambientHosts extracts an allow-list value from settings. Accepted
// shapes: []string, []any of strings, or a single string (the wildcard
// or a comma-separated list). Any other shape is treated as absent.
func ambientHosts(s Settings) ([]string, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Get(AllowedHostsKey)
	if !ok || v == nil {
		return nil, false
	}

	switch hosts := v.(type) {
	case []string:
		return hosts, true
	case []any:
		out := make([]string, 0, len(hosts))
		for _, h := range hosts {
			str, ok := h.(string)
			if !ok {
				return nil, false
			}
			out = append(out, str)
		}
		return out, true
	case string:
		if strings.TrimSpace(hosts) == allowlist.Wildcard {
			return []string{allowlist.Wildcard}, true
		}
		return strings.Split(hosts, ","), true
	}
	return nil, false
}

// ambientHandler extracts a denial handler from settings. Accepted
// shapes: model.DenyHandler or a bare func() model.Response. Any other
// shape is treated as absent.
func ambientHandler(s Settings) (model.DenyHandler, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.Get(OnDeniedKey)
	if !ok || v == nil {
		return nil, false
	}

	switch h := v.(type) {
	case model.DenyHandler:
		return h, true
	case func() model.Response:
		return model.DenyHandler(h), true
	}
	return nil, false
}
