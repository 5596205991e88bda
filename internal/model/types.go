package model

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Verdict is the outcome of a single host check.
type Verdict string

const (
	Allow Verdict = "allow"
	Deny  Verdict = "deny"
)

// Allowed reports whether the verdict permits the request.
func (v Verdict) Allowed() bool {
	return v == Allow
}

// Identity is the originating identity of one inbound request.
// RemoteAddr is the peer network address; Host is the hostname the
// request declared (Host header or :authority), verbatim, possibly in
// host:port form. Lifecycle is a single check: built from the request,
// compared, discarded.
type Identity struct {
	RemoteAddr string
	Host       string
}

// Candidates returns the normalized strings this identity may match
// under: the remote address (with and without port), the declared host
// verbatim, and the declared host with the port stripped. Empty forms
// are dropped and duplicates removed, preserving first occurrence.
func (id Identity) Candidates() []string {
	seen := make(map[string]struct{}, 4)
	var out []string

	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(id.RemoteAddr)
	if h, _, err := net.SplitHostPort(strings.TrimSpace(id.RemoteAddr)); err == nil {
		add(h)
	}
	add(id.Host)
	if h, _, err := net.SplitHostPort(strings.TrimSpace(id.Host)); err == nil {
		add(h)
	}

	return out
}

// Empty reports whether no identity could be determined from the transport.
func (id Identity) Empty() bool {
	return len(id.Candidates()) == 0
}

func (id Identity) String() string {
	return fmt.Sprintf("addr=%q host=%q", id.RemoteAddr, id.Host)
}

// Response is the value a denial handler produces for the transport layer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DenyHandler produces the response substituted for a denied operation.
type DenyHandler func() Response

// deniedBody is the default denial payload. Struct fields (not a map)
// keep json.Marshal field order deterministic.
type deniedBody struct {
	Blocked bool   `json:"blocked"`
	Verdict string `json:"verdict"`
	Reason  string `json:"reason"`
}

// DefaultDenied returns the built-in forbidden response: 403 with a
// JSON body the transport layer can pass through unchanged.
func DefaultDenied() Response {
	body, _ := json.Marshal(deniedBody{
		Blocked: true,
		Verdict: string(Deny),
		Reason:  "host not allowed",
	})
	return Response{
		Status: http.StatusForbidden,
		Header: http.Header{"Content-Type": []string{"application/json"}},
		Body:   body,
	}
}
