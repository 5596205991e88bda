package hostgate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hostgate-io/hostgate/internal/model"
)

// Verdict is the outcome of a single host check.
type Verdict string

const (
	Allow Verdict = Verdict(model.Allow)
	Deny  Verdict = Verdict(model.Deny)
)

// Allowed returns true if the verdict permits the request.
func (v Verdict) Allowed() bool {
	return v == Allow
}

// Identity is the originating identity of one inbound request:
// the peer network address and the hostname the request declared
// (either may be empty if the transport could not determine it).
type Identity struct {
	RemoteAddr string
	Host       string
}

// Response is the value a denial handler produces for the transport layer.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// DenyHandler produces the response substituted for a denied operation.
type DenyHandler func() Response

// Operation is the function signature that Wrap guards.
type Operation func(ctx context.Context) (any, error)

// IdentityFunc supplies the request identity for Wrap-guarded
// operations. A returned error counts as an unresolvable identity
// and the check fails closed.
type IdentityFunc func(ctx context.Context) (Identity, error)

// Result is the outcome of a single Check.
type Result struct {
	Verdict       Verdict
	Reason        string
	ListSource    string
	HandlerSource string
}

// Allowed returns true if the check permitted the request.
func (r Result) Allowed() bool {
	return r.Verdict.Allowed()
}

// DeniedError is returned by a Wrap-guarded operation when the gate
// denies the request. Response carries the resolved denial response.
type DeniedError struct {
	Identity Identity
	Response Response
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("hostgate denied (%d): %s", e.Response.Status, e.Identity)
}

func (id Identity) String() string {
	return model.Identity{RemoteAddr: id.RemoteAddr, Host: id.Host}.String()
}

// toInternalIdentity maps an SDK Identity to an internal model.Identity.
func toInternalIdentity(id Identity) model.Identity {
	return model.Identity{RemoteAddr: id.RemoteAddr, Host: id.Host}
}

func fromInternalIdentity(id model.Identity) Identity {
	return Identity{RemoteAddr: id.RemoteAddr, Host: id.Host}
}

func toInternalResponse(r Response) model.Response {
	return model.Response{Status: r.Status, Header: r.Header, Body: r.Body}
}

func fromInternalResponse(r model.Response) Response {
	return Response{Status: r.Status, Header: r.Header, Body: r.Body}
}

// toInternalHandler wraps an SDK handler for the resolver. Nil stays nil
// so an absent handler falls through to the next precedence tier.
func toInternalHandler(h DenyHandler) model.DenyHandler {
	if h == nil {
		return nil
	}
	return func() model.Response {
		return toInternalResponse(h())
	}
}
