package hostgate

import (
	"net/http"

	"github.com/hostgate-io/hostgate/internal/model"
)

// Middleware returns an http.Handler that checks the gate on each
// request before passing to next. Denied requests receive the resolved
// denial response; by default a 403 with a JSON body.
func (c *Client) Middleware(next http.Handler, opts ...GuardOption) http.Handler {
	g := guardConfig{}
	for _, o := range opts {
		o(&g)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res := c.resolve(g)
		id := identityFromRequest(r)
		verdict, reason := decide(res, id)
		c.observe(id, verdict, reason, res)

		if verdict.Allowed() {
			next.ServeHTTP(w, r)
			return
		}

		writeResponse(w, res.OnDenied())
	})
}

// identityFromRequest maps an HTTP request to the identity compared
// against the allow-list: the peer address plus the declared Host
// header. Port stripping happens during candidate expansion.
func identityFromRequest(r *http.Request) model.Identity {
	return model.Identity{
		RemoteAddr: r.RemoteAddr,
		Host:       r.Host,
	}
}

func writeResponse(w http.ResponseWriter, resp model.Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusForbidden
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}
