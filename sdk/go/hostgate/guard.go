package hostgate

import (
	"context"

	"github.com/hostgate-io/hostgate/internal/model"
)

// Wrap returns a new Operation that checks the gate before calling op.
// If the gate denies the request, op is never called and the wrapped
// function returns a *DeniedError carrying the resolved denial response.
// On allow, op's result passes through unchanged.
func (c *Client) Wrap(op Operation, opts ...GuardOption) Operation {
	g := guardConfig{}
	for _, o := range opts {
		o(&g)
	}

	return func(ctx context.Context) (any, error) {
		res := c.resolve(g)

		// Allow-all never consults the identity accessor.
		if res.List.IsAllowAll() {
			c.observe(model.Identity{}, model.Allow, "allow-all policy", res)
			return op(ctx)
		}

		id := c.identity(ctx)
		verdict, reason := decide(res, id)
		c.observe(id, verdict, reason, res)

		if verdict.Allowed() {
			return op(ctx)
		}

		return nil, &DeniedError{
			Identity: fromInternalIdentity(id),
			Response: fromInternalResponse(res.OnDenied()),
		}
	}
}
