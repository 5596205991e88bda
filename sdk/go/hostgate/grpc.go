package hostgate

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/hostgate-io/hostgate/internal/model"
)

// UnaryInterceptor returns a grpc.UnaryServerInterceptor that checks
// the gate before invoking the handler. Denied calls receive a status
// error mapped from the resolved denial response.
func (c *Client) UnaryInterceptor(opts ...GuardOption) grpc.UnaryServerInterceptor {
	g := guardConfig{}
	for _, o := range opts {
		o(&g)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		res := c.resolve(g)
		id := identityFromContext(ctx)
		verdict, reason := decide(res, id)
		c.observe(id, verdict, reason, res)

		if verdict.Allowed() {
			return handler(ctx, req)
		}
		return nil, deniedStatus(res.OnDenied())
	}
}

// StreamInterceptor is the streaming counterpart of UnaryInterceptor.
func (c *Client) StreamInterceptor(opts ...GuardOption) grpc.StreamServerInterceptor {
	g := guardConfig{}
	for _, o := range opts {
		o(&g)
	}

	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		res := c.resolve(g)
		id := identityFromContext(ss.Context())
		verdict, reason := decide(res, id)
		c.observe(id, verdict, reason, res)

		if verdict.Allowed() {
			return handler(srv, ss)
		}
		return deniedStatus(res.OnDenied())
	}
}

// identityFromContext builds the identity from the gRPC peer address
// and the :authority pseudo-header.
func identityFromContext(ctx context.Context) model.Identity {
	id := model.Identity{}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		id.RemoteAddr = p.Addr.String()
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(":authority"); len(v) > 0 {
			id.Host = v[0]
		}
	}
	return id
}

// deniedStatus maps the denial response onto a gRPC status error.
// Custom handlers keep their intent through the status-code mapping;
// everything else is PermissionDenied.
func deniedStatus(resp model.Response) error {
	code := codes.PermissionDenied
	switch resp.Status {
	case http.StatusTooManyRequests:
		code = codes.ResourceExhausted
	case http.StatusServiceUnavailable:
		code = codes.Unavailable
	}
	return status.Error(code, "hostgate: host not allowed")
}
