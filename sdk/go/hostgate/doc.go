// Package hostgate provides in-process host allow-list enforcement for
// Go services. It restricts handling of inbound requests to a configured
// set of hostnames and IP addresses, answering every other request with a
// configurable denial response. Guards exist for plain operations,
// net/http handlers, and gRPC interceptors.
//
// Usage:
//
//	gate, err := hostgate.New(hostgate.WithAllowedHosts([]string{"93.184.215.14", "api.example.com"}))
//	mux.Handle("/api/", gate.Middleware(apiHandler))
//
// The effective allow-list and denial handler for each check resolve
// through four tiers: per-guard override, instance default, ambient
// settings (ALLOWED_HOSTS / ALLOWED_HOSTS_ON_DENIED), then allow-all
// with a 403 response. The SDK links directly against internal packages
// for zero-subprocess overhead. External users import
// github.com/hostgate-io/hostgate/sdk/go/hostgate.
package hostgate
