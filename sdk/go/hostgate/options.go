package hostgate

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	hosts      []string
	hostsSet   bool
	onDenied   DenyHandler
	settings   Settings
	configPath string
	configSet  bool
	auditPath  string
	identityFn IdentityFunc
	debug      bool
	debugSet   bool
}

// WithAllowedHosts sets the instance-level default allow-list. A nil or
// empty slice, or one containing "*", allows every host.
func WithAllowedHosts(hosts []string) Option {
	return func(c *clientConfig) {
		c.hosts = hosts
		c.hostsSet = true
	}
}

// WithOnDenied sets the instance-level denial handler.
func WithOnDenied(h DenyHandler) Option {
	return func(c *clientConfig) { c.onDenied = h }
}

// WithSettings attaches the host application's configuration as the
// ambient tier. Takes precedence over WithConfig.
func WithSettings(s Settings) Option {
	return func(c *clientConfig) { c.settings = s }
}

// WithConfig loads a YAML config file into the ambient tier.
// An empty path falls back to ~/.hostgate/config.yaml; a missing file
// means built-in defaults.
func WithConfig(path string) Option {
	return func(c *clientConfig) {
		c.configPath = path
		c.configSet = true
	}
}

// WithAuditLog records every verdict to a hash-chained JSONL file.
func WithAuditLog(path string) Option {
	return func(c *clientConfig) { c.auditPath = path }
}

// WithIdentityFunc sets the accessor Wrap uses to obtain the request
// identity from the context.
func WithIdentityFunc(fn IdentityFunc) Option {
	return func(c *clientConfig) { c.identityFn = fn }
}

// WithDebug forces the diagnostic trace flag, overriding HOSTGATE_DEBUG.
func WithDebug(enabled bool) Option {
	return func(c *clientConfig) {
		c.debug = enabled
		c.debugSet = true
	}
}

// GuardOption configures a single guard (one Wrap, Middleware, or
// interceptor call), overriding the client-level defaults.
type GuardOption func(*guardConfig)

type guardConfig struct {
	hosts    []string
	hostsSet bool
	onDenied DenyHandler
}

// GuardWithAllowedHosts overrides the allow-list for this guard only.
func GuardWithAllowedHosts(hosts []string) GuardOption {
	return func(g *guardConfig) {
		g.hosts = hosts
		g.hostsSet = true
	}
}

// GuardWithOnDenied overrides the denial handler for this guard only.
func GuardWithOnDenied(h DenyHandler) GuardOption {
	return func(g *guardConfig) { g.onDenied = h }
}
