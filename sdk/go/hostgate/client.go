package hostgate

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/hostgate-io/hostgate/internal/audit"
	"github.com/hostgate-io/hostgate/internal/model"
	"github.com/hostgate-io/hostgate/internal/policy"
)

// Settings is a string-keyed lookup owned by the host application,
// consulted as the third precedence tier under the keys ALLOWED_HOSTS
// and ALLOWED_HOSTS_ON_DENIED. Implementations must be safe for
// concurrent reads.
type Settings interface {
	Get(key string) (any, bool)
}

// MapSettings adapts a plain map to Settings.
type MapSettings map[string]any

func (m MapSettings) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Client holds the gate's instance defaults and ambient configuration.
// Thread-safe for concurrent checks.
type Client struct {
	instance   policy.Override
	identityFn IdentityFunc
	auditLog   *audit.Log
	configHash string
	debug      bool

	mu       sync.RWMutex // guards settings for late binding
	settings policy.Settings
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	c := &Client{
		instance: policy.Override{
			Hosts:    cfg.hosts,
			HostsSet: cfg.hostsSet,
			OnDenied: toInternalHandler(cfg.onDenied),
		},
		identityFn: cfg.identityFn,
		debug:      cfg.debugSet && cfg.debug,
	}
	if !cfg.debugSet {
		c.debug = envDebug()
	}

	switch {
	case cfg.settings != nil:
		c.settings = settingsAdapter{s: cfg.settings}
	case cfg.configSet:
		fileCfg, hash, err := policy.LoadConfigWithHash(cfg.configPath)
		if err != nil {
			return nil, fmt.Errorf("hostgate: %w", err)
		}
		c.settings = fileCfg.Settings()
		c.configHash = hash
		if !cfg.debugSet && fileCfg.Debug {
			c.debug = true
		}
	}

	if cfg.auditPath != "" {
		log, err := audit.Open(cfg.auditPath)
		if err != nil {
			return nil, fmt.Errorf("hostgate: failed to open audit log: %w", err)
		}
		c.auditLog = log
	}

	return c, nil
}

// SetSettings attaches (or replaces) the ambient settings tier after
// construction. This is the late-binding variant for applications whose
// configuration is not available when the gate is created.
func (c *Client) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s == nil {
		c.settings = nil
		return
	}
	c.settings = settingsAdapter{s: s}
}

// Check evaluates the gate for an identity without executing anything.
func (c *Client) Check(id Identity, opts ...GuardOption) Result {
	g := guardConfig{}
	for _, o := range opts {
		o(&g)
	}

	res := c.resolve(g)
	internal := toInternalIdentity(id)
	verdict, reason := decide(res, internal)
	c.observe(internal, verdict, reason, res)

	return Result{
		Verdict:       Verdict(verdict),
		Reason:        reason,
		ListSource:    string(res.ListSource),
		HandlerSource: string(res.HandlerSource),
	}
}

// Close releases the audit log, if any.
func (c *Client) Close() error {
	if c.auditLog == nil {
		return nil
	}
	return c.auditLog.Close()
}

// resolve merges a guard's overrides with the client's defaults and the
// ambient tier into the effective policy for one check.
func (c *Client) resolve(g guardConfig) policy.Resolution {
	call := policy.Override{
		Hosts:    g.hosts,
		HostsSet: g.hostsSet,
		OnDenied: toInternalHandler(g.onDenied),
	}

	c.mu.RLock()
	ambient := c.settings
	c.mu.RUnlock()

	return policy.Resolve(call, c.instance, ambient)
}

// decide turns the effective policy plus an identity into a verdict.
// Allow-all short-circuits; otherwise an empty identity fails closed.
func decide(res policy.Resolution, id model.Identity) (model.Verdict, string) {
	if res.List.IsAllowAll() {
		return model.Allow, "allow-all policy"
	}
	if id.Empty() {
		return model.Deny, "unresolvable identity"
	}
	if res.List.Decide(id).Allowed() {
		return model.Allow, "identity in allow-list"
	}
	return model.Deny, "identity not in allow-list"
}

// observe emits the optional debug trace and the audit record for one
// verdict. Purely observational.
func (c *Client) observe(id model.Identity, verdict model.Verdict, reason string, res policy.Resolution) {
	if c.debug {
		fmt.Fprintf(os.Stderr, "hostgate: %s %s list=%s source=%s reason=%q\n",
			verdict, id, res.List, res.ListSource, reason)
	}
	if c.auditLog != nil {
		_ = c.auditLog.Record(audit.Entry{
			RemoteAddr: id.RemoteAddr,
			Host:       id.Host,
			Verdict:    string(verdict),
			Reason:     reason,
			ConfigHash: c.configHash,
		})
	}
}

// identity obtains the request identity for Wrap-guarded operations.
// Accessor failure means unresolvable, never an error.
func (c *Client) identity(ctx context.Context) model.Identity {
	if c.identityFn == nil {
		return model.Identity{}
	}
	id, err := c.identityFn(ctx)
	if err != nil {
		return model.Identity{}
	}
	return toInternalIdentity(id)
}

func envDebug() bool {
	switch os.Getenv("HOSTGATE_DEBUG") {
	case "1", "true", "TRUE", "True":
		return true
	}
	return false
}

// settingsAdapter bridges the SDK Settings interface to the resolver,
// translating SDK handler shapes into internal ones on the way through.
type settingsAdapter struct {
	s Settings
}

func (a settingsAdapter) Get(key string) (any, bool) {
	v, ok := a.s.Get(key)
	if !ok {
		return nil, false
	}
	switch h := v.(type) {
	case DenyHandler:
		return toInternalHandler(h), true
	case func() Response:
		return toInternalHandler(DenyHandler(h)), true
	}
	return v, ok
}
