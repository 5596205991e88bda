package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/hostgate-io/hostgate/internal/model"
)

// DeniedResponse configures the response sent when a request is denied
// and no handler is supplied in code.
type DeniedResponse struct {
	Status  int    `yaml:"status"`
	Message string `yaml:"message"`
}

// Config holds the file-backed gate configuration. It feeds the ambient
// settings tier: values from a file never outrank instance defaults or
// per-call overrides.
type Config struct {
	AllowedHosts []string       `yaml:"allowed_hosts"`
	Denied       DeniedResponse `yaml:"denied"`
	Debug        bool           `yaml:"debug"`
}

// DefaultConfig returns the built-in configuration: allow every host,
// deny (if a narrower list is ever resolved) with a plain 403.
func DefaultConfig() *Config {
	return &Config{
		Denied: DeniedResponse{
			Status:  http.StatusForbidden,
			Message: "host not allowed",
		},
	}
}

// LoadConfig loads gate configuration from a YAML file.
// Empty path falls back to ~/.hostgate/config.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads gate configuration and returns its SHA-256
// hash, computed over the raw YAML bytes on disk. When no file exists
// (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultConfig(), emptyHash(), nil
		}
		path = filepath.Join(home, ".hostgate", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), emptyHash(), nil
		}
		return nil, "", fmt.Errorf("failed to read gate config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse gate config: %w", err)
	}

	return cfg, hash, nil
}

func emptyHash() string {
	h := sha256.Sum256(nil)
	return "sha256:" + hex.EncodeToString(h[:])
}

// Settings exposes the file values as the ambient settings tier.
// An absent allowed_hosts key stays absent so resolution falls through
// to allow-all; a customized denied response becomes the ambient handler.
func (c *Config) Settings() Settings {
	m := MapSettings{}
	if c.AllowedHosts != nil {
		m[AllowedHostsKey] = c.AllowedHosts
	}
	if c.Denied != DefaultConfig().Denied {
		m[OnDeniedKey] = c.Handler()
	}
	return m
}

// Handler builds a denial handler from the configured denied response.
func (c *Config) Handler() model.DenyHandler {
	status := c.Denied.Status
	if status == 0 {
		status = http.StatusForbidden
	}
	message := c.Denied.Message
	if message == "" {
		message = "host not allowed"
	}

	return func() model.Response {
		body, _ := json.Marshal(struct {
			Blocked bool   `json:"blocked"`
			Verdict string `json:"verdict"`
			Reason  string `json:"reason"`
		}{Blocked: true, Verdict: string(model.Deny), Reason: message})
		return model.Response{
			Status: status,
			Header: http.Header{"Content-Type": []string{"application/json"}},
			Body:   body,
		}
	}
}

// DefaultConfigYAML returns a commented YAML string for hostgate init.
func DefaultConfigYAML() string {
	return `# hostgate configuration
# Generated by: hostgate init
#
# Resolution order (cannot be changed):
#   1. Per-call override (code)
#   2. Instance default (code)
#   3. This file
#   4. Allow all

# Hosts and addresses allowed to reach guarded operations.
# A request matches if its remote address or declared Host header
# (with or without port) equals an entry after trim + case-fold.
# Omit the key, leave the list empty, or include "*" to allow every host.
allowed_hosts:
  - "127.0.0.1"
  - "localhost:8080"

# Response for denied requests when no handler is set in code.
denied:
  status: 403
  message: "host not allowed"

# Emit a diagnostic line to stderr for every decision.
debug: false
`
}
