package hostgate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hostgate-io/hostgate/internal/audit"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCheckInstanceDefault(t *testing.T) {
	c := newTestClient(t, WithAllowedHosts([]string{"93.184.215.14"}))

	res := c.Check(Identity{RemoteAddr: "93.184.215.14:53711"})
	if !res.Allowed() {
		t.Errorf("expected allow, got %s (%s)", res.Verdict, res.Reason)
	}
	if res.ListSource != "instance" {
		t.Errorf("list source = %q, want instance", res.ListSource)
	}

	res = c.Check(Identity{RemoteAddr: "10.0.0.5:4000"})
	if res.Allowed() {
		t.Error("expected deny for unlisted address")
	}
}

func TestCheckGuardOverrideWins(t *testing.T) {
	c := newTestClient(t, WithAllowedHosts([]string{"10.0.0.1"}))

	res := c.Check(Identity{RemoteAddr: "127.0.0.1:9000"},
		GuardWithAllowedHosts([]string{"127.0.0.1"}))
	if !res.Allowed() {
		t.Errorf("call override should allow 127.0.0.1, got %s", res.Verdict)
	}
	if res.ListSource != "call" {
		t.Errorf("list source = %q, want call", res.ListSource)
	}

	// The instance list no longer applies under the override
	res = c.Check(Identity{RemoteAddr: "10.0.0.1:9000"},
		GuardWithAllowedHosts([]string{"127.0.0.1"}))
	if res.Allowed() {
		t.Error("instance entry should not match under call override")
	}
}

func TestCheckAmbientSettings(t *testing.T) {
	c := newTestClient(t, WithSettings(MapSettings{
		"ALLOWED_HOSTS": []string{"ambient.example"},
	}))

	res := c.Check(Identity{Host: "ambient.example"})
	if !res.Allowed() {
		t.Errorf("expected allow from ambient tier, got %s (%s)", res.Verdict, res.Reason)
	}
	if res.ListSource != "settings" {
		t.Errorf("list source = %q, want settings", res.ListSource)
	}

	if c.Check(Identity{Host: "other.example"}).Allowed() {
		t.Error("expected deny for host outside ambient list")
	}
}

func TestCheckFallbackAllowsEverything(t *testing.T) {
	c := newTestClient(t)

	ids := []Identity{
		{},
		{RemoteAddr: "203.0.113.9:1000"},
		{Host: "anything.invalid"},
	}
	for _, id := range ids {
		res := c.Check(id)
		if !res.Allowed() {
			t.Errorf("fallback should allow %v, got %s", id, res.Verdict)
		}
		if res.ListSource != "fallback" {
			t.Errorf("list source = %q, want fallback", res.ListSource)
		}
	}
}

func TestCheckUnresolvableIdentityFailsClosed(t *testing.T) {
	c := newTestClient(t, WithAllowedHosts([]string{"127.0.0.1"}))

	res := c.Check(Identity{})
	if res.Allowed() {
		t.Error("empty identity must be denied under a narrow list")
	}
	if res.Reason != "unresolvable identity" {
		t.Errorf("reason = %q", res.Reason)
	}
}

func TestSetSettingsLateBinding(t *testing.T) {
	c := newTestClient(t)

	if !c.Check(Identity{Host: "anywhere.example"}).Allowed() {
		t.Fatal("gate without configuration should allow all")
	}

	c.SetSettings(MapSettings{"ALLOWED_HOSTS": []string{"app.example"}})

	if c.Check(Identity{Host: "anywhere.example"}).Allowed() {
		t.Error("late-bound settings should now deny unlisted hosts")
	}
	if !c.Check(Identity{Host: "app.example"}).Allowed() {
		t.Error("late-bound settings should allow listed host")
	}
}

func TestCheckConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "allowed_hosts:\n  - 127.0.0.1\ndenied:\n  status: 451\n  message: blocked by config\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	c := newTestClient(t, WithConfig(path))

	if !c.Check(Identity{RemoteAddr: "127.0.0.1:8080"}).Allowed() {
		t.Error("config file allow-list should admit 127.0.0.1")
	}
	res := c.Check(Identity{RemoteAddr: "10.1.1.1:8080"})
	if res.Allowed() {
		t.Fatal("expected deny from config file list")
	}
	if res.HandlerSource != "settings" {
		t.Errorf("handler source = %q, want settings", res.HandlerSource)
	}
}

func TestCheckConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("allowed_hosts: [broken\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := New(WithConfig(path)); err == nil {
		t.Fatal("expected error for invalid config file")
	}
}

func TestAuditLogRecordsVerdicts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	c := newTestClient(t,
		WithAllowedHosts([]string{"127.0.0.1"}),
		WithAuditLog(path),
	)

	c.Check(Identity{RemoteAddr: "127.0.0.1:5000"})
	c.Check(Identity{RemoteAddr: "10.0.0.5:5000"})
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	result := audit.Verify(path)
	if !result.Valid {
		t.Fatalf("audit chain invalid: %s", result.Error)
	}
	if result.Lines != 2 {
		t.Errorf("expected 2 audit entries, got %d", result.Lines)
	}
}

func TestCheckIdempotent(t *testing.T) {
	c := newTestClient(t, WithAllowedHosts([]string{"10.0.0.1"}))
	id := Identity{RemoteAddr: "10.0.0.1:7777"}

	first := c.Check(id)
	for i := 0; i < 50; i++ {
		if got := c.Check(id); got.Verdict != first.Verdict {
			t.Fatalf("verdict drifted at iteration %d", i)
		}
	}
}
