package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func newTestLog(t *testing.T) (*Log, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "decisions.jsonl")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open decision log: %v", err)
	}
	return l, path
}

func testEntry(verdict string) Entry {
	return Entry{
		RemoteAddr: "10.0.0.5",
		Host:       "api.example.com",
		Verdict:    verdict,
		Reason:     "test reason",
		ConfigHash: "sha256:abc123",
	}
}

func TestSequentialWritesProduceValidChain(t *testing.T) {
	l, path := newTestLog(t)

	for i := 0; i < 5; i++ {
		if err := l.Record(testEntry("allow")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("expected valid chain, got error at line %d: %s", result.ErrorLine, result.Error)
	}
	if result.Lines != 5 {
		t.Fatalf("expected 5 lines, got %d", result.Lines)
	}
}

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	l, path := newTestLog(t)
	if err := l.Record(testEntry("deny")); err != nil {
		t.Fatalf("record: %v", err)
	}
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry Entry
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry); err != nil {
		t.Fatalf("parse entry: %v", err)
	}
	if entry.CheckID == "" {
		t.Error("expected generated check_id")
	}
	if entry.Timestamp == "" {
		t.Error("expected generated timestamp")
	}
	if entry.Verdict != "deny" {
		t.Errorf("verdict = %q", entry.Verdict)
	}
}

func TestVerifyDetectsTamperedEntry(t *testing.T) {
	l, path := newTestLog(t)
	for i := 0; i < 3; i++ {
		if err := l.Record(testEntry("allow")); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	l.Close()

	// Flip the verdict on the middle line
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	lines[1] = strings.Replace(lines[1], `"allow"`, `"deny"`, 1)
	tampered := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(tampered), 0600); err != nil {
		t.Fatalf("write tampered log: %v", err)
	}

	result := Verify(path)
	if result.Valid {
		t.Fatal("expected verification to fail on tampered log")
	}
	if result.ErrorLine != 3 {
		t.Errorf("expected break detected at line 3, got %d", result.ErrorLine)
	}
}

func TestReopenRecoversChainTail(t *testing.T) {
	l, path := newTestLog(t)
	if err := l.Record(testEntry("allow")); err != nil {
		t.Fatalf("record: %v", err)
	}
	l.Close()

	l2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := l2.Record(testEntry("deny")); err != nil {
		t.Fatalf("record after reopen: %v", err)
	}
	l2.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("chain broken after reopen: %s", result.Error)
	}
	if result.Lines != 2 {
		t.Errorf("expected 2 lines, got %d", result.Lines)
	}
}

func TestConcurrentRecords(t *testing.T) {
	l, path := newTestLog(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = l.Record(testEntry("allow"))
		}()
	}
	wg.Wait()
	l.Close()

	result := Verify(path)
	if !result.Valid {
		t.Fatalf("concurrent writes broke the chain: %s", result.Error)
	}
	if result.Lines != 20 {
		t.Errorf("expected 20 lines, got %d", result.Lines)
	}

	// Every line must be standalone-parseable JSON
	f, _ := os.Open(path)
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("interleaved write produced bad line: %v", err)
		}
	}
}
