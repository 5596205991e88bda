package audit

import "github.com/google/uuid"

// Entry is one line in the hash-chained JSONL decision log.
// All fields are scalars (no map[string]any) to guarantee deterministic
// json.Marshal field order for reproducible hashing.
type Entry struct {
	Timestamp  string `json:"ts"`
	CheckID    string `json:"check_id"`
	RemoteAddr string `json:"remote_addr"`
	Host       string `json:"host"`
	Verdict    string `json:"verdict"`
	Reason     string `json:"reason"`
	ConfigHash string `json:"config_hash"`
	PrevHash   string `json:"prev_hash"`
}

// NewCheckID returns a unique ID for one host check.
func NewCheckID() string {
	return uuid.NewString()
}
