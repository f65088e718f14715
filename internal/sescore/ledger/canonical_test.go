package ledger

import (
	"strings"
	"testing"
	"time"
)

func sampleRecord() AuditRecord {
	ts, _ := time.Parse(time.RFC3339, "2026-03-01T10:00:00Z")
	return AuditRecord{
		ID:        "rec-1",
		Timestamp: ts,
		Action:    "signature_created",
		Actor:     Actor{ID: "u1", Type: ActorUser, Identifier: "maria@example.com"},
		Resource:  Resource{Type: ResourceSignature, ID: "s1", Name: "contrato.html"},
		Details:   map[string]string{"b": "2", "a": "1"},
		Metadata:  RecordMetadata{IPAddress: "10.0.0.1", DeviceFingerprint: "fp_01"},
		Evidence:  map[string]string{"timestampSource": "freetsa"},

		PreviousHash: GenesisHash,
		Sequence:     1,
	}
}

func TestCanonicalRecord_Deterministic(t *testing.T) {
	a, err := canonicalRecord(sampleRecord())
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	b, err := canonicalRecord(sampleRecord())
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if a != b {
		t.Fatalf("canonical forms differ:\n%s\n!=\n%s", a, b)
	}
}

func TestCanonicalRecord_SortedKeysAndNoHashField(t *testing.T) {
	canon, err := canonicalRecord(sampleRecord())
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	// Keys are emitted alphabetically regardless of struct order.
	if !strings.HasPrefix(canon, `{"action":`) {
		t.Fatalf("expected sorted keys, got prefix %q", canon[:20])
	}
	if strings.Contains(canon, `"hash"`) || strings.Contains(canon, `"previousHash"`) {
		t.Fatalf("hash fields must not appear in the canonical form: %s", canon)
	}
	// Details keys sorted too.
	if strings.Index(canon, `"a":"1"`) > strings.Index(canon, `"b":"2"`) {
		t.Fatalf("nested keys not sorted: %s", canon)
	}
}

func TestRecordHash_BindsPreviousHash(t *testing.T) {
	rec := sampleRecord()
	h1, err := recordHash(rec)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	rec.PreviousHash = "f00f"
	h2, err := recordHash(rec)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("hash must change when previousHash changes")
	}
}

func TestRecordHash_SensitiveToEveryField(t *testing.T) {
	base, _ := recordHash(sampleRecord())

	mutations := map[string]func(*AuditRecord){
		"action":    func(r *AuditRecord) { r.Action = "x" },
		"actor":     func(r *AuditRecord) { r.Actor.Identifier = "x" },
		"resource":  func(r *AuditRecord) { r.Resource.ID = "x" },
		"details":   func(r *AuditRecord) { r.Details["a"] = "x" },
		"metadata":  func(r *AuditRecord) { r.Metadata.IPAddress = "x" },
		"evidence":  func(r *AuditRecord) { r.Evidence["timestampSource"] = "x" },
		"sequence":  func(r *AuditRecord) { r.Sequence = 99 },
		"timestamp": func(r *AuditRecord) { r.Timestamp = r.Timestamp.Add(time.Second) },
	}
	for name, mutate := range mutations {
		rec := sampleRecord()
		mutate(&rec)
		h, err := recordHash(rec)
		if err != nil {
			t.Fatalf("%s: hash: %v", name, err)
		}
		if h == base {
			t.Fatalf("mutating %s did not change the hash", name)
		}
	}
}

func TestFoldRootHash(t *testing.T) {
	if got := foldRootHash(nil); got != "" {
		t.Fatalf("empty fold should be empty, got %q", got)
	}
	one := []AuditRecord{{Hash: "aa"}}
	if got := foldRootHash(one); got != "aa" {
		t.Fatalf("single-record fold must equal the record hash, got %q", got)
	}
	two := []AuditRecord{{Hash: "aa"}, {Hash: "bb"}}
	if got := foldRootHash(two); got == "aa" || got == "bb" || len(got) != 64 {
		t.Fatalf("two-record fold should be a fresh sha256 hex, got %q", got)
	}
}
