package ledger

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func testActor() Actor {
	return Actor{ID: "u1", Type: ActorUser, Identifier: "maria@example.com"}
}

func testResource(id string) Resource {
	return Resource{Type: ResourceContract, ID: id, Name: "contrato.html"}
}

func addN(t *testing.T, led *Ledger, resourceID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := led.AddRecord(resourceID, "step", testActor(), testResource(resourceID),
			map[string]string{"n": strings.Repeat("x", i+1)}, RecordMetadata{IPAddress: "10.0.0.1"}, nil); err != nil {
			t.Fatalf("add record %d: %v", i, err)
		}
	}
}

func TestCreateTrail_RecordsSyntheticCreation(t *testing.T) {
	led := New(NewMemoryStore())
	trail, err := led.CreateTrail("c-1", "contrato.html")
	if err != nil {
		t.Fatalf("create trail: %v", err)
	}
	if len(trail.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(trail.Records))
	}
	first := trail.Records[0]
	if first.Action != "trail_created" || first.Sequence != 1 || first.PreviousHash != GenesisHash {
		t.Fatalf("unexpected creation record: %+v", first)
	}
	if trail.RootHash != first.Hash {
		t.Fatalf("root hash of single-record trail must equal record hash")
	}
}

func TestCreateTrail_IdempotentByID(t *testing.T) {
	led := New(NewMemoryStore())
	a, err := led.CreateTrail("c-1", "contrato.html")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := led.CreateTrail("c-1", "otro-nombre.html")
	if err != nil {
		t.Fatalf("recreate: %v", err)
	}
	if len(b.Records) != len(a.Records) || b.Records[0].Hash != a.Records[0].Hash {
		t.Fatalf("second create must return the existing trail unchanged")
	}
}

func TestChain_LinkageAndSequence(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 3)

	res, err := led.VerifyIntegrity("c-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.IsValid || len(res.Issues) != 0 {
		t.Fatalf("expected valid chain, issues=%v", res.Issues)
	}
	for i, rec := range res.Trail.Records {
		if rec.Sequence != i+1 {
			t.Fatalf("record %d: sequence=%d", i, rec.Sequence)
		}
		if i == 0 && rec.PreviousHash != GenesisHash {
			t.Fatalf("first record previousHash=%q", rec.PreviousHash)
		}
		if i > 0 && rec.PreviousHash != res.Trail.Records[i-1].Hash {
			t.Fatalf("record %d: broken linkage", i)
		}
	}
}

func TestTamperDetection_AnyFieldAnyRecord(t *testing.T) {
	led := New(NewMemoryStore())
	store := NewMemoryStore()
	led = New(store)
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 4)

	// Mutate record #3 behind the ledger's back.
	trail, _, _ := store.Get("c-1")
	trail.Records[2].Details = map[string]string{"n": "tampered"}
	if err := store.Save(trail); err != nil {
		t.Fatalf("save tampered: %v", err)
	}

	res, err := led.VerifyIntegrity("c-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.IsValid {
		t.Fatalf("expected tamper detection")
	}
	found := false
	for _, issue := range res.Issues {
		if strings.Contains(issue, "seq=3") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an issue referencing seq=3, got %v", res.Issues)
	}
}

func TestVerify_AccumulatesAllIssues(t *testing.T) {
	store := NewMemoryStore()
	led := New(store)
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 3)

	trail, _, _ := store.Get("c-1")
	trail.Records[1].Action = "rewritten"
	trail.Records[3].Action = "rewritten"
	trail.RootHash = "bogus"
	if err := store.Save(trail); err != nil {
		t.Fatalf("save: %v", err)
	}

	res, err := led.VerifyIntegrity("c-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	// Two hash mismatches plus the root hash mismatch, no short-circuit.
	if len(res.Issues) < 3 {
		t.Fatalf("expected at least 3 accumulated issues, got %v", res.Issues)
	}
}

func TestSeal_AppendsFinalRecordThenFlips(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 3)

	trail, err := led.SealTrail("c-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	// 1 created + 3 explicit + 1 sealed.
	if len(trail.Records) != 5 {
		t.Fatalf("expected 5 records after seal, got %d", len(trail.Records))
	}
	if !trail.IsSealed || trail.SealedAt == nil {
		t.Fatalf("trail not sealed: %+v", trail)
	}
	last := trail.Records[len(trail.Records)-1]
	if last.Action != "trail_sealed" {
		t.Fatalf("last record action=%q", last.Action)
	}
	// The closing statement is self-referential: record count and root hash
	// as they stood before the sealing record itself.
	if last.Details["recordCount"] != "4" {
		t.Fatalf("sealed record count detail=%q", last.Details["recordCount"])
	}
	if last.Details["rootHash"] == "" || last.Details["rootHash"] == trail.RootHash {
		t.Fatalf("sealed rootHash detail should reference the pre-seal root")
	}

	res, err := led.VerifyIntegrity("c-1")
	if err != nil || !res.IsValid {
		t.Fatalf("sealed trail must still verify: err=%v issues=%v", err, res.Issues)
	}
}

func TestSeal_Idempotent(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	a, err := led.SealTrail("c-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	b, err := led.SealTrail("c-1")
	if err != nil {
		t.Fatalf("reseal: %v", err)
	}
	if len(b.Records) != len(a.Records) || b.RootHash != a.RootHash {
		t.Fatalf("resealing must be a no-op")
	}
}

func TestSealedTrail_RejectsAppendsUnchanged(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 2)
	sealed, err := led.SealTrail("c-1")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	_, err = led.AddRecord("c-1", "late", testActor(), testResource("c-1"), nil, RecordMetadata{}, nil)
	var sealedErr *SealedTrailError
	if !errors.As(err, &sealedErr) {
		t.Fatalf("expected SealedTrailError, got %v", err)
	}
	if sealedErr.ResourceID != "c-1" {
		t.Fatalf("error names wrong resource: %q", sealedErr.ResourceID)
	}

	after, verr := led.VerifyIntegrity("c-1")
	if verr != nil {
		t.Fatalf("verify: %v", verr)
	}
	if len(after.Trail.Records) != len(sealed.Records) || after.Trail.RootHash != sealed.RootHash {
		t.Fatalf("failed append must leave the trail untouched")
	}
}

func TestAddRecord_UnknownTrail(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.AddRecord("nope", "a", testActor(), testResource("nope"), nil, RecordMetadata{}, nil); err == nil {
		t.Fatalf("expected error for unknown trail")
	}
}

func TestExportTrail_NilForUnknown(t *testing.T) {
	led := New(NewMemoryStore())
	te, err := led.ExportTrail("nope")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if te != nil {
		t.Fatalf("expected nil export for unknown trail")
	}
}

func TestExportTrail_RecomputesVerification(t *testing.T) {
	store := NewMemoryStore()
	led := New(store)
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}
	addN(t, led, "c-1", 2)

	trail, _, _ := store.Get("c-1")
	trail.Records[1].Action = "tampered"
	if err := store.Save(trail); err != nil {
		t.Fatalf("save: %v", err)
	}

	te, err := led.ExportTrail("c-1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if te.Verification.IsValid {
		t.Fatalf("export must carry a fresh verification, not a cached pass")
	}
	if te.ExportFormat != "json" {
		t.Fatalf("exportFormat=%q", te.ExportFormat)
	}
}

func TestConcurrentAppends_SameResourceStaySequential(t *testing.T) {
	led := New(NewMemoryStore())
	if _, err := led.CreateTrail("c-1", "contrato.html"); err != nil {
		t.Fatalf("create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := led.AddRecord("c-1", "step", testActor(), testResource("c-1"), nil, RecordMetadata{}, nil); err != nil {
				t.Errorf("concurrent add: %v", err)
			}
		}()
	}
	wg.Wait()

	res, err := led.VerifyIntegrity("c-1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("concurrent appends broke the chain: %v", res.Issues)
	}
	if got := len(res.Trail.Records); got != 21 {
		t.Fatalf("expected 21 records, got %d", got)
	}
}

func TestConcurrentTrails_Independent(t *testing.T) {
	led := New(NewMemoryStore())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n))
			if _, err := led.CreateTrail(id, "doc"); err != nil {
				t.Errorf("create %s: %v", id, err)
				return
			}
			for j := 0; j < 5; j++ {
				if _, err := led.AddRecord(id, "step", testActor(), testResource(id), nil, RecordMetadata{}, nil); err != nil {
					t.Errorf("add %s: %v", id, err)
				}
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 8; i++ {
		id := string(rune('a' + i))
		res, err := led.VerifyIntegrity(id)
		if err != nil || !res.IsValid {
			t.Fatalf("trail %s: err=%v issues=%v", id, err, res.Issues)
		}
	}
}
