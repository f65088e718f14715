package ledger

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/firmaleg/sescore/internal/sescore/logger"
)

// Ledger owns and mutates audit trails for the lifetime of a signing
// process. All operations against one resource id are serialized through a
// per-resource lock; different resource ids proceed independently.
type Ledger struct {
	store TrailStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a ledger over the given store.
func New(store TrailStore) *Ledger {
	return &Ledger{store: store, locks: make(map[string]*sync.Mutex)}
}

func (l *Ledger) lockFor(resourceID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[resourceID]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[resourceID] = lk
	}
	return lk
}

// CreateTrail creates the trail for resourceID, recording a synthetic
// "trail_created" entry as record #1. Creation is idempotent by id: an
// existing trail is returned unchanged.
func (l *Ledger) CreateTrail(resourceID, resourceName string) (*AuditTrail, error) {
	lk := l.lockFor(resourceID)
	lk.Lock()
	defer lk.Unlock()

	if existing, ok, err := l.store.Get(resourceID); err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	} else if ok {
		return existing, nil
	}

	now := time.Now().UTC()
	trail := &AuditTrail{
		ResourceID:   resourceID,
		ResourceName: resourceName,
		Records:      []AuditRecord{},
		CreatedAt:    now,
		LastModified: now,
	}

	if err := l.appendLocked(trail, "trail_created",
		Actor{ID: "system", Type: ActorSystem, Identifier: "ledger"},
		Resource{Type: ResourceContract, ID: resourceID, Name: resourceName},
		map[string]string{"resourceName": resourceName},
		RecordMetadata{}, nil,
	); err != nil {
		return nil, err
	}

	if err := l.store.Save(trail); err != nil {
		return nil, fmt.Errorf("save trail: %w", err)
	}
	logger.L().Infow("trail created", "resource_id", resourceID)
	return cloneTrail(trail), nil
}

// AddRecord appends one hash-chained record to the trail for resourceID.
// Fails with *SealedTrailError if the trail is sealed, and with a plain
// error if the trail does not exist.
func (l *Ledger) AddRecord(resourceID, action string, actor Actor, resource Resource, details map[string]string, metadata RecordMetadata, evidence map[string]string) (*AuditRecord, error) {
	lk := l.lockFor(resourceID)
	lk.Lock()
	defer lk.Unlock()

	trail, ok, err := l.store.Get(resourceID)
	if err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("unknown audit trail for resource %q", resourceID)
	}
	if trail.IsSealed {
		return nil, &SealedTrailError{ResourceID: resourceID}
	}

	if err := l.appendLocked(trail, action, actor, resource, details, metadata, evidence); err != nil {
		return nil, err
	}
	if err := l.store.Save(trail); err != nil {
		return nil, fmt.Errorf("save trail: %w", err)
	}

	rec := trail.Records[len(trail.Records)-1]
	logger.L().Debugw("record appended",
		"resource_id", resourceID, "action", action, "sequence", rec.Sequence)
	return &rec, nil
}

// appendLocked builds, hashes and appends a record. The caller holds the
// per-resource lock and has already rejected sealed trails.
func (l *Ledger) appendLocked(trail *AuditTrail, action string, actor Actor, resource Resource, details map[string]string, metadata RecordMetadata, evidence map[string]string) error {
	prev := GenesisHash
	seq := 1
	if n := len(trail.Records); n > 0 {
		prev = trail.Records[n-1].Hash
		seq = trail.Records[n-1].Sequence + 1
	}

	rec := AuditRecord{
		ID:           uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Action:       action,
		Actor:        actor,
		Resource:     resource,
		Details:      details,
		Metadata:     metadata,
		Evidence:     evidence,
		PreviousHash: prev,
		Sequence:     seq,
	}

	h, err := recordHash(rec)
	if err != nil {
		// Hashing a well-formed record never fails; treat as a structural bug.
		return fmt.Errorf("hash record seq=%d: %w", seq, err)
	}
	rec.Hash = h

	trail.Records = append(trail.Records, rec)
	trail.RootHash = foldRootHash(trail.Records)
	trail.LastModified = rec.Timestamp
	return nil
}

// SealTrail permanently closes the trail for resourceID. The sealing event
// is itself chained into the trail before the flag flips, so its hash is
// part of the permanent record. Sealing an already-sealed trail is a no-op.
func (l *Ledger) SealTrail(resourceID string) (*AuditTrail, error) {
	lk := l.lockFor(resourceID)
	lk.Lock()
	defer lk.Unlock()

	trail, ok, err := l.store.Get(resourceID)
	if err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("unknown audit trail for resource %q", resourceID)
	}
	if trail.IsSealed {
		return trail, nil
	}

	// The closing statement references the trail's own state at seal time.
	details := map[string]string{
		"recordCount": strconv.Itoa(len(trail.Records)),
		"rootHash":    trail.RootHash,
	}
	if err := l.appendLocked(trail, "trail_sealed",
		Actor{ID: "system", Type: ActorSystem, Identifier: "ledger"},
		Resource{Type: ResourceContract, ID: resourceID, Name: trail.ResourceName},
		details, RecordMetadata{}, nil,
	); err != nil {
		return nil, err
	}

	sealedAt := trail.Records[len(trail.Records)-1].Timestamp
	trail.IsSealed = true
	trail.SealedAt = &sealedAt

	if err := l.store.Save(trail); err != nil {
		return nil, fmt.Errorf("save trail: %w", err)
	}
	logger.L().Infow("trail sealed",
		"resource_id", resourceID, "records", len(trail.Records), "root_hash", trail.RootHash)
	return cloneTrail(trail), nil
}

// VerifyIntegrity recomputes every record hash, checks chain linkage and the
// root hash, and (for sealed trails) confirms no record postdates the seal.
// Every discrepancy is accumulated so the caller sees the full picture.
func (l *Ledger) VerifyIntegrity(resourceID string) (IntegrityResult, error) {
	trail, ok, err := l.store.Get(resourceID)
	if err != nil {
		return IntegrityResult{}, fmt.Errorf("load trail: %w", err)
	}
	if !ok {
		return IntegrityResult{}, fmt.Errorf("unknown audit trail for resource %q", resourceID)
	}
	return VerifyTrail(trail), nil
}

// VerifyTrail checks an in-hand trail snapshot. Exported separately so trail
// exports can be re-verified offline without a ledger.
func VerifyTrail(trail *AuditTrail) IntegrityResult {
	res := IntegrityResult{IsValid: true, Issues: []string{}, Trail: trail}

	prev := GenesisHash
	lastSeq := 0
	for _, rec := range trail.Records {
		if rec.Sequence != lastSeq+1 {
			res.Issues = append(res.Issues,
				fmt.Sprintf("record seq=%d: expected sequence %d", rec.Sequence, lastSeq+1))
		}
		lastSeq = rec.Sequence

		if rec.PreviousHash != prev {
			res.Issues = append(res.Issues,
				fmt.Sprintf("record seq=%d: previousHash mismatch (want %s, got %s)", rec.Sequence, prev, rec.PreviousHash))
		}

		want, err := recordHash(rec)
		if err != nil {
			res.Issues = append(res.Issues,
				fmt.Sprintf("record seq=%d: cannot recompute hash: %v", rec.Sequence, err))
		} else if want != rec.Hash {
			res.Issues = append(res.Issues,
				fmt.Sprintf("record seq=%d: hash mismatch", rec.Sequence))
		}

		if trail.IsSealed && trail.SealedAt != nil && rec.Timestamp.After(*trail.SealedAt) {
			res.Issues = append(res.Issues,
				fmt.Sprintf("record seq=%d: timestamp postdates seal", rec.Sequence))
		}

		prev = rec.Hash
	}

	if root := foldRootHash(trail.Records); root != trail.RootHash {
		res.Issues = append(res.Issues,
			fmt.Sprintf("rootHash mismatch (want %s, got %s)", root, trail.RootHash))
	}

	res.IsValid = len(res.Issues) == 0
	return res
}

// ExportTrail bundles a trail snapshot with a freshly computed verification.
// Verification is always recomputed at export time, never cached. Returns
// nil (no error) when the trail is unknown.
func (l *Ledger) ExportTrail(resourceID string) (*TrailExport, error) {
	trail, ok, err := l.store.Get(resourceID)
	if err != nil {
		return nil, fmt.Errorf("load trail: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &TrailExport{
		Trail:        trail,
		Verification: VerifyTrail(trail),
		ExportFormat: "json",
		ExportedAt:   time.Now().UTC(),
	}, nil
}
