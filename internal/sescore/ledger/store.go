package ledger

import (
	"encoding/json"
	"sync"
)

// TrailStore persists audit trails keyed by resource id. The ledger is the
// single writer; implementations only need to make Get/Save individually
// consistent, serialization per resource id is handled by the ledger.
type TrailStore interface {
	// Get returns the trail for resourceID, or ok=false when unknown.
	Get(resourceID string) (*AuditTrail, bool, error)

	// Save writes the trail snapshot for its resource id (insert or replace).
	Save(trail *AuditTrail) error
}

// MemoryStore is a process-local TrailStore for tests, the CLI and
// single-instance deployments. Trails do not survive a restart; production
// deployments use the SQL store.
type MemoryStore struct {
	mu     sync.RWMutex
	trails map[string]*AuditTrail
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{trails: make(map[string]*AuditTrail)}
}

func (s *MemoryStore) Get(resourceID string) (*AuditTrail, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.trails[resourceID]
	if !ok {
		return nil, false, nil
	}
	return cloneTrail(t), true, nil
}

func (s *MemoryStore) Save(trail *AuditTrail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trails[trail.ResourceID] = cloneTrail(trail)
	return nil
}

// cloneTrail deep-copies a trail so callers can never mutate stored history
// in place.
func cloneTrail(t *AuditTrail) *AuditTrail {
	b, err := json.Marshal(t)
	if err != nil {
		// Trails are plain data; marshaling cannot fail for well-formed input.
		panic("ledger: clone trail: " + err.Error())
	}
	var out AuditTrail
	if err := json.Unmarshal(b, &out); err != nil {
		panic("ledger: clone trail: " + err.Error())
	}
	return &out
}
