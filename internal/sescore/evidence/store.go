package evidence

import "sync"

// Store keeps built evidence objects retrievable by signature id, backing
// the verification endpoint and export flows.
type Store interface {
	Put(sig *SignatureEvidence) error
	Get(id string) (*SignatureEvidence, bool)
}

// MemoryStore is a process-local evidence store.
type MemoryStore struct {
	mu   sync.RWMutex
	sigs map[string]*SignatureEvidence
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sigs: make(map[string]*SignatureEvidence)}
}

func (s *MemoryStore) Put(sig *SignatureEvidence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sigs[sig.ID] = sig
	return nil
}

func (s *MemoryStore) Get(id string) (*SignatureEvidence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.sigs[id]
	return sig, ok
}
